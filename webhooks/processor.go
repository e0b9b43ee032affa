package webhooks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-crm/core"
)

const (
	DeliveryStatusPending    = "pending"
	DeliveryStatusProcessing = "processing"
	DeliveryStatusProcessed  = "processed"
	DeliveryStatusRetryReady = "retry_ready"
	DeliveryStatusDead       = "dead"
)

type DeliveryRecord struct {
	ID            string
	ClaimID       string
	EndpointID    string
	DeliveryID    string
	Status        string
	Attempts      int
	NextAttemptAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DeliveryLedger claims deliveries by (endpoint, delivery id). A claim only
// succeeds once per delivery; replays surface as claimed=false.
type DeliveryLedger interface {
	Claim(
		ctx context.Context,
		endpointID string,
		deliveryID string,
		payload []byte,
		lease time.Duration,
	) (DeliveryRecord, bool, error)
	Get(ctx context.Context, endpointID string, deliveryID string) (DeliveryRecord, error)
	Complete(ctx context.Context, claimID string) error
	Fail(ctx context.Context, claimID string, cause error, nextAttemptAt time.Time, maxAttempts int) error
}

type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

type DeliveryIDExtractor func(req core.InboundRequest) (string, error)

type RetryPolicy interface {
	NextDelay(attempt int) time.Duration
}

type ExponentialRetryPolicy struct {
	Initial time.Duration
	Max     time.Duration
}

func (p ExponentialRetryPolicy) NextDelay(attempt int) time.Duration {
	initial := p.Initial
	if initial <= 0 {
		initial = time.Second
	}
	maximum := p.Max
	if maximum <= 0 {
		maximum = 30 * time.Second
	}
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maximum {
			return maximum
		}
	}
	if delay > maximum {
		return maximum
	}
	return delay
}

// SecretSource resolves an endpoint's plaintext signing secret. The core
// service implements it over the secret cipher.
type SecretSource interface {
	EndpointSecret(ctx context.Context, endpoint core.WebhookEndpoint) (string, error)
}

// VerifierFactory builds the request verifier for an endpoint. The default
// uses TemplateFor with the endpoint's provider and decrypted secret.
type VerifierFactory func(endpoint core.WebhookEndpoint, secret string) (Verifier, DeliveryIDExtractor, error)

// Processor runs the ingestion pipeline for one resolved endpoint: verify,
// claim, throttle, quota, normalize, and persist lead + stats + audit in one
// transaction through the ingestor.
type Processor struct {
	Secrets      SecretSource
	Normalizer   *core.Normalizer
	Ledger       DeliveryLedger
	Ingestor     core.LeadIngestor
	Stats        core.StatsWriter
	RateLimit    core.RateLimitPolicy
	Quota        core.QuotaEvaluator
	Notifier     *OutboundNotifier
	RetryPolicy  RetryPolicy
	Factory      VerifierFactory
	Logger       core.Logger
	MergeByEmail bool
	ClaimLease   time.Duration
	MaxAttempts  int
	Now          func() time.Time
}

func NewProcessor(
	secrets SecretSource,
	normalizer *core.Normalizer,
	ledger DeliveryLedger,
	ingestor core.LeadIngestor,
) *Processor {
	return &Processor{
		Secrets:      secrets,
		Normalizer:   normalizer,
		Ledger:       ledger,
		Ingestor:     ingestor,
		RetryPolicy:  ExponentialRetryPolicy{},
		Factory:      DefaultVerifierFactory,
		MergeByEmail: true,
		ClaimLease:   30 * time.Second,
		MaxAttempts:  8,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func DefaultVerifierFactory(endpoint core.WebhookEndpoint, secret string) (Verifier, DeliveryIDExtractor, error) {
	template, err := TemplateFor(endpoint.Provider, secret)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(secret) == "" {
		return NoopVerifier{}, template.Extractor, nil
	}
	return template.Verifier, template.Extractor, nil
}

func (p *Processor) Process(
	ctx context.Context,
	endpoint core.WebhookEndpoint,
	req core.InboundRequest,
) (core.InboundResult, error) {
	if p == nil || p.Ledger == nil || p.Ingestor == nil || p.Normalizer == nil {
		return core.InboundResult{}, fmt.Errorf("webhooks: processor requires ledger, ingestor and normalizer")
	}

	switch endpoint.Status {
	case core.EndpointStatusActive:
	case core.EndpointStatusPaused:
		// Paused endpoints acknowledge and drop so providers do not retry.
		return core.InboundResult{
			Accepted:   true,
			StatusCode: http.StatusAccepted,
			Metadata:   map[string]any{"endpoint_id": endpoint.ID, "dropped": true},
		}, nil
	default:
		return core.InboundResult{}, fmt.Errorf("webhooks: endpoint %s is disabled", endpoint.PublicID)
	}
	req.Provider = endpoint.Provider

	secret := ""
	if p.Secrets != nil {
		resolved, err := p.Secrets.EndpointSecret(ctx, endpoint)
		if err != nil {
			return core.InboundResult{}, err
		}
		secret = resolved
	}
	factory := p.Factory
	if factory == nil {
		factory = DefaultVerifierFactory
	}
	verifier, extractor, err := factory(endpoint, secret)
	if err != nil {
		return core.InboundResult{}, err
	}

	if err := verifier.Verify(ctx, req); err != nil {
		return core.InboundResult{
			Accepted:   false,
			StatusCode: http.StatusUnauthorized,
			Metadata:   map[string]any{"endpoint_id": endpoint.ID, "rejected": true},
		}, err
	}

	deliveryID, err := extractor(req)
	if err != nil {
		return core.InboundResult{}, err
	}

	delivery, claimed, err := p.Ledger.Claim(ctx, endpoint.ID, deliveryID, req.Body, p.claimLease())
	if err != nil {
		return core.InboundResult{}, err
	}
	if !claimed {
		return core.InboundResult{
			Accepted:   true,
			StatusCode: http.StatusOK,
			Metadata: map[string]any{
				"endpoint_id": endpoint.ID,
				"delivery_id": delivery.DeliveryID,
				"status":      delivery.Status,
				"deduped":     true,
			},
		}, nil
	}

	if p.RateLimit != nil {
		if limitErr := p.RateLimit.Allow(ctx, core.RateLimitKey{
			WorkspaceID: endpoint.WorkspaceID,
			EndpointID:  endpoint.ID,
			BucketKey:   "ingest",
		}); limitErr != nil {
			nextAttemptAt := p.now().Add(p.retryPolicy().NextDelay(delivery.Attempts))
			_ = p.Ledger.Fail(ctx, delivery.ClaimID, limitErr, nextAttemptAt, p.maxAttempts())
			return core.InboundResult{
				Accepted:   false,
				StatusCode: http.StatusTooManyRequests,
				Metadata:   map[string]any{"endpoint_id": endpoint.ID, "throttled": true},
			}, limitErr
		}
	}

	if p.Quota != nil {
		decision, quotaErr := p.Quota.EvaluateLeadQuota(ctx, endpoint.WorkspaceID)
		if quotaErr != nil {
			return core.InboundResult{}, quotaErr
		}
		if !decision.Allowed {
			// Quota windows reset monthly; retrying the delivery is pointless.
			p.reject(ctx, endpoint, delivery, "quota exceeded")
			return core.InboundResult{
				Accepted:   false,
				StatusCode: http.StatusTooManyRequests,
				Metadata: map[string]any{
					"endpoint_id":    endpoint.ID,
					"quota_exceeded": true,
					"limit":          decision.Limit,
					"used":           decision.Used,
				},
			}, nil
		}
	}

	leads, err := p.Normalizer.Normalize(ctx, req, endpoint.FieldRules)
	if err != nil {
		// Malformed payloads never become valid on retry.
		p.reject(ctx, endpoint, delivery, err.Error())
		return core.InboundResult{
			Accepted:   false,
			StatusCode: http.StatusBadRequest,
			Metadata:   map[string]any{"endpoint_id": endpoint.ID, "rejected": true},
		}, err
	}

	now := p.now()
	result, err := p.Ingestor.Ingest(ctx, core.IngestRecord{
		WorkspaceID:  endpoint.WorkspaceID,
		EndpointID:   endpoint.ID,
		Leads:        leads,
		MergeByEmail: p.MergeByEmail,
		Reattempt:    delivery.Attempts > 1,
		Audit: core.AuditEntry{
			WorkspaceID: endpoint.WorkspaceID,
			Actor:       endpoint.PublicID,
			ActorType:   core.ActorTypeWebhook,
			Action:      "lead.ingested",
			ObjectType:  "endpoint",
			ObjectID:    endpoint.ID,
			Status:      core.AuditStatusOK,
			Metadata: map[string]any{
				"provider":    string(endpoint.Provider),
				"delivery_id": deliveryID,
				"lead_count":  len(leads),
			},
			CreatedAt: now,
		},
	})
	if err != nil {
		nextAttemptAt := p.now().Add(p.retryPolicy().NextDelay(delivery.Attempts))
		_ = p.Ledger.Fail(ctx, delivery.ClaimID, err, nextAttemptAt, p.maxAttempts())
		delta := core.StatsDelta{Failed: 1, ReceivedAt: &now}
		if delivery.Attempts <= 1 {
			delta.Received = 1
		}
		p.bumpStats(ctx, endpoint, delta)
		return core.InboundResult{}, err
	}

	if err := p.Ledger.Complete(ctx, delivery.ClaimID); err != nil {
		return core.InboundResult{}, err
	}

	leadIDs := make([]string, 0, len(result.Created)+len(result.Updated))
	for _, lead := range result.Created {
		leadIDs = append(leadIDs, lead.ID)
	}
	for _, lead := range result.Updated {
		leadIDs = append(leadIDs, lead.ID)
	}

	if p.Notifier != nil && len(result.Created) > 0 {
		if notifyErr := p.Notifier.NotifyLeadCreated(ctx, endpoint.WorkspaceID, result.Created); notifyErr != nil {
			p.logError(ctx, "outbound lead.created notification failed", map[string]any{
				"endpoint_id": endpoint.ID,
				"error":       notifyErr.Error(),
			})
		}
	}

	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		LeadIDs:    leadIDs,
		Metadata: map[string]any{
			"endpoint_id": endpoint.ID,
			"delivery_id": deliveryID,
			"created":     len(result.Created),
			"updated":     len(result.Updated),
		},
	}, nil
}

// reject finalizes a claimed delivery that must not be retried and counts it
// against the endpoint's rejected stats.
func (p *Processor) reject(ctx context.Context, endpoint core.WebhookEndpoint, delivery DeliveryRecord, reason string) {
	if err := p.Ledger.Complete(ctx, delivery.ClaimID); err != nil {
		p.logError(ctx, "delivery completion failed", map[string]any{
			"endpoint_id": endpoint.ID,
			"claim_id":    delivery.ClaimID,
			"error":       err.Error(),
		})
	}
	now := p.now()
	delta := core.StatsDelta{Rejected: 1, ReceivedAt: &now}
	if delivery.Attempts <= 1 {
		delta.Received = 1
	}
	p.bumpStats(ctx, endpoint, delta)
	p.logError(ctx, "delivery rejected", map[string]any{
		"endpoint_id": endpoint.ID,
		"delivery_id": delivery.DeliveryID,
		"reason":      reason,
	})
}

func (p *Processor) bumpStats(ctx context.Context, endpoint core.WebhookEndpoint, delta core.StatsDelta) {
	if p.Stats == nil {
		return
	}
	if err := p.Stats.Bump(ctx, endpoint.WorkspaceID, endpoint.ID, delta); err != nil {
		p.logError(ctx, "stats bump failed", map[string]any{
			"endpoint_id": endpoint.ID,
			"error":       err.Error(),
		})
	}
}

func (p *Processor) logError(ctx context.Context, message string, fields map[string]any) {
	if p == nil || p.Logger == nil {
		return
	}
	logger := p.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := make([]any, 0, len(fields)*2)
	for key, value := range fields {
		args = append(args, key, value)
	}
	logger.Error(message, args...)
}

func (p *Processor) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *Processor) retryPolicy() RetryPolicy {
	if p != nil && p.RetryPolicy != nil {
		return p.RetryPolicy
	}
	return ExponentialRetryPolicy{}
}

func (p *Processor) claimLease() time.Duration {
	if p != nil && p.ClaimLease > 0 {
		return p.ClaimLease
	}
	return 30 * time.Second
}

func (p *Processor) maxAttempts() int {
	if p != nil && p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return 8
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
