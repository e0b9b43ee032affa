package webhooks

import (
	"context"
	"fmt"

	"github.com/goliatone/go-crm/core"
)

// RetrySource surfaces retry-ready deliveries and their stored payloads. The
// SQL delivery store implements it.
type RetrySource interface {
	ListRetryReady(ctx context.Context, limit int) ([]DeliveryRecord, error)
	Payload(ctx context.Context, endpointID string, deliveryID string) ([]byte, error)
}

// EndpointSource resolves endpoints by internal id, which is all a ledger
// record carries.
type EndpointSource interface {
	GetByID(ctx context.Context, id string) (core.WebhookEndpoint, error)
}

type RedeliveryReport struct {
	Drained   int
	Succeeded int
	Failed    int
	Skipped   int
}

// Redeliverer drains retry-ready deliveries and replays their payloads
// through the processor. The background redelivery job runs it on a schedule.
type Redeliverer struct {
	Source    RetrySource
	Endpoints EndpointSource
	Processor *Processor
	BatchSize int
	Logger    core.Logger
}

func (r *Redeliverer) Run(ctx context.Context) (RedeliveryReport, error) {
	if r == nil || r.Source == nil || r.Endpoints == nil || r.Processor == nil {
		return RedeliveryReport{}, fmt.Errorf("webhooks: redeliverer requires source, endpoints and processor")
	}
	batch := r.BatchSize
	if batch <= 0 {
		batch = 50
	}

	records, err := r.Source.ListRetryReady(ctx, batch)
	if err != nil {
		return RedeliveryReport{}, err
	}

	report := RedeliveryReport{Drained: len(records)}
	for _, record := range records {
		endpoint, err := r.Endpoints.GetByID(ctx, record.EndpointID)
		if err != nil {
			report.Skipped++
			r.logError(ctx, "redelivery endpoint lookup failed", record, err)
			continue
		}
		if endpoint.Status != core.EndpointStatusActive {
			report.Skipped++
			continue
		}
		payload, err := r.Source.Payload(ctx, record.EndpointID, record.DeliveryID)
		if err != nil {
			report.Skipped++
			r.logError(ctx, "redelivery payload load failed", record, err)
			continue
		}
		if err := r.Processor.Redeliver(ctx, endpoint, record.DeliveryID, payload); err != nil {
			report.Failed++
			r.logError(ctx, "redelivery attempt failed", record, err)
			continue
		}
		report.Succeeded++
	}
	return report, nil
}

func (r *Redeliverer) logError(ctx context.Context, message string, record DeliveryRecord, err error) {
	if r == nil || r.Logger == nil {
		return
	}
	logger := r.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	logger.Error(message,
		"endpoint_id", record.EndpointID,
		"delivery_id", record.DeliveryID,
		"error", err.Error(),
	)
}

// Redeliver replays a stored payload for an already-verified delivery. The
// signature check and rate limit only apply to first receipt; redelivery goes
// straight to claim, normalize and ingest.
func (p *Processor) Redeliver(
	ctx context.Context,
	endpoint core.WebhookEndpoint,
	deliveryID string,
	payload []byte,
) error {
	if p == nil || p.Ledger == nil || p.Ingestor == nil || p.Normalizer == nil {
		return fmt.Errorf("webhooks: processor requires ledger, ingestor and normalizer")
	}
	if endpoint.Status != core.EndpointStatusActive {
		return fmt.Errorf("webhooks: endpoint %s is not active", endpoint.PublicID)
	}

	delivery, claimed, err := p.Ledger.Claim(ctx, endpoint.ID, deliveryID, payload, p.claimLease())
	if err != nil {
		return err
	}
	if !claimed {
		// Another worker holds the claim or the delivery already finished.
		return nil
	}

	req := core.InboundRequest{
		EndpointPublicID: endpoint.PublicID,
		Provider:         endpoint.Provider,
		Body:             payload,
	}
	leads, err := p.Normalizer.Normalize(ctx, req, endpoint.FieldRules)
	if err != nil {
		p.reject(ctx, endpoint, delivery, err.Error())
		return err
	}

	now := p.now()
	_, err = p.Ingestor.Ingest(ctx, core.IngestRecord{
		WorkspaceID:  endpoint.WorkspaceID,
		EndpointID:   endpoint.ID,
		Leads:        leads,
		MergeByEmail: p.MergeByEmail,
		Reattempt:    delivery.Attempts > 1,
		Audit: core.AuditEntry{
			WorkspaceID: endpoint.WorkspaceID,
			Actor:       endpoint.PublicID,
			ActorType:   core.ActorTypeWebhook,
			Action:      "lead.redelivered",
			ObjectType:  "endpoint",
			ObjectID:    endpoint.ID,
			Status:      core.AuditStatusOK,
			Metadata: map[string]any{
				"provider":    string(endpoint.Provider),
				"delivery_id": deliveryID,
				"attempt":     delivery.Attempts,
				"lead_count":  len(leads),
			},
			CreatedAt: now,
		},
	})
	if err != nil {
		nextAttemptAt := p.now().Add(p.retryPolicy().NextDelay(delivery.Attempts))
		_ = p.Ledger.Fail(ctx, delivery.ClaimID, err, nextAttemptAt, p.maxAttempts())
		p.bumpStats(ctx, endpoint, core.StatsDelta{Failed: 1})
		return err
	}

	// The ingestor bumps accepted inside its transaction; the delivery was
	// already counted as received at first receipt.
	return p.Ledger.Complete(ctx, delivery.ClaimID)
}
