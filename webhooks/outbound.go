package webhooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-crm/core"
)

// OutboundNotifier pushes lead.created events to a workspace-configured URL.
// Payloads are signed the same way custom inbound endpoints are verified, so
// receivers can share the verification code. Deliveries carry a deterministic
// idempotency key and retry transient failures a bounded number of times.
type OutboundNotifier struct {
	Transport   core.TransportAdapter
	URL         string
	Secret      string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	Now         func() time.Time
}

type outboundEvent struct {
	Event       string      `json:"event"`
	WorkspaceID string      `json:"workspace_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Leads       []core.Lead `json:"leads"`
}

func (n *OutboundNotifier) NotifyLeadCreated(ctx context.Context, workspaceID string, leads []core.Lead) error {
	if n == nil || n.Transport == nil {
		return nil
	}
	url := strings.TrimSpace(n.URL)
	if url == "" {
		return nil
	}
	if len(leads) == 0 {
		return nil
	}

	occurredAt := n.now()
	body, err := json.Marshal(outboundEvent{
		Event:       "lead.created",
		WorkspaceID: workspaceID,
		OccurredAt:  occurredAt,
		Leads:       leads,
	})
	if err != nil {
		return fmt.Errorf("webhooks: encode outbound event: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if secret := strings.TrimSpace(n.Secret); secret != "" {
		headers["X-Webhook-Signature"] = SignBody(secret, body)
	}

	request := core.TransportRequest{
		Method:      http.MethodPost,
		URL:         url,
		Headers:     headers,
		Body:        body,
		Timeout:     n.Timeout,
		Idempotency: eventIdempotencyKey("lead.created", workspaceID, occurredAt, leads),
	}

	maxAttempts := n.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	delay := n.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhooks: deliver outbound event: %w", ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		resp, doErr := n.Transport.Do(ctx, request)
		if doErr != nil {
			lastErr = fmt.Errorf("webhooks: deliver outbound event: %w", doErr)
			continue
		}
		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			return nil
		}
		lastErr = fmt.Errorf("webhooks: outbound receiver returned status %d", resp.StatusCode)
		if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
			// The receiver rejected the payload; retrying the same body
			// cannot succeed.
			return lastErr
		}
	}
	return lastErr
}

// eventIdempotencyKey is stable across retries of the same event so receivers
// honoring Idempotency-Key deduplicate redelivered notifications.
func eventIdempotencyKey(event string, workspaceID string, occurredAt time.Time, leads []core.Lead) string {
	hash := sha256.New()
	hash.Write([]byte(event))
	hash.Write([]byte{0})
	hash.Write([]byte(workspaceID))
	hash.Write([]byte{0})
	hash.Write([]byte(occurredAt.UTC().Format(time.RFC3339Nano)))
	for _, lead := range leads {
		hash.Write([]byte{0})
		hash.Write([]byte(lead.ID))
	}
	return event + ":" + hex.EncodeToString(hash.Sum(nil))[:32]
}

func (n *OutboundNotifier) now() time.Time {
	if n != nil && n.Now != nil {
		return n.Now().UTC()
	}
	return time.Now().UTC()
}
