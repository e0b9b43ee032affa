package inbound

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-crm/core"
	"github.com/goliatone/go-crm/webhooks"
	goerrors "github.com/goliatone/go-errors"
)

type ledgerEntry struct {
	record  webhooks.DeliveryRecord
	payload []byte
	leaseAt time.Time
}

// InMemoryDeliveryLedger is a process-local webhooks.DeliveryLedger. It backs
// development setups and tests; production wiring uses the SQL delivery store.
type InMemoryDeliveryLedger struct {
	mu      sync.Mutex
	entries map[string]ledgerEntry
	claims  map[string]string
	nextID  int
	Now     func() time.Time
}

func NewInMemoryDeliveryLedger() *InMemoryDeliveryLedger {
	return &InMemoryDeliveryLedger{
		entries: map[string]ledgerEntry{},
		claims:  map[string]string{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

var (
	_ webhooks.DeliveryLedger = (*InMemoryDeliveryLedger)(nil)
	_ WebhookProcessor        = (*webhooks.Processor)(nil)
)

func (l *InMemoryDeliveryLedger) Claim(
	_ context.Context,
	endpointID string,
	deliveryID string,
	payload []byte,
	lease time.Duration,
) (webhooks.DeliveryRecord, bool, error) {
	if l == nil {
		return webhooks.DeliveryRecord{}, false, inboundInternal("inbound: delivery ledger is nil", nil)
	}
	endpointID = strings.TrimSpace(endpointID)
	deliveryID = strings.TrimSpace(deliveryID)
	if endpointID == "" || deliveryID == "" {
		return webhooks.DeliveryRecord{}, false, inboundBadInput("inbound: endpoint id and delivery id are required", nil)
	}
	now := l.now()
	if lease <= 0 {
		lease = 30 * time.Second
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	key := endpointID + "/" + deliveryID
	entry, exists := l.entries[key]
	if !exists {
		claimID := l.nextClaimID()
		record := webhooks.DeliveryRecord{
			ID:         key,
			ClaimID:    claimID,
			EndpointID: endpointID,
			DeliveryID: deliveryID,
			Status:     webhooks.DeliveryStatusProcessing,
			Attempts:   1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		l.entries[key] = ledgerEntry{record: record, payload: payload, leaseAt: now.Add(lease)}
		l.claims[claimID] = key
		return record, true, nil
	}

	switch entry.record.Status {
	case webhooks.DeliveryStatusProcessed, webhooks.DeliveryStatusDead:
		return entry.record, false, nil
	case webhooks.DeliveryStatusProcessing:
		if now.Before(entry.leaseAt) {
			return entry.record, false, nil
		}
	case webhooks.DeliveryStatusRetryReady:
		if entry.record.NextAttemptAt != nil && now.Before(*entry.record.NextAttemptAt) {
			return entry.record, false, nil
		}
	}

	if entry.record.ClaimID != "" {
		delete(l.claims, entry.record.ClaimID)
	}
	claimID := l.nextClaimID()
	entry.record.ClaimID = claimID
	entry.record.Status = webhooks.DeliveryStatusProcessing
	entry.record.Attempts++
	entry.record.NextAttemptAt = nil
	entry.record.UpdatedAt = now
	entry.leaseAt = now.Add(lease)
	l.entries[key] = entry
	l.claims[claimID] = key
	return entry.record, true, nil
}

func (l *InMemoryDeliveryLedger) Get(_ context.Context, endpointID string, deliveryID string) (webhooks.DeliveryRecord, error) {
	if l == nil {
		return webhooks.DeliveryRecord{}, inboundInternal("inbound: delivery ledger is nil", nil)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, exists := l.entries[strings.TrimSpace(endpointID)+"/"+strings.TrimSpace(deliveryID)]
	if !exists {
		return webhooks.DeliveryRecord{}, inboundError(
			fmt.Sprintf("inbound: delivery %s not found for endpoint %s", deliveryID, endpointID),
			goerrors.CategoryNotFound,
			http.StatusNotFound,
			core.CRMErrorNotFound,
			map[string]any{"endpoint_id": endpointID, "delivery_id": deliveryID},
		)
	}
	return entry.record, nil
}

func (l *InMemoryDeliveryLedger) Complete(_ context.Context, claimID string) error {
	if l == nil {
		return inboundInternal("inbound: delivery ledger is nil", nil)
	}
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return inboundBadInput("inbound: claim id is required", nil)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	key, ok := l.claims[claimID]
	if !ok {
		return nil
	}
	entry, exists := l.entries[key]
	if !exists || entry.record.ClaimID != claimID || entry.record.Status != webhooks.DeliveryStatusProcessing {
		delete(l.claims, claimID)
		return nil
	}
	entry.record.Status = webhooks.DeliveryStatusProcessed
	entry.record.NextAttemptAt = nil
	entry.record.UpdatedAt = l.now()
	l.entries[key] = entry
	delete(l.claims, claimID)
	return nil
}

func (l *InMemoryDeliveryLedger) Fail(
	_ context.Context,
	claimID string,
	_ error,
	nextAttemptAt time.Time,
	maxAttempts int,
) error {
	if l == nil {
		return inboundInternal("inbound: delivery ledger is nil", nil)
	}
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return inboundBadInput("inbound: claim id is required", nil)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	key, ok := l.claims[claimID]
	if !ok {
		return nil
	}
	entry, exists := l.entries[key]
	if !exists || entry.record.ClaimID != claimID || entry.record.Status != webhooks.DeliveryStatusProcessing {
		delete(l.claims, claimID)
		return nil
	}
	now := l.now()
	if maxAttempts > 0 && entry.record.Attempts >= maxAttempts {
		entry.record.Status = webhooks.DeliveryStatusDead
		entry.record.NextAttemptAt = nil
	} else {
		if nextAttemptAt.IsZero() {
			nextAttemptAt = now
		}
		retryAt := nextAttemptAt.UTC()
		entry.record.Status = webhooks.DeliveryStatusRetryReady
		entry.record.NextAttemptAt = &retryAt
	}
	entry.record.UpdatedAt = now
	l.entries[key] = entry
	delete(l.claims, claimID)
	return nil
}

func (l *InMemoryDeliveryLedger) now() time.Time {
	if l != nil && l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l *InMemoryDeliveryLedger) nextClaimID() string {
	l.nextID++
	return fmt.Sprintf("claim_%d", l.nextID)
}
