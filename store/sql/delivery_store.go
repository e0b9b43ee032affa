package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-crm/webhooks"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DeliveryStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewDeliveryStore(db *bun.DB) (*DeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &DeliveryStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Claim inserts a delivery row keyed by (endpoint, delivery). The unique
// constraint makes the insert the arbiter: whoever lands it owns the claim,
// replays read the existing row. Retry-ready rows past their schedule and
// processing rows whose lease expired can be reclaimed.
func (s *DeliveryStore) Claim(
	ctx context.Context,
	endpointID string,
	deliveryID string,
	payload []byte,
	lease time.Duration,
) (webhooks.DeliveryRecord, bool, error) {
	if s == nil || s.db == nil {
		return webhooks.DeliveryRecord{}, false, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	endpointID = strings.TrimSpace(endpointID)
	deliveryID = strings.TrimSpace(deliveryID)
	if endpointID == "" || deliveryID == "" {
		return webhooks.DeliveryRecord{}, false, fmt.Errorf("sqlstore: endpoint id and delivery id are required")
	}
	if lease <= 0 {
		lease = 30 * time.Second
	}
	now := s.now()
	leaseUntil := now.Add(lease)

	record := &deliveryRecord{
		ID:         uuid.NewString(),
		ClaimID:    uuid.NewString(),
		EndpointID: endpointID,
		DeliveryID: deliveryID,
		Status:     webhooks.DeliveryStatusProcessing,
		Attempts:   1,
		LeaseUntil: &leaseUntil,
		Payload:    append([]byte(nil), payload...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if !isUniqueViolation(err) {
			return webhooks.DeliveryRecord{}, false, err
		}
		existing, getErr := s.getRecord(ctx, endpointID, deliveryID)
		if getErr != nil {
			return webhooks.DeliveryRecord{}, false, getErr
		}
		if claimable(existing, now) {
			return s.reclaim(ctx, existing, leaseUntil, now)
		}
		return deliveryToDomain(existing), false, nil
	}
	return deliveryToDomain(record), true, nil
}

func (s *DeliveryStore) Get(ctx context.Context, endpointID string, deliveryID string) (webhooks.DeliveryRecord, error) {
	record, err := s.getRecord(ctx, endpointID, deliveryID)
	if err != nil {
		return webhooks.DeliveryRecord{}, err
	}
	return deliveryToDomain(record), nil
}

func (s *DeliveryStore) Complete(ctx context.Context, claimID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: delivery store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*deliveryRecord)(nil)).
		Set("status = ?", webhooks.DeliveryStatusProcessed).
		Set("next_attempt_at = NULL").
		Set("lease_until = NULL").
		Set("updated_at = ?", s.now()).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("sqlstore: delivery claim %q not found", claimID)
	}
	return nil
}

func (s *DeliveryStore) Fail(
	ctx context.Context,
	claimID string,
	cause error,
	nextAttemptAt time.Time,
	maxAttempts int,
) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: delivery store is not configured")
	}
	claimID = strings.TrimSpace(claimID)

	record := &deliveryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.claim_id = ?", claimID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sqlstore: delivery claim %q not found", claimID)
		}
		return err
	}

	status := webhooks.DeliveryStatusRetryReady
	if maxAttempts > 0 && record.Attempts >= maxAttempts {
		status = webhooks.DeliveryStatusDead
	}
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}

	query := s.db.NewUpdate().
		Model((*deliveryRecord)(nil)).
		Set("status = ?", status).
		Set("last_error = ?", lastError).
		Set("lease_until = NULL").
		Set("updated_at = ?", s.now()).
		Where("claim_id = ?", claimID)
	if status == webhooks.DeliveryStatusRetryReady {
		query = query.Set("next_attempt_at = ?", nextAttemptAt.UTC())
	} else {
		query = query.Set("next_attempt_at = NULL")
	}
	_, err = query.Exec(ctx)
	return err
}

// ListRetryReady returns deliveries due for redelivery, oldest first. The
// background redelivery job drains it.
func (s *DeliveryStore) ListRetryReady(ctx context.Context, limit int) ([]webhooks.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	var records []*deliveryRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", webhooks.DeliveryStatusRetryReady).
		Where("?TableAlias.next_attempt_at <= ?", s.now()).
		Order("next_attempt_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]webhooks.DeliveryRecord, 0, len(records))
	for _, record := range records {
		out = append(out, deliveryToDomain(record))
	}
	return out, nil
}

// Payload returns the stored raw body for a delivery so redelivery can replay
// it through the processor.
func (s *DeliveryStore) Payload(ctx context.Context, endpointID string, deliveryID string) ([]byte, error) {
	record, err := s.getRecord(ctx, endpointID, deliveryID)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), record.Payload...), nil
}

func claimable(record *deliveryRecord, now time.Time) bool {
	if record == nil {
		return false
	}
	switch record.Status {
	case webhooks.DeliveryStatusRetryReady:
		return record.NextAttemptAt == nil || !now.Before(*record.NextAttemptAt)
	case webhooks.DeliveryStatusProcessing:
		// An expired lease means the owning worker died mid-flight.
		return record.LeaseUntil != nil && !now.Before(*record.LeaseUntil)
	}
	return false
}

func (s *DeliveryStore) reclaim(
	ctx context.Context,
	record *deliveryRecord,
	leaseUntil time.Time,
	now time.Time,
) (webhooks.DeliveryRecord, bool, error) {
	claimID := uuid.NewString()
	// The claim_id guard keeps the rotation race-safe: a competing worker
	// that reclaimed first already rotated it, so this update matches zero
	// rows instead of stealing the fresh claim.
	result, err := s.db.NewUpdate().
		Model((*deliveryRecord)(nil)).
		Set("claim_id = ?", claimID).
		Set("status = ?", webhooks.DeliveryStatusProcessing).
		Set("attempts = ?", record.Attempts+1).
		Set("lease_until = ?", leaseUntil).
		Set("next_attempt_at = NULL").
		Set("updated_at = ?", now).
		Where("id = ?", record.ID).
		Where("claim_id = ?", record.ClaimID).
		Exec(ctx)
	if err != nil {
		return webhooks.DeliveryRecord{}, false, err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		// Lost the race to another worker.
		current, getErr := s.getRecord(ctx, record.EndpointID, record.DeliveryID)
		if getErr != nil {
			return webhooks.DeliveryRecord{}, false, getErr
		}
		return deliveryToDomain(current), false, nil
	}
	record.ClaimID = claimID
	record.Status = webhooks.DeliveryStatusProcessing
	record.Attempts++
	record.NextAttemptAt = nil
	record.UpdatedAt = now
	return deliveryToDomain(record), true, nil
}

func (s *DeliveryStore) getRecord(ctx context.Context, endpointID string, deliveryID string) (*deliveryRecord, error) {
	record := &deliveryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.endpoint_id = ?", strings.TrimSpace(endpointID)).
		Where("?TableAlias.delivery_id = ?", strings.TrimSpace(deliveryID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf(
				"sqlstore: delivery not found for endpoint %q delivery %q",
				endpointID,
				deliveryID,
			)
		}
		return nil, err
	}
	return record, nil
}

func deliveryToDomain(record *deliveryRecord) webhooks.DeliveryRecord {
	if record == nil {
		return webhooks.DeliveryRecord{}
	}
	out := webhooks.DeliveryRecord{
		ID:         record.ID,
		ClaimID:    record.ClaimID,
		EndpointID: record.EndpointID,
		DeliveryID: record.DeliveryID,
		Status:     record.Status,
		Attempts:   record.Attempts,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
	if record.NextAttemptAt != nil {
		value := *record.NextAttemptAt
		out.NextAttemptAt = &value
	}
	return out
}

var _ webhooks.DeliveryLedger = (*DeliveryStore)(nil)
