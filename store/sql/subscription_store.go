package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-crm/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type SubscriptionStore struct {
	db *bun.DB
}

func NewSubscriptionStore(db *bun.DB) (*SubscriptionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &SubscriptionStore{db: db}, nil
}

func (s *SubscriptionStore) GetByWorkspace(ctx context.Context, workspaceID string) (core.Subscription, error) {
	if s == nil || s.db == nil {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	record := &subscriptionRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(workspaceID)).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Subscription{}, fmt.Errorf("sqlstore: no subscription for workspace %q", workspaceID)
		}
		return core.Subscription{}, err
	}
	return subscriptionToDomain(record), nil
}

func (s *SubscriptionStore) Upsert(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	if s == nil || s.db == nil {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	workspaceID := strings.TrimSpace(sub.WorkspaceID)
	if workspaceID == "" {
		return core.Subscription{}, fmt.Errorf("sqlstore: workspace id is required")
	}
	now := time.Now().UTC()

	var out core.Subscription
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &subscriptionRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.workspace_id = ?", workspaceID).
			Limit(1).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if errors.Is(err, sql.ErrNoRows) {
			record := subscriptionFromDomain(sub)
			if strings.TrimSpace(record.ID) == "" {
				record.ID = uuid.NewString()
			}
			record.CreatedAt = now
			record.UpdatedAt = now
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				return insertErr
			}
			out = subscriptionToDomain(record)
			return nil
		}

		existing.PlanID = strings.TrimSpace(sub.PlanID)
		existing.Status = string(sub.Status)
		existing.PeriodStart = sub.PeriodStart.UTC()
		existing.PeriodEnd = sub.PeriodEnd.UTC()
		existing.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(existing).Where("id = ?", existing.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = subscriptionToDomain(existing)
		return nil
	})
	if err != nil {
		return core.Subscription{}, err
	}
	return out, nil
}

func (s *SubscriptionStore) UpdateStatus(ctx context.Context, id string, status core.SubscriptionStatus) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: subscription store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*subscriptionRecord)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", strings.TrimSpace(id)).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("sqlstore: subscription %q not found", id)
	}
	return nil
}

func subscriptionFromDomain(sub core.Subscription) *subscriptionRecord {
	return &subscriptionRecord{
		ID:          strings.TrimSpace(sub.ID),
		WorkspaceID: strings.TrimSpace(sub.WorkspaceID),
		PlanID:      strings.TrimSpace(sub.PlanID),
		Status:      string(sub.Status),
		PeriodStart: sub.PeriodStart.UTC(),
		PeriodEnd:   sub.PeriodEnd.UTC(),
	}
}

func subscriptionToDomain(record *subscriptionRecord) core.Subscription {
	if record == nil {
		return core.Subscription{}
	}
	return core.Subscription{
		ID:          record.ID,
		WorkspaceID: record.WorkspaceID,
		PlanID:      record.PlanID,
		Status:      core.SubscriptionStatus(record.Status),
		PeriodStart: record.PeriodStart,
		PeriodEnd:   record.PeriodEnd,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

var _ core.SubscriptionStore = (*SubscriptionStore)(nil)
