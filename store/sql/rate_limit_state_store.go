package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-crm/core"
	"github.com/goliatone/go-crm/ratelimit"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RateLimitStateStore persists fixed-window counters so multiple nodes share
// one throttle view.
type RateLimitStateStore struct {
	db *bun.DB
}

func NewRateLimitStateStore(db *bun.DB) (*RateLimitStateStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &RateLimitStateStore{db: db}, nil
}

func (s *RateLimitStateStore) Get(ctx context.Context, key core.RateLimitKey) (ratelimit.State, error) {
	if s == nil || s.db == nil {
		return ratelimit.State{}, fmt.Errorf("sqlstore: rate limit state store is not configured")
	}
	record := &rateLimitStateRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(key.WorkspaceID)).
		Where("?TableAlias.endpoint_id = ?", strings.TrimSpace(key.EndpointID)).
		Where("?TableAlias.bucket_key = ?", strings.TrimSpace(strings.ToLower(key.BucketKey))).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ratelimit.State{}, ratelimit.ErrStateNotFound
		}
		return ratelimit.State{}, err
	}
	return rateLimitStateToDomain(record), nil
}

func (s *RateLimitStateStore) Upsert(ctx context.Context, state ratelimit.State) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: rate limit state store is not configured")
	}
	now := time.Now().UTC()
	record := &rateLimitStateRecord{
		ID:          uuid.NewString(),
		WorkspaceID: strings.TrimSpace(state.Key.WorkspaceID),
		EndpointID:  strings.TrimSpace(state.Key.EndpointID),
		BucketKey:   strings.TrimSpace(strings.ToLower(state.Key.BucketKey)),
		WindowStart: state.WindowStart.UTC(),
		Count:       state.Count,
		UpdatedAt:   now,
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (workspace_id, endpoint_id, bucket_key) DO UPDATE").
		Set("window_start = EXCLUDED.window_start").
		Set("count = EXCLUDED.count").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func rateLimitStateToDomain(record *rateLimitStateRecord) ratelimit.State {
	if record == nil {
		return ratelimit.State{}
	}
	return ratelimit.State{
		Key: core.RateLimitKey{
			WorkspaceID: record.WorkspaceID,
			EndpointID:  record.EndpointID,
			BucketKey:   record.BucketKey,
		},
		WindowStart: record.WindowStart,
		Count:       record.Count,
		UpdatedAt:   record.UpdatedAt,
	}
}

var _ ratelimit.StateStore = (*RateLimitStateStore)(nil)
