package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-crm/core"
	"github.com/uptrace/bun"
)

type StatsStore struct {
	db *bun.DB
}

func NewStatsStore(db *bun.DB) (*StatsStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &StatsStore{db: db}, nil
}

func (s *StatsStore) Get(ctx context.Context, endpointID string) (core.EndpointStats, error) {
	if s == nil || s.db == nil {
		return core.EndpointStats{}, fmt.Errorf("sqlstore: stats store is not configured")
	}
	record := &endpointStatsRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.endpoint_id = ?", strings.TrimSpace(endpointID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No deliveries yet: an all-zero row, not an error.
			return core.EndpointStats{EndpointID: strings.TrimSpace(endpointID)}, nil
		}
		return core.EndpointStats{}, err
	}
	return statsToDomain(record), nil
}

func (s *StatsStore) MonthlyLeadCount(
	ctx context.Context,
	workspaceID string,
	periodStart time.Time,
	periodEnd time.Time,
) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: stats store is not configured")
	}
	count, err := s.db.NewSelect().
		Model((*leadRecord)(nil)).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(workspaceID)).
		Where("?TableAlias.created_at >= ?", periodStart.UTC()).
		Where("?TableAlias.created_at < ?", periodEnd.UTC()).
		Count(ctx)
	if err != nil {
		return 0, err
	}
	return int64(count), nil
}

func (s *StatsStore) Bump(ctx context.Context, workspaceID string, endpointID string, delta core.StatsDelta) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: stats store is not configured")
	}
	return bumpStats(ctx, s.db, workspaceID, endpointID, delta)
}

// BumpTx applies the delta inside a caller-owned transaction.
func (s *StatsStore) BumpTx(ctx context.Context, tx bun.Tx, workspaceID string, endpointID string, delta core.StatsDelta) error {
	return bumpStats(ctx, tx, workspaceID, endpointID, delta)
}

func bumpStats(ctx context.Context, db bun.IDB, workspaceID string, endpointID string, delta core.StatsDelta) error {
	workspaceID = strings.TrimSpace(workspaceID)
	endpointID = strings.TrimSpace(endpointID)
	if endpointID == "" {
		return fmt.Errorf("sqlstore: endpoint id is required")
	}
	now := time.Now().UTC()
	record := &endpointStatsRecord{
		EndpointID:  endpointID,
		WorkspaceID: workspaceID,
		Received:    delta.Received,
		Accepted:    delta.Accepted,
		Rejected:    delta.Rejected,
		Failed:      delta.Failed,
		UpdatedAt:   now,
	}
	if delta.ReceivedAt != nil {
		value := delta.ReceivedAt.UTC()
		record.LastReceivedAt = &value
	}

	query := db.NewInsert().
		Model(record).
		On("CONFLICT (endpoint_id) DO UPDATE").
		Set("received = es.received + EXCLUDED.received").
		Set("accepted = es.accepted + EXCLUDED.accepted").
		Set("rejected = es.rejected + EXCLUDED.rejected").
		Set("failed = es.failed + EXCLUDED.failed").
		Set("updated_at = EXCLUDED.updated_at")
	if record.LastReceivedAt != nil {
		query = query.Set("last_received_at = EXCLUDED.last_received_at")
	}
	_, err := query.Exec(ctx)
	return err
}

func statsToDomain(record *endpointStatsRecord) core.EndpointStats {
	if record == nil {
		return core.EndpointStats{}
	}
	stats := core.EndpointStats{
		EndpointID:  record.EndpointID,
		WorkspaceID: record.WorkspaceID,
		Received:    record.Received,
		Accepted:    record.Accepted,
		Rejected:    record.Rejected,
		Failed:      record.Failed,
		UpdatedAt:   record.UpdatedAt,
	}
	if record.LastReceivedAt != nil {
		value := *record.LastReceivedAt
		stats.LastReceivedAt = &value
	}
	return stats
}

var (
	_ core.StatsStore  = (*StatsStore)(nil)
	_ core.StatsWriter = (*StatsStore)(nil)
)
