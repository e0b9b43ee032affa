package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-crm/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AuditStore struct {
	db   *bun.DB
	repo repository.Repository[*auditEntryRecord]
}

func NewAuditStore(db *bun.DB) (*AuditStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*auditEntryRecord](db, auditHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid audit repository wiring: %w", err)
		}
	}
	return &AuditStore{db: db, repo: repo}, nil
}

func (s *AuditStore) Record(ctx context.Context, entry core.AuditEntry) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: audit store is not configured")
	}
	record := auditFromDomain(entry)
	_, err := s.db.NewInsert().Model(record).Exec(ctx)
	return err
}

// RecordTx appends an audit entry inside a caller-owned transaction. The
// ingestor uses it to keep lead, stats and audit writes atomic.
func (s *AuditStore) RecordTx(ctx context.Context, tx bun.Tx, entry core.AuditEntry) error {
	record := auditFromDomain(entry)
	_, err := tx.NewInsert().Model(record).Exec(ctx)
	return err
}

func (s *AuditStore) List(ctx context.Context, filter core.AuditFilter) (core.AuditPage, error) {
	if s == nil || s.db == nil {
		return core.AuditPage{}, fmt.Errorf("sqlstore: audit store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	offset := (page - 1) * perPage

	var records []*auditEntryRecord
	query := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(filter.WorkspaceID))
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("?TableAlias.action = ?", action)
	}
	if objectType := strings.TrimSpace(filter.ObjectType); objectType != "" {
		query = query.Where("?TableAlias.object_type = ?", objectType)
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		query = query.Where("?TableAlias.status = ?", status)
	}
	if filter.From != nil {
		query = query.Where("?TableAlias.created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("?TableAlias.created_at <= ?", filter.To.UTC())
	}

	total, err := query.Order("created_at DESC").Limit(perPage).Offset(offset).ScanAndCount(ctx)
	if err != nil {
		return core.AuditPage{}, err
	}

	items := make([]core.AuditEntry, 0, len(records))
	for _, record := range records {
		items = append(items, auditToDomain(record))
	}
	return core.AuditPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

func auditFromDomain(entry core.AuditEntry) *auditEntryRecord {
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	actorType := strings.TrimSpace(entry.ActorType)
	if actorType == "" {
		actorType = core.ActorTypeSystem
	}
	status := strings.TrimSpace(string(entry.Status))
	if status == "" {
		status = string(core.AuditStatusOK)
	}
	return &auditEntryRecord{
		ID:          id,
		WorkspaceID: strings.TrimSpace(entry.WorkspaceID),
		Actor:       strings.TrimSpace(entry.Actor),
		ActorType:   actorType,
		Action:      strings.TrimSpace(entry.Action),
		ObjectType:  strings.TrimSpace(entry.ObjectType),
		ObjectID:    strings.TrimSpace(entry.ObjectID),
		Status:      status,
		Metadata:    copyAnyMap(entry.Metadata),
		CreatedAt:   createdAt,
	}
}

func auditToDomain(record *auditEntryRecord) core.AuditEntry {
	if record == nil {
		return core.AuditEntry{}
	}
	return core.AuditEntry{
		ID:          record.ID,
		WorkspaceID: record.WorkspaceID,
		Actor:       record.Actor,
		ActorType:   record.ActorType,
		Action:      record.Action,
		ObjectType:  record.ObjectType,
		ObjectID:    record.ObjectID,
		Status:      core.AuditStatus(record.Status),
		Metadata:    copyAnyMap(record.Metadata),
		CreatedAt:   record.CreatedAt,
	}
}

var _ core.AuditSink = (*AuditStore)(nil)
