package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-crm/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type WorkspaceStore struct {
	db   *bun.DB
	repo repository.Repository[*workspaceRecord]
}

func NewWorkspaceStore(db *bun.DB) (*WorkspaceStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*workspaceRecord](db, workspaceHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid workspace repository wiring: %w", err)
		}
	}
	return &WorkspaceStore{db: db, repo: repo}, nil
}

func (s *WorkspaceStore) Create(ctx context.Context, in core.CreateWorkspaceInput) (core.Workspace, error) {
	if s == nil || s.db == nil {
		return core.Workspace{}, fmt.Errorf("sqlstore: workspace store is not configured")
	}
	name := strings.TrimSpace(in.Name)
	slug := strings.TrimSpace(strings.ToLower(in.Slug))
	if name == "" || slug == "" {
		return core.Workspace{}, fmt.Errorf("sqlstore: workspace name and slug are required")
	}

	now := time.Now().UTC()
	record := &workspaceRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      slug,
		PlanID:    strings.TrimSpace(in.PlanID),
		Status:    string(core.WorkspaceStatusActive),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return core.Workspace{}, fmt.Errorf("sqlstore: workspace slug %q already exists", slug)
		}
		return core.Workspace{}, err
	}
	return workspaceToDomain(record), nil
}

func (s *WorkspaceStore) Get(ctx context.Context, id string) (core.Workspace, error) {
	if s == nil || s.db == nil {
		return core.Workspace{}, fmt.Errorf("sqlstore: workspace store is not configured")
	}
	record := &workspaceRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Workspace{}, fmt.Errorf("sqlstore: workspace %q not found", id)
		}
		return core.Workspace{}, err
	}
	return workspaceToDomain(record), nil
}

func (s *WorkspaceStore) GetBySlug(ctx context.Context, slug string) (core.Workspace, error) {
	if s == nil || s.db == nil {
		return core.Workspace{}, fmt.Errorf("sqlstore: workspace store is not configured")
	}
	record := &workspaceRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.slug = ?", strings.TrimSpace(strings.ToLower(slug))).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Workspace{}, fmt.Errorf("sqlstore: workspace slug %q not found", slug)
		}
		return core.Workspace{}, err
	}
	return workspaceToDomain(record), nil
}

func (s *WorkspaceStore) UpdateStatus(ctx context.Context, id string, status core.WorkspaceStatus) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: workspace store is not configured")
	}
	now := time.Now().UTC()
	query := s.db.NewUpdate().
		Model((*workspaceRecord)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", now).
		Where("id = ?", strings.TrimSpace(id))
	// Deleted workspaces leave the default query scope via soft delete.
	if status == core.WorkspaceStatusDeleted {
		query = query.Set("deleted_at = ?", now)
	}
	result, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("sqlstore: workspace %q not found", id)
	}
	return nil
}

func workspaceToDomain(record *workspaceRecord) core.Workspace {
	if record == nil {
		return core.Workspace{}
	}
	return core.Workspace{
		ID:        record.ID,
		Name:      record.Name,
		Slug:      record.Slug,
		PlanID:    record.PlanID,
		Status:    core.WorkspaceStatus(record.Status),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

var _ core.WorkspaceStore = (*WorkspaceStore)(nil)
