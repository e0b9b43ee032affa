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

type MemberStore struct {
	db   *bun.DB
	repo repository.Repository[*memberRecord]
}

func NewMemberStore(db *bun.DB) (*MemberStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*memberRecord](db, memberHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid member repository wiring: %w", err)
		}
	}
	return &MemberStore{db: db, repo: repo}, nil
}

func (s *MemberStore) Add(ctx context.Context, in core.AddMemberInput) (core.Member, error) {
	if s == nil || s.db == nil {
		return core.Member{}, fmt.Errorf("sqlstore: member store is not configured")
	}
	workspaceID := strings.TrimSpace(in.WorkspaceID)
	userID := strings.TrimSpace(in.UserID)
	if workspaceID == "" || userID == "" {
		return core.Member{}, fmt.Errorf("sqlstore: workspace id and user id are required")
	}

	now := time.Now().UTC()
	record := &memberRecord{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Email:       strings.TrimSpace(strings.ToLower(in.Email)),
		Role:        string(in.Role),
		Status:      string(core.MemberStatusActive),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return core.Member{}, fmt.Errorf("sqlstore: user %q is already a member of workspace %q", userID, workspaceID)
		}
		return core.Member{}, err
	}
	return memberToDomain(record), nil
}

func (s *MemberStore) Get(ctx context.Context, workspaceID string, userID string) (core.Member, error) {
	if s == nil || s.db == nil {
		return core.Member{}, fmt.Errorf("sqlstore: member store is not configured")
	}
	record := &memberRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(workspaceID)).
		Where("?TableAlias.user_id = ?", strings.TrimSpace(userID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Member{}, fmt.Errorf("sqlstore: member %q not found in workspace %q", userID, workspaceID)
		}
		return core.Member{}, err
	}
	return memberToDomain(record), nil
}

func (s *MemberStore) List(ctx context.Context, workspaceID string) ([]core.Member, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: member store is not configured")
	}
	var records []*memberRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(workspaceID)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	members := make([]core.Member, 0, len(records))
	for _, record := range records {
		members = append(members, memberToDomain(record))
	}
	return members, nil
}

func (s *MemberStore) UpdateRole(ctx context.Context, workspaceID string, userID string, role core.MemberRole) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: member store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*memberRecord)(nil)).
		Set("role = ?", string(role)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("workspace_id = ?", strings.TrimSpace(workspaceID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("sqlstore: member %q not found in workspace %q", userID, workspaceID)
	}
	return nil
}

func (s *MemberStore) Remove(ctx context.Context, workspaceID string, userID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: member store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*memberRecord)(nil)).
		Set("status = ?", string(core.MemberStatusRemoved)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("workspace_id = ?", strings.TrimSpace(workspaceID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("sqlstore: member %q not found in workspace %q", userID, workspaceID)
	}
	return nil
}

func memberToDomain(record *memberRecord) core.Member {
	if record == nil {
		return core.Member{}
	}
	return core.Member{
		ID:          record.ID,
		WorkspaceID: record.WorkspaceID,
		UserID:      record.UserID,
		Email:       record.Email,
		Role:        core.MemberRole(record.Role),
		Status:      core.MemberStatus(record.Status),
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

var _ core.MemberStore = (*MemberStore)(nil)
