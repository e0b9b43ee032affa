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

type LeadStore struct {
	db   *bun.DB
	repo repository.Repository[*leadRecord]
}

func NewLeadStore(db *bun.DB) (*LeadStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*leadRecord](db, leadHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid lead repository wiring: %w", err)
		}
	}
	return &LeadStore{db: db, repo: repo}, nil
}

func (s *LeadStore) Create(ctx context.Context, in core.CreateLeadInput) (core.Lead, error) {
	if s == nil || s.db == nil {
		return core.Lead{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	workspaceID := strings.TrimSpace(in.WorkspaceID)
	if workspaceID == "" {
		return core.Lead{}, fmt.Errorf("sqlstore: workspace id is required")
	}

	now := time.Now().UTC()
	record := leadFromCanonical(workspaceID, in.EndpointID, in.OwnerID, in.Lead, now)
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.Lead{}, err
	}
	return leadToDomain(record), nil
}

func (s *LeadStore) Get(ctx context.Context, workspaceID string, id string) (core.Lead, error) {
	if s == nil || s.db == nil {
		return core.Lead{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	record := &leadRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(workspaceID)).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Lead{}, core.ErrLeadNotFound
		}
		return core.Lead{}, err
	}
	return leadToDomain(record), nil
}

func (s *LeadStore) FindByEmail(ctx context.Context, workspaceID string, email string) (core.Lead, error) {
	if s == nil || s.db == nil {
		return core.Lead{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return core.Lead{}, core.ErrLeadNotFound
	}
	record := &leadRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(workspaceID)).
		Where("?TableAlias.email = ?", email).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Lead{}, core.ErrLeadNotFound
		}
		return core.Lead{}, err
	}
	return leadToDomain(record), nil
}

func (s *LeadStore) Update(ctx context.Context, in core.UpdateLeadInput) (core.Lead, error) {
	if s == nil || s.db == nil {
		return core.Lead{}, fmt.Errorf("sqlstore: lead store is not configured")
	}

	var out core.Lead
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &leadRecord{}
		err := tx.NewSelect().
			Model(record).
			Where("?TableAlias.workspace_id = ?", strings.TrimSpace(in.WorkspaceID)).
			Where("?TableAlias.id = ?", strings.TrimSpace(in.LeadID)).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrLeadNotFound
			}
			return err
		}

		if in.OwnerID != nil {
			record.OwnerID = strings.TrimSpace(*in.OwnerID)
		}
		if in.Name != nil {
			record.Name = strings.TrimSpace(*in.Name)
		}
		if in.Email != nil {
			record.Email = strings.TrimSpace(strings.ToLower(*in.Email))
		}
		if in.Phone != nil {
			record.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Company != nil {
			record.Company = strings.TrimSpace(*in.Company)
		}
		if in.Value != nil {
			record.Value = *in.Value
		}
		if in.Custom != nil {
			merged := copyAnyMap(record.CustomFields)
			for key, value := range in.Custom {
				merged[key] = value
			}
			record.CustomFields = merged
		}
		record.UpdatedAt = time.Now().UTC()

		if _, err := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); err != nil {
			return err
		}
		out = leadToDomain(record)
		return nil
	})
	if err != nil {
		return core.Lead{}, err
	}
	return out, nil
}

func (s *LeadStore) UpdateStatus(ctx context.Context, workspaceID string, id string, status core.LeadStatus) (core.Lead, error) {
	if s == nil || s.db == nil {
		return core.Lead{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	now := time.Now().UTC()
	result, err := s.db.NewUpdate().
		Model((*leadRecord)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", now).
		Where("workspace_id = ?", strings.TrimSpace(workspaceID)).
		Where("id = ?", strings.TrimSpace(id)).
		Exec(ctx)
	if err != nil {
		return core.Lead{}, err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return core.Lead{}, core.ErrLeadNotFound
	}
	return s.Get(ctx, workspaceID, id)
}

func (s *LeadStore) Delete(ctx context.Context, workspaceID string, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: lead store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*leadRecord)(nil)).
		Where("workspace_id = ?", strings.TrimSpace(workspaceID)).
		Where("id = ?", strings.TrimSpace(id)).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return core.ErrLeadNotFound
	}
	return nil
}

func (s *LeadStore) List(ctx context.Context, filter core.LeadFilter) (core.LeadPage, error) {
	if s == nil || s.db == nil {
		return core.LeadPage{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	var records []*leadRecord
	query := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(filter.WorkspaceID))
	if endpointID := strings.TrimSpace(filter.EndpointID); endpointID != "" {
		query = query.Where("?TableAlias.endpoint_id = ?", endpointID)
	}
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		query = query.Where("?TableAlias.status = ?", status)
	}
	if source := strings.TrimSpace(strings.ToLower(filter.Source)); source != "" {
		query = query.Where("?TableAlias.source = ?", source)
	}
	if ownerID := strings.TrimSpace(filter.OwnerID); ownerID != "" {
		query = query.Where("?TableAlias.owner_id = ?", ownerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("LOWER(?TableAlias.name) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.email) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.company) LIKE ?", pattern)
		})
	}
	if filter.From != nil {
		query = query.Where("?TableAlias.created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("?TableAlias.created_at <= ?", filter.To.UTC())
	}

	total, err := query.Order("created_at DESC").Limit(perPage).Offset(offset).ScanAndCount(ctx)
	if err != nil {
		return core.LeadPage{}, err
	}

	items := make([]core.Lead, 0, len(records))
	for _, record := range records {
		items = append(items, leadToDomain(record))
	}
	return core.LeadPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

func leadFromCanonical(workspaceID string, endpointID string, ownerID string, lead core.CanonicalLead, now time.Time) *leadRecord {
	return &leadRecord{
		ID:           uuid.NewString(),
		WorkspaceID:  workspaceID,
		EndpointID:   strings.TrimSpace(endpointID),
		OwnerID:      strings.TrimSpace(ownerID),
		Name:         strings.TrimSpace(lead.Name),
		Email:        strings.TrimSpace(strings.ToLower(lead.Email)),
		Phone:        strings.TrimSpace(lead.Phone),
		Company:      strings.TrimSpace(lead.Company),
		Source:       strings.TrimSpace(strings.ToLower(lead.Source)),
		Value:        lead.Value,
		CustomFields: copyAnyMap(lead.CustomFields),
		Status:       string(core.LeadStatusNew),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func leadToDomain(record *leadRecord) core.Lead {
	if record == nil {
		return core.Lead{}
	}
	return core.Lead{
		ID:          record.ID,
		WorkspaceID: record.WorkspaceID,
		EndpointID:  record.EndpointID,
		OwnerID:     record.OwnerID,
		Status:      core.LeadStatus(record.Status),
		CanonicalLead: core.CanonicalLead{
			Name:         record.Name,
			Email:        record.Email,
			Phone:        record.Phone,
			Company:      record.Company,
			Source:       record.Source,
			Value:        record.Value,
			CustomFields: copyAnyMap(record.CustomFields),
		},
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

var _ core.LeadStore = (*LeadStore)(nil)
