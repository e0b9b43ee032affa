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

type EndpointStore struct {
	db   *bun.DB
	repo repository.Repository[*endpointRecord]
}

func NewEndpointStore(db *bun.DB) (*EndpointStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*endpointRecord](db, endpointHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid endpoint repository wiring: %w", err)
		}
	}
	return &EndpointStore{db: db, repo: repo}, nil
}

func (s *EndpointStore) Create(ctx context.Context, endpoint core.WebhookEndpoint) (core.WebhookEndpoint, error) {
	if s == nil || s.db == nil {
		return core.WebhookEndpoint{}, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	if strings.TrimSpace(endpoint.WorkspaceID) == "" || strings.TrimSpace(endpoint.PublicID) == "" {
		return core.WebhookEndpoint{}, fmt.Errorf("sqlstore: workspace id and public id are required")
	}

	now := time.Now().UTC()
	record := endpointFromDomain(endpoint)
	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return core.WebhookEndpoint{}, fmt.Errorf("sqlstore: endpoint public id %q already exists", endpoint.PublicID)
		}
		return core.WebhookEndpoint{}, err
	}
	return endpointToDomain(record), nil
}

func (s *EndpointStore) Get(ctx context.Context, workspaceID string, id string) (core.WebhookEndpoint, error) {
	if s == nil || s.db == nil {
		return core.WebhookEndpoint{}, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	record := &endpointRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(workspaceID)).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.WebhookEndpoint{}, core.ErrEndpointNotFound
		}
		return core.WebhookEndpoint{}, err
	}
	return endpointToDomain(record), nil
}

func (s *EndpointStore) GetByPublicID(ctx context.Context, publicID string) (core.WebhookEndpoint, error) {
	if s == nil || s.db == nil {
		return core.WebhookEndpoint{}, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	record := &endpointRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.public_id = ?", strings.TrimSpace(publicID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.WebhookEndpoint{}, core.ErrEndpointNotFound
		}
		return core.WebhookEndpoint{}, err
	}
	return endpointToDomain(record), nil
}

// GetByID loads an endpoint across workspaces. Redelivery resolves endpoints
// from ledger records, which only carry the internal id.
func (s *EndpointStore) GetByID(ctx context.Context, id string) (core.WebhookEndpoint, error) {
	if s == nil || s.db == nil {
		return core.WebhookEndpoint{}, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	record := &endpointRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.WebhookEndpoint{}, core.ErrEndpointNotFound
		}
		return core.WebhookEndpoint{}, err
	}
	return endpointToDomain(record), nil
}

func (s *EndpointStore) List(ctx context.Context, workspaceID string) ([]core.WebhookEndpoint, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	var records []*endpointRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.workspace_id = ?", strings.TrimSpace(workspaceID)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	endpoints := make([]core.WebhookEndpoint, 0, len(records))
	for _, record := range records {
		endpoints = append(endpoints, endpointToDomain(record))
	}
	return endpoints, nil
}

func (s *EndpointStore) UpdateStatus(ctx context.Context, id string, status core.EndpointStatus, reason string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	query := s.db.NewUpdate().
		Model((*endpointRecord)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", strings.TrimSpace(id))
	if reason = strings.TrimSpace(reason); reason != "" {
		query = query.Set("last_error = ?", reason)
	} else if status == core.EndpointStatusActive {
		query = query.Set("last_error = ''")
	}
	result, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return core.ErrEndpointNotFound
	}
	return nil
}

func (s *EndpointStore) UpdateSecret(ctx context.Context, id string, encryptedSecret []byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*endpointRecord)(nil)).
		Set("encrypted_secret = ?", encryptedSecret).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", strings.TrimSpace(id)).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return core.ErrEndpointNotFound
	}
	return nil
}

func (s *EndpointStore) UpdateFieldRules(ctx context.Context, id string, rules []core.FieldRule) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: endpoint store is not configured")
	}
	record := &endpointRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ErrEndpointNotFound
		}
		return err
	}
	record.FieldRules = append([]core.FieldRule(nil), rules...)
	record.UpdatedAt = time.Now().UTC()
	_, err = s.db.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx)
	return err
}

func endpointFromDomain(endpoint core.WebhookEndpoint) *endpointRecord {
	return &endpointRecord{
		ID:              strings.TrimSpace(endpoint.ID),
		PublicID:        strings.TrimSpace(endpoint.PublicID),
		WorkspaceID:     strings.TrimSpace(endpoint.WorkspaceID),
		Name:            strings.TrimSpace(endpoint.Name),
		Provider:        string(endpoint.Provider),
		EncryptedSecret: append([]byte(nil), endpoint.EncryptedSecret...),
		Status:          string(endpoint.Status),
		FieldRules:      append([]core.FieldRule(nil), endpoint.FieldRules...),
		LastError:       strings.TrimSpace(endpoint.LastError),
	}
}

func endpointToDomain(record *endpointRecord) core.WebhookEndpoint {
	if record == nil {
		return core.WebhookEndpoint{}
	}
	return core.WebhookEndpoint{
		ID:              record.ID,
		PublicID:        record.PublicID,
		WorkspaceID:     record.WorkspaceID,
		Name:            record.Name,
		Provider:        core.ProviderTag(record.Provider),
		EncryptedSecret: append([]byte(nil), record.EncryptedSecret...),
		Status:          core.EndpointStatus(record.Status),
		FieldRules:      append([]core.FieldRule(nil), record.FieldRules...),
		LastError:       record.LastError,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

var _ core.EndpointStore = (*EndpointStore)(nil)
