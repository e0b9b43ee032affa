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

// Ingestor applies the webhook side effects atomically: lead upserts, the
// stats increment and the audit entry commit or roll back together.
type Ingestor struct {
	db  *bun.DB
	now func() time.Time
}

func NewIngestor(db *bun.DB) (*Ingestor, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &Ingestor{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (i *Ingestor) Ingest(ctx context.Context, record core.IngestRecord) (core.IngestResult, error) {
	if i == nil || i.db == nil {
		return core.IngestResult{}, fmt.Errorf("sqlstore: ingestor is not configured")
	}
	workspaceID := strings.TrimSpace(record.WorkspaceID)
	endpointID := strings.TrimSpace(record.EndpointID)
	if workspaceID == "" || endpointID == "" {
		return core.IngestResult{}, fmt.Errorf("sqlstore: workspace id and endpoint id are required")
	}
	if len(record.Leads) == 0 {
		return core.IngestResult{}, fmt.Errorf("sqlstore: at least one lead is required")
	}

	now := i.now()
	var result core.IngestResult
	err := i.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, lead := range record.Leads {
			created, updated, err := i.upsertLead(ctx, tx, workspaceID, endpointID, lead, record.MergeByEmail, now)
			if err != nil {
				return err
			}
			if updated != nil {
				result.Updated = append(result.Updated, *updated)
			} else {
				result.Created = append(result.Created, *created)
			}
		}

		// Counters track deliveries, not leads: a multi-lead payload is one
		// received and one accepted delivery.
		delta := core.StatsDelta{
			Accepted:   1,
			ReceivedAt: &now,
		}
		if !record.Reattempt {
			delta.Received = 1
		}
		if err := bumpStats(ctx, tx, workspaceID, endpointID, delta); err != nil {
			return err
		}

		audit := record.Audit
		audit.WorkspaceID = workspaceID
		if audit.CreatedAt.IsZero() {
			audit.CreatedAt = now
		}
		auditRecord := auditFromDomain(audit)
		if _, err := tx.NewInsert().Model(auditRecord).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return core.IngestResult{}, err
	}
	return result, nil
}

// upsertLead merges on lowercased email when enabled: scalar fields are
// overwritten only when the incoming value is non-empty, custom fields merge
// key by key.
func (i *Ingestor) upsertLead(
	ctx context.Context,
	tx bun.Tx,
	workspaceID string,
	endpointID string,
	lead core.CanonicalLead,
	mergeByEmail bool,
	now time.Time,
) (*core.Lead, *core.Lead, error) {
	email := strings.TrimSpace(strings.ToLower(lead.Email))
	if mergeByEmail && email != "" {
		existing := &leadRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.workspace_id = ?", workspaceID).
			Where("?TableAlias.email = ?", email).
			Order("created_at DESC").
			Limit(1).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		if err == nil {
			mergeLeadRecord(existing, lead, now)
			if _, err := tx.NewUpdate().Model(existing).Where("id = ?", existing.ID).Exec(ctx); err != nil {
				return nil, nil, err
			}
			updated := leadToDomain(existing)
			return nil, &updated, nil
		}
	}

	record := leadFromCanonical(workspaceID, endpointID, "", lead, now)
	record.ID = uuid.NewString()
	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, nil, err
	}
	created := leadToDomain(record)
	return &created, nil, nil
}

func mergeLeadRecord(record *leadRecord, lead core.CanonicalLead, now time.Time) {
	if name := strings.TrimSpace(lead.Name); name != "" {
		record.Name = name
	}
	if phone := strings.TrimSpace(lead.Phone); phone != "" {
		record.Phone = phone
	}
	if company := strings.TrimSpace(lead.Company); company != "" {
		record.Company = company
	}
	if source := strings.TrimSpace(strings.ToLower(lead.Source)); source != "" {
		record.Source = source
	}
	if lead.Value != 0 {
		record.Value = lead.Value
	}
	if len(lead.CustomFields) > 0 {
		merged := copyAnyMap(record.CustomFields)
		for key, value := range lead.CustomFields {
			merged[key] = value
		}
		record.CustomFields = merged
	}
	record.UpdatedAt = now
}

var _ core.LeadIngestor = (*Ingestor)(nil)
