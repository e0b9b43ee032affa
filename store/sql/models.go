package sqlstore

import (
	"time"

	"github.com/goliatone/go-crm/core"
	"github.com/uptrace/bun"
)

type workspaceRecord struct {
	bun.BaseModel `bun:"table:crm_workspaces,alias:w"`

	ID        string     `bun:"id,pk"`
	Name      string     `bun:"name,notnull"`
	Slug      string     `bun:"slug,notnull"`
	PlanID    string     `bun:"plan_id,notnull"`
	Status    string     `bun:"status,notnull"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete"`
}

type memberRecord struct {
	bun.BaseModel `bun:"table:crm_members,alias:m"`

	ID          string    `bun:"id,pk"`
	WorkspaceID string    `bun:"workspace_id,notnull"`
	UserID      string    `bun:"user_id,notnull"`
	Email       string    `bun:"email,notnull"`
	Role        string    `bun:"role,notnull"`
	Status      string    `bun:"status,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type leadRecord struct {
	bun.BaseModel `bun:"table:crm_leads,alias:l"`

	ID           string         `bun:"id,pk"`
	WorkspaceID  string         `bun:"workspace_id,notnull"`
	EndpointID   string         `bun:"endpoint_id"`
	OwnerID      string         `bun:"owner_id"`
	Name         string         `bun:"name"`
	Email        string         `bun:"email"`
	Phone        string         `bun:"phone"`
	Company      string         `bun:"company"`
	Source       string         `bun:"source,notnull"`
	Value        float64        `bun:"value,notnull"`
	CustomFields map[string]any `bun:"custom_fields,type:jsonb,notnull"`
	Status       string         `bun:"status,notnull"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt    *time.Time     `bun:"deleted_at,soft_delete"`
}

type endpointRecord struct {
	bun.BaseModel `bun:"table:crm_webhook_endpoints,alias:we"`

	ID              string           `bun:"id,pk"`
	PublicID        string           `bun:"public_id,notnull"`
	WorkspaceID     string           `bun:"workspace_id,notnull"`
	Name            string           `bun:"name,notnull"`
	Provider        string           `bun:"provider,notnull"`
	EncryptedSecret []byte           `bun:"encrypted_secret"`
	Status          string           `bun:"status,notnull"`
	FieldRules      []core.FieldRule `bun:"field_rules,type:jsonb"`
	LastError       string           `bun:"last_error"`
	CreatedAt       time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type deliveryRecord struct {
	bun.BaseModel `bun:"table:crm_webhook_deliveries,alias:wd"`

	ID            string     `bun:"id,pk"`
	ClaimID       string     `bun:"claim_id,notnull"`
	EndpointID    string     `bun:"endpoint_id,notnull"`
	DeliveryID    string     `bun:"delivery_id,notnull"`
	Status        string     `bun:"status,notnull"`
	Attempts      int        `bun:"attempts,notnull"`
	NextAttemptAt *time.Time `bun:"next_attempt_at,nullzero"`
	LeaseUntil    *time.Time `bun:"lease_until,nullzero"`
	LastError     string     `bun:"last_error"`
	Payload       []byte     `bun:"payload"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type auditEntryRecord struct {
	bun.BaseModel `bun:"table:crm_audit_entries,alias:ae"`

	ID          string         `bun:"id,pk"`
	WorkspaceID string         `bun:"workspace_id,notnull"`
	Actor       string         `bun:"actor,notnull"`
	ActorType   string         `bun:"actor_type,notnull"`
	Action      string         `bun:"action,notnull"`
	ObjectType  string         `bun:"object_type,notnull"`
	ObjectID    string         `bun:"object_id,notnull"`
	Status      string         `bun:"status,notnull"`
	Metadata    map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type endpointStatsRecord struct {
	bun.BaseModel `bun:"table:crm_endpoint_stats,alias:es"`

	EndpointID     string     `bun:"endpoint_id,pk"`
	WorkspaceID    string     `bun:"workspace_id,notnull"`
	Received       int64      `bun:"received,notnull"`
	Accepted       int64      `bun:"accepted,notnull"`
	Rejected       int64      `bun:"rejected,notnull"`
	Failed         int64      `bun:"failed,notnull"`
	LastReceivedAt *time.Time `bun:"last_received_at,nullzero"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type subscriptionRecord struct {
	bun.BaseModel `bun:"table:crm_subscriptions,alias:sub"`

	ID          string    `bun:"id,pk"`
	WorkspaceID string    `bun:"workspace_id,notnull"`
	PlanID      string    `bun:"plan_id,notnull"`
	Status      string    `bun:"status,notnull"`
	PeriodStart time.Time `bun:"period_start,nullzero"`
	PeriodEnd   time.Time `bun:"period_end,nullzero"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type rateLimitStateRecord struct {
	bun.BaseModel `bun:"table:crm_rate_limit_states,alias:rls"`

	ID          string    `bun:"id,pk"`
	WorkspaceID string    `bun:"workspace_id,notnull"`
	EndpointID  string    `bun:"endpoint_id,notnull"`
	BucketKey   string    `bun:"bucket_key,notnull"`
	WindowStart time.Time `bun:"window_start,nullzero"`
	Count       int       `bun:"count,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
