package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// InboundRequest is the framework-agnostic shape of an inbound webhook HTTP
// request after routing resolved the target endpoint.
type InboundRequest struct {
	EndpointPublicID string
	Provider         ProviderTag
	Headers          map[string]string
	Query            map[string]string
	Body             []byte
	Metadata         map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	LeadIDs    []string
	Metadata   map[string]any
}

// LeadTransformer normalizes one provider payload shape into canonical leads.
// Implementations must be pure: no I/O, no side effects.
type LeadTransformer interface {
	Provider() ProviderTag
	Transform(ctx context.Context, req InboundRequest) ([]CanonicalLead, error)
}

type TransformerRegistry interface {
	Register(transformer LeadTransformer) error
	Get(tag ProviderTag) (LeadTransformer, bool)
	List() []LeadTransformer
}

type CreateWorkspaceInput struct {
	Name       string
	Slug       string
	PlanID     string
	OwnerID    string
	OwnerEmail string
}

type AddMemberInput struct {
	WorkspaceID string
	UserID      string
	Email       string
	Role        MemberRole
}

type CreateLeadInput struct {
	WorkspaceID string
	EndpointID  string
	OwnerID     string
	Lead        CanonicalLead
}

type UpdateLeadInput struct {
	LeadID      string
	WorkspaceID string
	OwnerID     *string
	Name        *string
	Email       *string
	Phone       *string
	Company     *string
	Value       *float64
	Custom      map[string]any
}

type LeadFilter struct {
	WorkspaceID string
	EndpointID  string
	Status      LeadStatus
	Source      string
	OwnerID     string
	Search      string
	From        *time.Time
	To          *time.Time
	Page        int
	PerPage     int
}

type LeadPage struct {
	Items   []Lead
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

type RegisterEndpointInput struct {
	WorkspaceID string
	Name        string
	Provider    ProviderTag
	Secret      string
	FieldRules  []FieldRule
}

type WorkspaceStore interface {
	Create(ctx context.Context, in CreateWorkspaceInput) (Workspace, error)
	Get(ctx context.Context, id string) (Workspace, error)
	GetBySlug(ctx context.Context, slug string) (Workspace, error)
	UpdateStatus(ctx context.Context, id string, status WorkspaceStatus) error
}

type MemberStore interface {
	Add(ctx context.Context, in AddMemberInput) (Member, error)
	Get(ctx context.Context, workspaceID string, userID string) (Member, error)
	List(ctx context.Context, workspaceID string) ([]Member, error)
	UpdateRole(ctx context.Context, workspaceID string, userID string, role MemberRole) error
	Remove(ctx context.Context, workspaceID string, userID string) error
}

type LeadStore interface {
	Create(ctx context.Context, in CreateLeadInput) (Lead, error)
	Get(ctx context.Context, workspaceID string, id string) (Lead, error)
	FindByEmail(ctx context.Context, workspaceID string, email string) (Lead, error)
	Update(ctx context.Context, in UpdateLeadInput) (Lead, error)
	UpdateStatus(ctx context.Context, workspaceID string, id string, status LeadStatus) (Lead, error)
	Delete(ctx context.Context, workspaceID string, id string) error
	List(ctx context.Context, filter LeadFilter) (LeadPage, error)
}

type EndpointStore interface {
	Create(ctx context.Context, endpoint WebhookEndpoint) (WebhookEndpoint, error)
	Get(ctx context.Context, workspaceID string, id string) (WebhookEndpoint, error)
	GetByPublicID(ctx context.Context, publicID string) (WebhookEndpoint, error)
	List(ctx context.Context, workspaceID string) ([]WebhookEndpoint, error)
	UpdateStatus(ctx context.Context, id string, status EndpointStatus, reason string) error
	UpdateSecret(ctx context.Context, id string, encryptedSecret []byte) error
	UpdateFieldRules(ctx context.Context, id string, rules []FieldRule) error
}

type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
	List(ctx context.Context, filter AuditFilter) (AuditPage, error)
}

type AuditFilter struct {
	WorkspaceID string
	Action      string
	ObjectType  string
	Status      AuditStatus
	From        *time.Time
	To          *time.Time
	Page        int
	PerPage     int
}

type AuditPage struct {
	Items   []AuditEntry
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

// StatsDelta is a counter increment applied to an endpoint's stats row.
type StatsDelta struct {
	Received   int64
	Accepted   int64
	Rejected   int64
	Failed     int64
	ReceivedAt *time.Time
}

type StatsWriter interface {
	Bump(ctx context.Context, workspaceID string, endpointID string, delta StatsDelta) error
}

type StatsStore interface {
	Get(ctx context.Context, endpointID string) (EndpointStats, error)
	// MonthlyLeadCount returns accepted leads for the workspace inside the
	// given month window. Billing quota checks read through this.
	MonthlyLeadCount(ctx context.Context, workspaceID string, periodStart time.Time, periodEnd time.Time) (int64, error)
}

// IngestRecord bundles the three webhook side effects: lead upsert, stats
// increment and audit append. Implementations apply all of them in one
// transaction.
type IngestRecord struct {
	WorkspaceID  string
	EndpointID   string
	Leads        []CanonicalLead
	MergeByEmail bool
	// Reattempt marks a redelivered payload. Received counts the delivery
	// once at first receipt, never again on retries.
	Reattempt bool
	Audit     AuditEntry
}

type IngestResult struct {
	Created []Lead
	Updated []Lead
}

type LeadIngestor interface {
	Ingest(ctx context.Context, record IngestRecord) (IngestResult, error)
}

type SubscriptionStore interface {
	GetByWorkspace(ctx context.Context, workspaceID string) (Subscription, error)
	Upsert(ctx context.Context, sub Subscription) (Subscription, error)
	UpdateStatus(ctx context.Context, id string, status SubscriptionStatus) error
}

// QuotaDecision reports whether a workspace may accept another lead.
type QuotaDecision struct {
	Allowed   bool
	Limit     int64
	Used      int64
	Remaining int64
	Reason    string
}

type QuotaEvaluator interface {
	EvaluateLeadQuota(ctx context.Context, workspaceID string) (QuotaDecision, error)
}

type Permission string

const (
	PermissionWorkspaceManage Permission = "workspace.manage"
	PermissionMembersManage   Permission = "members.manage"
	PermissionLeadsRead       Permission = "leads.read"
	PermissionLeadsWrite      Permission = "leads.write"
	PermissionLeadsDelete     Permission = "leads.delete"
	PermissionEndpointsManage Permission = "endpoints.manage"
	PermissionBillingManage   Permission = "billing.manage"
	PermissionAuditRead       Permission = "audit.read"
)

type PermissionDecision struct {
	Allowed    bool
	Permission Permission
	Role       MemberRole
	Reason     string
}

type PermissionEvaluator interface {
	Evaluate(ctx context.Context, workspaceID string, userID string, permission Permission) (PermissionDecision, error)
}

// SecretCipher encrypts endpoint signing secrets at rest.
type SecretCipher interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type TransportRequest struct {
	Method      string
	URL         string
	Headers     map[string]string
	Query       map[string]string
	Body        []byte
	Metadata    map[string]any
	Timeout     time.Duration
	Idempotency string
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type RateLimitKey struct {
	WorkspaceID string
	EndpointID  string
	BucketKey   string
}

type RateLimitPolicy interface {
	Allow(ctx context.Context, key RateLimitKey) error
}

type CommandDispatcher interface {
	Dispatch(ctx context.Context, msg any) error
}
