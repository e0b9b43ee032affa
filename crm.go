package crm

import "github.com/goliatone/go-crm/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Actor = core.Actor
type Workspace = core.Workspace
type Member = core.Member
type Lead = core.Lead
type CanonicalLead = core.CanonicalLead
type WebhookEndpoint = core.WebhookEndpoint
type EndpointStats = core.EndpointStats
type AuditEntry = core.AuditEntry
type Subscription = core.Subscription
type QuotaDecision = core.QuotaDecision

type WorkspaceStore = core.WorkspaceStore
type MemberStore = core.MemberStore
type LeadStore = core.LeadStore
type EndpointStore = core.EndpointStore
type AuditSink = core.AuditSink
type StatsStore = core.StatsStore
type SubscriptionStore = core.SubscriptionStore
type LeadIngestor = core.LeadIngestor
type TransformerRegistry = core.TransformerRegistry
type Normalizer = core.Normalizer
type SecretCipher = core.SecretCipher
type PermissionEvaluator = core.PermissionEvaluator
type QuotaEvaluator = core.QuotaEvaluator
type RateLimitPolicy = core.RateLimitPolicy

type CreateWorkspaceInput = core.CreateWorkspaceInput
type AddMemberInput = core.AddMemberInput
type CreateLeadInput = core.CreateLeadInput
type UpdateLeadInput = core.UpdateLeadInput
type RegisterEndpointInput = core.RegisterEndpointInput
type LeadFilter = core.LeadFilter
type LeadPage = core.LeadPage
type AuditFilter = core.AuditFilter
type AuditPage = core.AuditPage

var (
	WithLogger              = core.WithLogger
	WithLoggerProvider      = core.WithLoggerProvider
	WithMetricsRecorder     = core.WithMetricsRecorder
	WithErrorFactory        = core.WithErrorFactory
	WithErrorMapper         = core.WithErrorMapper
	WithPersistenceClient   = core.WithPersistenceClient
	WithRepositoryFactory   = core.WithRepositoryFactory
	WithConfigProvider      = core.WithConfigProvider
	WithOptionsResolver     = core.WithOptionsResolver
	WithTransformerRegistry = core.WithTransformerRegistry
	WithNormalizer          = core.WithNormalizer
	WithSecretCipher        = core.WithSecretCipher
	WithWorkspaceStore      = core.WithWorkspaceStore
	WithMemberStore         = core.WithMemberStore
	WithLeadStore           = core.WithLeadStore
	WithEndpointStore       = core.WithEndpointStore
	WithAuditSink           = core.WithAuditSink
	WithStatsStore          = core.WithStatsStore
	WithSubscriptionStore   = core.WithSubscriptionStore
	WithLeadIngestor        = core.WithLeadIngestor
	WithQuotaEvaluator      = core.WithQuotaEvaluator
	WithRateLimitPolicy     = core.WithRateLimitPolicy
	WithPermissionEvaluator = core.WithPermissionEvaluator
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
