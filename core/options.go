package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig       Config
	logger              Logger
	loggerProvider      LoggerProvider
	metricsRecorder     MetricsRecorder
	errorFactory        ErrorFactory
	errorMapper         ErrorMapper
	persistenceClient   any
	repositoryFactory   any
	configProvider      ConfigProvider
	optionsResolver     OptionsResolver
	registry            TransformerRegistry
	normalizer          *Normalizer
	secretCipher        SecretCipher
	workspaceStore      WorkspaceStore
	memberStore         MemberStore
	leadStore           LeadStore
	endpointStore       EndpointStore
	auditSink           AuditSink
	statsStore          StatsStore
	subscriptionStore   SubscriptionStore
	ingestor            LeadIngestor
	quotaEvaluator      QuotaEvaluator
	rateLimitPolicy     RateLimitPolicy
	permissionEvaluator PermissionEvaluator
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithTransformerRegistry(registry TransformerRegistry) Option {
	return func(b *serviceBuilder) {
		b.registry = registry
	}
}

func WithNormalizer(normalizer *Normalizer) Option {
	return func(b *serviceBuilder) {
		b.normalizer = normalizer
	}
}

func WithSecretCipher(cipher SecretCipher) Option {
	return func(b *serviceBuilder) {
		b.secretCipher = cipher
	}
}

func WithWorkspaceStore(store WorkspaceStore) Option {
	return func(b *serviceBuilder) {
		b.workspaceStore = store
	}
}

func WithMemberStore(store MemberStore) Option {
	return func(b *serviceBuilder) {
		b.memberStore = store
	}
}

func WithLeadStore(store LeadStore) Option {
	return func(b *serviceBuilder) {
		b.leadStore = store
	}
}

func WithEndpointStore(store EndpointStore) Option {
	return func(b *serviceBuilder) {
		b.endpointStore = store
	}
}

func WithAuditSink(sink AuditSink) Option {
	return func(b *serviceBuilder) {
		b.auditSink = sink
	}
}

func WithStatsStore(store StatsStore) Option {
	return func(b *serviceBuilder) {
		b.statsStore = store
	}
}

func WithSubscriptionStore(store SubscriptionStore) Option {
	return func(b *serviceBuilder) {
		b.subscriptionStore = store
	}
}

func WithLeadIngestor(ingestor LeadIngestor) Option {
	return func(b *serviceBuilder) {
		b.ingestor = ingestor
	}
}

func WithQuotaEvaluator(evaluator QuotaEvaluator) Option {
	return func(b *serviceBuilder) {
		b.quotaEvaluator = evaluator
	}
}

func WithRateLimitPolicy(policy RateLimitPolicy) Option {
	return func(b *serviceBuilder) {
		b.rateLimitPolicy = policy
	}
}

func WithPermissionEvaluator(evaluator PermissionEvaluator) Option {
	return func(b *serviceBuilder) {
		b.permissionEvaluator = evaluator
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("crm", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		registry:        NewLeadTransformerRegistry(),
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return crmErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || cfg.Ingestion.MaxBodyBytes > 0 || cfg.Ingestion.MergeByEmail {
		layer["ingestion"] = map[string]any{
			"max_body_bytes": cfg.Ingestion.MaxBodyBytes,
			"merge_by_email": cfg.Ingestion.MergeByEmail,
		}
	}
	if includeZero || cfg.RateLimit.WindowSeconds > 0 || cfg.RateLimit.MaxRequests > 0 {
		layer["rate_limit"] = map[string]any{
			"window_seconds": cfg.RateLimit.WindowSeconds,
			"max_requests":   cfg.RateLimit.MaxRequests,
		}
	}
	if includeZero || strings.TrimSpace(cfg.Billing.DefaultPlanID) != "" || cfg.Billing.TrialDays > 0 {
		layer["billing"] = map[string]any{
			"default_plan_id": cfg.Billing.DefaultPlanID,
			"trial_days":      cfg.Billing.TrialDays,
		}
	}
	return layer
}
