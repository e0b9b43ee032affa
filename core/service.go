package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// StoreProvider hands the service its persistence surfaces as one bundle.
type StoreProvider interface {
	WorkspaceStore() WorkspaceStore
	MemberStore() MemberStore
	LeadStore() LeadStore
	EndpointStore() EndpointStore
	AuditSink() AuditSink
	StatsStore() StatsStore
	SubscriptionStore() SubscriptionStore
	LeadIngestor() LeadIngestor
}

// RepositoryStoreFactory builds a StoreProvider from a persistence client.
type RepositoryStoreFactory interface {
	BuildStores(client any) (StoreProvider, error)
}

// Actor identifies who is performing an operation. System actors bypass the
// permission evaluator; user actors are checked against their workspace role.
type Actor struct {
	ID   string
	Type string
}

const (
	ActorTypeUser    = "user"
	ActorTypeSystem  = "system"
	ActorTypeWebhook = "webhook"
)

func SystemActor() Actor {
	return Actor{ID: "system", Type: ActorTypeSystem}
}

func (a Actor) IsSystem() bool {
	return a.Type == ActorTypeSystem || a.Type == ActorTypeWebhook
}

type Service struct {
	config              Config
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
	ruleCompiler        *FieldRuleCompiler
	now                 func() time.Time
}

type ServiceDependencies struct {
	Logger              Logger
	LoggerProvider      LoggerProvider
	MetricsRecorder     MetricsRecorder
	ErrorFactory        ErrorFactory
	ErrorMapper         ErrorMapper
	PersistenceClient   any
	RepositoryFactory   any
	ConfigProvider      ConfigProvider
	OptionsResolver     OptionsResolver
	Registry            TransformerRegistry
	Normalizer          *Normalizer
	SecretCipher        SecretCipher
	WorkspaceStore      WorkspaceStore
	MemberStore         MemberStore
	LeadStore           LeadStore
	EndpointStore       EndpointStore
	AuditSink           AuditSink
	StatsStore          StatsStore
	SubscriptionStore   SubscriptionStore
	LeadIngestor        LeadIngestor
	QuotaEvaluator      QuotaEvaluator
	RateLimitPolicy     RateLimitPolicy
	PermissionEvaluator PermissionEvaluator
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("crm", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("crm"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.registry == nil {
		builder.registry = NewLeadTransformerRegistry()
	}
	if builder.normalizer == nil {
		builder.normalizer = NewNormalizer(builder.registry)
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.repositoryFactory != nil && needsStores(builder) {
		var stores StoreProvider
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			stores, err = storeFactory.BuildStores(builder.persistenceClient)
			if err != nil {
				return nil, mapBuildError(builder.errorMapper, err)
			}
		} else if storeProvider, ok := builder.repositoryFactory.(StoreProvider); ok {
			stores = storeProvider
		}
		if stores != nil {
			applyStoreProvider(&builder, stores)
		}
	}
	if builder.permissionEvaluator == nil && builder.memberStore != nil {
		builder.permissionEvaluator = NewRolePermissionEvaluator(builder.memberStore)
	}

	return &Service{
		config:              finalConfig,
		logger:              logger,
		loggerProvider:      provider,
		metricsRecorder:     builder.metricsRecorder,
		errorFactory:        builder.errorFactory,
		errorMapper:         builder.errorMapper,
		persistenceClient:   builder.persistenceClient,
		repositoryFactory:   builder.repositoryFactory,
		configProvider:      builder.configProvider,
		optionsResolver:     builder.optionsResolver,
		registry:            builder.registry,
		normalizer:          builder.normalizer,
		secretCipher:        builder.secretCipher,
		workspaceStore:      builder.workspaceStore,
		memberStore:         builder.memberStore,
		leadStore:           builder.leadStore,
		endpointStore:       builder.endpointStore,
		auditSink:           builder.auditSink,
		statsStore:          builder.statsStore,
		subscriptionStore:   builder.subscriptionStore,
		ingestor:            builder.ingestor,
		quotaEvaluator:      builder.quotaEvaluator,
		rateLimitPolicy:     builder.rateLimitPolicy,
		permissionEvaluator: builder.permissionEvaluator,
		ruleCompiler:        NewFieldRuleCompiler(),
		now:                 func() time.Time { return time.Now().UTC() },
	}, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func needsStores(builder serviceBuilder) bool {
	return builder.workspaceStore == nil ||
		builder.memberStore == nil ||
		builder.leadStore == nil ||
		builder.endpointStore == nil ||
		builder.auditSink == nil ||
		builder.statsStore == nil ||
		builder.subscriptionStore == nil ||
		builder.ingestor == nil
}

func applyStoreProvider(builder *serviceBuilder, stores StoreProvider) {
	if builder.workspaceStore == nil {
		builder.workspaceStore = stores.WorkspaceStore()
	}
	if builder.memberStore == nil {
		builder.memberStore = stores.MemberStore()
	}
	if builder.leadStore == nil {
		builder.leadStore = stores.LeadStore()
	}
	if builder.endpointStore == nil {
		builder.endpointStore = stores.EndpointStore()
	}
	if builder.auditSink == nil {
		builder.auditSink = stores.AuditSink()
	}
	if builder.statsStore == nil {
		builder.statsStore = stores.StatsStore()
	}
	if builder.subscriptionStore == nil {
		builder.subscriptionStore = stores.SubscriptionStore()
	}
	if builder.ingestor == nil {
		builder.ingestor = stores.LeadIngestor()
	}
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:              s.logger,
		LoggerProvider:      s.loggerProvider,
		MetricsRecorder:     s.metricsRecorder,
		ErrorFactory:        s.errorFactory,
		ErrorMapper:         s.errorMapper,
		PersistenceClient:   s.persistenceClient,
		RepositoryFactory:   s.repositoryFactory,
		ConfigProvider:      s.configProvider,
		OptionsResolver:     s.optionsResolver,
		Registry:            s.registry,
		Normalizer:          s.normalizer,
		SecretCipher:        s.secretCipher,
		WorkspaceStore:      s.workspaceStore,
		MemberStore:         s.memberStore,
		LeadStore:           s.leadStore,
		EndpointStore:       s.endpointStore,
		AuditSink:           s.auditSink,
		StatsStore:          s.statsStore,
		SubscriptionStore:   s.subscriptionStore,
		LeadIngestor:        s.ingestor,
		QuotaEvaluator:      s.quotaEvaluator,
		RateLimitPolicy:     s.rateLimitPolicy,
		PermissionEvaluator: s.permissionEvaluator,
	}
}

func (s *Service) CreateWorkspace(ctx context.Context, actor Actor, in CreateWorkspaceInput) (workspace Workspace, err error) {
	startedAt := s.clock()
	fields := map[string]any{"actor": actor.ID}
	defer func() {
		if workspace.ID != "" {
			fields["workspace_id"] = workspace.ID
		}
		s.observeOperation(ctx, startedAt, "create_workspace", err, fields)
	}()

	if s == nil || s.workspaceStore == nil {
		err = s.mapError(fmt.Errorf("core: workspace store is required"))
		return Workspace{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		err = s.mapError(fmt.Errorf("core: workspace name is required"))
		return Workspace{}, err
	}
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	if in.OwnerID == "" {
		err = s.mapError(fmt.Errorf("core: workspace owner id is required"))
		return Workspace{}, err
	}
	in.Slug = slugify(firstNonEmpty(in.Slug, in.Name))
	if in.PlanID = strings.TrimSpace(in.PlanID); in.PlanID == "" {
		in.PlanID = s.config.Billing.DefaultPlanID
	}

	workspace, err = s.workspaceStore.Create(ctx, in)
	if err != nil {
		err = s.mapError(err)
		return Workspace{}, err
	}

	if s.memberStore != nil {
		_, memberErr := s.memberStore.Add(ctx, AddMemberInput{
			WorkspaceID: workspace.ID,
			UserID:      in.OwnerID,
			Email:       strings.TrimSpace(strings.ToLower(in.OwnerEmail)),
			Role:        MemberRoleOwner,
		})
		if memberErr != nil {
			err = s.mapError(memberErr)
			return Workspace{}, err
		}
	}

	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: workspace.ID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "workspace.created",
		ObjectType:  "workspace",
		ObjectID:    workspace.ID,
		Status:      AuditStatusOK,
		Metadata:    map[string]any{"slug": workspace.Slug, "plan_id": workspace.PlanID},
	})
	return workspace, nil
}

func (s *Service) GetWorkspace(ctx context.Context, actor Actor, workspaceID string) (Workspace, error) {
	if s == nil || s.workspaceStore == nil {
		return Workspace{}, s.mapError(fmt.Errorf("core: workspace store is required"))
	}
	if err := s.requirePermission(ctx, workspaceID, actor, PermissionLeadsRead); err != nil {
		return Workspace{}, err
	}
	workspace, err := s.workspaceStore.Get(ctx, workspaceID)
	if err != nil {
		return Workspace{}, s.mapError(err)
	}
	return workspace, nil
}

func (s *Service) SetWorkspaceStatus(ctx context.Context, actor Actor, workspaceID string, status WorkspaceStatus) (err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": workspaceID, "target_status": string(status)}
	defer func() {
		s.observeOperation(ctx, startedAt, "set_workspace_status", err, fields)
	}()

	if s == nil || s.workspaceStore == nil {
		err = s.mapError(fmt.Errorf("core: workspace store is required"))
		return err
	}
	if err = s.requirePermission(ctx, workspaceID, actor, PermissionWorkspaceManage); err != nil {
		return err
	}
	workspace, err := s.workspaceStore.Get(ctx, workspaceID)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if err = workspace.TransitionTo(status, s.clock()); err != nil {
		err = s.mapError(err)
		return err
	}
	if err = s.workspaceStore.UpdateStatus(ctx, workspaceID, workspace.Status); err != nil {
		err = s.mapError(err)
		return err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: workspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "workspace.status_changed",
		ObjectType:  "workspace",
		ObjectID:    workspaceID,
		Status:      AuditStatusOK,
		Metadata:    map[string]any{"status": string(status)},
	})
	return nil
}

func (s *Service) AddMember(ctx context.Context, actor Actor, in AddMemberInput) (member Member, err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": in.WorkspaceID, "role": string(in.Role)}
	defer func() {
		s.observeOperation(ctx, startedAt, "add_member", err, fields)
	}()

	if s == nil || s.memberStore == nil {
		err = s.mapError(fmt.Errorf("core: member store is required"))
		return Member{}, err
	}
	if err = s.requirePermission(ctx, in.WorkspaceID, actor, PermissionMembersManage); err != nil {
		return Member{}, err
	}
	if in.Role, err = ParseMemberRole(string(in.Role)); err != nil {
		err = s.mapError(err)
		return Member{}, err
	}
	if in.Role == MemberRoleOwner {
		err = s.mapError(fmt.Errorf("core: owner role is assigned at workspace creation"))
		return Member{}, err
	}
	in.UserID = strings.TrimSpace(in.UserID)
	if in.UserID == "" {
		err = s.mapError(fmt.Errorf("core: member user id is required"))
		return Member{}, err
	}
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	member, err = s.memberStore.Add(ctx, in)
	if err != nil {
		err = s.mapError(err)
		return Member{}, err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: in.WorkspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "member.added",
		ObjectType:  "member",
		ObjectID:    member.UserID,
		Status:      AuditStatusOK,
		Metadata:    map[string]any{"role": string(member.Role)},
	})
	return member, nil
}

func (s *Service) UpdateMemberRole(ctx context.Context, actor Actor, workspaceID string, userID string, role MemberRole) (err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": workspaceID, "role": string(role)}
	defer func() {
		s.observeOperation(ctx, startedAt, "update_member_role", err, fields)
	}()

	if s == nil || s.memberStore == nil {
		err = s.mapError(fmt.Errorf("core: member store is required"))
		return err
	}
	if err = s.requirePermission(ctx, workspaceID, actor, PermissionMembersManage); err != nil {
		return err
	}
	if role, err = ParseMemberRole(string(role)); err != nil {
		err = s.mapError(err)
		return err
	}
	member, err := s.memberStore.Get(ctx, workspaceID, userID)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if member.Role == MemberRoleOwner {
		err = s.mapError(fmt.Errorf("core: owner role cannot be reassigned"))
		return err
	}
	if role == MemberRoleOwner {
		err = s.mapError(fmt.Errorf("core: owner role is assigned at workspace creation"))
		return err
	}
	if err = s.memberStore.UpdateRole(ctx, workspaceID, userID, role); err != nil {
		err = s.mapError(err)
		return err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: workspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "member.role_changed",
		ObjectType:  "member",
		ObjectID:    userID,
		Status:      AuditStatusOK,
		Metadata:    map[string]any{"role": string(role)},
	})
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, actor Actor, workspaceID string, userID string) (err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": workspaceID}
	defer func() {
		s.observeOperation(ctx, startedAt, "remove_member", err, fields)
	}()

	if s == nil || s.memberStore == nil {
		err = s.mapError(fmt.Errorf("core: member store is required"))
		return err
	}
	if err = s.requirePermission(ctx, workspaceID, actor, PermissionMembersManage); err != nil {
		return err
	}
	member, err := s.memberStore.Get(ctx, workspaceID, userID)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if member.Role == MemberRoleOwner {
		err = s.mapError(fmt.Errorf("core: workspace owner cannot be removed"))
		return err
	}
	if err = s.memberStore.Remove(ctx, workspaceID, userID); err != nil {
		err = s.mapError(err)
		return err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: workspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "member.removed",
		ObjectType:  "member",
		ObjectID:    userID,
		Status:      AuditStatusOK,
	})
	return nil
}

func (s *Service) ListMembers(ctx context.Context, actor Actor, workspaceID string) ([]Member, error) {
	if s == nil || s.memberStore == nil {
		return nil, s.mapError(fmt.Errorf("core: member store is required"))
	}
	if err := s.requirePermission(ctx, workspaceID, actor, PermissionLeadsRead); err != nil {
		return nil, err
	}
	members, err := s.memberStore.List(ctx, workspaceID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return members, nil
}

func (s *Service) CreateLead(ctx context.Context, actor Actor, in CreateLeadInput) (lead Lead, err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": in.WorkspaceID}
	defer func() {
		if lead.ID != "" {
			fields["lead_id"] = lead.ID
		}
		s.observeOperation(ctx, startedAt, "create_lead", err, fields)
	}()

	if s == nil || s.leadStore == nil {
		err = s.mapError(fmt.Errorf("core: lead store is required"))
		return Lead{}, err
	}
	if err = s.requirePermission(ctx, in.WorkspaceID, actor, PermissionLeadsWrite); err != nil {
		return Lead{}, err
	}
	in.Lead = finalizeLead(in.Lead, ProviderCustom)
	if in.Lead.Source == string(ProviderCustom) {
		in.Lead.Source = "manual"
	}
	if err = in.Lead.Validate(); err != nil {
		err = s.mapError(err)
		return Lead{}, err
	}
	if s.quotaEvaluator != nil {
		decision, quotaErr := s.quotaEvaluator.EvaluateLeadQuota(ctx, in.WorkspaceID)
		if quotaErr != nil {
			err = s.mapError(quotaErr)
			return Lead{}, err
		}
		if !decision.Allowed {
			err = s.quotaExceededError(in.WorkspaceID, decision)
			return Lead{}, err
		}
	}

	lead, err = s.leadStore.Create(ctx, in)
	if err != nil {
		err = s.mapError(err)
		return Lead{}, err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: in.WorkspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "lead.created",
		ObjectType:  "lead",
		ObjectID:    lead.ID,
		Status:      AuditStatusOK,
		Metadata:    map[string]any{"source": lead.Source},
	})
	return lead, nil
}

func (s *Service) GetLead(ctx context.Context, actor Actor, workspaceID string, leadID string) (Lead, error) {
	if s == nil || s.leadStore == nil {
		return Lead{}, s.mapError(fmt.Errorf("core: lead store is required"))
	}
	if err := s.requirePermission(ctx, workspaceID, actor, PermissionLeadsRead); err != nil {
		return Lead{}, err
	}
	lead, err := s.leadStore.Get(ctx, workspaceID, leadID)
	if err != nil {
		return Lead{}, s.mapError(err)
	}
	return lead, nil
}

func (s *Service) ListLeads(ctx context.Context, actor Actor, filter LeadFilter) (LeadPage, error) {
	if s == nil || s.leadStore == nil {
		return LeadPage{}, s.mapError(fmt.Errorf("core: lead store is required"))
	}
	if err := s.requirePermission(ctx, filter.WorkspaceID, actor, PermissionLeadsRead); err != nil {
		return LeadPage{}, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 25
	}
	page, err := s.leadStore.List(ctx, filter)
	if err != nil {
		return LeadPage{}, s.mapError(err)
	}
	return page, nil
}

func (s *Service) UpdateLead(ctx context.Context, actor Actor, in UpdateLeadInput) (lead Lead, err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": in.WorkspaceID, "lead_id": in.LeadID}
	defer func() {
		s.observeOperation(ctx, startedAt, "update_lead", err, fields)
	}()

	if s == nil || s.leadStore == nil {
		err = s.mapError(fmt.Errorf("core: lead store is required"))
		return Lead{}, err
	}
	if err = s.requirePermission(ctx, in.WorkspaceID, actor, PermissionLeadsWrite); err != nil {
		return Lead{}, err
	}
	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		in.Email = &email
	}
	if in.Value != nil && *in.Value < 0 {
		err = s.mapError(fmt.Errorf("core: lead value must not be negative"))
		return Lead{}, err
	}
	lead, err = s.leadStore.Update(ctx, in)
	if err != nil {
		err = s.mapError(err)
		return Lead{}, err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: in.WorkspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "lead.updated",
		ObjectType:  "lead",
		ObjectID:    lead.ID,
		Status:      AuditStatusOK,
	})
	return lead, nil
}

func (s *Service) UpdateLeadStatus(ctx context.Context, actor Actor, workspaceID string, leadID string, status LeadStatus) (lead Lead, err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": workspaceID, "lead_id": leadID, "target_status": string(status)}
	defer func() {
		s.observeOperation(ctx, startedAt, "update_lead_status", err, fields)
	}()

	if s == nil || s.leadStore == nil {
		err = s.mapError(fmt.Errorf("core: lead store is required"))
		return Lead{}, err
	}
	if err = s.requirePermission(ctx, workspaceID, actor, PermissionLeadsWrite); err != nil {
		return Lead{}, err
	}
	current, err := s.leadStore.Get(ctx, workspaceID, leadID)
	if err != nil {
		err = s.mapError(err)
		return Lead{}, err
	}
	if err = current.TransitionTo(status, s.clock()); err != nil {
		err = s.mapError(err)
		return Lead{}, err
	}
	lead, err = s.leadStore.UpdateStatus(ctx, workspaceID, leadID, current.Status)
	if err != nil {
		err = s.mapError(err)
		return Lead{}, err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: workspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "lead.status_changed",
		ObjectType:  "lead",
		ObjectID:    leadID,
		Status:      AuditStatusOK,
		Metadata:    map[string]any{"status": string(status)},
	})
	return lead, nil
}

func (s *Service) DeleteLead(ctx context.Context, actor Actor, workspaceID string, leadID string) (err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": workspaceID, "lead_id": leadID}
	defer func() {
		s.observeOperation(ctx, startedAt, "delete_lead", err, fields)
	}()

	if s == nil || s.leadStore == nil {
		err = s.mapError(fmt.Errorf("core: lead store is required"))
		return err
	}
	if err = s.requirePermission(ctx, workspaceID, actor, PermissionLeadsDelete); err != nil {
		return err
	}
	if err = s.leadStore.Delete(ctx, workspaceID, leadID); err != nil {
		err = s.mapError(err)
		return err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: workspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "lead.deleted",
		ObjectType:  "lead",
		ObjectID:    leadID,
		Status:      AuditStatusOK,
	})
	return nil
}

func (s *Service) RegisterEndpoint(ctx context.Context, actor Actor, in RegisterEndpointInput) (endpoint WebhookEndpoint, err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": in.WorkspaceID, "provider": string(in.Provider)}
	defer func() {
		if endpoint.ID != "" {
			fields["endpoint_id"] = endpoint.ID
		}
		s.observeOperation(ctx, startedAt, "register_endpoint", err, fields)
	}()

	if s == nil || s.endpointStore == nil {
		err = s.mapError(fmt.Errorf("core: endpoint store is required"))
		return WebhookEndpoint{}, err
	}
	if err = s.requirePermission(ctx, in.WorkspaceID, actor, PermissionEndpointsManage); err != nil {
		return WebhookEndpoint{}, err
	}
	if in.Provider, err = ParseProviderTag(string(in.Provider)); err != nil {
		err = s.mapError(err)
		return WebhookEndpoint{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		err = s.mapError(fmt.Errorf("core: endpoint name is required"))
		return WebhookEndpoint{}, err
	}

	rules, err := s.compileEndpointRules(in.Provider, in.FieldRules)
	if err != nil {
		err = s.mapError(err)
		return WebhookEndpoint{}, err
	}

	var encrypted []byte
	if secret := strings.TrimSpace(in.Secret); secret != "" {
		encrypted, err = s.encryptSecret(ctx, secret)
		if err != nil {
			err = s.mapError(err)
			return WebhookEndpoint{}, err
		}
	}

	now := s.clock()
	endpoint, err = s.endpointStore.Create(ctx, WebhookEndpoint{
		PublicID:        newPublicID(),
		WorkspaceID:     in.WorkspaceID,
		Name:            in.Name,
		Provider:        in.Provider,
		EncryptedSecret: encrypted,
		Status:          EndpointStatusActive,
		FieldRules:      rules,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		err = s.mapError(err)
		return WebhookEndpoint{}, err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: in.WorkspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "endpoint.registered",
		ObjectType:  "endpoint",
		ObjectID:    endpoint.ID,
		Status:      AuditStatusOK,
		Metadata:    map[string]any{"provider": string(endpoint.Provider), "public_id": endpoint.PublicID},
	})
	return endpoint, nil
}

func (s *Service) GetEndpoint(ctx context.Context, actor Actor, workspaceID string, endpointID string) (WebhookEndpoint, error) {
	if s == nil || s.endpointStore == nil {
		return WebhookEndpoint{}, s.mapError(fmt.Errorf("core: endpoint store is required"))
	}
	if err := s.requirePermission(ctx, workspaceID, actor, PermissionEndpointsManage); err != nil {
		return WebhookEndpoint{}, err
	}
	endpoint, err := s.endpointStore.Get(ctx, workspaceID, endpointID)
	if err != nil {
		return WebhookEndpoint{}, s.mapError(err)
	}
	return endpoint, nil
}

func (s *Service) ListEndpoints(ctx context.Context, actor Actor, workspaceID string) ([]WebhookEndpoint, error) {
	if s == nil || s.endpointStore == nil {
		return nil, s.mapError(fmt.Errorf("core: endpoint store is required"))
	}
	if err := s.requirePermission(ctx, workspaceID, actor, PermissionEndpointsManage); err != nil {
		return nil, err
	}
	endpoints, err := s.endpointStore.List(ctx, workspaceID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return endpoints, nil
}

func (s *Service) SetEndpointStatus(ctx context.Context, actor Actor, workspaceID string, endpointID string, status EndpointStatus, reason string) (err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": workspaceID, "endpoint_id": endpointID, "target_status": string(status)}
	defer func() {
		s.observeOperation(ctx, startedAt, "set_endpoint_status", err, fields)
	}()

	if s == nil || s.endpointStore == nil {
		err = s.mapError(fmt.Errorf("core: endpoint store is required"))
		return err
	}
	if err = s.requirePermission(ctx, workspaceID, actor, PermissionEndpointsManage); err != nil {
		return err
	}
	endpoint, err := s.endpointStore.Get(ctx, workspaceID, endpointID)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if err = endpoint.TransitionTo(status, reason, s.clock()); err != nil {
		err = s.mapError(err)
		return err
	}
	if err = s.endpointStore.UpdateStatus(ctx, endpointID, endpoint.Status, endpoint.LastError); err != nil {
		err = s.mapError(err)
		return err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: workspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "endpoint.status_changed",
		ObjectType:  "endpoint",
		ObjectID:    endpointID,
		Status:      AuditStatusOK,
		Metadata:    map[string]any{"status": string(status), "reason": strings.TrimSpace(reason)},
	})
	return nil
}

func (s *Service) RotateEndpointSecret(ctx context.Context, actor Actor, workspaceID string, endpointID string, secret string) (err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": workspaceID, "endpoint_id": endpointID}
	defer func() {
		s.observeOperation(ctx, startedAt, "rotate_endpoint_secret", err, fields)
	}()

	if s == nil || s.endpointStore == nil {
		err = s.mapError(fmt.Errorf("core: endpoint store is required"))
		return err
	}
	if err = s.requirePermission(ctx, workspaceID, actor, PermissionEndpointsManage); err != nil {
		return err
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		err = s.mapError(fmt.Errorf("core: endpoint secret is required"))
		return err
	}
	if _, err = s.endpointStore.Get(ctx, workspaceID, endpointID); err != nil {
		err = s.mapError(err)
		return err
	}
	encrypted, err := s.encryptSecret(ctx, secret)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if err = s.endpointStore.UpdateSecret(ctx, endpointID, encrypted); err != nil {
		err = s.mapError(err)
		return err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: workspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "endpoint.secret_rotated",
		ObjectType:  "endpoint",
		ObjectID:    endpointID,
		Status:      AuditStatusOK,
	})
	return nil
}

func (s *Service) UpdateEndpointFieldRules(ctx context.Context, actor Actor, workspaceID string, endpointID string, rules []FieldRule) (err error) {
	startedAt := s.clock()
	fields := map[string]any{"workspace_id": workspaceID, "endpoint_id": endpointID}
	defer func() {
		s.observeOperation(ctx, startedAt, "update_endpoint_field_rules", err, fields)
	}()

	if s == nil || s.endpointStore == nil {
		err = s.mapError(fmt.Errorf("core: endpoint store is required"))
		return err
	}
	if err = s.requirePermission(ctx, workspaceID, actor, PermissionEndpointsManage); err != nil {
		return err
	}
	endpoint, err := s.endpointStore.Get(ctx, workspaceID, endpointID)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	compiled, err := s.compileEndpointRules(endpoint.Provider, rules)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if err = s.endpointStore.UpdateFieldRules(ctx, endpointID, compiled); err != nil {
		err = s.mapError(err)
		return err
	}
	s.recordAudit(ctx, AuditEntry{
		WorkspaceID: workspaceID,
		Actor:       actor.ID,
		ActorType:   actorType(actor),
		Action:      "endpoint.field_rules_updated",
		ObjectType:  "endpoint",
		ObjectID:    endpointID,
		Status:      AuditStatusOK,
		Metadata:    map[string]any{"rule_count": len(compiled)},
	})
	return nil
}

// EndpointSecret decrypts the signing secret stored on an endpoint. Callers
// outside the core package use this during signature verification.
func (s *Service) EndpointSecret(ctx context.Context, endpoint WebhookEndpoint) (string, error) {
	if s == nil {
		return "", fmt.Errorf("core: service is required")
	}
	if len(endpoint.EncryptedSecret) == 0 {
		return "", nil
	}
	if s.secretCipher == nil {
		return "", s.mapError(fmt.Errorf("core: secret cipher is required to read endpoint secrets"))
	}
	plaintext, err := s.secretCipher.Decrypt(ctx, endpoint.EncryptedSecret)
	if err != nil {
		return "", s.mapError(err)
	}
	return string(plaintext), nil
}

func (s *Service) AuditTrail(ctx context.Context, actor Actor, filter AuditFilter) (AuditPage, error) {
	if s == nil || s.auditSink == nil {
		return AuditPage{}, s.mapError(fmt.Errorf("core: audit sink is required"))
	}
	if err := s.requirePermission(ctx, filter.WorkspaceID, actor, PermissionAuditRead); err != nil {
		return AuditPage{}, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 50
	}
	page, err := s.auditSink.List(ctx, filter)
	if err != nil {
		return AuditPage{}, s.mapError(err)
	}
	return page, nil
}

func (s *Service) EndpointStats(ctx context.Context, actor Actor, workspaceID string, endpointID string) (EndpointStats, error) {
	if s == nil || s.statsStore == nil {
		return EndpointStats{}, s.mapError(fmt.Errorf("core: stats store is required"))
	}
	if err := s.requirePermission(ctx, workspaceID, actor, PermissionLeadsRead); err != nil {
		return EndpointStats{}, err
	}
	stats, err := s.statsStore.Get(ctx, endpointID)
	if err != nil {
		return EndpointStats{}, s.mapError(err)
	}
	return stats, nil
}

func (s *Service) requirePermission(ctx context.Context, workspaceID string, actor Actor, permission Permission) error {
	if s == nil {
		return fmt.Errorf("core: service is required")
	}
	if actor.IsSystem() {
		return nil
	}
	if s.permissionEvaluator == nil {
		return s.mapError(fmt.Errorf("core: permission evaluator is required"))
	}
	decision, err := s.permissionEvaluator.Evaluate(ctx, workspaceID, actor.ID, permission)
	if err != nil {
		return s.mapError(err)
	}
	if !decision.Allowed {
		wrapped := s.errorFactory(
			fmt.Sprintf("permission %s denied: %s", permission, decision.Reason),
			goerrors.CategoryAuthz,
		).WithTextCode(CRMErrorPermissionDenied)
		return wrapped.WithMetadata(map[string]any{
			"workspace_id": workspaceID,
			"permission":   string(permission),
			"role":         string(decision.Role),
		})
	}
	return nil
}

func (s *Service) quotaExceededError(workspaceID string, decision QuotaDecision) error {
	wrapped := s.errorFactory(
		fmt.Sprintf("monthly lead quota exceeded: %s", decision.Reason),
		goerrors.CategoryRateLimit,
	).WithTextCode(CRMErrorQuotaExceeded)
	return wrapped.WithMetadata(map[string]any{
		"workspace_id": workspaceID,
		"limit":        decision.Limit,
		"used":         decision.Used,
	})
}

func (s *Service) compileEndpointRules(provider ProviderTag, rules []FieldRule) ([]FieldRule, error) {
	if provider != ProviderCustom {
		if len(rules) > 0 {
			return nil, fmt.Errorf("core: field rules are only supported for the custom provider")
		}
		return nil, nil
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("core: custom provider requires field rules")
	}
	compiled, issues, err := s.ruleCompiler.Compile(rules)
	if err != nil {
		return nil, err
	}
	if ContainsFieldRuleErrors(issues) {
		return nil, fmt.Errorf("core: field rules are invalid: %s", issues[0].Message)
	}
	return compiled.Rules, nil
}

func (s *Service) encryptSecret(ctx context.Context, secret string) ([]byte, error) {
	if s.secretCipher == nil {
		return nil, fmt.Errorf("core: secret cipher is required to store endpoint secrets")
	}
	return s.secretCipher.Encrypt(ctx, []byte(secret))
}

func (s *Service) recordAudit(ctx context.Context, entry AuditEntry) {
	if s == nil || s.auditSink == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock()
	}
	if err := s.auditSink.Record(ctx, entry); err != nil {
		s.logError(ctx, "audit record failed", map[string]any{
			"workspace_id": entry.WorkspaceID,
			"action":       entry.Action,
			"error":        err.Error(),
		})
	}
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) clock() time.Time {
	if s == nil || s.now == nil {
		return time.Now().UTC()
	}
	return s.now()
}

func actorType(actor Actor) string {
	if strings.TrimSpace(actor.Type) == "" {
		return ActorTypeUser
	}
	return actor.Type
}

func newPublicID() string {
	return "whk_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func slugify(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	var b strings.Builder
	lastDash := true
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
