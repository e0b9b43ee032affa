package crm

import (
	"fmt"

	"github.com/goliatone/go-crm/billing"
	crmcommand "github.com/goliatone/go-crm/command"
	"github.com/goliatone/go-crm/core"
	crmquery "github.com/goliatone/go-crm/query"
)

var (
	_ CommandQueryService = (*core.Service)(nil)
	_ BillingService      = (*billing.Service)(nil)
)

type CommandQueryService interface {
	crmcommand.MutatingService
	crmquery.WorkspaceReader
	crmquery.LeadReader
	crmquery.EndpointReader
	crmquery.AuditReader
}

// BillingService covers the subscription mutations and quota reads that the
// billing package serves. The core service does not implement these itself.
type BillingService interface {
	crmcommand.BillingMutatingService
	crmquery.QuotaReader
}

type Commands struct {
	CreateWorkspace       *crmcommand.CreateWorkspaceCommand
	SetWorkspaceStatus    *crmcommand.SetWorkspaceStatusCommand
	AddMember             *crmcommand.AddMemberCommand
	UpdateMemberRole      *crmcommand.UpdateMemberRoleCommand
	RemoveMember          *crmcommand.RemoveMemberCommand
	CreateLead            *crmcommand.CreateLeadCommand
	UpdateLead            *crmcommand.UpdateLeadCommand
	UpdateLeadStatus      *crmcommand.UpdateLeadStatusCommand
	DeleteLead            *crmcommand.DeleteLeadCommand
	RegisterEndpoint      *crmcommand.RegisterEndpointCommand
	SetEndpointStatus     *crmcommand.SetEndpointStatusCommand
	RotateEndpointSecret  *crmcommand.RotateEndpointSecretCommand
	UpdateFieldRules      *crmcommand.UpdateFieldRulesCommand
	StartSubscription     *crmcommand.StartSubscriptionCommand
	ChangePlan            *crmcommand.ChangePlanCommand
	SetSubscriptionStatus *crmcommand.SetSubscriptionStatusCommand
}

type Queries struct {
	GetWorkspace     *crmquery.GetWorkspaceQuery
	ListMembers      *crmquery.ListMembersQuery
	GetLead          *crmquery.GetLeadQuery
	ListLeads        *crmquery.ListLeadsQuery
	GetEndpoint      *crmquery.GetEndpointQuery
	ListEndpoints    *crmquery.ListEndpointsQuery
	AuditTrail       *crmquery.AuditTrailQuery
	GetEndpointStats *crmquery.GetEndpointStatsQuery
	LeadQuota        *crmquery.LeadQuotaQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	billing BillingService
}

func WithBillingService(billing BillingService) FacadeOption {
	return func(options *facadeOptions) {
		options.billing = billing
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("crm: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	billing := cfg.billing
	if billing == nil {
		billing = resolveBillingService(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		CreateWorkspace:       crmcommand.NewCreateWorkspaceCommand(service),
		SetWorkspaceStatus:    crmcommand.NewSetWorkspaceStatusCommand(service),
		AddMember:             crmcommand.NewAddMemberCommand(service),
		UpdateMemberRole:      crmcommand.NewUpdateMemberRoleCommand(service),
		RemoveMember:          crmcommand.NewRemoveMemberCommand(service),
		CreateLead:            crmcommand.NewCreateLeadCommand(service),
		UpdateLead:            crmcommand.NewUpdateLeadCommand(service),
		UpdateLeadStatus:      crmcommand.NewUpdateLeadStatusCommand(service),
		DeleteLead:            crmcommand.NewDeleteLeadCommand(service),
		RegisterEndpoint:      crmcommand.NewRegisterEndpointCommand(service),
		SetEndpointStatus:     crmcommand.NewSetEndpointStatusCommand(service),
		RotateEndpointSecret:  crmcommand.NewRotateEndpointSecretCommand(service),
		UpdateFieldRules:      crmcommand.NewUpdateFieldRulesCommand(service),
		StartSubscription:     crmcommand.NewStartSubscriptionCommand(billing),
		ChangePlan:            crmcommand.NewChangePlanCommand(billing),
		SetSubscriptionStatus: crmcommand.NewSetSubscriptionStatusCommand(billing),
	}
	facade.queries = Queries{
		GetWorkspace:     crmquery.NewGetWorkspaceQuery(service),
		ListMembers:      crmquery.NewListMembersQuery(service),
		GetLead:          crmquery.NewGetLeadQuery(service),
		ListLeads:        crmquery.NewListLeadsQuery(service),
		GetEndpoint:      crmquery.NewGetEndpointQuery(service),
		ListEndpoints:    crmquery.NewListEndpointsQuery(service),
		AuditTrail:       crmquery.NewAuditTrailQuery(service),
		GetEndpointStats: crmquery.NewGetEndpointStatsQuery(service),
		LeadQuota:        crmquery.NewLeadQuotaQuery(billing),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

func resolveBillingService(service CommandQueryService) BillingService {
	if service == nil {
		return nil
	}
	if billing, ok := service.(BillingService); ok {
		return billing
	}
	return nil
}
