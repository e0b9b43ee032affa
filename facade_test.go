package crm

import (
	"context"
	"testing"

	crmcommand "github.com/goliatone/go-crm/command"
	"github.com/goliatone/go-crm/core"
	crmquery "github.com/goliatone/go-crm/query"
)

func TestNewFacade_WiresCommandsAndQueries(t *testing.T) {
	svc := &stubFacadeService{}
	billing := &stubFacadeBilling{}

	facade, err := NewFacade(svc, WithBillingService(billing))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	commands := facade.Commands()
	if commands.CreateWorkspace == nil || commands.RegisterEndpoint == nil || commands.StartSubscription == nil {
		t.Fatalf("expected command handlers to be wired")
	}
	queries := facade.Queries()
	if queries.GetWorkspace == nil || queries.ListLeads == nil || queries.LeadQuota == nil {
		t.Fatalf("expected query handlers to be wired")
	}
}

func TestFacade_CommandAndQueryDelegation(t *testing.T) {
	svc := &stubFacadeService{}
	billing := &stubFacadeBilling{}

	facade, err := NewFacade(svc, WithBillingService(billing))
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	if err := facade.Commands().UpdateLeadStatus.Execute(context.Background(), crmcommand.UpdateLeadStatusMessage{
		Actor:       core.SystemActor(),
		WorkspaceID: "ws_1",
		LeadID:      "lead_1",
		Status:      core.LeadStatusQualified,
	}); err != nil {
		t.Fatalf("execute update lead status: %v", err)
	}
	if svc.lastLeadID != "lead_1" || svc.lastLeadStatus != core.LeadStatusQualified {
		t.Fatalf("unexpected lead status delegation payload")
	}

	workspace, err := facade.Queries().GetWorkspace.Query(context.Background(), crmquery.GetWorkspaceMessage{
		Actor:       core.SystemActor(),
		WorkspaceID: "ws_1",
	})
	if err != nil {
		t.Fatalf("query get workspace: %v", err)
	}
	if workspace.ID != "ws_1" {
		t.Fatalf("unexpected workspace query result: %#v", workspace)
	}

	decision, err := facade.Queries().LeadQuota.Query(context.Background(), crmquery.LeadQuotaMessage{
		WorkspaceID: "ws_1",
	})
	if err != nil {
		t.Fatalf("query lead quota: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("unexpected quota decision: %#v", decision)
	}
	if billing.quotaWorkspaceID != "ws_1" {
		t.Fatalf("expected quota delegation to billing service")
	}
}

func TestNewFacade_RequiresService(t *testing.T) {
	facade, err := NewFacade(nil)
	if err == nil {
		t.Fatalf("expected nil service error")
	}
	if facade != nil {
		t.Fatalf("expected nil facade on error")
	}
}

func TestNewFacade_BillingHandlersFailWithoutBillingService(t *testing.T) {
	facade, err := NewFacade(&stubFacadeService{})
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}

	if err := facade.Commands().StartSubscription.Execute(context.Background(), crmcommand.StartSubscriptionMessage{
		WorkspaceID: "ws_1",
		PlanID:      "pro",
	}); err == nil {
		t.Fatalf("expected billing command to fail without billing service")
	}
}

var (
	_ CommandQueryService = (*stubFacadeService)(nil)
	_ BillingService      = (*stubFacadeBilling)(nil)
)

type stubFacadeService struct {
	lastLeadID     string
	lastLeadStatus core.LeadStatus
}

func (s *stubFacadeService) CreateWorkspace(context.Context, core.Actor, core.CreateWorkspaceInput) (core.Workspace, error) {
	return core.Workspace{ID: "ws_1"}, nil
}

func (s *stubFacadeService) SetWorkspaceStatus(context.Context, core.Actor, string, core.WorkspaceStatus) error {
	return nil
}

func (s *stubFacadeService) AddMember(context.Context, core.Actor, core.AddMemberInput) (core.Member, error) {
	return core.Member{WorkspaceID: "ws_1"}, nil
}

func (s *stubFacadeService) UpdateMemberRole(context.Context, core.Actor, string, string, core.MemberRole) error {
	return nil
}

func (s *stubFacadeService) RemoveMember(context.Context, core.Actor, string, string) error {
	return nil
}

func (s *stubFacadeService) CreateLead(context.Context, core.Actor, core.CreateLeadInput) (core.Lead, error) {
	return core.Lead{ID: "lead_1"}, nil
}

func (s *stubFacadeService) UpdateLead(context.Context, core.Actor, core.UpdateLeadInput) (core.Lead, error) {
	return core.Lead{ID: "lead_1"}, nil
}

func (s *stubFacadeService) UpdateLeadStatus(_ context.Context, _ core.Actor, _ string, leadID string, status core.LeadStatus) (core.Lead, error) {
	s.lastLeadID = leadID
	s.lastLeadStatus = status
	return core.Lead{ID: leadID, Status: status}, nil
}

func (s *stubFacadeService) DeleteLead(context.Context, core.Actor, string, string) error {
	return nil
}

func (s *stubFacadeService) RegisterEndpoint(context.Context, core.Actor, core.RegisterEndpointInput) (core.WebhookEndpoint, error) {
	return core.WebhookEndpoint{ID: "ep_1"}, nil
}

func (s *stubFacadeService) SetEndpointStatus(context.Context, core.Actor, string, string, core.EndpointStatus, string) error {
	return nil
}

func (s *stubFacadeService) RotateEndpointSecret(context.Context, core.Actor, string, string, string) error {
	return nil
}

func (s *stubFacadeService) UpdateEndpointFieldRules(context.Context, core.Actor, string, string, []core.FieldRule) error {
	return nil
}

func (s *stubFacadeService) GetWorkspace(_ context.Context, _ core.Actor, workspaceID string) (core.Workspace, error) {
	return core.Workspace{ID: workspaceID}, nil
}

func (s *stubFacadeService) ListMembers(context.Context, core.Actor, string) ([]core.Member, error) {
	return []core.Member{{WorkspaceID: "ws_1"}}, nil
}

func (s *stubFacadeService) GetLead(context.Context, core.Actor, string, string) (core.Lead, error) {
	return core.Lead{ID: "lead_1"}, nil
}

func (s *stubFacadeService) ListLeads(context.Context, core.Actor, core.LeadFilter) (core.LeadPage, error) {
	return core.LeadPage{Total: 1}, nil
}

func (s *stubFacadeService) GetEndpoint(context.Context, core.Actor, string, string) (core.WebhookEndpoint, error) {
	return core.WebhookEndpoint{ID: "ep_1"}, nil
}

func (s *stubFacadeService) ListEndpoints(context.Context, core.Actor, string) ([]core.WebhookEndpoint, error) {
	return []core.WebhookEndpoint{{ID: "ep_1"}}, nil
}

func (s *stubFacadeService) EndpointStats(context.Context, core.Actor, string, string) (core.EndpointStats, error) {
	return core.EndpointStats{EndpointID: "ep_1"}, nil
}

func (s *stubFacadeService) AuditTrail(context.Context, core.Actor, core.AuditFilter) (core.AuditPage, error) {
	return core.AuditPage{Total: 1}, nil
}

type stubFacadeBilling struct {
	quotaWorkspaceID string
}

func (b *stubFacadeBilling) StartSubscription(_ context.Context, workspaceID string, planID string) (core.Subscription, error) {
	return core.Subscription{WorkspaceID: workspaceID, PlanID: planID}, nil
}

func (b *stubFacadeBilling) ChangePlan(_ context.Context, workspaceID string, planID string) (core.Subscription, error) {
	return core.Subscription{WorkspaceID: workspaceID, PlanID: planID}, nil
}

func (b *stubFacadeBilling) SetStatus(_ context.Context, workspaceID string, status core.SubscriptionStatus) (core.Subscription, error) {
	return core.Subscription{WorkspaceID: workspaceID, Status: status}, nil
}

func (b *stubFacadeBilling) EvaluateLeadQuota(_ context.Context, workspaceID string) (core.QuotaDecision, error) {
	b.quotaWorkspaceID = workspaceID
	return core.QuotaDecision{Allowed: true}, nil
}
