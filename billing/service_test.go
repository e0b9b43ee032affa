package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-crm/core"
)

type stubSubscriptionStore struct {
	subs map[string]core.Subscription
}

func newStubSubscriptionStore() *stubSubscriptionStore {
	return &stubSubscriptionStore{subs: map[string]core.Subscription{}}
}

func (s *stubSubscriptionStore) GetByWorkspace(_ context.Context, workspaceID string) (core.Subscription, error) {
	sub, ok := s.subs[workspaceID]
	if !ok {
		return core.Subscription{}, fmt.Errorf("subscription not found")
	}
	return sub, nil
}

func (s *stubSubscriptionStore) Upsert(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	s.subs[sub.WorkspaceID] = sub
	return sub, nil
}

func (s *stubSubscriptionStore) UpdateStatus(_ context.Context, id string, status core.SubscriptionStatus) error {
	for workspaceID, sub := range s.subs {
		if sub.ID == id {
			sub.Status = status
			s.subs[workspaceID] = sub
			return nil
		}
	}
	return fmt.Errorf("subscription not found")
}

type stubStatsStore struct {
	monthly int64
	err     error
}

func (s stubStatsStore) Get(context.Context, string) (core.EndpointStats, error) {
	return core.EndpointStats{}, nil
}

func (s stubStatsStore) MonthlyLeadCount(context.Context, string, time.Time, time.Time) (int64, error) {
	return s.monthly, s.err
}

type stubWorkspaceStore struct {
	workspace core.Workspace
}

func (s stubWorkspaceStore) Create(context.Context, core.CreateWorkspaceInput) (core.Workspace, error) {
	return core.Workspace{}, fmt.Errorf("not implemented")
}

func (s stubWorkspaceStore) Get(context.Context, string) (core.Workspace, error) {
	return s.workspace, nil
}

func (s stubWorkspaceStore) GetBySlug(context.Context, string) (core.Workspace, error) {
	return s.workspace, nil
}

func (s stubWorkspaceStore) UpdateStatus(context.Context, string, core.WorkspaceStatus) error {
	return nil
}

func billingFixture(monthly int64) (*Service, *stubSubscriptionStore) {
	subs := newStubSubscriptionStore()
	service := NewService(
		stubWorkspaceStore{workspace: core.Workspace{ID: "ws-1", PlanID: PlanFree}},
		subs,
		stubStatsStore{monthly: monthly},
	)
	service.Now = func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	return service, subs
}

func TestEvaluateLeadQuotaAllowsUnderLimit(t *testing.T) {
	service, _ := billingFixture(40)

	decision, err := service.EvaluateLeadQuota(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("EvaluateLeadQuota failed: %v", err)
	}
	if !decision.Allowed {
		t.Fatalf("expected quota to allow, got %+v", decision)
	}
	if decision.Limit != 100 || decision.Used != 40 || decision.Remaining != 60 {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestEvaluateLeadQuotaDeniesAtLimit(t *testing.T) {
	service, _ := billingFixture(100)

	decision, err := service.EvaluateLeadQuota(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("EvaluateLeadQuota failed: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("expected quota denial at the limit")
	}
	if decision.Reason == "" {
		t.Fatalf("expected a denial reason")
	}
}

func TestEvaluateLeadQuotaUsesSubscriptionPlan(t *testing.T) {
	service, subs := billingFixture(500)
	subs.subs["ws-1"] = core.Subscription{
		ID:          "sub-1",
		WorkspaceID: "ws-1",
		PlanID:      PlanStarter,
		Status:      core.SubscriptionStatusActive,
	}

	decision, err := service.EvaluateLeadQuota(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("EvaluateLeadQuota failed: %v", err)
	}
	if !decision.Allowed || decision.Limit != 2000 {
		t.Fatalf("expected starter limit 2000, got %+v", decision)
	}
}

func TestEvaluateLeadQuotaDeniesCanceledSubscription(t *testing.T) {
	service, subs := billingFixture(0)
	subs.subs["ws-1"] = core.Subscription{
		ID:          "sub-1",
		WorkspaceID: "ws-1",
		PlanID:      PlanStarter,
		Status:      core.SubscriptionStatusCanceled,
	}

	decision, err := service.EvaluateLeadQuota(context.Background(), "ws-1")
	if err != nil {
		t.Fatalf("EvaluateLeadQuota failed: %v", err)
	}
	if decision.Allowed {
		t.Fatalf("canceled subscription must deny ingestion")
	}
}

func TestStartSubscriptionTrialsPaidPlans(t *testing.T) {
	service, _ := billingFixture(0)

	sub, err := service.StartSubscription(context.Background(), "ws-1", PlanStarter)
	if err != nil {
		t.Fatalf("StartSubscription failed: %v", err)
	}
	if sub.Status != core.SubscriptionStatusTrialing {
		t.Fatalf("expected trialing, got %s", sub.Status)
	}
	wantEnd := service.Now().AddDate(0, 0, service.TrialDays)
	if !sub.PeriodEnd.Equal(wantEnd) {
		t.Fatalf("expected trial end %s, got %s", wantEnd, sub.PeriodEnd)
	}
}

func TestStartSubscriptionFreePlanIsActive(t *testing.T) {
	service, _ := billingFixture(0)

	sub, err := service.StartSubscription(context.Background(), "ws-1", PlanFree)
	if err != nil {
		t.Fatalf("StartSubscription failed: %v", err)
	}
	if sub.Status != core.SubscriptionStatusActive {
		t.Fatalf("expected active, got %s", sub.Status)
	}
}

func TestSetStatusFollowsLifecycle(t *testing.T) {
	service, subs := billingFixture(0)
	subs.subs["ws-1"] = core.Subscription{
		ID:          "sub-1",
		WorkspaceID: "ws-1",
		PlanID:      PlanStarter,
		Status:      core.SubscriptionStatusTrialing,
	}

	sub, err := service.SetStatus(context.Background(), "ws-1", core.SubscriptionStatusActive)
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if sub.Status != core.SubscriptionStatusActive {
		t.Fatalf("expected active, got %s", sub.Status)
	}

	if _, err := service.SetStatus(context.Background(), "ws-1", core.SubscriptionStatusTrialing); err == nil {
		t.Fatalf("expected invalid transition back to trialing")
	}
}

func TestChangePlanRejectsCanceled(t *testing.T) {
	service, subs := billingFixture(0)
	subs.subs["ws-1"] = core.Subscription{
		ID:          "sub-1",
		WorkspaceID: "ws-1",
		PlanID:      PlanStarter,
		Status:      core.SubscriptionStatusCanceled,
	}

	if _, err := service.ChangePlan(context.Background(), "ws-1", PlanGrowth); err == nil {
		t.Fatalf("expected canceled plan change to fail")
	}
}

func TestPlanCatalog(t *testing.T) {
	plans := Plans()
	if len(plans) != 3 {
		t.Fatalf("expected three plans, got %d", len(plans))
	}
	if plans[0].ID != PlanFree {
		t.Fatalf("expected free plan first, got %s", plans[0].ID)
	}
	if _, err := PlanByID("enterprise"); err == nil {
		t.Fatalf("expected unknown plan error")
	}
	plan, err := PlanByID(" Growth ")
	if err != nil {
		t.Fatalf("PlanByID failed: %v", err)
	}
	if plan.ID != PlanGrowth {
		t.Fatalf("expected growth, got %s", plan.ID)
	}
}
