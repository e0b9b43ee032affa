package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-crm/core"
	"github.com/google/uuid"
)

// Service answers quota questions and drives subscription lifecycle. Usage is
// metered through the stats store; the active plan comes from the workspace's
// subscription, falling back to the workspace plan id.
type Service struct {
	Workspaces    core.WorkspaceStore
	Subscriptions core.SubscriptionStore
	Stats         core.StatsStore
	TrialDays     int
	Now           func() time.Time
}

func NewService(
	workspaces core.WorkspaceStore,
	subscriptions core.SubscriptionStore,
	stats core.StatsStore,
) *Service {
	return &Service{
		Workspaces:    workspaces,
		Subscriptions: subscriptions,
		Stats:         stats,
		TrialDays:     14,
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

// EvaluateLeadQuota reports whether a workspace may accept another lead this
// month. Canceled subscriptions always deny; past_due keeps working until
// the period ends.
func (s *Service) EvaluateLeadQuota(ctx context.Context, workspaceID string) (core.QuotaDecision, error) {
	if s == nil || s.Stats == nil {
		return core.QuotaDecision{Allowed: true}, nil
	}
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return core.QuotaDecision{}, fmt.Errorf("billing: workspace id is required")
	}

	plan, status, err := s.activePlan(ctx, workspaceID)
	if err != nil {
		return core.QuotaDecision{}, err
	}
	if status == core.SubscriptionStatusCanceled {
		return core.QuotaDecision{
			Allowed: false,
			Limit:   plan.LeadsPerMonth,
			Reason:  "subscription is canceled",
		}, nil
	}
	if plan.LeadsPerMonth <= 0 {
		return core.QuotaDecision{Allowed: true}, nil
	}

	periodStart, periodEnd := monthWindow(s.now())
	used, err := s.Stats.MonthlyLeadCount(ctx, workspaceID, periodStart, periodEnd)
	if err != nil {
		return core.QuotaDecision{}, fmt.Errorf("billing: read monthly usage: %w", err)
	}

	remaining := plan.LeadsPerMonth - used
	if remaining < 0 {
		remaining = 0
	}
	decision := core.QuotaDecision{
		Allowed:   used < plan.LeadsPerMonth,
		Limit:     plan.LeadsPerMonth,
		Used:      used,
		Remaining: remaining,
	}
	if !decision.Allowed {
		decision.Reason = fmt.Sprintf("monthly lead quota of %d reached", plan.LeadsPerMonth)
	}
	return decision, nil
}

// StartSubscription provisions the workspace's subscription on a plan. Paid
// plans begin trialing when the plan supports it; free begins active.
func (s *Service) StartSubscription(ctx context.Context, workspaceID string, planID string) (core.Subscription, error) {
	if s == nil || s.Subscriptions == nil {
		return core.Subscription{}, fmt.Errorf("billing: subscription store is required")
	}
	plan, err := PlanByID(planID)
	if err != nil {
		return core.Subscription{}, err
	}

	now := s.now()
	status := core.SubscriptionStatusActive
	periodEnd := monthEnd(now)
	if plan.TrialSupported && s.trialDays() > 0 {
		status = core.SubscriptionStatusTrialing
		periodEnd = now.AddDate(0, 0, s.trialDays())
	}

	sub := core.Subscription{
		ID:          uuid.NewString(),
		WorkspaceID: strings.TrimSpace(workspaceID),
		PlanID:      plan.ID,
		Status:      status,
		PeriodStart: now,
		PeriodEnd:   periodEnd,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return s.Subscriptions.Upsert(ctx, sub)
}

// ChangePlan moves the subscription to another plan without altering status.
func (s *Service) ChangePlan(ctx context.Context, workspaceID string, planID string) (core.Subscription, error) {
	if s == nil || s.Subscriptions == nil {
		return core.Subscription{}, fmt.Errorf("billing: subscription store is required")
	}
	plan, err := PlanByID(planID)
	if err != nil {
		return core.Subscription{}, err
	}
	sub, err := s.Subscriptions.GetByWorkspace(ctx, strings.TrimSpace(workspaceID))
	if err != nil {
		return core.Subscription{}, err
	}
	if sub.Status == core.SubscriptionStatusCanceled {
		return core.Subscription{}, fmt.Errorf("billing: cannot change plan on a canceled subscription")
	}
	sub.PlanID = plan.ID
	sub.UpdatedAt = s.now()
	return s.Subscriptions.Upsert(ctx, sub)
}

// SetStatus applies a lifecycle transition and persists it.
func (s *Service) SetStatus(ctx context.Context, workspaceID string, status core.SubscriptionStatus) (core.Subscription, error) {
	if s == nil || s.Subscriptions == nil {
		return core.Subscription{}, fmt.Errorf("billing: subscription store is required")
	}
	sub, err := s.Subscriptions.GetByWorkspace(ctx, strings.TrimSpace(workspaceID))
	if err != nil {
		return core.Subscription{}, err
	}
	if err := sub.TransitionTo(status, s.now()); err != nil {
		return core.Subscription{}, err
	}
	if err := s.Subscriptions.UpdateStatus(ctx, sub.ID, sub.Status); err != nil {
		return core.Subscription{}, err
	}
	return sub, nil
}

func (s *Service) activePlan(ctx context.Context, workspaceID string) (Plan, core.SubscriptionStatus, error) {
	if s.Subscriptions != nil {
		sub, err := s.Subscriptions.GetByWorkspace(ctx, workspaceID)
		if err == nil && strings.TrimSpace(sub.PlanID) != "" {
			plan, planErr := PlanByID(sub.PlanID)
			if planErr != nil {
				return Plan{}, "", planErr
			}
			return plan, sub.Status, nil
		}
	}
	if s.Workspaces != nil {
		workspace, err := s.Workspaces.Get(ctx, workspaceID)
		if err != nil {
			return Plan{}, "", err
		}
		if strings.TrimSpace(workspace.PlanID) != "" {
			plan, planErr := PlanByID(workspace.PlanID)
			if planErr != nil {
				return Plan{}, "", planErr
			}
			return plan, core.SubscriptionStatusActive, nil
		}
	}
	plan, err := PlanByID(PlanFree)
	return plan, core.SubscriptionStatusActive, err
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) trialDays() int {
	if s != nil && s.TrialDays > 0 {
		return s.TrialDays
	}
	return 14
}

func monthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func monthEnd(now time.Time) time.Time {
	_, end := monthWindow(now)
	return end
}

var _ core.QuotaEvaluator = (*Service)(nil)
