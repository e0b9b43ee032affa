package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-crm/core"
)

type MutatingService interface {
	CreateWorkspace(ctx context.Context, actor core.Actor, in core.CreateWorkspaceInput) (core.Workspace, error)
	SetWorkspaceStatus(ctx context.Context, actor core.Actor, workspaceID string, status core.WorkspaceStatus) error
	AddMember(ctx context.Context, actor core.Actor, in core.AddMemberInput) (core.Member, error)
	UpdateMemberRole(ctx context.Context, actor core.Actor, workspaceID string, userID string, role core.MemberRole) error
	RemoveMember(ctx context.Context, actor core.Actor, workspaceID string, userID string) error
	CreateLead(ctx context.Context, actor core.Actor, in core.CreateLeadInput) (core.Lead, error)
	UpdateLead(ctx context.Context, actor core.Actor, in core.UpdateLeadInput) (core.Lead, error)
	UpdateLeadStatus(ctx context.Context, actor core.Actor, workspaceID string, leadID string, status core.LeadStatus) (core.Lead, error)
	DeleteLead(ctx context.Context, actor core.Actor, workspaceID string, leadID string) error
	RegisterEndpoint(ctx context.Context, actor core.Actor, in core.RegisterEndpointInput) (core.WebhookEndpoint, error)
	SetEndpointStatus(ctx context.Context, actor core.Actor, workspaceID string, endpointID string, status core.EndpointStatus, reason string) error
	RotateEndpointSecret(ctx context.Context, actor core.Actor, workspaceID string, endpointID string, secret string) error
	UpdateEndpointFieldRules(ctx context.Context, actor core.Actor, workspaceID string, endpointID string, rules []core.FieldRule) error
}

type BillingMutatingService interface {
	StartSubscription(ctx context.Context, workspaceID string, planID string) (core.Subscription, error)
	ChangePlan(ctx context.Context, workspaceID string, planID string) (core.Subscription, error)
	SetStatus(ctx context.Context, workspaceID string, status core.SubscriptionStatus) (core.Subscription, error)
}

type CreateWorkspaceCommand struct {
	service MutatingService
}

func NewCreateWorkspaceCommand(service MutatingService) *CreateWorkspaceCommand {
	return &CreateWorkspaceCommand{service: service}
}

func (c *CreateWorkspaceCommand) Execute(ctx context.Context, msg CreateWorkspaceMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: workspace service is required")
	}
	out, err := c.service.CreateWorkspace(ctx, msg.Actor, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetWorkspaceStatusCommand struct {
	service MutatingService
}

func NewSetWorkspaceStatusCommand(service MutatingService) *SetWorkspaceStatusCommand {
	return &SetWorkspaceStatusCommand{service: service}
}

func (c *SetWorkspaceStatusCommand) Execute(ctx context.Context, msg SetWorkspaceStatusMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: workspace service is required")
	}
	return c.service.SetWorkspaceStatus(ctx, msg.Actor, msg.WorkspaceID, msg.Status)
}

type AddMemberCommand struct {
	service MutatingService
}

func NewAddMemberCommand(service MutatingService) *AddMemberCommand {
	return &AddMemberCommand{service: service}
}

func (c *AddMemberCommand) Execute(ctx context.Context, msg AddMemberMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: member service is required")
	}
	out, err := c.service.AddMember(ctx, msg.Actor, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateMemberRoleCommand struct {
	service MutatingService
}

func NewUpdateMemberRoleCommand(service MutatingService) *UpdateMemberRoleCommand {
	return &UpdateMemberRoleCommand{service: service}
}

func (c *UpdateMemberRoleCommand) Execute(ctx context.Context, msg UpdateMemberRoleMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: member service is required")
	}
	return c.service.UpdateMemberRole(ctx, msg.Actor, msg.WorkspaceID, msg.UserID, msg.Role)
}

type RemoveMemberCommand struct {
	service MutatingService
}

func NewRemoveMemberCommand(service MutatingService) *RemoveMemberCommand {
	return &RemoveMemberCommand{service: service}
}

func (c *RemoveMemberCommand) Execute(ctx context.Context, msg RemoveMemberMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: member service is required")
	}
	return c.service.RemoveMember(ctx, msg.Actor, msg.WorkspaceID, msg.UserID)
}

type CreateLeadCommand struct {
	service MutatingService
}

func NewCreateLeadCommand(service MutatingService) *CreateLeadCommand {
	return &CreateLeadCommand{service: service}
}

func (c *CreateLeadCommand) Execute(ctx context.Context, msg CreateLeadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lead service is required")
	}
	out, err := c.service.CreateLead(ctx, msg.Actor, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateLeadCommand struct {
	service MutatingService
}

func NewUpdateLeadCommand(service MutatingService) *UpdateLeadCommand {
	return &UpdateLeadCommand{service: service}
}

func (c *UpdateLeadCommand) Execute(ctx context.Context, msg UpdateLeadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lead service is required")
	}
	out, err := c.service.UpdateLead(ctx, msg.Actor, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateLeadStatusCommand struct {
	service MutatingService
}

func NewUpdateLeadStatusCommand(service MutatingService) *UpdateLeadStatusCommand {
	return &UpdateLeadStatusCommand{service: service}
}

func (c *UpdateLeadStatusCommand) Execute(ctx context.Context, msg UpdateLeadStatusMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lead service is required")
	}
	out, err := c.service.UpdateLeadStatus(ctx, msg.Actor, msg.WorkspaceID, msg.LeadID, msg.Status)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteLeadCommand struct {
	service MutatingService
}

func NewDeleteLeadCommand(service MutatingService) *DeleteLeadCommand {
	return &DeleteLeadCommand{service: service}
}

func (c *DeleteLeadCommand) Execute(ctx context.Context, msg DeleteLeadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: lead service is required")
	}
	return c.service.DeleteLead(ctx, msg.Actor, msg.WorkspaceID, msg.LeadID)
}

type RegisterEndpointCommand struct {
	service MutatingService
}

func NewRegisterEndpointCommand(service MutatingService) *RegisterEndpointCommand {
	return &RegisterEndpointCommand{service: service}
}

func (c *RegisterEndpointCommand) Execute(ctx context.Context, msg RegisterEndpointMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: endpoint service is required")
	}
	out, err := c.service.RegisterEndpoint(ctx, msg.Actor, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetEndpointStatusCommand struct {
	service MutatingService
}

func NewSetEndpointStatusCommand(service MutatingService) *SetEndpointStatusCommand {
	return &SetEndpointStatusCommand{service: service}
}

func (c *SetEndpointStatusCommand) Execute(ctx context.Context, msg SetEndpointStatusMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: endpoint service is required")
	}
	return c.service.SetEndpointStatus(ctx, msg.Actor, msg.WorkspaceID, msg.EndpointID, msg.Status, msg.Reason)
}

type RotateEndpointSecretCommand struct {
	service MutatingService
}

func NewRotateEndpointSecretCommand(service MutatingService) *RotateEndpointSecretCommand {
	return &RotateEndpointSecretCommand{service: service}
}

func (c *RotateEndpointSecretCommand) Execute(ctx context.Context, msg RotateEndpointSecretMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: endpoint service is required")
	}
	return c.service.RotateEndpointSecret(ctx, msg.Actor, msg.WorkspaceID, msg.EndpointID, msg.Secret)
}

type UpdateFieldRulesCommand struct {
	service MutatingService
}

func NewUpdateFieldRulesCommand(service MutatingService) *UpdateFieldRulesCommand {
	return &UpdateFieldRulesCommand{service: service}
}

func (c *UpdateFieldRulesCommand) Execute(ctx context.Context, msg UpdateFieldRulesMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: endpoint service is required")
	}
	return c.service.UpdateEndpointFieldRules(ctx, msg.Actor, msg.WorkspaceID, msg.EndpointID, msg.Rules)
}

type StartSubscriptionCommand struct {
	service BillingMutatingService
}

func NewStartSubscriptionCommand(service BillingMutatingService) *StartSubscriptionCommand {
	return &StartSubscriptionCommand{service: service}
}

func (c *StartSubscriptionCommand) Execute(ctx context.Context, msg StartSubscriptionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: billing service is required")
	}
	out, err := c.service.StartSubscription(ctx, msg.WorkspaceID, msg.PlanID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ChangePlanCommand struct {
	service BillingMutatingService
}

func NewChangePlanCommand(service BillingMutatingService) *ChangePlanCommand {
	return &ChangePlanCommand{service: service}
}

func (c *ChangePlanCommand) Execute(ctx context.Context, msg ChangePlanMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: billing service is required")
	}
	out, err := c.service.ChangePlan(ctx, msg.WorkspaceID, msg.PlanID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetSubscriptionStatusCommand struct {
	service BillingMutatingService
}

func NewSetSubscriptionStatusCommand(service BillingMutatingService) *SetSubscriptionStatusCommand {
	return &SetSubscriptionStatusCommand{service: service}
}

func (c *SetSubscriptionStatusCommand) Execute(ctx context.Context, msg SetSubscriptionStatusMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: billing service is required")
	}
	out, err := c.service.SetStatus(ctx, msg.WorkspaceID, msg.Status)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
