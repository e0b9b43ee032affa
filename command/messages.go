package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-crm/core"
)

const (
	TypeCreateWorkspace       = "crm.command.workspace.create"
	TypeSetWorkspaceStatus    = "crm.command.workspace.set_status"
	TypeAddMember             = "crm.command.member.add"
	TypeUpdateMemberRole      = "crm.command.member.update_role"
	TypeRemoveMember          = "crm.command.member.remove"
	TypeCreateLead            = "crm.command.lead.create"
	TypeUpdateLead            = "crm.command.lead.update"
	TypeUpdateLeadStatus      = "crm.command.lead.update_status"
	TypeDeleteLead            = "crm.command.lead.delete"
	TypeRegisterEndpoint      = "crm.command.endpoint.register"
	TypeSetEndpointStatus     = "crm.command.endpoint.set_status"
	TypeRotateEndpointSecret  = "crm.command.endpoint.rotate_secret"
	TypeUpdateFieldRules      = "crm.command.endpoint.update_field_rules"
	TypeStartSubscription     = "crm.command.billing.subscription.start"
	TypeChangePlan            = "crm.command.billing.plan.change"
	TypeSetSubscriptionStatus = "crm.command.billing.subscription.set_status"
)

type CreateWorkspaceMessage struct {
	Actor core.Actor
	Input core.CreateWorkspaceInput
}

func (CreateWorkspaceMessage) Type() string { return TypeCreateWorkspace }

func (m CreateWorkspaceMessage) Validate() error {
	if strings.TrimSpace(m.Input.Name) == "" {
		return fmt.Errorf("command: workspace name is required")
	}
	if strings.TrimSpace(m.Input.Slug) == "" {
		return fmt.Errorf("command: workspace slug is required")
	}
	return nil
}

type SetWorkspaceStatusMessage struct {
	Actor       core.Actor
	WorkspaceID string
	Status      core.WorkspaceStatus
}

func (SetWorkspaceStatusMessage) Type() string { return TypeSetWorkspaceStatus }

func (m SetWorkspaceStatusMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(string(m.Status)) == "" {
		return fmt.Errorf("command: workspace status is required")
	}
	return nil
}

type AddMemberMessage struct {
	Actor core.Actor
	Input core.AddMemberInput
}

func (AddMemberMessage) Type() string { return TypeAddMember }

func (m AddMemberMessage) Validate() error {
	if strings.TrimSpace(m.Input.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.Input.UserID) == "" {
		return fmt.Errorf("command: user id is required")
	}
	if _, err := core.ParseMemberRole(string(m.Input.Role)); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return nil
}

type UpdateMemberRoleMessage struct {
	Actor       core.Actor
	WorkspaceID string
	UserID      string
	Role        core.MemberRole
}

func (UpdateMemberRoleMessage) Type() string { return TypeUpdateMemberRole }

func (m UpdateMemberRoleMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("command: user id is required")
	}
	if _, err := core.ParseMemberRole(string(m.Role)); err != nil {
		return fmt.Errorf("command: %w", err)
	}
	return nil
}

type RemoveMemberMessage struct {
	Actor       core.Actor
	WorkspaceID string
	UserID      string
}

func (RemoveMemberMessage) Type() string { return TypeRemoveMember }

func (m RemoveMemberMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("command: user id is required")
	}
	return nil
}

type CreateLeadMessage struct {
	Actor core.Actor
	Input core.CreateLeadInput
}

func (CreateLeadMessage) Type() string { return TypeCreateLead }

func (m CreateLeadMessage) Validate() error {
	if strings.TrimSpace(m.Input.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.Input.Lead.Source) == "" {
		return fmt.Errorf("command: lead source is required")
	}
	return nil
}

type UpdateLeadMessage struct {
	Actor core.Actor
	Input core.UpdateLeadInput
}

func (UpdateLeadMessage) Type() string { return TypeUpdateLead }

func (m UpdateLeadMessage) Validate() error {
	if strings.TrimSpace(m.Input.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.Input.LeadID) == "" {
		return fmt.Errorf("command: lead id is required")
	}
	return nil
}

type UpdateLeadStatusMessage struct {
	Actor       core.Actor
	WorkspaceID string
	LeadID      string
	Status      core.LeadStatus
}

func (UpdateLeadStatusMessage) Type() string { return TypeUpdateLeadStatus }

func (m UpdateLeadStatusMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.LeadID) == "" {
		return fmt.Errorf("command: lead id is required")
	}
	if strings.TrimSpace(string(m.Status)) == "" {
		return fmt.Errorf("command: lead status is required")
	}
	return nil
}

type DeleteLeadMessage struct {
	Actor       core.Actor
	WorkspaceID string
	LeadID      string
}

func (DeleteLeadMessage) Type() string { return TypeDeleteLead }

func (m DeleteLeadMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.LeadID) == "" {
		return fmt.Errorf("command: lead id is required")
	}
	return nil
}

type RegisterEndpointMessage struct {
	Actor core.Actor
	Input core.RegisterEndpointInput
}

func (RegisterEndpointMessage) Type() string { return TypeRegisterEndpoint }

func (m RegisterEndpointMessage) Validate() error {
	if strings.TrimSpace(m.Input.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.Input.Name) == "" {
		return fmt.Errorf("command: endpoint name is required")
	}
	if strings.TrimSpace(string(m.Input.Provider)) == "" {
		return fmt.Errorf("command: endpoint provider is required")
	}
	return nil
}

type SetEndpointStatusMessage struct {
	Actor       core.Actor
	WorkspaceID string
	EndpointID  string
	Status      core.EndpointStatus
	Reason      string
}

func (SetEndpointStatusMessage) Type() string { return TypeSetEndpointStatus }

func (m SetEndpointStatusMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.EndpointID) == "" {
		return fmt.Errorf("command: endpoint id is required")
	}
	if strings.TrimSpace(string(m.Status)) == "" {
		return fmt.Errorf("command: endpoint status is required")
	}
	return nil
}

type RotateEndpointSecretMessage struct {
	Actor       core.Actor
	WorkspaceID string
	EndpointID  string
	Secret      string
}

func (RotateEndpointSecretMessage) Type() string { return TypeRotateEndpointSecret }

func (m RotateEndpointSecretMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.EndpointID) == "" {
		return fmt.Errorf("command: endpoint id is required")
	}
	if strings.TrimSpace(m.Secret) == "" {
		return fmt.Errorf("command: endpoint secret is required")
	}
	return nil
}

type UpdateFieldRulesMessage struct {
	Actor       core.Actor
	WorkspaceID string
	EndpointID  string
	Rules       []core.FieldRule
}

func (UpdateFieldRulesMessage) Type() string { return TypeUpdateFieldRules }

func (m UpdateFieldRulesMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.EndpointID) == "" {
		return fmt.Errorf("command: endpoint id is required")
	}
	return nil
}

type StartSubscriptionMessage struct {
	WorkspaceID string
	PlanID      string
}

func (StartSubscriptionMessage) Type() string { return TypeStartSubscription }

func (m StartSubscriptionMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.PlanID) == "" {
		return fmt.Errorf("command: plan id is required")
	}
	return nil
}

type ChangePlanMessage struct {
	WorkspaceID string
	PlanID      string
}

func (ChangePlanMessage) Type() string { return TypeChangePlan }

func (m ChangePlanMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(m.PlanID) == "" {
		return fmt.Errorf("command: plan id is required")
	}
	return nil
}

type SetSubscriptionStatusMessage struct {
	WorkspaceID string
	Status      core.SubscriptionStatus
}

func (SetSubscriptionStatusMessage) Type() string { return TypeSetSubscriptionStatus }

func (m SetSubscriptionStatusMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("command: workspace id is required")
	}
	if strings.TrimSpace(string(m.Status)) == "" {
		return fmt.Errorf("command: subscription status is required")
	}
	return nil
}
