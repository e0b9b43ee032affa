package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreateWorkspaceMessage]       = (*CreateWorkspaceCommand)(nil)
	_ gocmd.Commander[SetWorkspaceStatusMessage]    = (*SetWorkspaceStatusCommand)(nil)
	_ gocmd.Commander[AddMemberMessage]             = (*AddMemberCommand)(nil)
	_ gocmd.Commander[UpdateMemberRoleMessage]      = (*UpdateMemberRoleCommand)(nil)
	_ gocmd.Commander[RemoveMemberMessage]          = (*RemoveMemberCommand)(nil)
	_ gocmd.Commander[CreateLeadMessage]            = (*CreateLeadCommand)(nil)
	_ gocmd.Commander[UpdateLeadMessage]            = (*UpdateLeadCommand)(nil)
	_ gocmd.Commander[UpdateLeadStatusMessage]      = (*UpdateLeadStatusCommand)(nil)
	_ gocmd.Commander[DeleteLeadMessage]            = (*DeleteLeadCommand)(nil)
	_ gocmd.Commander[RegisterEndpointMessage]      = (*RegisterEndpointCommand)(nil)
	_ gocmd.Commander[SetEndpointStatusMessage]     = (*SetEndpointStatusCommand)(nil)
	_ gocmd.Commander[RotateEndpointSecretMessage]  = (*RotateEndpointSecretCommand)(nil)
	_ gocmd.Commander[UpdateFieldRulesMessage]      = (*UpdateFieldRulesCommand)(nil)
	_ gocmd.Commander[StartSubscriptionMessage]     = (*StartSubscriptionCommand)(nil)
	_ gocmd.Commander[ChangePlanMessage]            = (*ChangePlanCommand)(nil)
	_ gocmd.Commander[SetSubscriptionStatusMessage] = (*SetSubscriptionStatusCommand)(nil)
)
