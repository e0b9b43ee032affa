package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-crm/core"
)

var (
	_ gocmd.Querier[GetWorkspaceMessage, core.Workspace]            = (*GetWorkspaceQuery)(nil)
	_ gocmd.Querier[ListMembersMessage, []core.Member]              = (*ListMembersQuery)(nil)
	_ gocmd.Querier[GetLeadMessage, core.Lead]                      = (*GetLeadQuery)(nil)
	_ gocmd.Querier[ListLeadsMessage, core.LeadPage]                = (*ListLeadsQuery)(nil)
	_ gocmd.Querier[GetEndpointMessage, core.WebhookEndpoint]       = (*GetEndpointQuery)(nil)
	_ gocmd.Querier[ListEndpointsMessage, []core.WebhookEndpoint]   = (*ListEndpointsQuery)(nil)
	_ gocmd.Querier[AuditTrailMessage, core.AuditPage]              = (*AuditTrailQuery)(nil)
	_ gocmd.Querier[GetEndpointStatsMessage, core.EndpointStats]    = (*GetEndpointStatsQuery)(nil)
	_ gocmd.Querier[LeadQuotaMessage, core.QuotaDecision]           = (*LeadQuotaQuery)(nil)
)
