package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-crm/core"
)

const (
	TypeGetWorkspace     = "crm.query.workspace.get"
	TypeListMembers      = "crm.query.members.list"
	TypeGetLead          = "crm.query.lead.get"
	TypeListLeads        = "crm.query.leads.list"
	TypeGetEndpoint      = "crm.query.endpoint.get"
	TypeListEndpoints    = "crm.query.endpoints.list"
	TypeAuditTrail       = "crm.query.audit.list"
	TypeGetEndpointStats = "crm.query.endpoint_stats.get"
	TypeLeadQuota        = "crm.query.billing.lead_quota"
)

type GetWorkspaceMessage struct {
	Actor       core.Actor
	WorkspaceID string
}

func (GetWorkspaceMessage) Type() string { return TypeGetWorkspace }

func (m GetWorkspaceMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("query: workspace id is required")
	}
	return nil
}

type ListMembersMessage struct {
	Actor       core.Actor
	WorkspaceID string
}

func (ListMembersMessage) Type() string { return TypeListMembers }

func (m ListMembersMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("query: workspace id is required")
	}
	return nil
}

type GetLeadMessage struct {
	Actor       core.Actor
	WorkspaceID string
	LeadID      string
}

func (GetLeadMessage) Type() string { return TypeGetLead }

func (m GetLeadMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("query: workspace id is required")
	}
	if strings.TrimSpace(m.LeadID) == "" {
		return fmt.Errorf("query: lead id is required")
	}
	return nil
}

type ListLeadsMessage struct {
	Actor  core.Actor
	Filter core.LeadFilter
}

func (ListLeadsMessage) Type() string { return TypeListLeads }

func (m ListLeadsMessage) Validate() error {
	if strings.TrimSpace(m.Filter.WorkspaceID) == "" {
		return fmt.Errorf("query: workspace id is required")
	}
	if m.Filter.Page < 0 {
		return fmt.Errorf("query: page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return fmt.Errorf("query: per_page must be >= 0")
	}
	return nil
}

type GetEndpointMessage struct {
	Actor       core.Actor
	WorkspaceID string
	EndpointID  string
}

func (GetEndpointMessage) Type() string { return TypeGetEndpoint }

func (m GetEndpointMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("query: workspace id is required")
	}
	if strings.TrimSpace(m.EndpointID) == "" {
		return fmt.Errorf("query: endpoint id is required")
	}
	return nil
}

type ListEndpointsMessage struct {
	Actor       core.Actor
	WorkspaceID string
}

func (ListEndpointsMessage) Type() string { return TypeListEndpoints }

func (m ListEndpointsMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("query: workspace id is required")
	}
	return nil
}

type AuditTrailMessage struct {
	Actor  core.Actor
	Filter core.AuditFilter
}

func (AuditTrailMessage) Type() string { return TypeAuditTrail }

func (m AuditTrailMessage) Validate() error {
	if strings.TrimSpace(m.Filter.WorkspaceID) == "" {
		return fmt.Errorf("query: workspace id is required")
	}
	if m.Filter.Page < 0 {
		return fmt.Errorf("query: page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return fmt.Errorf("query: per_page must be >= 0")
	}
	return nil
}

type GetEndpointStatsMessage struct {
	Actor       core.Actor
	WorkspaceID string
	EndpointID  string
}

func (GetEndpointStatsMessage) Type() string { return TypeGetEndpointStats }

func (m GetEndpointStatsMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("query: workspace id is required")
	}
	if strings.TrimSpace(m.EndpointID) == "" {
		return fmt.Errorf("query: endpoint id is required")
	}
	return nil
}

type LeadQuotaMessage struct {
	WorkspaceID string
}

func (LeadQuotaMessage) Type() string { return TypeLeadQuota }

func (m LeadQuotaMessage) Validate() error {
	if strings.TrimSpace(m.WorkspaceID) == "" {
		return fmt.Errorf("query: workspace id is required")
	}
	return nil
}
