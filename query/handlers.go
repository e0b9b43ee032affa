package query

import (
	"context"

	"github.com/goliatone/go-crm/core"
)

type WorkspaceReader interface {
	GetWorkspace(ctx context.Context, actor core.Actor, workspaceID string) (core.Workspace, error)
	ListMembers(ctx context.Context, actor core.Actor, workspaceID string) ([]core.Member, error)
}

type LeadReader interface {
	GetLead(ctx context.Context, actor core.Actor, workspaceID string, leadID string) (core.Lead, error)
	ListLeads(ctx context.Context, actor core.Actor, filter core.LeadFilter) (core.LeadPage, error)
}

type EndpointReader interface {
	GetEndpoint(ctx context.Context, actor core.Actor, workspaceID string, endpointID string) (core.WebhookEndpoint, error)
	ListEndpoints(ctx context.Context, actor core.Actor, workspaceID string) ([]core.WebhookEndpoint, error)
	EndpointStats(ctx context.Context, actor core.Actor, workspaceID string, endpointID string) (core.EndpointStats, error)
}

type AuditReader interface {
	AuditTrail(ctx context.Context, actor core.Actor, filter core.AuditFilter) (core.AuditPage, error)
}

type QuotaReader interface {
	EvaluateLeadQuota(ctx context.Context, workspaceID string) (core.QuotaDecision, error)
}

type GetWorkspaceQuery struct {
	reader WorkspaceReader
}

func NewGetWorkspaceQuery(reader WorkspaceReader) *GetWorkspaceQuery {
	return &GetWorkspaceQuery{reader: reader}
}

func (q *GetWorkspaceQuery) Query(ctx context.Context, msg GetWorkspaceMessage) (core.Workspace, error) {
	if q == nil || q.reader == nil {
		return core.Workspace{}, queryDependencyError("query: workspace reader is required")
	}
	return q.reader.GetWorkspace(ctx, msg.Actor, msg.WorkspaceID)
}

type ListMembersQuery struct {
	reader WorkspaceReader
}

func NewListMembersQuery(reader WorkspaceReader) *ListMembersQuery {
	return &ListMembersQuery{reader: reader}
}

func (q *ListMembersQuery) Query(ctx context.Context, msg ListMembersMessage) ([]core.Member, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: workspace reader is required")
	}
	return q.reader.ListMembers(ctx, msg.Actor, msg.WorkspaceID)
}

type GetLeadQuery struct {
	reader LeadReader
}

func NewGetLeadQuery(reader LeadReader) *GetLeadQuery {
	return &GetLeadQuery{reader: reader}
}

func (q *GetLeadQuery) Query(ctx context.Context, msg GetLeadMessage) (core.Lead, error) {
	if q == nil || q.reader == nil {
		return core.Lead{}, queryDependencyError("query: lead reader is required")
	}
	return q.reader.GetLead(ctx, msg.Actor, msg.WorkspaceID, msg.LeadID)
}

type ListLeadsQuery struct {
	reader LeadReader
}

func NewListLeadsQuery(reader LeadReader) *ListLeadsQuery {
	return &ListLeadsQuery{reader: reader}
}

func (q *ListLeadsQuery) Query(ctx context.Context, msg ListLeadsMessage) (core.LeadPage, error) {
	if q == nil || q.reader == nil {
		return core.LeadPage{}, queryDependencyError("query: lead reader is required")
	}
	return q.reader.ListLeads(ctx, msg.Actor, msg.Filter)
}

type GetEndpointQuery struct {
	reader EndpointReader
}

func NewGetEndpointQuery(reader EndpointReader) *GetEndpointQuery {
	return &GetEndpointQuery{reader: reader}
}

func (q *GetEndpointQuery) Query(ctx context.Context, msg GetEndpointMessage) (core.WebhookEndpoint, error) {
	if q == nil || q.reader == nil {
		return core.WebhookEndpoint{}, queryDependencyError("query: endpoint reader is required")
	}
	return q.reader.GetEndpoint(ctx, msg.Actor, msg.WorkspaceID, msg.EndpointID)
}

type ListEndpointsQuery struct {
	reader EndpointReader
}

func NewListEndpointsQuery(reader EndpointReader) *ListEndpointsQuery {
	return &ListEndpointsQuery{reader: reader}
}

func (q *ListEndpointsQuery) Query(ctx context.Context, msg ListEndpointsMessage) ([]core.WebhookEndpoint, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: endpoint reader is required")
	}
	return q.reader.ListEndpoints(ctx, msg.Actor, msg.WorkspaceID)
}

type AuditTrailQuery struct {
	reader AuditReader
}

func NewAuditTrailQuery(reader AuditReader) *AuditTrailQuery {
	return &AuditTrailQuery{reader: reader}
}

func (q *AuditTrailQuery) Query(ctx context.Context, msg AuditTrailMessage) (core.AuditPage, error) {
	if q == nil || q.reader == nil {
		return core.AuditPage{}, queryDependencyError("query: audit reader is required")
	}
	return q.reader.AuditTrail(ctx, msg.Actor, msg.Filter)
}

type GetEndpointStatsQuery struct {
	reader EndpointReader
}

func NewGetEndpointStatsQuery(reader EndpointReader) *GetEndpointStatsQuery {
	return &GetEndpointStatsQuery{reader: reader}
}

func (q *GetEndpointStatsQuery) Query(ctx context.Context, msg GetEndpointStatsMessage) (core.EndpointStats, error) {
	if q == nil || q.reader == nil {
		return core.EndpointStats{}, queryDependencyError("query: endpoint reader is required")
	}
	return q.reader.EndpointStats(ctx, msg.Actor, msg.WorkspaceID, msg.EndpointID)
}

type LeadQuotaQuery struct {
	reader QuotaReader
}

func NewLeadQuotaQuery(reader QuotaReader) *LeadQuotaQuery {
	return &LeadQuotaQuery{reader: reader}
}

func (q *LeadQuotaQuery) Query(ctx context.Context, msg LeadQuotaMessage) (core.QuotaDecision, error) {
	if q == nil || q.reader == nil {
		return core.QuotaDecision{}, queryDependencyError("query: quota reader is required")
	}
	return q.reader.EvaluateLeadQuota(ctx, msg.WorkspaceID)
}
