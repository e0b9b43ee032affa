package sqlstore

import (
	"github.com/goliatone/go-crm/core"
	"github.com/goliatone/go-crm/ratelimit"
	"github.com/goliatone/go-crm/webhooks"
)

var (
	_ core.WorkspaceStore         = (*WorkspaceStore)(nil)
	_ core.MemberStore            = (*MemberStore)(nil)
	_ core.LeadStore              = (*LeadStore)(nil)
	_ core.EndpointStore          = (*EndpointStore)(nil)
	_ core.AuditSink              = (*AuditStore)(nil)
	_ core.StatsStore             = (*StatsStore)(nil)
	_ core.StatsWriter            = (*StatsStore)(nil)
	_ core.SubscriptionStore      = (*SubscriptionStore)(nil)
	_ core.LeadIngestor           = (*Ingestor)(nil)
	_ webhooks.DeliveryLedger     = (*DeliveryStore)(nil)
	_ webhooks.RetrySource        = (*DeliveryStore)(nil)
	_ webhooks.EndpointSource     = (*EndpointStore)(nil)
	_ ratelimit.StateStore        = (*RateLimitStateStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
