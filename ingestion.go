package crm

import (
	"fmt"

	"github.com/goliatone/go-crm/core"
	"github.com/goliatone/go-crm/inbound"
	"github.com/goliatone/go-crm/webhooks"
)

// Ingestion bundles the webhook processor and the inbound dispatcher that
// fronts it.
type Ingestion struct {
	Processor  *webhooks.Processor
	Dispatcher *inbound.Dispatcher
}

type IngestionOption func(*webhooks.Processor)

func WithOutboundNotifier(notifier *webhooks.OutboundNotifier) IngestionOption {
	return func(p *webhooks.Processor) {
		p.Notifier = notifier
	}
}

func WithMergeByEmail(merge bool) IngestionOption {
	return func(p *webhooks.Processor) {
		p.MergeByEmail = merge
	}
}

// NewIngestion wires a processor and dispatcher from a built service and a
// delivery ledger. Stats, rate limiting and quota come from the service's
// dependencies when present.
func NewIngestion(service *core.Service, ledger webhooks.DeliveryLedger, opts ...IngestionOption) (*Ingestion, error) {
	if service == nil {
		return nil, fmt.Errorf("crm: service is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("crm: delivery ledger is required")
	}

	deps := service.Dependencies()
	if deps.Normalizer == nil {
		return nil, fmt.Errorf("crm: service has no normalizer")
	}
	if deps.LeadIngestor == nil {
		return nil, fmt.Errorf("crm: service has no lead ingestor")
	}
	if deps.EndpointStore == nil {
		return nil, fmt.Errorf("crm: service has no endpoint store")
	}

	processor := webhooks.NewProcessor(service, deps.Normalizer, ledger, deps.LeadIngestor)
	processor.RateLimit = deps.RateLimitPolicy
	processor.Quota = deps.QuotaEvaluator
	processor.Logger = deps.Logger
	if writer, ok := deps.StatsStore.(core.StatsWriter); ok {
		processor.Stats = writer
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(processor)
	}

	dispatcher := inbound.NewDispatcher(deps.EndpointStore, processor)
	dispatcher.Logger = deps.Logger

	return &Ingestion{Processor: processor, Dispatcher: dispatcher}, nil
}
