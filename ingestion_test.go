package crm

import (
	"context"
	"testing"

	"github.com/goliatone/go-crm/core"
	"github.com/goliatone/go-crm/inbound"
)

func TestNewIngestion_WiresProcessorAndDispatcher(t *testing.T) {
	service, err := NewService(DefaultConfig(),
		WithEndpointStore(&stubIngestionEndpointStore{}),
		WithLeadIngestor(&stubIngestionIngestor{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ledger := inbound.NewInMemoryDeliveryLedger()
	ingestion, err := NewIngestion(service, ledger, WithMergeByEmail(false))
	if err != nil {
		t.Fatalf("new ingestion: %v", err)
	}

	if ingestion.Processor == nil || ingestion.Dispatcher == nil {
		t.Fatalf("expected processor and dispatcher to be wired")
	}
	if ingestion.Processor.Ledger == nil || ingestion.Processor.Ingestor == nil {
		t.Fatalf("expected processor dependencies from service")
	}
	if ingestion.Processor.MergeByEmail {
		t.Fatalf("expected merge-by-email option to apply")
	}
	if ingestion.Dispatcher.Endpoints == nil {
		t.Fatalf("expected dispatcher endpoint resolver")
	}
}

func TestNewIngestion_RequiresServiceAndLedger(t *testing.T) {
	if _, err := NewIngestion(nil, inbound.NewInMemoryDeliveryLedger()); err == nil {
		t.Fatalf("expected nil service error")
	}

	service, err := NewService(DefaultConfig(),
		WithEndpointStore(&stubIngestionEndpointStore{}),
		WithLeadIngestor(&stubIngestionIngestor{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := NewIngestion(service, nil); err == nil {
		t.Fatalf("expected nil ledger error")
	}
}

var (
	_ core.EndpointStore = (*stubIngestionEndpointStore)(nil)
	_ core.LeadIngestor  = (*stubIngestionIngestor)(nil)
)

type stubIngestionEndpointStore struct{}

func (s *stubIngestionEndpointStore) Create(_ context.Context, endpoint core.WebhookEndpoint) (core.WebhookEndpoint, error) {
	return endpoint, nil
}

func (s *stubIngestionEndpointStore) Get(context.Context, string, string) (core.WebhookEndpoint, error) {
	return core.WebhookEndpoint{}, core.ErrEndpointNotFound
}

func (s *stubIngestionEndpointStore) GetByPublicID(context.Context, string) (core.WebhookEndpoint, error) {
	return core.WebhookEndpoint{}, core.ErrEndpointNotFound
}

func (s *stubIngestionEndpointStore) List(context.Context, string) ([]core.WebhookEndpoint, error) {
	return nil, nil
}

func (s *stubIngestionEndpointStore) UpdateStatus(context.Context, string, core.EndpointStatus, string) error {
	return nil
}

func (s *stubIngestionEndpointStore) UpdateSecret(context.Context, string, []byte) error {
	return nil
}

func (s *stubIngestionEndpointStore) UpdateFieldRules(context.Context, string, []core.FieldRule) error {
	return nil
}

type stubIngestionIngestor struct{}

func (s *stubIngestionIngestor) Ingest(context.Context, core.IngestRecord) (core.IngestResult, error) {
	return core.IngestResult{}, nil
}
