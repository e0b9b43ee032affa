package webhooks

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-crm/core"
)

type stubRetrySource struct {
	records  []DeliveryRecord
	payloads map[string][]byte
}

func (s stubRetrySource) ListRetryReady(_ context.Context, _ int) ([]DeliveryRecord, error) {
	return s.records, nil
}

func (s stubRetrySource) Payload(_ context.Context, endpointID string, deliveryID string) ([]byte, error) {
	payload, ok := s.payloads[endpointID+"/"+deliveryID]
	if !ok {
		return nil, errors.New("payload not found")
	}
	return payload, nil
}

type stubEndpointSource struct {
	endpoints map[string]core.WebhookEndpoint
}

func (s stubEndpointSource) GetByID(_ context.Context, id string) (core.WebhookEndpoint, error) {
	endpoint, ok := s.endpoints[id]
	if !ok {
		return core.WebhookEndpoint{}, core.ErrEndpointNotFound
	}
	return endpoint, nil
}

func TestRedelivererReplaysRetryReadyDeliveries(t *testing.T) {
	fixture := newProcessorFixture(t)

	paused := activeEndpoint()
	paused.ID = "ep-2"
	paused.Status = core.EndpointStatusPaused

	redeliverer := &Redeliverer{
		Source: stubRetrySource{
			records: []DeliveryRecord{
				{EndpointID: "ep-1", DeliveryID: "d-retry"},
				{EndpointID: "ep-2", DeliveryID: "d-paused"},
			},
			payloads: map[string][]byte{
				"ep-1/d-retry": []byte(`{"name":"Ada Lovelace","email":"ada@example.com"}`),
			},
		},
		Endpoints: stubEndpointSource{
			endpoints: map[string]core.WebhookEndpoint{
				"ep-1": activeEndpoint(),
				"ep-2": paused,
			},
		},
		Processor: fixture.processor,
	}

	report, err := redeliverer.Run(context.Background())
	if err != nil {
		t.Fatalf("redelivery run: %v", err)
	}
	if report.Drained != 2 || report.Succeeded != 1 || report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if fixture.ingestor.calls != 1 {
		t.Fatalf("expected one ingest, got %d", fixture.ingestor.calls)
	}
	if fixture.ingestor.record.Audit.Action != "lead.redelivered" {
		t.Fatalf("unexpected audit action: %q", fixture.ingestor.record.Audit.Action)
	}
	if len(fixture.ledger.completed) != 1 {
		t.Fatalf("expected completed claim, got %v", fixture.ledger.completed)
	}
}

func TestRedelivererReschedulesFailedAttempts(t *testing.T) {
	fixture := newProcessorFixture(t)
	fixture.ingestor.err = errors.New("database unavailable")

	redeliverer := &Redeliverer{
		Source: stubRetrySource{
			records: []DeliveryRecord{{EndpointID: "ep-1", DeliveryID: "d-retry"}},
			payloads: map[string][]byte{
				"ep-1/d-retry": []byte(`{"name":"Ada Lovelace","email":"ada@example.com"}`),
			},
		},
		Endpoints: stubEndpointSource{
			endpoints: map[string]core.WebhookEndpoint{"ep-1": activeEndpoint()},
		},
		Processor: fixture.processor,
	}

	report, err := redeliverer.Run(context.Background())
	if err != nil {
		t.Fatalf("redelivery run: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(fixture.ledger.failed) != 1 {
		t.Fatalf("expected failed claim rescheduled, got %v", fixture.ledger.failed)
	}
	if len(fixture.stats.deltas) != 1 || fixture.stats.deltas[0].Failed != 1 {
		t.Fatalf("expected failed stats bump, got %+v", fixture.stats.deltas)
	}
}

func TestRedeliverDoesNotRecountReceivedDeliveries(t *testing.T) {
	fixture := newProcessorFixture(t)
	fixture.ingestor.err = errors.New("database unavailable")
	payload := []byte(`{"name":"Ada Lovelace","email":"ada@example.com"}`)

	req := zapierRequest("d-retry")
	req.Body = payload
	if _, err := fixture.processor.Process(context.Background(), activeEndpoint(), req); err == nil {
		t.Fatalf("expected ingest error on first receipt")
	}
	if len(fixture.stats.deltas) != 1 {
		t.Fatalf("expected one stats bump, got %+v", fixture.stats.deltas)
	}
	first := fixture.stats.deltas[0]
	if first.Received != 1 || first.Failed != 1 {
		t.Fatalf("first receipt must count received and failed once, got %+v", first)
	}

	if err := fixture.processor.Redeliver(context.Background(), activeEndpoint(), "d-retry", payload); err == nil {
		t.Fatalf("expected ingest error on redelivery")
	}
	if len(fixture.stats.deltas) != 2 {
		t.Fatalf("expected a second stats bump, got %+v", fixture.stats.deltas)
	}
	second := fixture.stats.deltas[1]
	if second.Received != 0 {
		t.Fatalf("redelivery must not recount received, got %+v", second)
	}
	if second.Failed != 1 {
		t.Fatalf("redelivery failure must count failed, got %+v", second)
	}
	if !fixture.ingestor.record.Reattempt {
		t.Fatalf("redelivered payload must be flagged as a reattempt")
	}
}

func TestRedeliverSkipsHeldClaims(t *testing.T) {
	fixture := newProcessorFixture(t)

	// A prior claim holds the delivery; redelivery must yield.
	if _, claimed, err := fixture.ledger.Claim(context.Background(), "ep-1", "d-held", nil, 0); err != nil || !claimed {
		t.Fatalf("seed claim: claimed=%v err=%v", claimed, err)
	}

	err := fixture.processor.Redeliver(
		context.Background(),
		activeEndpoint(),
		"d-held",
		[]byte(`{"name":"Ada Lovelace","email":"ada@example.com"}`),
	)
	if err != nil {
		t.Fatalf("redeliver held claim: %v", err)
	}
	if fixture.ingestor.calls != 0 {
		t.Fatalf("held claim must not ingest, got %d calls", fixture.ingestor.calls)
	}
}
