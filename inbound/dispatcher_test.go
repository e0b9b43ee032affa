package inbound

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-crm/core"
	"github.com/goliatone/go-crm/webhooks"
	goerrors "github.com/goliatone/go-errors"
)

type stubEndpointResolver struct {
	getByPublicIDFn func(ctx context.Context, publicID string) (core.WebhookEndpoint, error)
}

func (s stubEndpointResolver) GetByPublicID(ctx context.Context, publicID string) (core.WebhookEndpoint, error) {
	return s.getByPublicIDFn(ctx, publicID)
}

type stubProcessor struct {
	processFn func(ctx context.Context, endpoint core.WebhookEndpoint, req core.InboundRequest) (core.InboundResult, error)
	calls     int
}

func (s *stubProcessor) Process(ctx context.Context, endpoint core.WebhookEndpoint, req core.InboundRequest) (core.InboundResult, error) {
	s.calls++
	return s.processFn(ctx, endpoint, req)
}

func activeEndpoint() core.WebhookEndpoint {
	return core.WebhookEndpoint{
		ID:          "ep_1",
		WorkspaceID: "ws_1",
		PublicID:    "whk_pub_1",
		Provider:    core.ProviderZapier,
		Status:      core.EndpointStatusActive,
	}
}

func TestDispatcher_ResolvesEndpointAndDelegates(t *testing.T) {
	resolver := stubEndpointResolver{
		getByPublicIDFn: func(_ context.Context, publicID string) (core.WebhookEndpoint, error) {
			if publicID != "whk_pub_1" {
				t.Fatalf("unexpected public id: %q", publicID)
			}
			return activeEndpoint(), nil
		},
	}
	processor := &stubProcessor{
		processFn: func(_ context.Context, endpoint core.WebhookEndpoint, req core.InboundRequest) (core.InboundResult, error) {
			if endpoint.ID != "ep_1" {
				t.Fatalf("unexpected endpoint: %q", endpoint.ID)
			}
			if !bytes.Equal(req.Body, []byte(`{"email":"ada@example.com"}`)) {
				t.Fatalf("unexpected body: %s", req.Body)
			}
			return core.InboundResult{
				Accepted:   true,
				StatusCode: http.StatusOK,
				LeadIDs:    []string{"lead_1"},
			}, nil
		},
	}

	dispatcher := NewDispatcher(resolver, processor)
	result, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{
		EndpointPublicID: "whk_pub_1",
		Body:             []byte(`{"email":"ada@example.com"}`),
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !result.Accepted || len(result.LeadIDs) != 1 {
		t.Fatalf("unexpected result: %#v", result)
	}
	if result.Metadata["endpoint_public_id"] != "whk_pub_1" {
		t.Fatalf("expected endpoint public id in metadata, got %#v", result.Metadata)
	}
	if result.Metadata["provider"] != string(core.ProviderZapier) {
		t.Fatalf("expected provider in metadata, got %#v", result.Metadata)
	}
	if processor.calls != 1 {
		t.Fatalf("expected one processor call, got %d", processor.calls)
	}
}

func TestDispatcher_RejectsOversizedBody(t *testing.T) {
	processor := &stubProcessor{
		processFn: func(context.Context, core.WebhookEndpoint, core.InboundRequest) (core.InboundResult, error) {
			return core.InboundResult{}, nil
		},
	}
	dispatcher := NewDispatcher(stubEndpointResolver{
		getByPublicIDFn: func(context.Context, string) (core.WebhookEndpoint, error) {
			return activeEndpoint(), nil
		},
	}, processor)
	dispatcher.MaxBodyBytes = 8

	result, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{
		EndpointPublicID: "whk_pub_1",
		Body:             []byte(`{"email":"ada@example.com"}`),
	})
	if err == nil {
		t.Fatalf("expected oversized body rejection")
	}
	if result.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 result, got %d", result.StatusCode)
	}
	if processor.calls != 0 {
		t.Fatalf("expected processor untouched, got %d calls", processor.calls)
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 code, got %d", rich.Code)
	}
	if rich.TextCode != core.CRMErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.CRMErrorBadInput, rich.TextCode)
	}
}

func TestDispatcher_UnknownEndpointReturnsNotFound(t *testing.T) {
	processor := &stubProcessor{
		processFn: func(context.Context, core.WebhookEndpoint, core.InboundRequest) (core.InboundResult, error) {
			return core.InboundResult{}, nil
		},
	}
	dispatcher := NewDispatcher(stubEndpointResolver{
		getByPublicIDFn: func(context.Context, string) (core.WebhookEndpoint, error) {
			return core.WebhookEndpoint{}, errors.New("sqlstore: endpoint not found")
		},
	}, processor)

	_, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{
		EndpointPublicID: "whk_missing",
		Body:             []byte(`{}`),
	})
	if err == nil {
		t.Fatalf("expected not found error")
	}
	if processor.calls != 0 {
		t.Fatalf("expected processor untouched, got %d calls", processor.calls)
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryNotFound {
		t.Fatalf("expected not_found category, got %q", rich.Category)
	}
	if rich.TextCode != core.CRMErrorNotFound {
		t.Fatalf("expected %q text code, got %q", core.CRMErrorNotFound, rich.TextCode)
	}
}

func TestDispatcher_ClassifiesProcessorFailures(t *testing.T) {
	cases := []struct {
		name         string
		statusCode   int
		wantCategory goerrors.Category
		wantTextCode string
	}{
		{"signature rejection", http.StatusUnauthorized, goerrors.CategoryAuth, core.CRMErrorSignatureInvalid},
		{"throttled delivery", http.StatusTooManyRequests, goerrors.CategoryRateLimit, core.CRMErrorRateLimited},
		{"malformed payload", http.StatusBadRequest, goerrors.CategoryBadInput, core.CRMErrorTransformFailed},
		{"pipeline failure", 0, goerrors.CategoryOperation, core.CRMErrorInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dispatcher := NewDispatcher(stubEndpointResolver{
				getByPublicIDFn: func(context.Context, string) (core.WebhookEndpoint, error) {
					return activeEndpoint(), nil
				},
			}, &stubProcessor{
				processFn: func(context.Context, core.WebhookEndpoint, core.InboundRequest) (core.InboundResult, error) {
					return core.InboundResult{Accepted: false, StatusCode: tc.statusCode}, errors.New("processor failure")
				},
			})

			result, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{
				EndpointPublicID: "whk_pub_1",
				Body:             []byte(`{}`),
			})
			if err == nil {
				t.Fatalf("expected processor failure to bubble")
			}
			if result.StatusCode != tc.statusCode {
				t.Fatalf("expected processor result preserved, got %d", result.StatusCode)
			}

			var rich *goerrors.Error
			if !goerrors.As(err, &rich) {
				t.Fatalf("expected go-errors envelope, got %T", err)
			}
			if rich.Category != tc.wantCategory {
				t.Fatalf("expected %q category, got %q", tc.wantCategory, rich.Category)
			}
			if rich.TextCode != tc.wantTextCode {
				t.Fatalf("expected %q text code, got %q", tc.wantTextCode, rich.TextCode)
			}
		})
	}
}

func TestInMemoryDeliveryLedger_ClaimDedupeAndRetry(t *testing.T) {
	ledger := NewInMemoryDeliveryLedger()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ledger.Now = func() time.Time { return now }

	record, claimed, err := ledger.Claim(context.Background(), "ep_1", "del-1", []byte(`{}`), time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !claimed || record.Attempts != 1 || record.Status != webhooks.DeliveryStatusProcessing {
		t.Fatalf("unexpected first claim: %#v", record)
	}

	if _, claimed, err := ledger.Claim(context.Background(), "ep_1", "del-1", []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("claim while leased: %v", err)
	} else if claimed {
		t.Fatalf("expected dedupe while lease is active")
	}

	if err := ledger.Fail(context.Background(), record.ClaimID, errors.New("ingest failed"), now.Add(-time.Second), 8); err != nil {
		t.Fatalf("fail: %v", err)
	}
	got, err := ledger.Get(context.Background(), "ep_1", "del-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != webhooks.DeliveryStatusRetryReady {
		t.Fatalf("expected retry_ready after fail, got %q", got.Status)
	}

	reclaimed, claimed, err := ledger.Claim(context.Background(), "ep_1", "del-1", []byte(`{}`), time.Minute)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if !claimed || reclaimed.Attempts != 2 {
		t.Fatalf("expected reclaim with attempt bump, got %#v", reclaimed)
	}
	if reclaimed.ClaimID == record.ClaimID {
		t.Fatalf("expected claim id rotation on reclaim")
	}

	if err := ledger.Complete(context.Background(), reclaimed.ClaimID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, claimed, err := ledger.Claim(context.Background(), "ep_1", "del-1", []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("claim after completion: %v", err)
	} else if claimed {
		t.Fatalf("expected processed delivery to dedupe")
	}
}

func TestInMemoryDeliveryLedger_ExhaustedAttemptsGoDead(t *testing.T) {
	ledger := NewInMemoryDeliveryLedger()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ledger.Now = func() time.Time { return now }

	record, claimed, err := ledger.Claim(context.Background(), "ep_1", "del-dead", []byte(`{}`), time.Minute)
	if err != nil || !claimed {
		t.Fatalf("claim: claimed=%v err=%v", claimed, err)
	}
	if err := ledger.Fail(context.Background(), record.ClaimID, errors.New("ingest failed"), now, 1); err != nil {
		t.Fatalf("fail: %v", err)
	}

	got, err := ledger.Get(context.Background(), "ep_1", "del-dead")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != webhooks.DeliveryStatusDead {
		t.Fatalf("expected dead delivery, got %q", got.Status)
	}
	if _, claimed, err := ledger.Claim(context.Background(), "ep_1", "del-dead", []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("claim dead delivery: %v", err)
	} else if claimed {
		t.Fatalf("expected dead delivery to stay unclaimed")
	}
}
