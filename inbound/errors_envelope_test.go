package inbound

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/goliatone/go-crm/core"
	goerrors "github.com/goliatone/go-errors"
)

func TestDispatch_MissingEndpointIDReturnsRichError(t *testing.T) {
	dispatcher := NewDispatcher(stubEndpointResolver{
		getByPublicIDFn: func(context.Context, string) (core.WebhookEndpoint, error) {
			return core.WebhookEndpoint{}, nil
		},
	}, &stubProcessor{
		processFn: func(context.Context, core.WebhookEndpoint, core.InboundRequest) (core.InboundResult, error) {
			return core.InboundResult{}, nil
		},
	})

	_, err := dispatcher.Dispatch(context.Background(), core.InboundRequest{Body: []byte(`{}`)})
	if err == nil {
		t.Fatalf("expected missing endpoint id error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryBadInput {
		t.Fatalf("expected bad_input category, got %q", rich.Category)
	}
	if rich.TextCode != core.CRMErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.CRMErrorBadInput, rich.TextCode)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, rich.Code)
	}
}

func TestInboundWrapError_PreservesSource(t *testing.T) {
	source := errors.New("upstream blew up")
	err := inboundWrapError(
		source,
		goerrors.CategoryOperation,
		"inbound: webhook processing failed",
		http.StatusBadGateway,
		core.CRMErrorInternal,
		map[string]any{"endpoint_id": "ep_1"},
	)

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if !errors.Is(err, source) {
		t.Fatalf("expected wrapped source to survive")
	}
	if rich.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 code, got %d", rich.Code)
	}

	if wrapped := inboundWrapError(nil, goerrors.CategoryOperation, "inbound: fallback", http.StatusBadGateway, core.CRMErrorInternal, nil); wrapped == nil {
		t.Fatalf("expected nil source to fall back to a new envelope")
	}
}
