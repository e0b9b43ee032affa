package query

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/goliatone/go-crm/core"
	goerrors "github.com/goliatone/go-errors"
)

func TestGetLeadQuery_NilReaderReturnsRichError(t *testing.T) {
	var q *GetLeadQuery
	_, err := q.Query(context.Background(), GetLeadMessage{WorkspaceID: "ws", LeadID: "lead"})
	if err == nil {
		t.Fatalf("expected query dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.CRMErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.CRMErrorInternal, rich.TextCode)
	}
}

func TestQueryValidationError_CarriesFieldAndCodes(t *testing.T) {
	err := queryValidationError("workspace_id", "workspace id is required")

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 code, got %d", rich.Code)
	}
	if rich.TextCode != core.CRMErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.CRMErrorBadInput, rich.TextCode)
	}
}

func TestQueryWrapValidation_PreservesCauseAndNil(t *testing.T) {
	if queryWrapValidation(nil, "noop") != nil {
		t.Fatalf("expected nil wrap for nil cause")
	}

	err := queryWrapValidation(fmt.Errorf("bad filter"), "query: filter rejected")
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.TextCode != core.CRMErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.CRMErrorBadInput, rich.TextCode)
	}
}
