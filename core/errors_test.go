package core

import (
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestCRMErrorMapper_PlainErrors(t *testing.T) {
	cases := []struct {
		err      error
		textCode string
		status   int
	}{
		{fmt.Errorf("core: signature mismatch"), CRMErrorSignatureInvalid, http.StatusUnauthorized},
		{fmt.Errorf("core: lead not found"), CRMErrorNotFound, http.StatusNotFound},
		{fmt.Errorf("core: monthly lead quota exceeded"), CRMErrorQuotaExceeded, http.StatusTooManyRequests},
		{fmt.Errorf("endpoint throttled"), CRMErrorRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("core: invalid lead status transition"), CRMErrorConflict, http.StatusConflict},
		{fmt.Errorf("core: transform failed"), CRMErrorTransformFailed, http.StatusBadRequest},
		{fmt.Errorf("core: workspace name is required"), CRMErrorBadInput, http.StatusBadRequest},
	}
	for _, tc := range cases {
		mapped := crmErrorMapper(tc.err)
		if mapped == nil {
			t.Fatalf("expected mapped error for %v", tc.err)
		}
		if mapped.TextCode != tc.textCode {
			t.Fatalf("%v: expected text code %s, got %s", tc.err, tc.textCode, mapped.TextCode)
		}
		if mapped.Code != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, mapped.Code)
		}
	}
}

func TestCRMErrorMapper_PreservesRichErrors(t *testing.T) {
	rich := goerrors.New("quota exhausted", goerrors.CategoryRateLimit).
		WithTextCode(CRMErrorQuotaExceeded)

	mapped := crmErrorMapper(rich)
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.TextCode != CRMErrorQuotaExceeded {
		t.Fatalf("expected text code to survive, got %s", mapped.TextCode)
	}
	if mapped.Code != http.StatusTooManyRequests {
		t.Fatalf("expected envelope to fill status, got %d", mapped.Code)
	}
}

func TestCRMErrorMapper_Nil(t *testing.T) {
	if mapped := crmErrorMapper(nil); mapped != nil {
		t.Fatalf("expected nil for nil input, got %v", mapped)
	}
}

func TestDefaultCRMTextCode(t *testing.T) {
	if got := defaultCRMTextCode(goerrors.CategoryAuthz); got != CRMErrorPermissionDenied {
		t.Fatalf("expected %s, got %s", CRMErrorPermissionDenied, got)
	}
	if got := defaultCRMTextCode(goerrors.CategoryInternal); got != CRMErrorInternal {
		t.Fatalf("expected %s, got %s", CRMErrorInternal, got)
	}
}
