package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CRMErrorBadInput         = "CRM_BAD_INPUT"
	CRMErrorNotFound         = "CRM_NOT_FOUND"
	CRMErrorUnauthorized     = "CRM_UNAUTHORIZED"
	CRMErrorPermissionDenied = "CRM_PERMISSION_DENIED"
	CRMErrorConflict         = "CRM_CONFLICT"
	CRMErrorRateLimited      = "CRM_RATE_LIMITED"
	CRMErrorQuotaExceeded    = "CRM_QUOTA_EXCEEDED"
	CRMErrorSignatureInvalid = "CRM_SIGNATURE_INVALID"
	CRMErrorTransformFailed  = "CRM_TRANSFORM_FAILED"
	CRMErrorInternal         = "CRM_INTERNAL_ERROR"
)

func crmErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureCRMErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "signature"):
		return newCRMError(err.Error(), goerrors.CategoryAuth, CRMErrorSignatureInvalid)
	case strings.Contains(msg, "not found"):
		return newCRMError(err.Error(), goerrors.CategoryNotFound, CRMErrorNotFound)
	case strings.Contains(msg, "quota"):
		return newCRMError(err.Error(), goerrors.CategoryRateLimit, CRMErrorQuotaExceeded)
	case strings.Contains(msg, "throttl"), strings.Contains(msg, "rate limit"):
		return newCRMError(err.Error(), goerrors.CategoryRateLimit, CRMErrorRateLimited)
	case strings.Contains(msg, "transition"), strings.Contains(msg, "already exists"):
		return newCRMError(err.Error(), goerrors.CategoryConflict, CRMErrorConflict)
	case strings.Contains(msg, "transform"), strings.Contains(msg, "normalize"):
		return newCRMError(err.Error(), goerrors.CategoryBadInput, CRMErrorTransformFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newCRMError(err.Error(), goerrors.CategoryBadInput, CRMErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureCRMErrorEnvelope(mapped)
}

func newCRMError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureCRMErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureCRMErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = crmHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultCRMTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultCRMTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return CRMErrorBadInput
	case goerrors.CategoryNotFound:
		return CRMErrorNotFound
	case goerrors.CategoryAuth:
		return CRMErrorUnauthorized
	case goerrors.CategoryAuthz:
		return CRMErrorPermissionDenied
	case goerrors.CategoryConflict:
		return CRMErrorConflict
	case goerrors.CategoryRateLimit:
		return CRMErrorRateLimited
	default:
		return CRMErrorInternal
	}
}

func crmHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
