package inbound

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-crm/core"
	goerrors "github.com/goliatone/go-errors"
)

// EndpointResolver looks up a webhook endpoint from the public id carried in
// the ingestion URL. core.EndpointStore satisfies it.
type EndpointResolver interface {
	GetByPublicID(ctx context.Context, publicID string) (core.WebhookEndpoint, error)
}

// WebhookProcessor runs the ingestion pipeline for one resolved endpoint.
type WebhookProcessor interface {
	Process(ctx context.Context, endpoint core.WebhookEndpoint, req core.InboundRequest) (core.InboundResult, error)
}

type Dispatcher struct {
	Endpoints    EndpointResolver
	Processor    WebhookProcessor
	MaxBodyBytes int64
	Logger       core.Logger
}

func NewDispatcher(endpoints EndpointResolver, processor WebhookProcessor) *Dispatcher {
	return &Dispatcher{
		Endpoints:    endpoints,
		Processor:    processor,
		MaxBodyBytes: 1 << 20,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if d == nil || d.Endpoints == nil || d.Processor == nil {
		return core.InboundResult{}, inboundInternal("inbound: dispatcher requires endpoint resolver and processor", nil)
	}

	req.EndpointPublicID = strings.TrimSpace(req.EndpointPublicID)
	if req.EndpointPublicID == "" {
		return core.InboundResult{}, inboundBadInput("inbound: endpoint public id is required", nil)
	}
	if max := d.maxBodyBytes(); int64(len(req.Body)) > max {
		return core.InboundResult{
				Accepted:   false,
				StatusCode: http.StatusRequestEntityTooLarge,
				Metadata: map[string]any{
					"endpoint_public_id": req.EndpointPublicID,
					"rejected":           true,
				},
			}, inboundError(
				fmt.Sprintf("inbound: request body exceeds %d bytes", max),
				goerrors.CategoryBadInput,
				http.StatusRequestEntityTooLarge,
				core.CRMErrorBadInput,
				map[string]any{"endpoint_public_id": req.EndpointPublicID, "body_bytes": len(req.Body)},
			)
	}

	endpoint, err := d.Endpoints.GetByPublicID(ctx, req.EndpointPublicID)
	if err != nil {
		return core.InboundResult{}, inboundWrapError(
			err,
			goerrors.CategoryNotFound,
			"inbound: resolve endpoint",
			http.StatusNotFound,
			core.CRMErrorNotFound,
			map[string]any{"endpoint_public_id": req.EndpointPublicID},
		)
	}

	result, err := d.Processor.Process(ctx, endpoint, req)
	if err != nil {
		return result, d.classifyProcessError(err, endpoint, result)
	}

	result.Metadata = ensureMetadata(result.Metadata)
	result.Metadata["endpoint_public_id"] = endpoint.PublicID
	result.Metadata["provider"] = string(endpoint.Provider)
	return result, nil
}

// classifyProcessError maps the processor's outcome onto the error envelope
// the transport layer serializes. The processor's result status code carries
// the rejection class.
func (d *Dispatcher) classifyProcessError(err error, endpoint core.WebhookEndpoint, result core.InboundResult) error {
	metadata := map[string]any{
		"endpoint_public_id": endpoint.PublicID,
		"endpoint_id":        endpoint.ID,
	}
	switch result.StatusCode {
	case http.StatusUnauthorized:
		return inboundWrapError(
			err,
			goerrors.CategoryAuth,
			"inbound: signature verification failed",
			http.StatusUnauthorized,
			core.CRMErrorSignatureInvalid,
			metadata,
		)
	case http.StatusTooManyRequests:
		return inboundWrapError(
			err,
			goerrors.CategoryRateLimit,
			"inbound: delivery throttled",
			http.StatusTooManyRequests,
			core.CRMErrorRateLimited,
			metadata,
		)
	case http.StatusBadRequest:
		return inboundWrapError(
			err,
			goerrors.CategoryBadInput,
			"inbound: payload normalization failed",
			http.StatusBadRequest,
			core.CRMErrorTransformFailed,
			metadata,
		)
	default:
		return inboundWrapError(
			err,
			goerrors.CategoryOperation,
			"inbound: webhook processing failed",
			http.StatusBadGateway,
			core.CRMErrorInternal,
			metadata,
		)
	}
}

func (d *Dispatcher) maxBodyBytes() int64 {
	if d != nil && d.MaxBodyBytes > 0 {
		return d.MaxBodyBytes
	}
	return 1 << 20
}

func ensureMetadata(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return map[string]any{}
	}
	return metadata
}
