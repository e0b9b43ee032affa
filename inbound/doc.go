// Package inbound routes provider-originated webhook requests to the
// ingestion pipeline.
//
// The dispatcher resolves the target endpoint from its public id, enforces
// the request body cap, and delegates to the webhook processor. Failed
// deliveries remain retryable through the delivery ledger.
package inbound
