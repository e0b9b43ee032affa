// Package webhooks runs the inbound delivery pipeline: signature
// verification per provider template, delivery claiming for dedupe and
// retries, throttling and quota gates, payload normalization and the
// single-transaction ingest of leads, stats and audit entries.
package webhooks
