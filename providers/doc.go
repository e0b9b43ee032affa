// Package providers hosts the builtin lead transformers, one subpackage per
// upstream payload shape. Each transformer is pure: it parses a raw inbound
// body and emits canonical leads, leaving verification, dedupe, and
// persistence to the ingestion pipeline.
package providers
