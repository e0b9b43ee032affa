package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/goliatone/go-crm/core"
)

func TestHeaderHMACVerifierHexRoundTrip(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	verifier := HeaderHMACVerifier{
		Header:   "X-Webhook-Signature",
		Prefix:   "sha256=",
		Secret:   "topsecret",
		Encoding: "hex",
	}

	req := core.InboundRequest{
		Headers: map[string]string{"X-Webhook-Signature": SignBody("topsecret", body)},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}

	req.Body = []byte(`{"hello":"tampered"}`)
	if err := verifier.Verify(context.Background(), req); err == nil {
		t.Fatalf("expected tampered body to fail verification")
	}
}

func TestHeaderHMACVerifierBase64(t *testing.T) {
	body := []byte(`{"n":1}`)
	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(body)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	verifier := HeaderHMACVerifier{
		Header:   "X-Mailchimp-Signature",
		Secret:   "topsecret",
		Encoding: "base64",
	}
	req := core.InboundRequest{
		Headers: map[string]string{"x-mailchimp-signature": signature},
		Body:    body,
	}
	if err := verifier.Verify(context.Background(), req); err != nil {
		t.Fatalf("expected valid base64 signature, got %v", err)
	}
}

func TestHeaderHMACVerifierRequiresHeader(t *testing.T) {
	verifier := HeaderHMACVerifier{Header: "X-Webhook-Signature", Secret: "s"}
	err := verifier.Verify(context.Background(), core.InboundRequest{Body: []byte("{}")})
	if err == nil {
		t.Fatalf("expected missing header error")
	}
}

func TestHeaderTokenVerifier(t *testing.T) {
	verifier := HeaderTokenVerifier{Header: "X-Goog-Channel-Token", Token: "channel-token"}

	ok := core.InboundRequest{Headers: map[string]string{"X-Goog-Channel-Token": "channel-token"}}
	if err := verifier.Verify(context.Background(), ok); err != nil {
		t.Fatalf("expected matching token, got %v", err)
	}

	bad := core.InboundRequest{Headers: map[string]string{"X-Goog-Channel-Token": "other"}}
	if err := verifier.Verify(context.Background(), bad); err == nil {
		t.Fatalf("expected token mismatch error")
	}
}

func TestHeaderDeliveryIDExtractorFallsBack(t *testing.T) {
	extractor := HeaderDeliveryIDExtractor("X-Primary-Id", "X-Fallback-Id")

	req := core.InboundRequest{Headers: map[string]string{"x-fallback-id": " d-42 "}}
	got, err := extractor(req)
	if err != nil {
		t.Fatalf("extractor failed: %v", err)
	}
	if got != "d-42" {
		t.Fatalf("expected d-42, got %q", got)
	}

	if _, err := extractor(core.InboundRequest{}); err == nil {
		t.Fatalf("expected error when no delivery header is present")
	}
}

func TestTemplateForCoversEveryProvider(t *testing.T) {
	providers := []core.ProviderTag{
		core.ProviderFacebook,
		core.ProviderGoogleForms,
		core.ProviderZapier,
		core.ProviderMailchimp,
		core.ProviderHubSpot,
		core.ProviderSalesforce,
		core.ProviderCustom,
	}
	for _, provider := range providers {
		template, err := TemplateFor(provider, "secret")
		if err != nil {
			t.Fatalf("TemplateFor(%q) failed: %v", provider, err)
		}
		if template.Verifier == nil || template.Extractor == nil {
			t.Fatalf("TemplateFor(%q) returned incomplete template", provider)
		}
	}

	if _, err := TemplateFor("unknown", "secret"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestDefaultVerifierFactoryWithoutSecret(t *testing.T) {
	endpoint := core.WebhookEndpoint{Provider: core.ProviderCustom}
	verifier, extractor, err := DefaultVerifierFactory(endpoint, "")
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	if _, ok := verifier.(NoopVerifier); !ok {
		t.Fatalf("expected noop verifier for secretless endpoint, got %T", verifier)
	}
	if extractor == nil {
		t.Fatalf("expected delivery id extractor")
	}
}
