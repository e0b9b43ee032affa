package core

import (
	"context"
	"fmt"
	"testing"
)

type stubTransformer struct {
	tag   ProviderTag
	leads []CanonicalLead
	err   error
}

func (s stubTransformer) Provider() ProviderTag { return s.tag }

func (s stubTransformer) Transform(context.Context, InboundRequest) ([]CanonicalLead, error) {
	return s.leads, s.err
}

func TestNormalizer_BuiltinProvider(t *testing.T) {
	registry := NewLeadTransformerRegistry()
	if err := registry.Register(stubTransformer{
		tag:   ProviderZapier,
		leads: []CanonicalLead{{Name: "  Ada  ", Email: "ADA@Example.com "}},
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	normalizer := NewNormalizer(registry)
	leads, err := normalizer.Normalize(context.Background(), InboundRequest{Provider: ProviderZapier}, nil)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(leads))
	}
	if leads[0].Name != "Ada" {
		t.Fatalf("expected trimmed name, got %q", leads[0].Name)
	}
	if leads[0].Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", leads[0].Email)
	}
	if leads[0].Source != "zapier" {
		t.Fatalf("expected source to default to the provider tag, got %q", leads[0].Source)
	}
}

func TestNormalizer_UnknownProvider(t *testing.T) {
	normalizer := NewNormalizer(NewLeadTransformerRegistry())
	_, err := normalizer.Normalize(context.Background(), InboundRequest{Provider: "typeform"}, nil)
	if err == nil {
		t.Fatalf("expected unknown provider to fail")
	}
}

func TestNormalizer_UnregisteredProvider(t *testing.T) {
	normalizer := NewNormalizer(NewLeadTransformerRegistry())
	_, err := normalizer.Normalize(context.Background(), InboundRequest{Provider: ProviderHubSpot}, nil)
	if err == nil {
		t.Fatalf("expected unregistered provider to fail")
	}
}

func TestNormalizer_TransformerErrorPropagates(t *testing.T) {
	registry := NewLeadTransformerRegistry()
	if err := registry.Register(stubTransformer{
		tag: ProviderMailchimp,
		err: fmt.Errorf("boom"),
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	normalizer := NewNormalizer(registry)
	_, err := normalizer.Normalize(context.Background(), InboundRequest{Provider: ProviderMailchimp}, nil)
	if err == nil {
		t.Fatalf("expected transformer error to propagate")
	}
}

func TestNormalizer_ZeroLeadsRejected(t *testing.T) {
	registry := NewLeadTransformerRegistry()
	if err := registry.Register(stubTransformer{tag: ProviderSalesforce}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	normalizer := NewNormalizer(registry)
	_, err := normalizer.Normalize(context.Background(), InboundRequest{Provider: ProviderSalesforce}, nil)
	if err == nil {
		t.Fatalf("expected empty transform result to fail")
	}
}

func TestNormalizer_CustomProviderWithFieldRules(t *testing.T) {
	normalizer := NewNormalizer(NewLeadTransformerRegistry())
	body := []byte(`{"form": {"who": "grace hopper", "mail": "Grace@Example.com"}}`)
	rules := []FieldRule{
		{ID: "r1", Target: "name", SourcePath: "form.who", Transform: "title_case"},
		{ID: "r2", Target: "email", SourcePath: "form.mail", Transform: "lowercase", Required: true},
	}

	leads, err := normalizer.Normalize(context.Background(), InboundRequest{
		Provider: ProviderCustom,
		Body:     body,
	}, rules)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if leads[0].Name != "Grace Hopper" {
		t.Fatalf("expected Grace Hopper, got %q", leads[0].Name)
	}
	if leads[0].Source != "custom" {
		t.Fatalf("expected custom source, got %q", leads[0].Source)
	}
}

func TestNormalizer_CustomProviderRequiresRules(t *testing.T) {
	normalizer := NewNormalizer(NewLeadTransformerRegistry())
	_, err := normalizer.Normalize(context.Background(), InboundRequest{
		Provider: ProviderCustom,
		Body:     []byte(`{}`),
	}, nil)
	if err == nil {
		t.Fatalf("expected missing rules to fail")
	}
}

func TestNormalizer_CustomProviderRejectsInvalidRules(t *testing.T) {
	normalizer := NewNormalizer(NewLeadTransformerRegistry())
	_, err := normalizer.Normalize(context.Background(), InboundRequest{
		Provider: ProviderCustom,
		Body:     []byte(`{"a": "b"}`),
	}, []FieldRule{{ID: "r1", Target: "nickname", SourcePath: "a"}})
	if err == nil {
		t.Fatalf("expected invalid rules to fail")
	}
}

func TestLeadTransformerRegistry_RejectsDuplicates(t *testing.T) {
	registry := NewLeadTransformerRegistry()
	if err := registry.Register(stubTransformer{tag: ProviderZapier}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := registry.Register(stubTransformer{tag: ProviderZapier}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register(stubTransformer{tag: "unknown"}); err == nil {
		t.Fatalf("expected unknown tag registration to fail")
	}

	if _, ok := registry.Get(" ZAPIER "); !ok {
		t.Fatalf("expected tag lookup to normalize casing")
	}
	if got := len(registry.List()); got != 1 {
		t.Fatalf("expected 1 registered transformer, got %d", got)
	}
}
