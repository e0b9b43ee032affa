package crm

import (
	"testing"

	"github.com/goliatone/go-crm/core"
)

func TestDefaultTransformerRegistry_RegistersBuiltinProviders(t *testing.T) {
	registry, err := DefaultTransformerRegistry()
	if err != nil {
		t.Fatalf("default transformer registry: %v", err)
	}

	for _, tag := range []core.ProviderTag{
		core.ProviderFacebook,
		core.ProviderGoogleForms,
		core.ProviderZapier,
		core.ProviderMailchimp,
		core.ProviderHubSpot,
		core.ProviderSalesforce,
	} {
		if _, ok := registry.Get(tag); !ok {
			t.Fatalf("expected builtin transformer for %s", tag)
		}
	}
}

func TestWithBuiltinProviders_ReturnsUsableOption(t *testing.T) {
	opt, err := WithBuiltinProviders()
	if err != nil {
		t.Fatalf("builtin providers option: %v", err)
	}
	if opt == nil {
		t.Fatalf("expected service option")
	}
}
