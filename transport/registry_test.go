package transport

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-crm/core"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewDefaultRegistry()

	if _, ok := registry.Get(KindREST); !ok {
		t.Fatalf("expected rest adapter in default registry")
	}
	if err := registry.Register(NewRESTAdapter(nil)); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	adapters := registry.List()
	if len(adapters) != 1 || adapters[0].Kind() != KindREST {
		t.Fatalf("unexpected adapter list: %#v", adapters)
	}
}

func TestRegistry_BuildFallsBackToFactory(t *testing.T) {
	registry := NewRegistry()
	if err := registry.RegisterFactory("queue", NoopFactory("queue")); err != nil {
		t.Fatalf("register factory: %v", err)
	}

	adapter, err := registry.Build("queue", map[string]any{"reason": "queue delivery not wired"})
	if err != nil {
		t.Fatalf("build queue adapter: %v", err)
	}
	if adapter.Kind() != "queue" {
		t.Fatalf("unexpected adapter kind: %q", adapter.Kind())
	}

	_, err = adapter.Do(context.Background(), core.TransportRequest{})
	if err == nil {
		t.Fatalf("expected unsupported adapter to fail")
	}
	if !strings.Contains(err.Error(), "queue delivery not wired") {
		t.Fatalf("expected reason in error, got %v", err)
	}
}

func TestRegistry_BuildUnknownKindFails(t *testing.T) {
	registry := NewRegistry()
	if _, err := registry.Build("grpc", nil); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
	if _, err := registry.Build("", nil); err == nil {
		t.Fatalf("expected empty kind to fail")
	}
}
