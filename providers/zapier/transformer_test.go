package zapier

import (
	"context"
	"testing"

	"github.com/goliatone/go-crm/core"
)

func TestTransform_FlatPayload(t *testing.T) {
	body := []byte(`{
		"name": "Ada Lovelace",
		"email": "ada@example.com",
		"phone": "+1555",
		"company": "Analytical Engines",
		"value": "249.99",
		"utm_source": "newsletter"
	}`)

	leads, err := New().Transform(context.Background(), core.InboundRequest{Body: body})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	lead := leads[0]
	if lead.Name != "Ada Lovelace" || lead.Email != "ada@example.com" {
		t.Fatalf("unexpected identity fields: %+v", lead)
	}
	if lead.Value != 249.99 {
		t.Fatalf("expected value 249.99, got %v", lead.Value)
	}
	if lead.CustomFields["utm_source"] != "newsletter" {
		t.Fatalf("expected pass-through custom field: %+v", lead.CustomFields)
	}
}

func TestTransform_SourceOverride(t *testing.T) {
	leads, err := New().Transform(context.Background(), core.InboundRequest{
		Body: []byte(`{"name": "Ada", "source": "webinar"}`),
	})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if leads[0].Source != "webinar" {
		t.Fatalf("expected source override, got %q", leads[0].Source)
	}
}

func TestTransform_Rejections(t *testing.T) {
	if _, err := New().Transform(context.Background(), core.InboundRequest{Body: []byte(`{}`)}); err == nil {
		t.Fatalf("expected empty payload to fail")
	}
	if _, err := New().Transform(context.Background(), core.InboundRequest{
		Body: []byte(`{"name": "Ada", "value": "lots"}`),
	}); err == nil {
		t.Fatalf("expected bad value field to fail")
	}
}
