package mailchimp

import (
	"context"
	"testing"

	"github.com/goliatone/go-crm/core"
)

func TestTransform_SubscribeEvent(t *testing.T) {
	body := []byte(`{
		"type": "subscribe",
		"data": {
			"id": "sub-1",
			"list_id": "list-9",
			"email": "ada@example.com",
			"merges": {
				"FNAME": "Ada",
				"LNAME": "Lovelace",
				"PHONE": "+1555",
				"COMPANY": "Analytical Engines",
				"MMERGE6": "enterprise"
			}
		}
	}`)

	leads, err := New().Transform(context.Background(), core.InboundRequest{Body: body})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	lead := leads[0]
	if lead.Name != "Ada Lovelace" {
		t.Fatalf("expected joined merge names, got %q", lead.Name)
	}
	if lead.Email != "ada@example.com" || lead.Phone != "+1555" {
		t.Fatalf("unexpected contact fields: %+v", lead)
	}
	if lead.CustomFields["mmerge6"] != "enterprise" {
		t.Fatalf("expected extra merge field in custom fields: %+v", lead.CustomFields)
	}
	if lead.CustomFields["list_id"] != "list-9" {
		t.Fatalf("expected list id: %+v", lead.CustomFields)
	}
}

func TestTransform_Rejections(t *testing.T) {
	if _, err := New().Transform(context.Background(), core.InboundRequest{
		Body: []byte(`{"type": "unsubscribe", "data": {"email": "a@b.com"}}`),
	}); err == nil {
		t.Fatalf("expected unsupported event type to fail")
	}
	if _, err := New().Transform(context.Background(), core.InboundRequest{
		Body: []byte(`{"type": "subscribe", "data": {"merges": {"FNAME": "Ada"}}}`),
	}); err == nil {
		t.Fatalf("expected missing email to fail")
	}
}
