package salesforce

import (
	"context"
	"testing"

	"github.com/goliatone/go-crm/core"
)

func TestTransform_SObjectEnvelope(t *testing.T) {
	body := []byte(`{
		"sobject": {
			"attributes": {"type": "Lead"},
			"FirstName": "Ada",
			"LastName": "Lovelace",
			"Email": "ada@example.com",
			"Phone": "+1555",
			"Company": "Analytical Engines",
			"LeadSource": "Web",
			"AnnualRevenue": 50000,
			"Industry": "Computing"
		}
	}`)

	leads, err := New().Transform(context.Background(), core.InboundRequest{Body: body})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	lead := leads[0]
	if lead.Name != "Ada Lovelace" || lead.Email != "ada@example.com" {
		t.Fatalf("unexpected identity fields: %+v", lead)
	}
	if lead.Value != 50000 {
		t.Fatalf("expected annual revenue as value, got %v", lead.Value)
	}
	if lead.CustomFields["lead_source"] != "Web" {
		t.Fatalf("expected lead source custom field: %+v", lead.CustomFields)
	}
	if lead.CustomFields["industry"] != "Computing" {
		t.Fatalf("expected industry custom field: %+v", lead.CustomFields)
	}
	if _, ok := lead.CustomFields["attributes"]; ok {
		t.Fatalf("expected attributes envelope to be dropped: %+v", lead.CustomFields)
	}
}

func TestTransform_TopLevelFields(t *testing.T) {
	body := []byte(`{"FirstName": "Grace", "LastName": "Hopper", "Email": "grace@example.com"}`)
	leads, err := New().Transform(context.Background(), core.InboundRequest{Body: body})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	if leads[0].Name != "Grace Hopper" {
		t.Fatalf("expected top-level fields to work: %+v", leads[0])
	}
}

func TestTransform_Rejections(t *testing.T) {
	if _, err := New().Transform(context.Background(), core.InboundRequest{Body: []byte(`{}`)}); err == nil {
		t.Fatalf("expected empty payload to fail")
	}
	if _, err := New().Transform(context.Background(), core.InboundRequest{
		Body: []byte(`{"sobject": {"Email": "a@b.com", "AnnualRevenue": "lots"}}`),
	}); err == nil {
		t.Fatalf("expected bad revenue to fail")
	}
}
