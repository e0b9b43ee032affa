package googleforms

import (
	"context"
	"testing"

	"github.com/goliatone/go-crm/core"
)

func TestTransform_Submission(t *testing.T) {
	body := []byte(`{
		"form_id": "f-1",
		"response_id": "r-1",
		"answers": {
			"Your Name": "Grace Hopper",
			"Email Address": "grace@example.com",
			"Phone Number": "+1666",
			"Company": "Navy",
			"How did you hear about us?": ["Twitter", "Friend"],
			"Team size": 12
		}
	}`)

	leads, err := New().Transform(context.Background(), core.InboundRequest{Body: body})
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}
	lead := leads[0]
	if lead.Name != "Grace Hopper" || lead.Email != "grace@example.com" {
		t.Fatalf("unexpected identity fields: %+v", lead)
	}
	if lead.Phone != "+1666" || lead.Company != "Navy" {
		t.Fatalf("unexpected contact fields: %+v", lead)
	}
	if lead.CustomFields["how_did_you_hear_about_us?"] != "Twitter, Friend" {
		t.Fatalf("expected joined checkbox answer: %+v", lead.CustomFields)
	}
	if lead.CustomFields["team_size"] != "12" {
		t.Fatalf("expected numeric answer as text: %+v", lead.CustomFields)
	}
	if lead.CustomFields["response_id"] != "r-1" {
		t.Fatalf("expected response id: %+v", lead.CustomFields)
	}
}

func TestTransform_EmptyAnswers(t *testing.T) {
	if _, err := New().Transform(context.Background(), core.InboundRequest{Body: []byte(`{"answers": {}}`)}); err == nil {
		t.Fatalf("expected empty submission to fail")
	}
	if _, err := New().Transform(context.Background(), core.InboundRequest{Body: []byte(`broken`)}); err == nil {
		t.Fatalf("expected parse error")
	}
}
