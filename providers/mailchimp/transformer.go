package mailchimp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-crm/core"
)

// Transformer normalizes Mailchimp audience webhooks (subscribe events with
// merge fields).
type Transformer struct{}

func New() Transformer {
	return Transformer{}
}

func (Transformer) Provider() core.ProviderTag {
	return core.ProviderMailchimp
}

type event struct {
	Type string    `json:"type"`
	Data eventData `json:"data"`
}

type eventData struct {
	ID     string            `json:"id"`
	ListID string            `json:"list_id"`
	Email  string            `json:"email"`
	Merges map[string]string `json:"merges"`
}

func (Transformer) Transform(_ context.Context, req core.InboundRequest) ([]core.CanonicalLead, error) {
	var payload event
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return nil, fmt.Errorf("providers/mailchimp: parse payload: %w", err)
	}
	eventType := strings.TrimSpace(strings.ToLower(payload.Type))
	if eventType != "" && eventType != "subscribe" && eventType != "profile" {
		return nil, fmt.Errorf("providers/mailchimp: unsupported event type %q", payload.Type)
	}
	if strings.TrimSpace(payload.Data.Email) == "" {
		return nil, fmt.Errorf("providers/mailchimp: subscriber email is required")
	}

	lead := core.CanonicalLead{
		Email:        payload.Data.Email,
		Source:       string(core.ProviderMailchimp),
		CustomFields: map[string]any{},
	}
	if payload.Data.ListID != "" {
		lead.CustomFields["list_id"] = payload.Data.ListID
	}

	firstName := strings.TrimSpace(payload.Data.Merges["FNAME"])
	lastName := strings.TrimSpace(payload.Data.Merges["LNAME"])
	lead.Name = strings.TrimSpace(firstName + " " + lastName)
	lead.Phone = strings.TrimSpace(payload.Data.Merges["PHONE"])
	lead.Company = strings.TrimSpace(payload.Data.Merges["COMPANY"])

	for key, value := range payload.Data.Merges {
		switch key {
		case "FNAME", "LNAME", "PHONE", "COMPANY", "EMAIL":
			continue
		}
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			lead.CustomFields[strings.ToLower(key)] = trimmed
		}
	}
	return []core.CanonicalLead{lead}, nil
}

var _ core.LeadTransformer = Transformer{}
