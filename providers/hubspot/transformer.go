package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-crm/core"
)

// Transformer normalizes HubSpot contact payloads. Properties appear either
// as plain scalars or as {"value": ...} wrappers depending on the HubSpot API
// version; both are accepted.
type Transformer struct{}

func New() Transformer {
	return Transformer{}
}

func (Transformer) Provider() core.ProviderTag {
	return core.ProviderHubSpot
}

type contact struct {
	ObjectID   json.Number    `json:"objectId"`
	Properties map[string]any `json:"properties"`
}

func (Transformer) Transform(_ context.Context, req core.InboundRequest) ([]core.CanonicalLead, error) {
	decoder := json.NewDecoder(strings.NewReader(string(req.Body)))
	decoder.UseNumber()
	var payload contact
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("providers/hubspot: parse payload: %w", err)
	}
	if len(payload.Properties) == 0 {
		return nil, fmt.Errorf("providers/hubspot: contact carries no properties")
	}

	lead := core.CanonicalLead{
		Source:       string(core.ProviderHubSpot),
		CustomFields: map[string]any{},
	}
	if payload.ObjectID.String() != "" {
		lead.CustomFields["object_id"] = payload.ObjectID.String()
	}

	firstName := propertyText(payload.Properties, "firstname")
	lastName := propertyText(payload.Properties, "lastname")
	lead.Name = strings.TrimSpace(firstName + " " + lastName)
	lead.Email = propertyText(payload.Properties, "email")
	lead.Phone = propertyText(payload.Properties, "phone")
	lead.Company = propertyText(payload.Properties, "company")

	if raw, ok := payload.Properties["amount"]; ok {
		number, err := core.ToFloat(unwrapProperty(raw))
		if err != nil {
			return nil, fmt.Errorf("providers/hubspot: amount property: %w", err)
		}
		lead.Value = number
	}

	for key, raw := range payload.Properties {
		switch strings.TrimSpace(strings.ToLower(key)) {
		case "firstname", "lastname", "email", "phone", "company", "amount":
			continue
		}
		value := unwrapProperty(raw)
		if value == nil {
			continue
		}
		lead.CustomFields[strings.TrimSpace(strings.ToLower(key))] = value
	}
	return []core.CanonicalLead{lead}, nil
}

func propertyText(properties map[string]any, key string) string {
	value := unwrapProperty(properties[key])
	if value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func unwrapProperty(raw any) any {
	if wrapped, ok := raw.(map[string]any); ok {
		if inner, exists := wrapped["value"]; exists {
			return inner
		}
		return nil
	}
	return raw
}

var _ core.LeadTransformer = Transformer{}
