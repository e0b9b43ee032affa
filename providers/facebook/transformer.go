package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-crm/core"
)

// Transformer normalizes Facebook Lead Ads webhook envelopes. One lead is
// produced per leadgen change entry.
type Transformer struct{}

func New() Transformer {
	return Transformer{}
}

func (Transformer) Provider() core.ProviderTag {
	return core.ProviderFacebook
}

type envelope struct {
	Object string  `json:"object"`
	Entry  []entry `json:"entry"`
}

type entry struct {
	ID      string   `json:"id"`
	Changes []change `json:"changes"`
}

type change struct {
	Field string      `json:"field"`
	Value changeValue `json:"value"`
}

type changeValue struct {
	FormID      string      `json:"form_id"`
	LeadgenID   string      `json:"leadgen_id"`
	PageID      string      `json:"page_id"`
	CreatedTime json.Number `json:"created_time"`
	FieldData   []fieldData `json:"field_data"`
}

type fieldData struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

func (Transformer) Transform(_ context.Context, req core.InboundRequest) ([]core.CanonicalLead, error) {
	var payload envelope
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return nil, fmt.Errorf("providers/facebook: parse payload: %w", err)
	}
	if object := strings.TrimSpace(strings.ToLower(payload.Object)); object != "" && object != "page" {
		return nil, fmt.Errorf("providers/facebook: unsupported webhook object %q", payload.Object)
	}

	var leads []core.CanonicalLead
	for _, item := range payload.Entry {
		for _, ch := range item.Changes {
			if field := strings.TrimSpace(strings.ToLower(ch.Field)); field != "" && field != "leadgen" {
				continue
			}
			lead := leadFromFieldData(ch.Value)
			leads = append(leads, lead)
		}
	}
	if len(leads) == 0 {
		return nil, fmt.Errorf("providers/facebook: payload carries no leadgen changes")
	}
	return leads, nil
}

func leadFromFieldData(value changeValue) core.CanonicalLead {
	lead := core.CanonicalLead{
		Source:       string(core.ProviderFacebook),
		CustomFields: map[string]any{},
	}
	if value.FormID != "" {
		lead.CustomFields["form_id"] = value.FormID
	}
	if value.LeadgenID != "" {
		lead.CustomFields["leadgen_id"] = value.LeadgenID
	}

	for _, field := range value.FieldData {
		if len(field.Values) == 0 {
			continue
		}
		fieldValue := strings.TrimSpace(field.Values[0])
		if fieldValue == "" {
			continue
		}
		switch strings.TrimSpace(strings.ToLower(field.Name)) {
		case "full_name", "name":
			lead.Name = fieldValue
		case "email":
			lead.Email = fieldValue
		case "phone_number", "phone":
			lead.Phone = fieldValue
		case "company_name", "company":
			lead.Company = fieldValue
		default:
			lead.CustomFields[strings.TrimSpace(strings.ToLower(field.Name))] = fieldValue
		}
	}
	return lead
}

var _ core.LeadTransformer = Transformer{}
