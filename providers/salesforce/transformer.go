package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-crm/core"
)

// Transformer normalizes Salesforce outbound-message payloads carrying a Lead
// sObject.
type Transformer struct{}

func New() Transformer {
	return Transformer{}
}

func (Transformer) Provider() core.ProviderTag {
	return core.ProviderSalesforce
}

type message struct {
	SObject map[string]any `json:"sobject"`
}

func (Transformer) Transform(_ context.Context, req core.InboundRequest) ([]core.CanonicalLead, error) {
	decoder := json.NewDecoder(strings.NewReader(string(req.Body)))
	decoder.UseNumber()
	var payload message
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("providers/salesforce: parse payload: %w", err)
	}
	record := payload.SObject
	if len(record) == 0 {
		// Some integrations post the sObject fields at the top level.
		flat, err := core.DecodePayload(req.Body)
		if err != nil {
			return nil, fmt.Errorf("providers/salesforce: parse payload: %w", err)
		}
		record = flat
	}
	if len(record) == 0 {
		return nil, fmt.Errorf("providers/salesforce: payload carries no lead fields")
	}

	lead := core.CanonicalLead{
		Source:       string(core.ProviderSalesforce),
		CustomFields: map[string]any{},
	}
	firstName := fieldText(record, "FirstName")
	lastName := fieldText(record, "LastName")
	lead.Name = strings.TrimSpace(firstName + " " + lastName)
	lead.Email = fieldText(record, "Email")
	lead.Phone = fieldText(record, "Phone")
	lead.Company = fieldText(record, "Company")
	if source := fieldText(record, "LeadSource"); source != "" {
		lead.CustomFields["lead_source"] = source
	}
	if raw, ok := record["AnnualRevenue"]; ok && raw != nil {
		number, err := core.ToFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("providers/salesforce: AnnualRevenue field: %w", err)
		}
		lead.Value = number
	}

	for key, value := range record {
		switch key {
		case "FirstName", "LastName", "Email", "Phone", "Company", "LeadSource", "AnnualRevenue", "attributes":
			continue
		}
		if value == nil {
			continue
		}
		lead.CustomFields[strings.ToLower(key)] = value
	}
	return []core.CanonicalLead{lead}, nil
}

func fieldText(record map[string]any, key string) string {
	value, ok := record[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

var _ core.LeadTransformer = Transformer{}
