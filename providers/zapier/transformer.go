package zapier

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-crm/core"
)

// Transformer normalizes Zapier zap payloads: a flat JSON object with
// conventional keys. Unknown keys pass through to custom fields.
type Transformer struct{}

func New() Transformer {
	return Transformer{}
}

func (Transformer) Provider() core.ProviderTag {
	return core.ProviderZapier
}

func (Transformer) Transform(_ context.Context, req core.InboundRequest) ([]core.CanonicalLead, error) {
	payload, err := core.DecodePayload(req.Body)
	if err != nil {
		return nil, fmt.Errorf("providers/zapier: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("providers/zapier: payload is empty")
	}

	lead := core.CanonicalLead{
		Source:       string(core.ProviderZapier),
		CustomFields: map[string]any{},
	}
	for key, value := range payload {
		switch strings.TrimSpace(strings.ToLower(key)) {
		case "name", "full_name":
			lead.Name = fmt.Sprint(value)
		case "email":
			lead.Email = fmt.Sprint(value)
		case "phone", "phone_number":
			lead.Phone = fmt.Sprint(value)
		case "company", "company_name":
			lead.Company = fmt.Sprint(value)
		case "source":
			lead.Source = fmt.Sprint(value)
		case "value", "amount":
			number, convErr := core.ToFloat(value)
			if convErr != nil {
				return nil, fmt.Errorf("providers/zapier: value field: %w", convErr)
			}
			lead.Value = number
		default:
			lead.CustomFields[strings.TrimSpace(strings.ToLower(key))] = value
		}
	}
	return []core.CanonicalLead{lead}, nil
}

var _ core.LeadTransformer = Transformer{}
