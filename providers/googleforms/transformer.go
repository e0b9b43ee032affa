package googleforms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-crm/core"
)

// Transformer normalizes Google Forms submissions forwarded by an Apps Script
// relay. Answers arrive keyed by question title; well-known titles map to the
// canonical fields and everything else lands in custom fields.
type Transformer struct{}

func New() Transformer {
	return Transformer{}
}

func (Transformer) Provider() core.ProviderTag {
	return core.ProviderGoogleForms
}

type submission struct {
	FormID     string         `json:"form_id"`
	ResponseID string         `json:"response_id"`
	Answers    map[string]any `json:"answers"`
}

func (Transformer) Transform(_ context.Context, req core.InboundRequest) ([]core.CanonicalLead, error) {
	decoder := json.NewDecoder(strings.NewReader(string(req.Body)))
	decoder.UseNumber()
	var payload submission
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("providers/googleforms: parse payload: %w", err)
	}
	if len(payload.Answers) == 0 {
		return nil, fmt.Errorf("providers/googleforms: submission carries no answers")
	}

	lead := core.CanonicalLead{
		Source:       string(core.ProviderGoogleForms),
		CustomFields: map[string]any{},
	}
	if payload.FormID != "" {
		lead.CustomFields["form_id"] = payload.FormID
	}
	if payload.ResponseID != "" {
		lead.CustomFields["response_id"] = payload.ResponseID
	}

	for question, answer := range payload.Answers {
		value := answerText(answer)
		if value == "" {
			continue
		}
		switch normalizeQuestion(question) {
		case "name", "full name", "your name":
			lead.Name = value
		case "email", "email address", "your email":
			lead.Email = value
		case "phone", "phone number":
			lead.Phone = value
		case "company", "company name", "organization":
			lead.Company = value
		default:
			lead.CustomFields[customFieldKey(question)] = value
		}
	}
	return []core.CanonicalLead{lead}, nil
}

func normalizeQuestion(question string) string {
	return strings.TrimSpace(strings.ToLower(question))
}

func customFieldKey(question string) string {
	key := normalizeQuestion(question)
	key = strings.ReplaceAll(key, " ", "_")
	return key
}

// answerText flattens scalar and list answers. Checkbox questions submit a
// list; the values join with commas.
func answerText(answer any) string {
	switch typed := answer.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case bool:
		return fmt.Sprint(typed)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			if text := answerText(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

var _ core.LeadTransformer = Transformer{}
