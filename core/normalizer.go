package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Normalizer maps heterogeneous provider payloads onto the canonical lead
// shape. Provider-specific extraction lives in registered LeadTransformers;
// the custom provider is interpreted here against workspace field rules.
type Normalizer struct {
	registry TransformerRegistry
	compiler *FieldRuleCompiler
}

func NewNormalizer(registry TransformerRegistry) *Normalizer {
	return &Normalizer{
		registry: registry,
		compiler: NewFieldRuleCompiler(),
	}
}

// Normalize is pure: (rawPayload, providerTag, fieldRules) -> leads | error.
// Every returned lead passed canonical validation and carries a source.
func (n *Normalizer) Normalize(
	ctx context.Context,
	req InboundRequest,
	rules []FieldRule,
) ([]CanonicalLead, error) {
	if n == nil {
		return nil, fmt.Errorf("core: normalizer is required")
	}
	tag, err := ParseProviderTag(string(req.Provider))
	if err != nil {
		return nil, err
	}

	var leads []CanonicalLead
	if tag == ProviderCustom {
		leads, err = n.normalizeCustom(req.Body, rules)
	} else {
		leads, err = n.normalizeBuiltin(ctx, tag, req)
	}
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return nil, fmt.Errorf("core: payload produced no leads")
	}

	out := make([]CanonicalLead, 0, len(leads))
	for _, lead := range leads {
		lead = finalizeLead(lead, tag)
		if err := lead.Validate(); err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, nil
}

func (n *Normalizer) normalizeBuiltin(
	ctx context.Context,
	tag ProviderTag,
	req InboundRequest,
) ([]CanonicalLead, error) {
	if n.registry == nil {
		return nil, fmt.Errorf("core: transformer registry is required")
	}
	transformer, ok := n.registry.Get(tag)
	if !ok {
		return nil, fmt.Errorf("core: no transformer registered for provider %q", tag)
	}
	return transformer.Transform(ctx, req)
}

func (n *Normalizer) normalizeCustom(body []byte, rules []FieldRule) ([]CanonicalLead, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("core: custom provider requires field rules")
	}
	compiled, issues, err := n.compiler.Compile(rules)
	if err != nil {
		return nil, err
	}
	if ContainsFieldRuleErrors(issues) {
		return nil, fmt.Errorf("core: field rules are invalid: %s", issues[0].Message)
	}

	payload, err := DecodePayload(body)
	if err != nil {
		return nil, err
	}
	lead, err := ApplyFieldRules(compiled, payload)
	if err != nil {
		return nil, err
	}
	return []CanonicalLead{lead}, nil
}

// DecodePayload parses a JSON object body with numbers preserved as
// json.Number so value transforms keep precision.
func DecodePayload(body []byte) (map[string]any, error) {
	decoder := json.NewDecoder(strings.NewReader(string(body)))
	decoder.UseNumber()
	payload := map[string]any{}
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("core: parse payload: %w", err)
	}
	return payload, nil
}

func finalizeLead(lead CanonicalLead, tag ProviderTag) CanonicalLead {
	lead.Name = strings.TrimSpace(lead.Name)
	lead.Email = strings.TrimSpace(strings.ToLower(lead.Email))
	lead.Phone = strings.TrimSpace(lead.Phone)
	lead.Company = strings.TrimSpace(lead.Company)
	lead.Source = strings.TrimSpace(strings.ToLower(lead.Source))
	if lead.Source == "" {
		lead.Source = string(tag)
	}
	if lead.CustomFields == nil {
		lead.CustomFields = map[string]any{}
	}
	return lead
}
