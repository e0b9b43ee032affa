package crm

import (
	"github.com/goliatone/go-crm/core"
	"github.com/goliatone/go-crm/providers"
	"github.com/goliatone/go-crm/providers/facebook"
	"github.com/goliatone/go-crm/providers/googleforms"
	"github.com/goliatone/go-crm/providers/hubspot"
	"github.com/goliatone/go-crm/providers/mailchimp"
	"github.com/goliatone/go-crm/providers/salesforce"
	"github.com/goliatone/go-crm/providers/zapier"
)

func FacebookTransformer() core.LeadTransformer {
	return facebook.New()
}

func GoogleFormsTransformer() core.LeadTransformer {
	return googleforms.New()
}

func ZapierTransformer() core.LeadTransformer {
	return zapier.New()
}

func MailchimpTransformer() core.LeadTransformer {
	return mailchimp.New()
}

func HubSpotTransformer() core.LeadTransformer {
	return hubspot.New()
}

func SalesforceTransformer() core.LeadTransformer {
	return salesforce.New()
}

// DefaultTransformerRegistry returns a registry with every builtin provider
// transformer registered.
func DefaultTransformerRegistry() (core.TransformerRegistry, error) {
	registry := core.NewLeadTransformerRegistry()
	if err := providers.RegisterBuiltin(registry); err != nil {
		return nil, err
	}
	return registry, nil
}

// WithBuiltinProviders wires a registry preloaded with the builtin provider
// transformers into the service builder.
func WithBuiltinProviders() (Option, error) {
	registry, err := DefaultTransformerRegistry()
	if err != nil {
		return nil, err
	}
	return core.WithTransformerRegistry(registry), nil
}
