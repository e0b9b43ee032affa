package providers

import (
	"github.com/goliatone/go-crm/core"
	"github.com/goliatone/go-crm/providers/facebook"
	"github.com/goliatone/go-crm/providers/googleforms"
	"github.com/goliatone/go-crm/providers/hubspot"
	"github.com/goliatone/go-crm/providers/mailchimp"
	"github.com/goliatone/go-crm/providers/salesforce"
	"github.com/goliatone/go-crm/providers/zapier"
)

// Builtin returns one transformer per supported provider shape. The custom
// provider has no transformer here: workspace field rules drive it inside the
// normalizer.
func Builtin() []core.LeadTransformer {
	return []core.LeadTransformer{
		facebook.New(),
		googleforms.New(),
		zapier.New(),
		mailchimp.New(),
		hubspot.New(),
		salesforce.New(),
	}
}

func RegisterBuiltin(registry core.TransformerRegistry) error {
	for _, transformer := range Builtin() {
		if err := registry.Register(transformer); err != nil {
			return err
		}
	}
	return nil
}
