package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/goliatone/go-crm/core"
)

// ProviderWebhookTemplate bundles the signature verifier and delivery id
// extractor an endpoint uses for one provider.
type ProviderWebhookTemplate struct {
	Provider  core.ProviderTag
	Verifier  Verifier
	Extractor DeliveryIDExtractor
}

type HeaderHMACVerifier struct {
	Header   string
	Prefix   string
	Secret   string
	Encoding string // hex | base64
}

func (v HeaderHMACVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	header := strings.TrimSpace(headerValue(req.Headers, v.Header))
	if header == "" {
		return fmt.Errorf("webhooks: %s signature header is required", strings.TrimSpace(v.Header))
	}
	secret := strings.TrimSpace(v.Secret)
	if secret == "" {
		return fmt.Errorf("webhooks: signature secret is required")
	}
	signature := strings.TrimPrefix(header, strings.TrimSpace(v.Prefix))
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fmt.Errorf("webhooks: signature value is required")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(req.Body)
	expected := mac.Sum(nil)

	switch strings.ToLower(strings.TrimSpace(v.Encoding)) {
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(signature)
		if err != nil {
			return fmt.Errorf("webhooks: decode base64 signature: %w", err)
		}
		if subtle.ConstantTimeCompare(decoded, expected) != 1 {
			return fmt.Errorf("webhooks: signature verification failed")
		}
	default:
		decoded, err := hex.DecodeString(signature)
		if err != nil {
			return fmt.Errorf("webhooks: decode hex signature: %w", err)
		}
		if subtle.ConstantTimeCompare(decoded, expected) != 1 {
			return fmt.Errorf("webhooks: signature verification failed")
		}
	}
	return nil
}

type HeaderTokenVerifier struct {
	Header string
	Token  string
}

func (v HeaderTokenVerifier) Verify(_ context.Context, req core.InboundRequest) error {
	expected := strings.TrimSpace(v.Token)
	if expected == "" {
		return fmt.Errorf("webhooks: verification token is required")
	}
	actual := strings.TrimSpace(headerValue(req.Headers, v.Header))
	if actual == "" {
		return fmt.Errorf("webhooks: %s verification header is required", strings.TrimSpace(v.Header))
	}
	if subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) != 1 {
		return fmt.Errorf("webhooks: verification token mismatch")
	}
	return nil
}

// NoopVerifier accepts every request. Endpoints without a configured secret
// fall back to it.
type NoopVerifier struct{}

func (NoopVerifier) Verify(context.Context, core.InboundRequest) error {
	return nil
}

func HeaderDeliveryIDExtractor(headers ...string) DeliveryIDExtractor {
	keys := append([]string(nil), headers...)
	return func(req core.InboundRequest) (string, error) {
		for _, key := range keys {
			if value := strings.TrimSpace(headerValue(req.Headers, key)); value != "" {
				return value, nil
			}
		}
		return "", fmt.Errorf("webhooks: delivery id is required for dedupe")
	}
}

func ChainDeliveryIDExtractors(extractors ...DeliveryIDExtractor) DeliveryIDExtractor {
	list := append([]DeliveryIDExtractor(nil), extractors...)
	return func(req core.InboundRequest) (string, error) {
		var lastErr error
		for _, extractor := range list {
			if extractor == nil {
				continue
			}
			deliveryID, err := extractor(req)
			if err == nil && strings.TrimSpace(deliveryID) != "" {
				return strings.TrimSpace(deliveryID), nil
			}
			if err != nil {
				lastErr = err
			}
		}
		if lastErr != nil {
			return "", lastErr
		}
		return "", fmt.Errorf("webhooks: delivery id is required for dedupe")
	}
}

// TemplateFor returns the verification scheme for a provider. Facebook,
// Zapier, Mailchimp, HubSpot, Salesforce and custom endpoints use HMAC-SHA256
// header signatures over the raw body; Google Forms relays carry a channel
// token.
func TemplateFor(provider core.ProviderTag, secret string) (ProviderWebhookTemplate, error) {
	secret = strings.TrimSpace(secret)
	switch provider {
	case core.ProviderFacebook:
		return ProviderWebhookTemplate{
			Provider: provider,
			Verifier: HeaderHMACVerifier{
				Header:   "X-Hub-Signature-256",
				Prefix:   "sha256=",
				Secret:   secret,
				Encoding: "hex",
			},
			Extractor: HeaderDeliveryIDExtractor("X-Fb-Delivery-Id", "X-Hub-Signature-256"),
		}, nil
	case core.ProviderGoogleForms:
		return ProviderWebhookTemplate{
			Provider: provider,
			Verifier: HeaderTokenVerifier{
				Header: "X-Goog-Channel-Token",
				Token:  secret,
			},
			Extractor: HeaderDeliveryIDExtractor("X-Goog-Message-Number", "X-Goog-Resource-Id"),
		}, nil
	case core.ProviderZapier:
		return ProviderWebhookTemplate{
			Provider: provider,
			Verifier: HeaderHMACVerifier{
				Header:   "X-Zapier-Signature",
				Secret:   secret,
				Encoding: "hex",
			},
			Extractor: HeaderDeliveryIDExtractor("X-Zapier-Delivery-Id", "X-Request-Id"),
		}, nil
	case core.ProviderMailchimp:
		return ProviderWebhookTemplate{
			Provider: provider,
			Verifier: HeaderHMACVerifier{
				Header:   "X-Mailchimp-Signature",
				Secret:   secret,
				Encoding: "base64",
			},
			Extractor: HeaderDeliveryIDExtractor("X-Mailchimp-Delivery-Id", "X-Request-Id"),
		}, nil
	case core.ProviderHubSpot:
		return ProviderWebhookTemplate{
			Provider: provider,
			Verifier: HeaderHMACVerifier{
				Header:   "X-HubSpot-Signature-V3",
				Secret:   secret,
				Encoding: "base64",
			},
			Extractor: HeaderDeliveryIDExtractor("X-HubSpot-Request-Id", "X-Trace"),
		}, nil
	case core.ProviderSalesforce:
		return ProviderWebhookTemplate{
			Provider: provider,
			Verifier: HeaderHMACVerifier{
				Header:   "X-Salesforce-Signature",
				Secret:   secret,
				Encoding: "base64",
			},
			Extractor: HeaderDeliveryIDExtractor("X-Salesforce-Delivery-Id", "X-Request-Id"),
		}, nil
	case core.ProviderCustom:
		return ProviderWebhookTemplate{
			Provider: provider,
			Verifier: HeaderHMACVerifier{
				Header:   "X-Webhook-Signature",
				Prefix:   "sha256=",
				Secret:   secret,
				Encoding: "hex",
			},
			Extractor: HeaderDeliveryIDExtractor("X-Webhook-Delivery-Id", "X-Request-Id"),
		}, nil
	default:
		return ProviderWebhookTemplate{}, fmt.Errorf("webhooks: no template for provider %q", provider)
	}
}

// SignBody produces the signature value a custom-provider sender would place
// in X-Webhook-Signature. Outbound notifications reuse it.
func SignBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(strings.TrimSpace(secret)))
	_, _ = mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
