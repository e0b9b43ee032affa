package core

import (
	"fmt"
	"strings"
	"time"
)

type IngestionConfig struct {
	MaxBodyBytes int64 `koanf:"max_body_bytes" mapstructure:"max_body_bytes"`
	MergeByEmail bool  `koanf:"merge_by_email" mapstructure:"merge_by_email"`
}

type RateLimitConfig struct {
	WindowSeconds int `koanf:"window_seconds" mapstructure:"window_seconds"`
	MaxRequests   int `koanf:"max_requests" mapstructure:"max_requests"`
}

func (c RateLimitConfig) Window() time.Duration {
	if c.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.WindowSeconds) * time.Second
}

type BillingConfig struct {
	DefaultPlanID string `koanf:"default_plan_id" mapstructure:"default_plan_id"`
	TrialDays     int    `koanf:"trial_days" mapstructure:"trial_days"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	Ingestion   IngestionConfig `koanf:"ingestion" mapstructure:"ingestion"`
	RateLimit   RateLimitConfig `koanf:"rate_limit" mapstructure:"rate_limit"`
	Billing     BillingConfig   `koanf:"billing" mapstructure:"billing"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "crm",
		Ingestion: IngestionConfig{
			MaxBodyBytes: 1 << 20,
			MergeByEmail: true,
		},
		RateLimit: RateLimitConfig{
			WindowSeconds: 60,
			MaxRequests:   120,
		},
		Billing: BillingConfig{
			DefaultPlanID: "free",
			TrialDays:     14,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Ingestion.MaxBodyBytes <= 0 {
		return fmt.Errorf("core: ingestion.max_body_bytes must be positive")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("core: rate_limit.window_seconds must be positive")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("core: rate_limit.max_requests must be positive")
	}
	if strings.TrimSpace(c.Billing.DefaultPlanID) == "" {
		return fmt.Errorf("core: billing.default_plan_id is required")
	}
	if c.Billing.TrialDays < 0 {
		return fmt.Errorf("core: billing.trial_days must not be negative")
	}
	return nil
}
