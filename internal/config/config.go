package config

import (
	"encoding/json"
	"fmt"
)

// AuthMode is the configured (not effective) authentication policy.
type AuthMode string

const (
	AuthOff             AuthMode = "off"
	AuthStrict          AuthMode = "strict"
	AuthAllExceptHealth AuthMode = "all_except_health"
	AuthAuto            AuthMode = "auto"
)

// DispatchMode governs how Anthropic requests split between passthrough and pool.
type DispatchMode string

const (
	DispatchOff       DispatchMode = "off"
	DispatchExclusive DispatchMode = "exclusive"
	DispatchPooled    DispatchMode = "pooled"
	DispatchFallback  DispatchMode = "fallback"
)

// URLNormalization is the web_reader query-stripping policy.
type URLNormalization string

const (
	URLNormalizeOff              URLNormalization = "off"
	URLNormalizeStripTrackingQry URLNormalization = "strip_tracking_query"
	URLNormalizeStripQuery       URLNormalization = "strip_query"
)

type NetworkConfig struct {
	Port                    int    `json:"port"`
	AllowLANAccess          bool   `json:"allow_lan_access"`
	RequestTimeoutSeconds   int    `json:"request_timeout"`
	UpstreamProxy           string `json:"upstream_proxy,omitempty"`
	InboundRateLimitEnabled bool   `json:"inbound_rate_limit_enabled"`
}

type AuthSection struct {
	Mode   AuthMode `json:"auth_mode"`
	APIKey string   `json:"api_key"`
}

type ObservabilityConfig struct {
	AccessLogEnabled           bool   `json:"access_log_enabled"`
	AccessLogPath              string `json:"access_log_path,omitempty"`
	ResponseAttributionHeaders bool   `json:"response_attribution_headers"`
}

type ZaiToolsConfig struct {
	Enabled              bool   `json:"enabled"`
	WebSearchPrimeEnabled bool  `json:"web_search_prime_enabled"`
	WebReaderEnabled     bool   `json:"web_reader_enabled"`
	ZreadEnabled         bool   `json:"zread_enabled"`
	APIKeyOverride       string `json:"api_key_override,omitempty"`
}

type ZaiVisionConfig struct {
	CodingEndpoint       string `json:"coding_endpoint"`
	GeneralEndpoint      string `json:"general_endpoint"`
	HasCodingEntitlement bool   `json:"has_coding_entitlement"`
}

type ZaiConfig struct {
	Enabled                bool              `json:"enabled"`
	BaseURL                string            `json:"base_url"`
	APIKey                 string            `json:"api_key"`
	DispatchMode           DispatchMode      `json:"dispatch_mode"`
	DefaultMapping         map[string]string `json:"default_mapping"`
	ModelMapping           map[string]string `json:"model_mapping"`
	Tools                  ZaiToolsConfig    `json:"tools"`
	Vision                 ZaiVisionConfig   `json:"vision"`
	WebReaderNormalization URLNormalization  `json:"web_reader_url_normalization"`
}

// Eligible reports whether the passthrough provider can be selected at all
// (§4.3: enabled ∧ non-empty base_url ∧ non-empty api_key).
func (z ZaiConfig) Eligible() bool {
	return z.Enabled && z.BaseURL != "" && z.APIKey != ""
}

// Config is the single hot-reloadable configuration document (gui_config.json).
type Config struct {
	Network          NetworkConfig     `json:"network"`
	Auth             AuthSection       `json:"auth"`
	Observability    ObservabilityConfig `json:"observability"`
	AnthropicMapping map[string]string `json:"anthropic_mapping"`
	OpenAIMapping    map[string]string `json:"openai_mapping"`
	CustomMapping    map[string]string `json:"custom_mapping"`
	Zai              ZaiConfig         `json:"zai"`
}

// EffectiveAuthMode derives the effective mode per §4.2.
func (c *Config) EffectiveAuthMode() AuthMode {
	switch c.Auth.Mode {
	case AuthOff, AuthStrict, AuthAllExceptHealth:
		return c.Auth.Mode
	case AuthAuto:
		if c.Network.AllowLANAccess {
			return AuthAllExceptHealth
		}
		return AuthOff
	default:
		return AuthStrict
	}
}

// Parse decodes a gui_config.json document, applying zero-value defaults the
// same way the teacher's config layer normalizes missing fields.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse gui_config.json: %w", err)
	}
	if c.Network.RequestTimeoutSeconds <= 0 {
		c.Network.RequestTimeoutSeconds = int(DefaultRequestTimeout.Seconds())
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = AuthStrict
	}
	if c.Zai.DispatchMode == "" {
		c.Zai.DispatchMode = DispatchOff
	}
	if c.Zai.WebReaderNormalization == "" {
		c.Zai.WebReaderNormalization = URLNormalizeOff
	}
	return &c, nil
}
