// Package config holds the gateway's single hot-reloadable configuration
// document and the constants that appear in more than one place.
//
// DESIGN: default values that recur across packages are centralized here so
// they stay auditable in one spot instead of drifting between call sites.
package config

import "time"

// LowQuotaThresholdPercent is the global floor below which an account is
// deprioritized until it is the only remaining choice for a candidate model.
const LowQuotaThresholdPercent = 5.0

// UnknownQuotaRefreshInterval bounds how often a quarantined (unknown-quota)
// account is retried for a quota refresh.
const UnknownQuotaRefreshInterval = time.Minute

// StickyBindingTTL is how long a sticky session binding survives without
// being refreshed by another request on the same session.
const StickyBindingTTL = 10 * time.Minute

// AnonymousStickyWindow is the reuse window applied when a streaming client
// supplies no session identifier of its own.
const AnonymousStickyWindow = 60 * time.Second

// DefaultCleanupInterval is the cadence for background TTL-sweep goroutines
// across the rate-limit tracker, sticky bindings and tool sessions.
const DefaultCleanupInterval = time.Minute

// DefaultToolSessionTTL bounds how long an idle tool-call session survives.
const DefaultToolSessionTTL = 30 * time.Minute

// DefaultRequestTimeout is used when network.request_timeout is unset.
const DefaultRequestTimeout = 60 * time.Second

// MaxRequestBodySize bounds how much of a client body the gateway will read.
const MaxRequestBodySize = 20 * 1024 * 1024

// DefaultBufferSize is the standard streaming I/O chunk size.
const DefaultBufferSize = 4096

// ConfigPollInterval is how often the Config Store checks gui_config.json's
// mtime for hot-reload purposes.
const ConfigPollInterval = 2 * time.Second

// RecommendedDefaults are the built-in family/series -> model-id mappings
// applied when no explicit mapping entry matches (§6 "Recommended defaults").
var RecommendedDefaults = map[string]string{
	"claude-opus-family":   "claude-opus-4-5-thinking",
	"claude-sonnet-family": "claude-sonnet-4-5-thinking",
	"claude-haiku-family":  "gemini-3-pro-high",
	"claude-4.5-series":    "claude-opus-4-5-thinking",
	"claude-3.5-series":    "gemini-3-pro-high",
}

// VisionFileLimits bound the tool-call surface's local-file ingestion.
const (
	MaxImageBytes = 5 * 1024 * 1024
	MaxVideoBytes = 8 * 1024 * 1024
)

// InboundRateLimit is the ambient per-remote-IP request budget applied ahead
// of the auth middleware, independent of the per-account rate-limit tracker.
const (
	InboundRateLimitPerSecond = 20
	InboundRateLimitBurst     = 40
	MaxInboundRateLimitEntries = 10000
)
