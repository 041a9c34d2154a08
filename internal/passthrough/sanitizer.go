// Package passthrough cleans Anthropic-shaped request bodies bound for the
// zai passthrough provider and normalizes its SSE responses (§4.5).
//
// Grounded on Compresr-ai-Context-Gateway's narrow gjson-read/sjson-mutate
// idiom (the teacher's sanitizeModelName-style field surgery) generalized
// from model-name prefix stripping to the thinking-field rename and
// rejected-field removal this spec requires.
package passthrough

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// strippedTopLevelFields are rejected by the upstream with error code 1210.
var strippedTopLevelFields = []string{"temperature", "top_p", "effort"}

// MapModel rewrites an incoming Anthropic model name to the z.ai model id
// that should actually be sent upstream (§3 passthrough mapping), in
// original_source's map_model_for_zai priority order: an exact
// model_mapping override (tried as-given, then lowercased) wins first; a
// "zai:" prefix is stripped and passed through verbatim; a name that
// already looks like a native z.ai/glm model, or isn't a Claude family name
// at all, passes through unchanged; otherwise the opus/sonnet/haiku family
// is resolved against default_mapping, falling back to the original name
// when that family has no configured mapping.
func MapModel(original string, modelMapping, defaultMapping map[string]string) string {
	if mapped, ok := modelMapping[original]; ok {
		return mapped
	}
	lower := strings.ToLower(original)
	if mapped, ok := modelMapping[lower]; ok {
		return mapped
	}
	if strings.HasPrefix(lower, "zai:") {
		return original[4:]
	}
	if strings.HasPrefix(lower, "glm-") {
		return original
	}
	if !strings.HasPrefix(lower, "claude-") {
		return original
	}

	family := "sonnet"
	switch {
	case strings.Contains(lower, "opus"):
		family = "opus"
	case strings.Contains(lower, "haiku"):
		family = "haiku"
	}
	if mapped, ok := defaultMapping[family]; ok && mapped != "" {
		return mapped
	}
	return original
}

// SanitizeBody applies the §4.5 body transformation: renames
// thinking.budgetTokens to thinking.budget_tokens, strips temperature/top_p/
// effort, and leaves every other top-level field untouched. Idempotent:
// sanitizing an already-sanitized body is a no-op.
func SanitizeBody(raw []byte) ([]byte, error) {
	body := raw

	if v := gjson.GetBytes(body, "thinking.budgetTokens"); v.Exists() {
		var err error
		body, err = sjson.SetBytes(body, "thinking.budget_tokens", v.Value())
		if err != nil {
			return nil, err
		}
		body, err = sjson.DeleteBytes(body, "thinking.budgetTokens")
		if err != nil {
			return nil, err
		}
	}

	for _, field := range strippedTopLevelFields {
		if gjson.GetBytes(body, field).Exists() {
			var err error
			body, err = sjson.DeleteBytes(body, field)
			if err != nil {
				return nil, err
			}
		}
	}

	return body, nil
}

// SanitizeHeaders strips the gateway's own credentials and injects the
// passthrough upstream's token on both Authorization and x-api-key (§4.5).
// A pasted "Bearer " prefix on upstreamToken is normalized away first.
func SanitizeHeaders(h http.Header, upstreamToken string) http.Header {
	out := h.Clone()
	out.Del("Authorization")
	out.Del("X-Api-Key")
	out.Del("x-api-key")

	token := strings.TrimPrefix(upstreamToken, "Bearer ")
	out.Set("Authorization", "Bearer "+token)
	out.Set("x-api-key", token)
	out.Set("Accept", "application/json, text/event-stream")
	return out
}
