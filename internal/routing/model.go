// Package routing resolves an effective upstream model and picks an
// eligible serving account for the Google-backed pool path (§4.4).
//
// Candidate-chain construction and account selection are grounded on
// zhuqinshu-CLIProxyAPI's sdk/cliproxy/auth/selector.go (priority-bucketed
// round robin with a per-key cursor map, cooldown-aware filtering); model
// resolution and thinking detection are new, following the same narrow
// gjson-probe idiom the teacher uses for schemaless JSON field access.
package routing

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/antigravity/gateway/internal/config"
)

// Family classifies an incoming model name into a Claude product family.
type Family string

const (
	FamilyOpus    Family = "opus"
	FamilySonnet  Family = "sonnet"
	FamilyHaiku   Family = "haiku"
	FamilyUnknown Family = ""
)

// ClassifyFamily returns the Claude family implied by a model name's
// substring, used both for mapping lookups and candidate-chain selection.
func ClassifyFamily(modelName string) Family {
	lower := strings.ToLower(modelName)
	switch {
	case strings.Contains(lower, "opus"):
		return FamilyOpus
	case strings.Contains(lower, "sonnet"):
		return FamilySonnet
	case strings.Contains(lower, "haiku"):
		return FamilyHaiku
	default:
		return FamilyUnknown
	}
}

var seriesPattern = regexp.MustCompile(`claude-(\d+)-(\d+)`)

// SeriesKey extracts the "claude-X.Y-series" mapping key from a model's
// version prefix, or "" if none is present.
func SeriesKey(modelName string) string {
	m := seriesPattern.FindStringSubmatch(strings.ToLower(modelName))
	if m == nil {
		return ""
	}
	return "claude-" + m[1] + "." + m[2] + "-series"
}

// FamilyKey returns the anthropic_mapping family key ("claude-opus-family",
// etc.) for a model name, or "" if no family is recognized.
func FamilyKey(modelName string) string {
	switch ClassifyFamily(modelName) {
	case FamilyOpus:
		return "claude-opus-family"
	case FamilySonnet:
		return "claude-sonnet-family"
	case FamilyHaiku:
		return "claude-haiku-family"
	default:
		return ""
	}
}

// Surface distinguishes which mapping table's group keys apply.
type Surface string

const (
	SurfaceAnthropic Surface = "anthropic"
	SurfaceOpenAI    Surface = "openai"
)

func lookup(m map[string]string, key string) (string, bool) {
	if m == nil || key == "" {
		return "", false
	}
	v, ok := m[key]
	return v, ok && v != ""
}

// ResolveTarget applies the model-resolution order of §4.4: custom mapping,
// then surface-specific group keys, then family keys, then series keys, then
// built-in recommended defaults.
func ResolveTarget(cfg *config.Config, surface Surface, modelName string) string {
	if v, ok := lookup(cfg.CustomMapping, modelName); ok {
		return v
	}
	familyKey := FamilyKey(modelName)
	if surface == SurfaceOpenAI {
		if v, ok := lookup(cfg.OpenAIMapping, familyKey); ok {
			return v
		}
	}
	if surface == SurfaceAnthropic {
		if v, ok := lookup(cfg.AnthropicMapping, familyKey); ok {
			return v
		}
	}
	seriesKey := SeriesKey(modelName)
	if v, ok := lookup(cfg.AnthropicMapping, seriesKey); ok {
		return v
	}
	if v, ok := config.RecommendedDefaults[familyKey]; ok {
		return v
	}
	if v, ok := config.RecommendedDefaults[seriesKey]; ok {
		return v
	}
	return ""
}

// AnthropicThinkingEnabled implements the Anthropic-surface thinking
// detection rule: thinking.type=="enabled", auto-disabled if the latest
// assistant turn has a tool_use block with no accompanying thinking block.
// Thinking is never auto-enabled on this surface.
func AnthropicThinkingEnabled(body []byte) bool {
	if gjson.GetBytes(body, "thinking.type").String() != "enabled" {
		return false
	}
	messages := gjson.GetBytes(body, "messages")
	if !messages.IsArray() {
		return true
	}
	arr := messages.Array()
	for i := len(arr) - 1; i >= 0; i-- {
		m := arr[i]
		if m.Get("role").String() != "assistant" {
			continue
		}
		hasToolUse, hasThinking := false, false
		content := m.Get("content")
		if content.IsArray() {
			for _, block := range content.Array() {
				switch block.Get("type").String() {
				case "tool_use":
					hasToolUse = true
				case "thinking":
					hasThinking = true
				}
			}
		}
		if hasToolUse && !hasThinking {
			return false
		}
		break
	}
	return true
}

// isExplicitNonThinkingClaudeFamily resolves the spec's open-ended "model
// name explicitly picks a non-thinking Claude family" rule: a Claude model
// name that does not itself mention thinking is read as an explicit
// non-thinking pick (decision recorded in DESIGN.md).
func isExplicitNonThinkingClaudeFamily(modelName string) bool {
	lower := strings.ToLower(modelName)
	return strings.HasPrefix(lower, "claude-") && !strings.Contains(lower, "thinking")
}

// OpenAIThinkingEnabled implements the OpenAI-compat thinking detection
// cascade (§4.4), defaulting to enabled when nothing rules it out.
func OpenAIThinkingEnabled(body []byte, modelName string) bool {
	if gjson.GetBytes(body, "thinking.type").String() == "enabled" {
		return true
	}
	if effort := gjson.GetBytes(body, "reasoning.effort").String(); effort != "" && effort != "none" {
		return true
	}
	if strings.Contains(strings.ToLower(modelName), "thinking") {
		return true
	}
	if isExplicitNonThinkingClaudeFamily(modelName) {
		return false
	}
	return true
}

// canonicalChain returns the canonical candidate chain for a family and
// thinking preference, per §4.4's worked examples.
func canonicalChain(family Family, thinking bool) []string {
	switch family {
	case FamilyOpus:
		if thinking {
			return []string{"claude-opus-4-5-thinking", "claude-sonnet-4-5-thinking", "gemini-3-pro-high", "claude-sonnet-4-5", "gemini-3-flash"}
		}
		return []string{"gemini-3-pro-high", "gemini-3-flash"}
	case FamilySonnet:
		if thinking {
			return []string{"claude-sonnet-4-5-thinking", "gemini-3-pro-high", "claude-sonnet-4-5", "gemini-3-flash"}
		}
		return []string{"gemini-3-pro-high", "gemini-3-flash"}
	case FamilyHaiku:
		return []string{"gemini-3-pro-high", "gemini-3-flash"}
	default:
		if thinking {
			return canonicalChain(FamilyOpus, true)
		}
		return []string{"gemini-3-pro-high", "gemini-3-flash"}
	}
}

// BuildCandidateChain expands family+thinking into the canonical chain, and
// prepends an explicitly mapped target when the mapping layers resolved one
// not already present anywhere in that chain.
func BuildCandidateChain(family Family, thinking bool, mappedTarget string) []string {
	chain := canonicalChain(family, thinking)
	if mappedTarget == "" {
		return chain
	}
	for _, c := range chain {
		if c == mappedTarget {
			return chain
		}
	}
	return append([]string{mappedTarget}, chain...)
}

// Aliases returns the set of quota-matching names a candidate should be
// checked against: itself, its base name, and the -thinking/-online variants
// of that base (§4.4 "aliasing for quota matching").
func Aliases(candidate string) []string {
	base := strings.TrimSuffix(strings.TrimSuffix(candidate, "-thinking"), "-online")
	seen := map[string]bool{candidate: true}
	out := []string{candidate}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(base)
	add(base + "-thinking")
	add(base + "-online")
	return out
}
