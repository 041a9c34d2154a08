package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/antigravity/gateway/internal/config"
)

func TestClassifyFamily(t *testing.T) {
	assert.Equal(t, FamilyOpus, ClassifyFamily("claude-opus-4-5"))
	assert.Equal(t, FamilySonnet, ClassifyFamily("claude-3-5-sonnet-latest"))
	assert.Equal(t, FamilyHaiku, ClassifyFamily("claude-haiku-4"))
	assert.Equal(t, FamilyUnknown, ClassifyFamily("gpt-4o"))
}

func TestSeriesKey(t *testing.T) {
	assert.Equal(t, "claude-3.5-series", SeriesKey("claude-3-5-sonnet-latest"))
	assert.Equal(t, "claude-4.5-series", SeriesKey("claude-4-5-opus"))
	assert.Equal(t, "", SeriesKey("gpt-4o"))
}

func TestResolveTargetOrder(t *testing.T) {
	cfg := &config.Config{
		CustomMapping:    map[string]string{"my-model": "custom-target"},
		AnthropicMapping: map[string]string{"claude-opus-family": "family-target"},
	}
	assert.Equal(t, "custom-target", ResolveTarget(cfg, SurfaceAnthropic, "my-model"))
	assert.Equal(t, "family-target", ResolveTarget(cfg, SurfaceAnthropic, "claude-opus-4-5"))
	assert.Equal(t, "claude-sonnet-4-5-thinking", ResolveTarget(cfg, SurfaceAnthropic, "claude-sonnet-4-5"))
}

func TestAnthropicThinkingEnabled(t *testing.T) {
	assert.False(t, AnthropicThinkingEnabled([]byte(`{}`)))
	assert.True(t, AnthropicThinkingEnabled([]byte(`{"thinking":{"type":"enabled"},"messages":[{"role":"user","content":"hi"}]}`)))

	toolUseNoThinking := []byte(`{"thinking":{"type":"enabled"},"messages":[
		{"role":"user","content":"hi"},
		{"role":"assistant","content":[{"type":"tool_use","name":"x"}]}
	]}`)
	assert.False(t, AnthropicThinkingEnabled(toolUseNoThinking))

	toolUseWithThinking := []byte(`{"thinking":{"type":"enabled"},"messages":[
		{"role":"assistant","content":[{"type":"thinking"},{"type":"tool_use","name":"x"}]}
	]}`)
	assert.True(t, AnthropicThinkingEnabled(toolUseWithThinking))
}

func TestOpenAIThinkingEnabled(t *testing.T) {
	assert.True(t, OpenAIThinkingEnabled([]byte(`{"thinking":{"type":"enabled"}}`), "gpt-4o"))
	assert.True(t, OpenAIThinkingEnabled([]byte(`{"reasoning":{"effort":"high"}}`), "gpt-4o"))
	assert.False(t, OpenAIThinkingEnabled([]byte(`{"reasoning":{"effort":"none"}}`), "claude-sonnet-4-5"))
	assert.True(t, OpenAIThinkingEnabled([]byte(`{}`), "claude-sonnet-4-5-thinking"))
	assert.False(t, OpenAIThinkingEnabled([]byte(`{}`), "claude-sonnet-4-5"))
	assert.True(t, OpenAIThinkingEnabled([]byte(`{}`), "gpt-4o"))
}

func TestBuildCandidateChainCanonical(t *testing.T) {
	assert.Equal(t, []string{"claude-opus-4-5-thinking", "claude-sonnet-4-5-thinking", "gemini-3-pro-high", "claude-sonnet-4-5", "gemini-3-flash"},
		BuildCandidateChain(FamilyOpus, true, ""))
	assert.Equal(t, []string{"gemini-3-pro-high", "gemini-3-flash"}, BuildCandidateChain(FamilyOpus, false, ""))
	assert.Equal(t, []string{"claude-sonnet-4-5-thinking", "gemini-3-pro-high", "claude-sonnet-4-5", "gemini-3-flash"},
		BuildCandidateChain(FamilySonnet, true, ""))
	assert.Equal(t, []string{"gemini-3-pro-high", "gemini-3-flash"}, BuildCandidateChain(FamilyHaiku, false, ""))
	assert.Equal(t, []string{"gemini-3-pro-high", "gemini-3-flash"}, BuildCandidateChain(FamilyUnknown, false, ""))
	assert.Equal(t, BuildCandidateChain(FamilyOpus, true, ""), BuildCandidateChain(FamilyUnknown, true, ""))
}

func TestBuildCandidateChainPrependsMappedTarget(t *testing.T) {
	chain := BuildCandidateChain(FamilySonnet, true, "custom-model-x")
	assert.Equal(t, "custom-model-x", chain[0])
	assert.Contains(t, chain, "claude-sonnet-4-5-thinking")
}

func TestAliases(t *testing.T) {
	a := Aliases("claude-opus-4-5-thinking")
	assert.Contains(t, a, "claude-opus-4-5-thinking")
	assert.Contains(t, a, "claude-opus-4-5")
	assert.Contains(t, a, "claude-opus-4-5-online")
}
