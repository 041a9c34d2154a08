package passthrough

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestSanitizeBodyRenamesBudgetTokens(t *testing.T) {
	in := []byte(`{"thinking":{"type":"enabled","budgetTokens":1024},"messages":[{"role":"user","content":"hi"}]}`)
	out, err := SanitizeBody(in)
	require.NoError(t, err)

	assert.False(t, gjson.GetBytes(out, "thinking.budgetTokens").Exists())
	assert.Equal(t, int64(1024), gjson.GetBytes(out, "thinking.budget_tokens").Int())
	assert.Equal(t, "hi", gjson.GetBytes(out, "messages.0.content").String())
}

func TestSanitizeBodyStripsRejectedFields(t *testing.T) {
	in := []byte(`{"temperature":0.7,"top_p":0.9,"effort":"high","tool_choice":"auto","stop_sequences":["x"]}`)
	out, err := SanitizeBody(in)
	require.NoError(t, err)

	assert.False(t, gjson.GetBytes(out, "temperature").Exists())
	assert.False(t, gjson.GetBytes(out, "top_p").Exists())
	assert.False(t, gjson.GetBytes(out, "effort").Exists())
	assert.Equal(t, "auto", gjson.GetBytes(out, "tool_choice").String())
	assert.Equal(t, "x", gjson.GetBytes(out, "stop_sequences.0").String())
}

func TestSanitizeBodyIsIdempotent(t *testing.T) {
	in := []byte(`{"thinking":{"budgetTokens":512},"temperature":1,"metadata":{"user_id":"u1"}}`)
	once, err := SanitizeBody(in)
	require.NoError(t, err)
	twice, err := SanitizeBody(once)
	require.NoError(t, err)
	assert.JSONEq(t, string(once), string(twice))
}

func TestSanitizeHeadersDropsGatewayCredsAndInjectsUpstream(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer gateway-key")
	h.Set("X-Api-Key", "gateway-key")

	out := SanitizeHeaders(h, "Bearer upstream-token")
	assert.Equal(t, "Bearer upstream-token", out.Get("Authorization"))
	assert.Equal(t, "upstream-token", out.Get("x-api-key"))
}

func TestMapModelExactOverrideWinsOverFamilyDefault(t *testing.T) {
	modelMapping := map[string]string{"claude-opus-4-5": "glm-4.6-exact"}
	defaultMapping := map[string]string{"opus": "glm-4.6"}
	assert.Equal(t, "glm-4.6-exact", MapModel("claude-opus-4-5", modelMapping, defaultMapping))
}

func TestMapModelExactOverrideMatchesLowercased(t *testing.T) {
	modelMapping := map[string]string{"claude-opus-4-5": "glm-4.6-exact"}
	assert.Equal(t, "glm-4.6-exact", MapModel("Claude-Opus-4-5", modelMapping, nil))
}

func TestMapModelStripsZaiPrefix(t *testing.T) {
	assert.Equal(t, "glm-4.6", MapModel("zai:glm-4.6", nil, nil))
}

func TestMapModelPassesThroughNativeGLMName(t *testing.T) {
	assert.Equal(t, "glm-4.6", MapModel("glm-4.6", nil, nil))
}

func TestMapModelPassesThroughNonClaudeName(t *testing.T) {
	assert.Equal(t, "some-other-model", MapModel("some-other-model", nil, nil))
}

func TestMapModelResolvesClaudeFamilyAgainstDefaultMapping(t *testing.T) {
	defaultMapping := map[string]string{"opus": "glm-4.6", "sonnet": "glm-4.5-air", "haiku": "glm-4-flash"}
	assert.Equal(t, "glm-4.6", MapModel("claude-opus-4-5", nil, defaultMapping))
	assert.Equal(t, "glm-4-flash", MapModel("claude-haiku-4-5", nil, defaultMapping))
	assert.Equal(t, "glm-4.5-air", MapModel("claude-sonnet-4-5", nil, defaultMapping))
}

func TestMapModelFallsBackToOriginalWhenFamilyUnmapped(t *testing.T) {
	assert.Equal(t, "claude-sonnet-4-5", MapModel("claude-sonnet-4-5", nil, map[string]string{"opus": "glm-4.6"}))
}
