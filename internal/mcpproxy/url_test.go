package mcpproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/gateway/internal/config"
)

func TestNormalizeURLOffIsIdentity(t *testing.T) {
	raw := "https://ex.com/p?utm_source=x&id=7"
	out, err := NormalizeURL(raw, config.URLNormalizeOff)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestNormalizeURLStripTrackingQuery(t *testing.T) {
	out, err := NormalizeURL("https://ex.com/p?utm_source=x&id=7", config.URLNormalizeStripTrackingQry)
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/p?id=7", out)
}

func TestNormalizeURLStripTrackingQueryDropsEmptiedQuery(t *testing.T) {
	out, err := NormalizeURL("https://ex.com/p?gclid=abc", config.URLNormalizeStripTrackingQry)
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/p", out)
}

func TestNormalizeURLStripQuery(t *testing.T) {
	out, err := NormalizeURL("https://ex.com/p?id=7&other=1", config.URLNormalizeStripQuery)
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/p", out)
}

func TestApplyWebReaderNormalizationRewritesURL(t *testing.T) {
	body := []byte(`{"method":"tools/call","params":{"name":"webReader","arguments":{"url":"https://ex.com/p?utm_source=x&id=7"}}}`)
	out, err := ApplyWebReaderNormalization(body, config.URLNormalizeStripTrackingQry)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"url":"https://ex.com/p?id=7"`)
}

func TestApplyWebReaderNormalizationIgnoresOtherTools(t *testing.T) {
	body := []byte(`{"method":"tools/call","params":{"name":"otherTool","arguments":{"url":"https://ex.com/p?utm_source=x"}}}`)
	out, err := ApplyWebReaderNormalization(body, config.URLNormalizeStripTrackingQry)
	require.NoError(t, err)
	assert.Equal(t, body, out)
}
