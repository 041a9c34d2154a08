package mcpproxy

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/antigravity/gateway/internal/config"
)

// ApplyWebReaderNormalization rewrites params.arguments.url in a JSON-RPC
// tools/call body when it targets the webReader tool and the URL is
// http(s), per §4.7. Bodies that don't match are returned unchanged.
func ApplyWebReaderNormalization(body []byte, mode config.URLNormalization) ([]byte, error) {
	if gjson.GetBytes(body, "method").String() != "tools/call" {
		return body, nil
	}
	if gjson.GetBytes(body, "params.name").String() != "webReader" {
		return body, nil
	}
	raw := gjson.GetBytes(body, "params.arguments.url").String()
	isHTTP := strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
	if raw == "" || !isHTTP {
		return body, nil
	}
	normalized, err := NormalizeURL(raw, mode)
	if err != nil {
		return body, nil // malformed URL: leave the body untouched rather than fail the call
	}
	if normalized == raw {
		return body, nil
	}
	return sjson.SetBytes(body, "params.arguments.url", normalized)
}
