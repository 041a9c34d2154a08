package gateway

import (
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/antigravity/gateway/internal/accountpool"
	"github.com/antigravity/gateway/internal/utils"
)

// writeAttribution sets the §4.8 response headers. provider is "google" for
// pool-served requests or "zai" for passthrough; account is nil for
// passthrough (no account id to mask).
func writeAttribution(w http.ResponseWriter, provider, model string, account *accountpool.Account) {
	w.Header().Set("x-antigravity-provider", provider)
	if model != "" {
		w.Header().Set("x-antigravity-model", model)
	}
	if account != nil {
		w.Header().Set("x-antigravity-account", utils.MaskKey(account.ID()))
	}
}

// isStreamingBody reports whether an Anthropic/OpenAI-shaped request body
// asked for "stream": true.
func isStreamingBody(body []byte) bool {
	return gjson.GetBytes(body, "stream").Bool()
}
