package gateway

import (
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/antigravity/gateway/internal/config"
	"github.com/antigravity/gateway/internal/dispatch"
	"github.com/antigravity/gateway/internal/passthrough"
	"github.com/antigravity/gateway/internal/routing"
	"github.com/antigravity/gateway/internal/transform"
)

// stickyKeyFor derives the §3 sticky-binding key: the client-supplied
// session identifier (Anthropic's metadata.user_id) when present, otherwise
// an anonymous per-client bucket honoring the shorter reuse window.
func stickyKeyFor(body []byte, remoteAddr string) (key string, ttl time.Duration) {
	if userID := gjson.GetBytes(body, "metadata.user_id").String(); userID != "" {
		return "session:" + userID, config.StickyBindingTTL
	}
	return "anon:" + remoteAddr, config.AnonymousStickyWindow
}

func (g *Gateway) handleAnthropicMessages(w http.ResponseWriter, r *http.Request) {
	g.serveAnthropic(w, r, false)
}

func (g *Gateway) handleAnthropicCountTokens(w http.ResponseWriter, r *http.Request) {
	// §4.3: count_tokens uses the same dispatch decision as the main
	// endpoint so fallback/pooled stay consistent across both calls.
	// TODO: this runs the full generate path rather than a distinct
	// token-count call; acceptable while the transform pipeline stays an
	// external collaborator (no local tokenizer call is wired here yet).
	g.serveAnthropic(w, r, false)
}

func (g *Gateway) handleClaudeModelList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"data":[` +
		`{"id":"claude-opus-4-5-thinking","type":"model"},` +
		`{"id":"claude-sonnet-4-5-thinking","type":"model"},` +
		`{"id":"claude-sonnet-4-5","type":"model"},` +
		`{"id":"claude-haiku-4-5","type":"model"}` +
		`]}`))
}

func (g *Gateway) serveAnthropic(w http.ResponseWriter, r *http.Request, _ bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, config.MaxRequestBodySize))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body", "invalid_request_error")
		return
	}

	cfg := g.Store.Snapshot()
	modelName := gjson.GetBytes(body, "model").String()
	thinking := routing.AnthropicThinkingEnabled(body)
	family := routing.ClassifyFamily(modelName)
	mappedTarget := routing.ResolveTarget(cfg, routing.SurfaceAnthropic, modelName)
	chain := routing.BuildCandidateChain(family, thinking, mappedTarget)

	hasEligibleAccount := g.hasEligibleAccountFor(chain)
	target, dispatchErr := g.Dispatcher.Decide(cfg, hasEligibleAccount, g.Pool.Len())
	if dispatchErr != nil {
		writeConfigInvalid(w, dispatchErr.Error())
		return
	}

	if target == dispatch.TargetPassthrough {
		g.servePassthrough(w, r, cfg, body)
		return
	}

	stickyKey, stickyTTL := stickyKeyFor(body, r.RemoteAddr)

	req := transform.Request{
		Model:         modelName,
		MaxTokens:     int(gjson.GetBytes(body, "max_tokens").Int()),
		StopSequences: stringArray(gjson.GetBytes(body, "stop_sequences")),
		Thinking:      thinking,
		Raw:           body,
	}
	g.servePool(w, r, cfg, chain, thinking, stickyKey, stickyTTL, req, ProtocolAnthropic)
}

// hasEligibleAccountFor reports whether at least one account in the pool
// can currently serve the first candidate in chain, the dispatcher's
// "pool has >=1 selectable account" input (§4.3).
func (g *Gateway) hasEligibleAccountFor(chain []string) bool {
	if len(chain) == 0 {
		return g.Pool.Len() > 0
	}
	selector := routing.NewSelector()
	primary, deprioritized := selector.Eligible(g.Pool.Snapshot(), routing.Aliases(chain[0]), g.Limiter)
	return len(primary) > 0 || len(deprioritized) > 0
}

// servePassthrough maps the client's model name to the configured zai model
// id (§3), then sanitizes and forwards the Anthropic body to the zai
// passthrough provider (§4.5).
func (g *Gateway) servePassthrough(w http.ResponseWriter, r *http.Request, cfg *config.Config, body []byte) {
	if modelName := gjson.GetBytes(body, "model").String(); modelName != "" {
		mapped := passthrough.MapModel(modelName, cfg.Zai.ModelMapping, cfg.Zai.DefaultMapping)
		if mapped != modelName {
			var err error
			body, err = sjson.SetBytes(body, "model", mapped)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "failed to sanitize request", "invalid_request_error")
				return
			}
		}
	}

	sanitized, err := passthrough.SanitizeBody(body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to sanitize request", "invalid_request_error")
		return
	}
	header := passthrough.SanitizeHeaders(r.Header, cfg.Zai.APIKey)

	resp, err := g.passthroughClient(cfg).Forward(r.Context(), r.URL.Path, header, sanitized)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "upstream unavailable", "api_error")
		return
	}
	defer resp.Body.Close()

	if cfg.Observability.ResponseAttributionHeaders {
		writeAttribution(w, "zai", "", nil)
	}
	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)

	if isStreamingBody(body) {
		if err := passthrough.NormalizeStream(w, resp.Body); err != nil {
			return
		}
		return
	}
	_, _ = io.Copy(w, resp.Body)
}

func stringArray(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	arr := v.Array()
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		out = append(out, e.String())
	}
	return out
}
