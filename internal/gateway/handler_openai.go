package gateway

import (
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/antigravity/gateway/internal/config"
	"github.com/antigravity/gateway/internal/routing"
	"github.com/antigravity/gateway/internal/transform"
)

// OpenAI-compat routes never reach the Anthropic-only dispatcher (§4.3's
// title scopes it explicitly): every request here goes straight to the
// account pool.
func (g *Gateway) handleOpenAIChatCompletions(w http.ResponseWriter, r *http.Request) {
	g.serveOpenAI(w, r)
}

func (g *Gateway) handleOpenAICompletions(w http.ResponseWriter, r *http.Request) {
	g.serveOpenAI(w, r)
}

func (g *Gateway) handleOpenAIResponses(w http.ResponseWriter, r *http.Request) {
	g.serveOpenAI(w, r)
}

func (g *Gateway) serveOpenAI(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, config.MaxRequestBodySize))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body", "invalid_request_error")
		return
	}

	cfg := g.Store.Snapshot()
	modelName := gjson.GetBytes(body, "model").String()
	thinking := routing.OpenAIThinkingEnabled(body, modelName)
	family := routing.ClassifyFamily(modelName)
	mappedTarget := routing.ResolveTarget(cfg, routing.SurfaceOpenAI, modelName)
	chain := routing.BuildCandidateChain(family, thinking, mappedTarget)

	stickyKey, stickyTTL := stickyKeyFor(body, r.RemoteAddr)
	req := transform.Request{
		Model:         modelName,
		MaxTokens:     int(gjson.GetBytes(body, "max_tokens").Int()),
		StopSequences: stringArray(gjson.GetBytes(body, "stop")),
		Thinking:      thinking,
		Raw:           body,
	}
	g.servePool(w, r, cfg, chain, thinking, stickyKey, stickyTTL, req, ProtocolOpenAI)
}

// Image endpoints share the same account-pool path; the transform pipeline
// stub has no image-specific mapping, so the raw body passes through
// untouched aside from the routing engine's model resolution.
func (g *Gateway) handleOpenAIImageGenerations(w http.ResponseWriter, r *http.Request) {
	g.serveOpenAIImage(w, r)
}

func (g *Gateway) handleOpenAIImageEdits(w http.ResponseWriter, r *http.Request) {
	g.serveOpenAIImage(w, r)
}

func (g *Gateway) serveOpenAIImage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, config.MaxRequestBodySize))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body", "invalid_request_error")
		return
	}

	cfg := g.Store.Snapshot()
	modelName := gjson.GetBytes(body, "model").String()
	mappedTarget := routing.ResolveTarget(cfg, routing.SurfaceOpenAI, modelName)
	chain := routing.BuildCandidateChain(routing.FamilyUnknown, false, mappedTarget)

	stickyKey, stickyTTL := stickyKeyFor(body, r.RemoteAddr)
	req := transform.Request{Model: modelName, Raw: body}
	g.servePool(w, r, cfg, chain, false, stickyKey, stickyTTL, req, ProtocolOpenAI)
}
