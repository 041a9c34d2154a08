package gateway

import (
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/antigravity/gateway/internal/config"
	"github.com/antigravity/gateway/internal/routing"
	"github.com/antigravity/gateway/internal/transform"
)

// handleGeminiModelList serves the static Gemini-native model catalog.
func (g *Gateway) handleGeminiModelList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"models":[` +
		`{"name":"models/gemini-3-pro-high"},` +
		`{"name":"models/gemini-3-flash"}` +
		`]}`))
}

// handleGeminiModelGet answers GET /v1beta/models/{model}, describing a
// single model entry.
func (g *Gateway) handleGeminiModelGet(w http.ResponseWriter, r *http.Request) {
	model := r.PathValue("model")
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"name":"models/` + model + `"}`))
}

// handleGeminiGenerate answers the colon-suffixed action routes
// (":generateContent", ":countTokens") registered under the same
// /v1beta/models/{model} pattern.
func (g *Gateway) handleGeminiGenerate(w http.ResponseWriter, r *http.Request) {
	modelParam := r.PathValue("model")
	modelName, _, _ := strings.Cut(modelParam, ":")

	body, err := io.ReadAll(io.LimitReader(r.Body, config.MaxRequestBodySize))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body", "invalid_request_error")
		return
	}

	cfg := g.Store.Snapshot()
	thinking := gjson.GetBytes(body, "generationConfig.thinkingConfig.includeThoughts").Bool()
	family := routing.ClassifyFamily(modelName)
	mappedTarget := routing.ResolveTarget(cfg, routing.SurfaceOpenAI, modelName)
	if mappedTarget == "" {
		mappedTarget = modelName
	}
	chain := routing.BuildCandidateChain(family, thinking, mappedTarget)

	stickyKey, stickyTTL := stickyKeyFor(body, r.RemoteAddr)
	req := transform.Request{
		Model:    modelName,
		Thinking: thinking,
		Raw:      body,
	}
	g.servePool(w, r, cfg, chain, thinking, stickyKey, stickyTTL, req, ProtocolGemini)
}
