// Package gateway wires the protocol-surface handlers, auth middleware,
// dispatcher, and routing engine behind a single HTTP server.
//
// Grounded on Compresr-ai-Context-Gateway's internal/gateway package:
// a stdlib ServeMux-based router with a closed, explicitly registered path
// table and a 404 fallthrough for everything else.
package gateway

import "net/http"

// NewRouter builds the closed routing table. Unmatched paths 404; OPTIONS
// is answered by the auth middleware ahead of this router, so every
// registered pattern here only needs to answer its real methods.
func NewRouter(g *Gateway) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/messages", g.handleAnthropicMessages)
	mux.HandleFunc("POST /v1/messages/count_tokens", g.handleAnthropicCountTokens)
	mux.HandleFunc("GET /v1/models/claude", g.handleClaudeModelList)

	mux.HandleFunc("GET /v1beta/models", g.handleGeminiModelList)
	mux.HandleFunc("GET /v1beta/models/{model}", g.handleGeminiModelGet)
	mux.HandleFunc("POST /v1beta/models/{model}", g.handleGeminiGenerate)

	mux.HandleFunc("POST /v1/chat/completions", g.handleOpenAIChatCompletions)
	mux.HandleFunc("POST /v1/completions", g.handleOpenAICompletions)
	mux.HandleFunc("POST /v1/responses", g.handleOpenAIResponses)
	mux.HandleFunc("POST /v1/images/generations", g.handleOpenAIImageGenerations)
	mux.HandleFunc("POST /v1/images/edits", g.handleOpenAIImageEdits)

	mux.HandleFunc("/mcp/web_search_prime/mcp", g.handleMCPReverseProxy)
	mux.HandleFunc("/mcp/web_reader/mcp", g.handleMCPReverseProxy)
	mux.HandleFunc("/mcp/zread/mcp", g.handleMCPReverseProxy)
	mux.HandleFunc("/mcp/zai-mcp-server/mcp", g.handleMCPBuiltin)

	mux.HandleFunc("GET /healthz", g.handleHealth)
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /test-connection", g.handleTestConnection)

	return mux
}
