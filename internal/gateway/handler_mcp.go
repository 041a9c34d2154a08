package gateway

import (
	"net/http"
	"strings"

	"github.com/antigravity/gateway/internal/mcpproxy"
)

// handleMCPReverseProxy serves the three reverse-proxy tool-call endpoints
// (web_search_prime, web_reader, zread), gated per tool by mcpproxy.Proxy.
func (g *Gateway) handleMCPReverseProxy(w http.ResponseWriter, r *http.Request) {
	tool, ok := mcpToolFromPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	cfg := g.Store.Snapshot()
	g.reverseProxy(cfg).Serve(w, r, tool, cfg, r.URL.Path)
}

func mcpToolFromPath(path string) (mcpproxy.Tool, bool) {
	switch {
	case strings.HasPrefix(path, "/mcp/web_search_prime/"):
		return mcpproxy.ToolWebSearchPrime, true
	case strings.HasPrefix(path, "/mcp/web_reader/"):
		return mcpproxy.ToolWebReader, true
	case strings.HasPrefix(path, "/mcp/zread/"):
		return mcpproxy.ToolZread, true
	default:
		return "", false
	}
}

// handleMCPBuiltin serves the zai-mcp-server built-in variant.
func (g *Gateway) handleMCPBuiltin(w http.ResponseWriter, r *http.Request) {
	cfg := g.Store.Snapshot()
	g.builtinToolServer(cfg).ServeHTTP(w, r)
}
