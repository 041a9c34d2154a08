package mcpproxy

import (
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/antigravity/gateway/internal/config"
	"github.com/antigravity/gateway/internal/passthrough"
)

// Tool names the three reverse-proxy tool-call endpoints.
type Tool string

const (
	ToolWebSearchPrime Tool = "web_search_prime"
	ToolWebReader      Tool = "web_reader"
	ToolZread          Tool = "zread"
)

// Enabled implements the §4.7 gate: tool.enabled AND tool.<name>_enabled.
func (t Tool) Enabled(tools config.ZaiToolsConfig) bool {
	if !tools.Enabled {
		return false
	}
	switch t {
	case ToolWebSearchPrime:
		return tools.WebSearchPrimeEnabled
	case ToolWebReader:
		return tools.WebReaderEnabled
	case ToolZread:
		return tools.ZreadEnabled
	default:
		return false
	}
}

// Proxy reverse-proxies tool-call requests to the zai upstream, gated per
// tool, streaming the response back unchanged (no SSE error/[DONE]
// normalization, unlike the main passthrough path).
//
// Grounded on the teacher's forwardPassthrough manual-forward idiom.
type Proxy struct {
	client *passthrough.Client
}

// NewProxy constructs a Proxy against baseURL.
func NewProxy(baseURL string, timeout time.Duration) *Proxy {
	return &Proxy{client: passthrough.NewClient(baseURL, timeout)}
}

// Serve handles one tool-call request for the given tool and upstream path.
func (p *Proxy) Serve(w http.ResponseWriter, r *http.Request, tool Tool, cfg *config.Config, upstreamPath string) {
	if !tool.Enabled(cfg.Zai.Tools) {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, config.MaxRequestBodySize))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	if tool == ToolWebReader {
		normalized, normErr := ApplyWebReaderNormalization(body, cfg.Zai.WebReaderNormalization)
		if normErr != nil {
			log.Warn().Err(normErr).Msg("mcpproxy: web_reader URL normalization failed, forwarding body unchanged")
		} else {
			body = normalized
		}
	}

	token := cfg.Zai.Tools.APIKeyOverride
	if token == "" {
		token = cfg.Zai.APIKey
	}
	header := passthrough.SanitizeHeaders(r.Header, token)

	resp, err := p.client.Forward(r.Context(), upstreamPath, header, body)
	if err != nil {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if sessionID := resp.Header.Get("mcp-session-id"); sessionID != "" {
		w.Header().Set("mcp-session-id", sessionID)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)

	// §4.7: stream the upstream response unchanged (unlike the main
	// Anthropic passthrough path, this variant does no SSE reshaping).
	if _, err := io.Copy(flushCopyWriter{w}, resp.Body); err != nil {
		log.Debug().Err(err).Msg("mcpproxy: stream copy ended")
	}
}

type flushCopyWriter struct {
	w http.ResponseWriter
}

func (f flushCopyWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if flusher, ok := f.w.(http.Flusher); ok {
		flusher.Flush()
	}
	return n, err
}
