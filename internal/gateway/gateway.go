package gateway

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/antigravity/gateway/internal/accountpool"
	"github.com/antigravity/gateway/internal/config"
	"github.com/antigravity/gateway/internal/dispatch"
	"github.com/antigravity/gateway/internal/mcpproxy"
	"github.com/antigravity/gateway/internal/monitoring"
	"github.com/antigravity/gateway/internal/passthrough"
	"github.com/antigravity/gateway/internal/ratelimit"
	"github.com/antigravity/gateway/internal/routing"
	"github.com/antigravity/gateway/internal/toolcall"
	"github.com/antigravity/gateway/internal/transform"
)

// Gateway holds every long-lived collaborator the protocol-surface handlers
// share: the config store, account pool, routing engine, and the
// lazily-rebuilt upstream clients whose construction depends on config
// values that can change under hot reload.
//
// Grounded on Compresr-ai-Context-Gateway's Gateway struct (internal/
// gateway/handler.go), which plays the identical "one struct, many request-
// scoped collaborators" role for its own compression pipeline.
type Gateway struct {
	Store   *config.Store
	Pool    *accountpool.Pool
	Limiter *ratelimit.Tracker
	Sticky  *routing.StickyBindings
	Engine  *routing.Engine

	Dispatcher *dispatch.Dispatcher
	AccessLog  *monitoring.AccessLog

	httpClient *resty.Client

	cacheMu        sync.Mutex
	ptFingerprint  string
	ptClient       *passthrough.Client
	proxyFingerprint string
	toolProxy      *mcpproxy.Proxy
	builtinFingerprint string
	builtinServer  *toolcall.Server
}

// New wires a Gateway from its core collaborators. The upstream-client
// caches start empty and are populated on first use per current config.
func New(store *config.Store, pool *accountpool.Pool, limiter *ratelimit.Tracker, accessLog *monitoring.AccessLog) *Gateway {
	sticky := routing.NewStickyBindings()
	return &Gateway{
		Store:      store,
		Pool:       pool,
		Limiter:    limiter,
		Sticky:     sticky,
		Engine:     routing.NewEngine(pool, limiter, routing.NewSelector(), sticky),
		Dispatcher: dispatch.New(),
		AccessLog:  accessLog,
		httpClient: resty.New(),
	}
}

// passthroughClient returns a Client bound to the current zai base URL,
// rebuilding only when the base URL or timeout changed since the last call
// (a config reload does not tear down in-flight passthrough connections
// that are still pointed at the old host).
func (g *Gateway) passthroughClient(cfg *config.Config) *passthrough.Client {
	timeout := time.Duration(cfg.Network.RequestTimeoutSeconds) * time.Second
	fingerprint := cfg.Zai.BaseURL + "|" + timeout.String()

	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()
	if g.ptClient == nil || g.ptFingerprint != fingerprint {
		g.ptClient = passthrough.NewClient(cfg.Zai.BaseURL, timeout)
		g.ptFingerprint = fingerprint
	}
	return g.ptClient
}

// reverseProxy returns an mcpproxy.Proxy bound to the current zai base URL.
func (g *Gateway) reverseProxy(cfg *config.Config) *mcpproxy.Proxy {
	timeout := time.Duration(cfg.Network.RequestTimeoutSeconds) * time.Second
	fingerprint := cfg.Zai.BaseURL + "|" + timeout.String()

	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()
	if g.toolProxy == nil || g.proxyFingerprint != fingerprint {
		g.toolProxy = mcpproxy.NewProxy(cfg.Zai.BaseURL, timeout)
		g.proxyFingerprint = fingerprint
	}
	return g.toolProxy
}

// builtinToolServer returns the toolcall.Server for the zai-mcp-server
// surface, rebuilding (and thereby dropping in-flight sessions) only when
// the vision credentials/endpoints it was built from have changed.
func (g *Gateway) builtinToolServer(cfg *config.Config) *toolcall.Server {
	timeout := time.Duration(cfg.Network.RequestTimeoutSeconds) * time.Second
	v := cfg.Zai.Vision
	fingerprint := v.CodingEndpoint + "|" + v.GeneralEndpoint + "|" + cfg.Zai.APIKey + "|" + timeout.String()

	g.cacheMu.Lock()
	defer g.cacheMu.Unlock()
	if g.builtinServer == nil || g.builtinFingerprint != fingerprint {
		vision := toolcall.NewVisionClient(v.CodingEndpoint, v.GeneralEndpoint, cfg.Zai.APIKey, v.HasCodingEntitlement, timeout)
		g.builtinServer = toolcall.NewServer(vision, config.DefaultToolSessionTTL)
		g.builtinFingerprint = fingerprint
	}
	return g.builtinServer
}

// geminiTransformer builds a transform.Transformer bound to the Google
// Generative Language API, using account access tokens the routing engine's
// UpstreamCaller already refreshed.
func (g *Gateway) geminiTransformer(cfg *config.Config) transform.Transformer {
	timeout := time.Duration(cfg.Network.RequestTimeoutSeconds) * time.Second
	return &transform.GeminiStub{
		Endpoint: func(model string) string {
			return "https://generativelanguage.googleapis.com/v1beta/models/" + model + ":generateContent"
		},
		Do: func(ctx context.Context, url, accessToken string, body []byte, callTimeout time.Duration) (transform.Response, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return transform.Response{}, err
			}
			req.Header.Set("Authorization", "Bearer "+accessToken)
			req.Header.Set("Content-Type", "application/json")

			resp, err := g.httpClient.GetClient().Do(req)
			if err != nil {
				return transform.Response{}, err
			}
			defer resp.Body.Close()
			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return transform.Response{}, err
			}
			return transform.Response{StatusCode: resp.StatusCode, Raw: raw}, nil
		},
		Timeout: timeout,
	}
}
