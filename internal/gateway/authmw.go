package gateway

import (
	"net/http"
	"strings"

	"github.com/antigravity/gateway/internal/config"
)

// effectiveAuthMode resolves auto -> all_except_health | off; other modes
// pass through verbatim. Mirrors config.Config.EffectiveAuthMode but takes
// the snapshot directly so the middleware never risks reading a stale
// pointer across a hot reload.
func effectiveAuthMode(cfg *config.Config) config.AuthMode {
	return cfg.EffectiveAuthMode()
}

// AuthMiddleware enforces §4.2's auth decision table ahead of the router.
// It answers OPTIONS (CORS preflight) itself with 200, without calling next,
// and strips the gateway's own credential headers before calling next so
// they are never accidentally forwarded upstream by a handler.
func AuthMiddleware(store *config.Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := store.Snapshot()
		mode := effectiveAuthMode(cfg)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		if mode == config.AuthOff {
			stripGatewayCredentials(r)
			next.ServeHTTP(w, r)
			return
		}

		if mode == config.AuthAllExceptHealth && r.Method == http.MethodGet && isHealthPath(r.URL.Path) {
			stripGatewayCredentials(r)
			next.ServeHTTP(w, r)
			return
		}

		if !hasValidAPIKey(r, cfg.Auth.APIKey) {
			// §7: a single line, never echoing the expected key.
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("unauthorized\n"))
			return
		}

		stripGatewayCredentials(r)
		next.ServeHTTP(w, r)
	})
}

func isHealthPath(path string) bool {
	return path == "/healthz" || path == "/health"
}

// hasValidAPIKey checks Authorization: Bearer <key> or x-api-key: <key>,
// case-insensitive header names (net/http already folds header names),
// exact-match value.
func hasValidAPIKey(r *http.Request, want string) bool {
	if want == "" {
		return false
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token == want {
			return true
		}
	}
	return r.Header.Get("x-api-key") == want
}

// stripGatewayCredentials removes the gateway's own auth headers so a
// downstream handler never forwards them upstream.
func stripGatewayCredentials(r *http.Request) {
	r.Header.Del("Authorization")
	r.Header.Del("x-api-key")
}
