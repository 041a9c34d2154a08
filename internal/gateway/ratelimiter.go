package gateway

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/antigravity/gateway/internal/config"
)

// inboundLimiter buckets requests per remote IP with golang.org/x/time/rate.
// It is entirely independent of the per-account ratelimit.Tracker used by
// the routing engine and never changes an auth verdict — it runs ahead of
// AuthMiddleware purely to shed load before a key is even checked.
type inboundLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func newInboundLimiter() *inboundLimiter {
	return &inboundLimiter{buckets: make(map[string]*rate.Limiter)}
}

func (l *inboundLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.buckets[ip]
	if !ok {
		if len(l.buckets) >= config.MaxInboundRateLimitEntries {
			// Bucket table full: fail open rather than lock legitimate
			// clients out behind a long-tail of one-shot IPs.
			return true
		}
		lim = rate.NewLimiter(rate.Limit(config.InboundRateLimitPerSecond), config.InboundRateLimitBurst)
		l.buckets[ip] = lim
	}
	return lim.Allow()
}

// RateLimitMiddleware applies inboundLimiter ahead of auth when
// network.inbound_rate_limit_enabled is set. OPTIONS requests always pass,
// matching AuthMiddleware's own CORS carve-out.
func RateLimitMiddleware(store *config.Store, limiter *inboundLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := store.Snapshot()
		if !cfg.Network.InboundRateLimitEnabled || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !limiter.allow(host) {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("rate limit exceeded\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
