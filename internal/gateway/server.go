package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/antigravity/gateway/internal/config"
)

// Server wraps an http.Server around a Gateway's router, applying the
// optional inbound rate limiter ahead of AuthMiddleware per §4.2.
//
// Grounded on the teacher's cmd/agent.go signal-driven shutdown sequence
// (signal.Notify(SIGINT, SIGTERM) followed by a bounded-context Shutdown),
// generalized from "stop the gateway before the wrapped agent process
// exits" to "stop the gateway on its own signal".
type Server struct {
	http    *http.Server
	limiter *inboundLimiter
}

// NewServer builds the http.Server for g, binding to the configured port.
func NewServer(g *Gateway) *Server {
	cfg := g.Store.Snapshot()
	limiter := newInboundLimiter()

	mux := NewRouter(g)
	handler := RateLimitMiddleware(g.Store, limiter, AuthMiddleware(g.Store, mux))
	handler = AccessLogMiddleware(g.AccessLog, handler)

	addr := listenAddr(cfg)
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		limiter: limiter,
	}
}

func listenAddr(cfg *config.Config) string {
	host := "127.0.0.1"
	if cfg.Network.AllowLANAccess {
		host = "0.0.0.0"
	}
	port := cfg.Network.Port
	if port == 0 {
		port = 8080
	}
	return host + ":" + strconv.Itoa(port)
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("gateway: listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
