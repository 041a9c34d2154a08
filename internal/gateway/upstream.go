package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/antigravity/gateway/internal/accountpool"
	"github.com/antigravity/gateway/internal/config"
	"github.com/antigravity/gateway/internal/ratelimit"
	"github.com/antigravity/gateway/internal/routing"
	"github.com/antigravity/gateway/internal/transform"
)

// geminiCaller adapts the transform pipeline into a routing.UpstreamCaller,
// stashing the last successful or non-retryable client-error response so the
// calling handler can read it back after routing.Engine.Serve returns (the Engine's contract only
// reports success/failure, not the body — §4.6's narrow boundary).
type geminiCaller struct {
	transformer transform.Transformer
	pool        *accountpool.Pool
	req         transform.Request

	lastResponse transform.Response
}

func (c *geminiCaller) Call(ctx context.Context, account *accountpool.Account, model string, thinking bool) (routing.UpstreamOutcome, error) {
	token, err := c.pool.EnsureFreshToken(ctx, account)
	if err != nil {
		return routing.UpstreamOutcome{Success: false, FailureReason: ratelimit.ReasonServerError}, err
	}

	req := c.req
	req.Model = model
	req.Thinking = thinking

	resp, err := c.transformer.Call(ctx, token, model, req)
	if err != nil {
		return routing.UpstreamOutcome{Success: false, FailureReason: ratelimit.ReasonServerError}, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.lastResponse = resp
		return routing.UpstreamOutcome{Success: true}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return routing.UpstreamOutcome{Success: false, FailureReason: ratelimit.ReasonRateLimitExceeded}, nil
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusPaymentRequired:
		return routing.UpstreamOutcome{Success: false, FailureReason: ratelimit.ReasonQuotaExhausted}, nil
	case resp.StatusCode >= 500:
		return routing.UpstreamOutcome{Success: false, FailureReason: ratelimit.ReasonServerError}, nil
	default:
		// A definite client error (e.g. 400 from a malformed body) is not
		// retryable across accounts; surface it as-is.
		c.lastResponse = resp
		return routing.UpstreamOutcome{Success: false, FailureReason: ratelimit.ReasonUnknown}, nil
	}
}

// servePool drives the routing engine for one resolved candidate chain and
// writes the result (success or §7 exhaustion) to w. It reports the
// resolved model and account for attribution when successful.
func (g *Gateway) servePool(w http.ResponseWriter, r *http.Request, cfg *config.Config, chain []string, thinking bool, stickyKey string, stickyTTL time.Duration, req transform.Request, protocol Protocol) (model string, account *accountpool.Account, ok bool) {
	caller := &geminiCaller{transformer: g.geminiTransformer(cfg), pool: g.Pool, req: req}

	model, account, err := g.Engine.Serve(r.Context(), chain, thinking, stickyKey, stickyTTL, caller)
	if err != nil {
		if caller.lastResponse.StatusCode >= 400 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(caller.lastResponse.StatusCode)
			_, _ = w.Write(caller.lastResponse.Raw)
			return "", nil, false
		}
		requested := req.Model
		if requested == "" && len(chain) > 0 {
			requested = chain[0]
		}
		if isStreamingBody(req.Raw) {
			writeSSEError(w, sseExhaustedEvent(protocol, requested))
		} else {
			writeExhausted(w, protocol, requested)
		}
		return "", nil, false
	}

	if cfg.Observability.ResponseAttributionHeaders {
		writeAttribution(w, "google", model, account)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(caller.lastResponse.Raw)
	return model, account, true
}

func writeSSEError(w http.ResponseWriter, event []byte) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(event)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
