package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antigravity/gateway/internal/accountpool"
	"github.com/antigravity/gateway/internal/ratelimit"
)

// ErrNoEligibleAccount is returned when the candidate chain is exhausted
// without a successful upstream call (§7 no_eligible_account / §4.4.3).
var ErrNoEligibleAccount = errors.New("routing: no eligible account for any candidate in chain")

// UpstreamOutcome is what the transform pipeline / transport layer reports
// back about one attempted call, narrow enough to keep the actual upstream
// transport an external collaborator (§4.6).
type UpstreamOutcome struct {
	Success       bool
	FailureReason ratelimit.Reason
	RetryAfter    time.Duration
}

// UpstreamCaller performs one upstream attempt for a resolved
// account+candidate model pair.
type UpstreamCaller interface {
	Call(ctx context.Context, account *accountpool.Account, model string, thinking bool) (UpstreamOutcome, error)
}

// Engine drives the §4.4 fallback loop: for each candidate in the chain,
// select an eligible account and attempt delivery; retryable failures record
// a rate-limit entry and retry the same candidate with another account;
// exhausting accounts for a candidate advances to the next one.
type Engine struct {
	pool     *accountpool.Pool
	limiter  *ratelimit.Tracker
	selector *Selector
	sticky   *StickyBindings
}

// NewEngine constructs a routing Engine over the given collaborators.
func NewEngine(pool *accountpool.Pool, limiter *ratelimit.Tracker, selector *Selector, sticky *StickyBindings) *Engine {
	return &Engine{pool: pool, limiter: limiter, selector: selector, sticky: sticky}
}

// Serve walks chain, returning the candidate model and account that served
// the request successfully.
func (e *Engine) Serve(ctx context.Context, chain []string, thinking bool, stickyKey string, stickyTTL time.Duration, caller UpstreamCaller) (model string, account *accountpool.Account, err error) {
	for _, candidate := range chain {
		aliases := Aliases(candidate)
		for {
			accounts := e.pool.Snapshot()
			acc := e.selector.Select(accounts, candidate, aliases, e.limiter, e.sticky, stickyKey, stickyTTL)
			if acc == nil {
				break // no eligible account left for this candidate; advance the chain
			}

			outcome, callErr := caller.Call(ctx, acc, candidate, thinking)
			if callErr == nil && outcome.Success {
				e.limiter.Clear(acc.ID(), candidate)
				return candidate, acc, nil
			}

			reason := outcome.FailureReason
			if reason == "" {
				reason = ratelimit.ReasonUnknown
			}
			switch reason {
			case ratelimit.ReasonQuotaExhausted, ratelimit.ReasonRateLimitExceeded, ratelimit.ReasonServerError:
				retryAfter := outcome.RetryAfter
				if retryAfter <= 0 {
					retryAfter = time.Minute
				}
				e.limiter.Record(acc.ID(), candidate, reason, time.Now().Add(retryAfter))
				continue // same candidate, another account
			default:
				if callErr != nil {
					return "", nil, fmt.Errorf("routing: upstream call failed: %w", callErr)
				}
				return "", nil, fmt.Errorf("routing: upstream call failed with unclassified reason")
			}
		}
	}
	return "", nil, ErrNoEligibleAccount
}
