package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antigravity/gateway/internal/accountpool"
	"github.com/antigravity/gateway/internal/ratelimit"
)

type scriptedCaller struct {
	// outcomes maps accountID+"|"+model to a queue of outcomes to return in order.
	outcomes map[string][]routingCallResult
}

type routingCallResult struct {
	outcome UpstreamOutcome
	err     error
}

func (c *scriptedCaller) Call(ctx context.Context, account *accountpool.Account, model string, thinking bool) (UpstreamOutcome, error) {
	key := account.ID() + "|" + model
	q := c.outcomes[key]
	if len(q) == 0 {
		return UpstreamOutcome{Success: true}, nil
	}
	r := q[0]
	c.outcomes[key] = q[1:]
	return r.outcome, r.err
}

func TestEngineServesFirstEligibleCandidate(t *testing.T) {
	pool := newTestPool(t, map[string]accountpool.Quota{
		"a": {Models: []accountpool.ModelQuota{{Name: "claude-opus-4-5-thinking", Percentage: 80}}},
	})
	engine := NewEngine(pool, ratelimit.New(), NewSelector(), nil)
	caller := &scriptedCaller{outcomes: map[string][]routingCallResult{}}

	model, acc, err := engine.Serve(context.Background(), BuildCandidateChain(FamilyOpus, true, ""), true, "", 0, caller)
	require.NoError(t, err)
	require.Equal(t, "claude-opus-4-5-thinking", model)
	require.Equal(t, "a", acc.ID())
}

func TestEngineAdvancesChainOnZeroQuota(t *testing.T) {
	pool := newTestPool(t, map[string]accountpool.Quota{
		"a": {Models: []accountpool.ModelQuota{
			{Name: "claude-opus-4-5-thinking", Percentage: 0},
			{Name: "claude-sonnet-4-5-thinking", Percentage: 90},
		}},
	})
	engine := NewEngine(pool, ratelimit.New(), NewSelector(), nil)
	caller := &scriptedCaller{outcomes: map[string][]routingCallResult{}}

	model, acc, err := engine.Serve(context.Background(), BuildCandidateChain(FamilyOpus, true, ""), true, "", 0, caller)
	require.NoError(t, err)
	require.Equal(t, "claude-sonnet-4-5-thinking", model)
	require.Equal(t, "a", acc.ID())
}

func TestEngineRetriesSameCandidateOnRetryableFailure(t *testing.T) {
	pool := newTestPool(t, map[string]accountpool.Quota{
		"a": {Models: []accountpool.ModelQuota{{Name: "gemini-3-pro-high", Percentage: 80}}},
		"b": {Models: []accountpool.ModelQuota{{Name: "gemini-3-pro-high", Percentage: 80}}},
	})
	engine := NewEngine(pool, ratelimit.New(), NewSelector(), nil)
	caller := &scriptedCaller{outcomes: map[string][]routingCallResult{
		"a|gemini-3-pro-high": {{outcome: UpstreamOutcome{Success: false, FailureReason: ratelimit.ReasonRateLimitExceeded}}},
	}}

	model, acc, err := engine.Serve(context.Background(), []string{"gemini-3-pro-high"}, false, "", 0, caller)
	require.NoError(t, err)
	require.Equal(t, "gemini-3-pro-high", model)
	require.Equal(t, "b", acc.ID())
}

func TestEngineExhaustionReturnsErrNoEligibleAccount(t *testing.T) {
	pool := newTestPool(t, map[string]accountpool.Quota{})
	engine := NewEngine(pool, ratelimit.New(), NewSelector(), nil)
	caller := &scriptedCaller{outcomes: map[string][]routingCallResult{}}

	_, _, err := engine.Serve(context.Background(), []string{"gemini-3-pro-high", "gemini-3-flash"}, false, "", 0, caller)
	require.ErrorIs(t, err, ErrNoEligibleAccount)
}
