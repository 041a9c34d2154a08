package routing

import (
	"sync"
	"time"

	"github.com/antigravity/gateway/internal/accountpool"
	"github.com/antigravity/gateway/internal/config"
	"github.com/antigravity/gateway/internal/ratelimit"
)

// Selector implements availability-aware round robin across eligible
// accounts for a given candidate model, with a per-candidate cursor.
//
// Grounded on zhuqinshu-CLIProxyAPI's sdk/cliproxy/auth/selector.go:
// priority-bucketed selection (there: priority tiers; here: the 5% low-quota
// threshold) with a cursor map keyed by the thing being selected for.
type Selector struct {
	mu      sync.Mutex
	cursors map[string]uint64
}

// NewSelector constructs an empty Selector.
func NewSelector() *Selector {
	return &Selector{cursors: make(map[string]uint64)}
}

// Eligible partitions accounts into primary (quota above the low-quota
// threshold) and deprioritized (quota above zero but at or below it) buckets
// for one candidate model. Disabled accounts, unknown-quota accounts,
// zero-quota accounts, and rate-limited accounts are excluded entirely.
func (s *Selector) Eligible(accounts []*accountpool.Account, aliases []string, limiter *ratelimit.Tracker) (primary, deprioritized []*accountpool.Account) {
	for _, a := range accounts {
		if a.IsDisabled() {
			continue
		}
		q := a.Quota()
		if !q.Known() {
			continue
		}
		pct, ok := q.Percentage(aliases...)
		if !ok || pct <= 0 {
			continue
		}
		if limiter.IsLimited(a.ID(), aliases...) {
			continue
		}
		if pct > config.LowQuotaThresholdPercent {
			primary = append(primary, a)
		} else {
			deprioritized = append(deprioritized, a)
		}
	}
	return
}

func (s *Selector) pick(candidate string, pool []*accountpool.Account) *accountpool.Account {
	if len(pool) == 0 {
		return nil
	}
	s.mu.Lock()
	idx := s.cursors[candidate] % uint64(len(pool))
	s.cursors[candidate]++
	s.mu.Unlock()
	return pool[idx]
}

// Select chooses an account to serve candidate, honoring a sticky binding
// when present and still eligible, else round-robining across the primary
// bucket (falling back to the deprioritized bucket only when primary is
// empty). Returns nil if no account is eligible at all.
func (s *Selector) Select(
	accounts []*accountpool.Account,
	candidate string,
	aliases []string,
	limiter *ratelimit.Tracker,
	sticky *StickyBindings,
	stickyKey string,
	stickyTTL time.Duration,
) *accountpool.Account {
	primary, deprioritized := s.Eligible(accounts, aliases, limiter)
	pool := primary
	if len(pool) == 0 {
		pool = deprioritized
	}
	if len(pool) == 0 {
		return nil
	}

	if sticky != nil && stickyKey != "" {
		if boundID, ok := sticky.Get(stickyKey); ok {
			for _, a := range pool {
				if a.ID() == boundID {
					return a
				}
			}
			sticky.Unbind(stickyKey)
		}
	}

	chosen := s.pick(candidate, pool)
	if sticky != nil && stickyKey != "" && chosen != nil {
		sticky.Bind(stickyKey, chosen.ID(), stickyTTL)
	}
	return chosen
}
