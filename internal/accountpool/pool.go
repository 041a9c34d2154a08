package accountpool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/antigravity/gateway/internal/config"
	"github.com/antigravity/gateway/internal/oauth"
	"github.com/antigravity/gateway/internal/utils"
)

// ErrInvalidGrant is returned by EnsureFreshToken when an account's refresh
// token has been revoked; the caller observes the account has already been
// removed from the pool.
var ErrInvalidGrant = errors.New("accountpool: refresh token revoked")

// Pool loads accounts/*.json on startup, serves fresh access tokens, and
// removes accounts from memory the first time a refresh reports
// invalid_grant. Grounded on lodos2005-antimatter's TokenManager, split into
// per-account locking (account.go) plus a pool-wide RWMutex only around the
// accounts map itself.
type Pool struct {
	dir       string
	refresher *oauth.Refresher

	mu       sync.RWMutex
	accounts map[string]*Account
}

// New constructs a Pool backed by the accounts directory dir itself.
func New(dir string, refresher *oauth.Refresher) *Pool {
	return &Pool{dir: dir, refresher: refresher, accounts: make(map[string]*Account)}
}

// Load reads every accounts/*.json file, skipping ones that fail to parse
// (logged, not fatal — one bad file should not take down the pool).
func (p *Pool) Load() error {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("accountpool: read %s: %w", p.dir, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(p.dir, e.Name())
		acc, err := loadAccountFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("accountpool: skipping unreadable account file")
			continue
		}
		if acc.IsDisabled() {
			continue
		}
		p.accounts[acc.ID()] = acc
	}
	return nil
}

// Snapshot returns the set of accounts currently in the pool, sorted by id
// for deterministic iteration order (round-robin fairness lives in the
// routing engine's cursor, not here).
func (p *Pool) Snapshot() []*Account {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Account, 0, len(p.accounts))
	for _, a := range p.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Get returns the account by id, if still in the pool.
func (p *Pool) Get(id string) (*Account, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.accounts[id]
	return a, ok
}

// Len reports how many accounts remain in the pool.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.accounts)
}

// EnsureFreshToken returns a valid access token for acc, refreshing it first
// if needed. On invalid_grant it disables and removes the account, returning
// ErrInvalidGrant; the caller must treat this exactly like "no token
// available" and move on to another account.
func (p *Pool) EnsureFreshToken(ctx context.Context, acc *Account) (string, error) {
	token, expiresAt := acc.AccessToken()
	if token != "" && !oauth.NeedsRefresh(expiresAt) {
		return token, nil
	}
	result, err := p.refresher.Refresh(ctx, acc.ID(), acc.RefreshToken())
	if err != nil {
		var revoked *oauth.RevokedError
		if errors.As(err, &revoked) {
			p.disableAndRemove(acc, "invalid_grant")
			return "", ErrInvalidGrant
		}
		return "", fmt.Errorf("accountpool: refresh failed for %s: %w", utils.MaskKey(acc.ID()), err)
	}
	acc.SetAccessToken(result.AccessToken, result.ExpiresAt)
	return result.AccessToken, nil
}

// disableAndRemove persists disabled=true/disabled_at/disabled_reason to
// disk and removes the account from memory in one step, satisfying the
// invariant "after invalid_grant, a.disabled=true persisted AND removed from
// the in-memory pool; no later request selects a" (§8).
func (p *Pool) disableAndRemove(acc *Account, reason string) {
	if err := acc.disable(reason); err != nil {
		log.Error().Err(err).Str("account", utils.MaskKey(acc.ID())).Msg("accountpool: failed to persist disable, removing from memory anyway")
	}
	p.mu.Lock()
	delete(p.accounts, acc.ID())
	p.mu.Unlock()
	log.Warn().Str("account", utils.MaskKey(acc.ID())).Str("reason", reason).Msg("accountpool: account disabled and removed from pool")
}

// RefreshUnknownQuota retries quota lookup for accounts with no quota data,
// at most once per account per config.UnknownQuotaRefreshInterval (§4.4).
// fetch performs the actual upstream quota lookup; it is injected so the
// pool has no direct dependency on the transform/transport layer.
func (p *Pool) RefreshUnknownQuota(ctx context.Context, fetch func(context.Context, *Account) (Quota, error)) {
	for _, acc := range p.Snapshot() {
		if acc.IsDisabled() || acc.Quota().Known() {
			continue
		}
		if time.Since(acc.QuotaLastAttemptAt()) < config.UnknownQuotaRefreshInterval {
			continue
		}
		q, err := fetch(ctx, acc)
		if err != nil {
			log.Debug().Err(err).Str("account", utils.MaskKey(acc.ID())).Msg("accountpool: quota refresh attempt failed")
			acc.SetQuota(Quota{}) // still stamps quota_last_attempt_at to respect the retry throttle
			continue
		}
		acc.SetQuota(q)
	}
}

// UnknownQuotaAccounts lists accounts currently quarantined for lacking
// quota data, for diagnostics surfacing (§4.4 "surfaced to the UI").
func (p *Pool) UnknownQuotaAccounts() []*Account {
	var out []*Account
	for _, acc := range p.Snapshot() {
		if !acc.Quota().Known() {
			out = append(out, acc)
		}
	}
	return out
}
