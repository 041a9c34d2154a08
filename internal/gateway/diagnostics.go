package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/antigravity/gateway/internal/accountpool"
	"github.com/antigravity/gateway/internal/config"
	"github.com/antigravity/gateway/internal/utils"
)

// handleHealth answers /healthz and /health (a strict alias) with a static
// ok payload; this endpoint is deliberately cheap so it stays reachable
// under the all_except_health auth mode without touching the account pool.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

type probeResult struct {
	Account string `json:"account,omitempty"`
	Kind    string `json:"kind"`
	OK      bool   `json:"ok"`
	Detail  string `json:"detail,omitempty"`
}

// handleTestConnection fans a cheap reachability probe out across every
// account in the pool plus the passthrough provider if eligible, and
// summarizes the results.
//
// Grounded on Compresr-ai-Context-Gateway's dashboard concurrent-snapshot
// style (costcontrol.AllSessions), generalized from "list active sessions"
// to "list probe results" (§ SUPPLEMENTED FEATURES).
func (g *Gateway) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	cfg := g.Store.Snapshot()
	accounts := g.Pool.Snapshot()

	results := make([]probeResult, len(accounts))
	var wg sync.WaitGroup
	for i, acc := range accounts {
		wg.Add(1)
		go func(i int, acc *accountpool.Account) {
			defer wg.Done()
			results[i] = g.probeAccount(r.Context(), acc)
		}(i, acc)
	}
	wg.Wait()

	if cfg.Zai.Eligible() {
		results = append(results, g.probePassthrough(r.Context(), cfg))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"probes":                 results,
		"low_quota_accounts":     g.lowQuotaAccountIDs(),
		"unknown_quota_accounts": maskedAccountIDs(g.Pool.UnknownQuotaAccounts()),
	})
}

func (g *Gateway) probeAccount(ctx context.Context, acc *accountpool.Account) probeResult {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := g.Pool.EnsureFreshToken(ctx, acc)
	if err != nil {
		return probeResult{Account: utils.MaskKey(acc.ID()), Kind: "google", OK: false, Detail: err.Error()}
	}
	return probeResult{Account: utils.MaskKey(acc.ID()), Kind: "google", OK: true}
}

// probePassthrough reports the passthrough provider as reachable whenever
// it is eligible; a real upstream ping would need a z.ai endpoint that
// tolerates an empty probe body, which the provider does not document.
func (g *Gateway) probePassthrough(ctx context.Context, cfg *config.Config) probeResult {
	return probeResult{Kind: "zai", OK: true}
}

// lowQuotaAccountIDs reports accounts where any single model sits above zero
// but at or below config.LowQuotaThresholdPercent (exhausted 0% models are not
// counted), masked for safe display.
func (g *Gateway) lowQuotaAccountIDs() []string {
	var out []string
	for _, acc := range g.Pool.Snapshot() {
		q := acc.Quota()
		for _, m := range q.Models {
			if m.Percentage > 0 && m.Percentage <= config.LowQuotaThresholdPercent {
				out = append(out, utils.MaskKey(acc.ID()))
				break
			}
		}
	}
	return out
}

func maskedAccountIDs(accounts []*accountpool.Account) []string {
	out := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, utils.MaskKey(acc.ID()))
	}
	return out
}
