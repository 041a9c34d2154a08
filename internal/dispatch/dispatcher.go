// Package dispatch implements the Anthropic-surface dispatch decision table
// (§4.3): choosing between the passthrough provider and the Google pool.
package dispatch

import (
	"errors"
	"sync/atomic"

	"github.com/antigravity/gateway/internal/config"
)

// Target is the resolved provider for one request.
type Target string

const (
	TargetPool        Target = "pool"
	TargetPassthrough Target = "passthrough"
)

// ErrPassthroughConfigInvalid signals the exclusive+ineligible configuration
// error (§4.3, §7 config_invalid).
var ErrPassthroughConfigInvalid = errors.New("dispatch: dispatch_mode=exclusive but passthrough is not eligible")

// Dispatcher holds the process-global pooled-mode round-robin counter.
// Grounded on the teacher's costcontrol.Tracker use of atomic.Int64 for a
// global accumulator, generalized here to a monotonically advancing slot
// counter with no fairness guarantee under contention (§4.3, §5).
type Dispatcher struct {
	counter atomic.Uint64
}

// New constructs a Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// NextPooledSlot advances the process-global counter and reports which
// target slot mod (accountCount+1) landed on: slot 0 is passthrough, slots
// 1..accountCount are pool (§4.3 pooled row). Callers only invoke this after
// confirming passthrough eligibility, matching the decision table's "pooled,
// eligible" row; ineligible passthrough always resolves to pool without
// consuming a counter slot.
func (d *Dispatcher) NextPooledSlot(accountCount int) Target {
	if accountCount < 0 {
		accountCount = 0
	}
	slot := d.counter.Add(1) % uint64(accountCount+1)
	if slot == 0 {
		return TargetPassthrough
	}
	return TargetPool
}

// Decide implements the full §4.3 decision table. hasEligibleAccount reports
// whether the pool currently has at least one selectable account for this
// request; eligibleAccountCount is that same pool's size N, used for the
// pooled-mode slot arithmetic (slot 0 of N+1 -> passthrough).
func (d *Dispatcher) Decide(cfg *config.Config, hasEligibleAccount bool, eligibleAccountCount int) (Target, error) {
	eligible := cfg.Zai.Eligible()

	switch cfg.Zai.DispatchMode {
	case config.DispatchOff, "":
		return TargetPool, nil
	case config.DispatchExclusive:
		if !eligible {
			return "", ErrPassthroughConfigInvalid
		}
		return TargetPassthrough, nil
	case config.DispatchFallback:
		if !eligible {
			return TargetPool, nil
		}
		if hasEligibleAccount {
			return TargetPool, nil
		}
		return TargetPassthrough, nil
	case config.DispatchPooled:
		if !eligible {
			return TargetPool, nil
		}
		return d.NextPooledSlot(eligibleAccountCount), nil
	default:
		return TargetPool, nil
	}
}
