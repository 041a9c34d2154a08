package utils

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is loaded lazily and cached; tiktoken-go's cl100k_base
// encoding is a reasonable estimator across the vendor families this
// gateway fronts; it is an estimate, never a billing figure
// (Non-goal: modeling usage billing).
var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// EstimateTokens returns a best-effort token count for s. No handler in this
// repository calls it, and it enforces no limit.
func EstimateTokens(s string) int {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	if enc == nil {
		// Fallback heuristic if the encoding table failed to load, e.g. a
		// sandboxed environment with no network access to fetch the BPE file.
		return len(s) / 4
	}
	return len(enc.Encode(s, nil, nil))
}
