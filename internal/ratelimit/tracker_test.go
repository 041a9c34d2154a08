package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndIsLimited(t *testing.T) {
	tr := New()
	defer tr.Stop()

	assert.False(t, tr.IsLimited("acc-1", "claude-opus-4-5-thinking"))

	tr.Record("acc-1", "claude-opus-4-5-thinking", ReasonQuotaExhausted, time.Now().Add(time.Minute))
	assert.True(t, tr.IsLimited("acc-1", "claude-opus-4-5-thinking"))
	assert.False(t, tr.IsLimited("acc-1", "claude-sonnet-4-5-thinking"))
}

func TestIsLimitedChecksAliases(t *testing.T) {
	tr := New()
	defer tr.Stop()
	tr.Record("acc-1", "claude-opus-4-5", ReasonRateLimitExceeded, time.Now().Add(time.Minute))
	assert.True(t, tr.IsLimited("acc-1", "claude-opus-4-5-thinking", "claude-opus-4-5"))
}

func TestClearRemovesEntry(t *testing.T) {
	tr := New()
	defer tr.Stop()
	tr.Record("acc-1", "m", ReasonServerError, time.Now().Add(time.Minute))
	tr.Clear("acc-1", "m")
	assert.False(t, tr.IsLimited("acc-1", "m"))
}

func TestExpiredEntryNotLimited(t *testing.T) {
	tr := New()
	defer tr.Stop()
	tr.Record("acc-1", "m", ReasonServerError, time.Now().Add(-time.Second))
	assert.False(t, tr.IsLimited("acc-1", "m"))
}

func TestEntriesSnapshot(t *testing.T) {
	tr := New()
	defer tr.Stop()
	tr.Record("acc-1", "m", ReasonServerError, time.Now().Add(time.Minute))
	entries := tr.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "acc-1", entries[0].AccountID)
}
