package routing

import (
	"sync"
	"time"

	"github.com/antigravity/gateway/internal/config"
)

// StickyBindings maps an opaque session identifier to a previously selected
// account id, with TTL, to preserve coherence across a streaming session
// (§3 Sticky Binding).
//
// Grounded on Compresr-ai-Context-Gateway's auth_fallback.go authFallbackStore:
// an RWMutex-guarded map[string]entry plus a time.Ticker cleanup loop
// stoppable via a close-channel signal.
type StickyBindings struct {
	mu       sync.RWMutex
	bindings map[string]stickyEntry
	stopCh   chan struct{}
	doneCh   chan struct{}
}

type stickyEntry struct {
	accountID string
	expiresAt time.Time
}

// NewStickyBindings constructs a StickyBindings store and starts its
// background sweep.
func NewStickyBindings() *StickyBindings {
	s := &StickyBindings{
		bindings: make(map[string]stickyEntry),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Get returns the bound account id for key, if present and unexpired.
func (s *StickyBindings) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.bindings[key]
	if !ok || time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.accountID, true
}

// Bind records key -> accountID for ttl.
func (s *StickyBindings) Bind(key, accountID string, ttl time.Duration) {
	s.mu.Lock()
	s.bindings[key] = stickyEntry{accountID: accountID, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// Unbind removes any binding for key, e.g. because the bound account became
// ineligible mid-selection.
func (s *StickyBindings) Unbind(key string) {
	s.mu.Lock()
	delete(s.bindings, key)
	s.mu.Unlock()
}

func (s *StickyBindings) cleanupLoop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(config.DefaultCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *StickyBindings) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.bindings {
		if now.After(e.expiresAt) {
			delete(s.bindings, k)
		}
	}
}

// Stop halts the background sweep.
func (s *StickyBindings) Stop() {
	close(s.stopCh)
	<-s.doneCh
}
