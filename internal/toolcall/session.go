// Package toolcall implements the built-in tool-call surface variant
// (zai-mcp-server, vision tools) of §4.7: a minimal JSON-RPC session
// machine backed by a fixed vision tool registry.
//
// Session state is grounded on Compresr-ai-Context-Gateway's
// tool_session.go ToolSessionStore: an RWMutex-guarded map with a
// time.Ticker cleanup loop and a stop channel.
package toolcall

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antigravity/gateway/internal/config"
)

// Session is one tool-call session (§3).
type Session struct {
	ID              string
	InitializedAt   time.Time
	LastSeen        time.Time
	ProtocolVersion string
}

// SessionStore holds active sessions keyed by id, expiring idle ones.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSessionStore constructs a SessionStore and starts its cleanup loop.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = config.DefaultToolSessionTTL
	}
	s := &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Create starts a new session, keyed by a server-generated id.
func (s *SessionStore) Create(protocolVersion string) *Session {
	now := time.Now()
	sess := &Session{
		ID:              uuid.NewString(),
		InitializedAt:   now,
		LastSeen:        now,
		ProtocolVersion: protocolVersion,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session by id without refreshing its idle timer.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Touch returns the session by id, refreshing its last-seen time; an
// unknown id is rejected (§4.7).
func (s *SessionStore) Touch(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.LastSeen = time.Now()
	return sess, true
}

// Delete tears a session down explicitly.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *SessionStore) cleanupLoop() {
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

func (s *SessionStore) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// Stop halts the cleanup loop.
func (s *SessionStore) Stop() {
	close(s.stopCh)
	<-s.doneCh
}
