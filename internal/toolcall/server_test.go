package toolcall

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	vision := NewVisionClient("http://coding.example/v1/chat", "http://general.example/v1/chat", "key", false, time.Second)
	return NewServer(vision, time.Minute)
}

func initializeSession(t *testing.T, s *Server) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	sessionID := rec.Header().Get("mcp-session-id")
	require.NotEmpty(t, sessionID)
	return sessionID
}

func TestInitializeCreatesSession(t *testing.T) {
	s := newTestServer()
	sessionID := initializeSession(t, s)

	_, ok := s.sessions.Get(sessionID)
	assert.True(t, ok)
}

func TestPostWithoutSessionIDIsRejected(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

func TestPostWithValidSessionListsTools(t *testing.T) {
	s := newTestServer()
	sessionID := initializeSession(t, s)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"jsonrpc":"2.0","id":3,"method":"tools/list"}`))
	req.Header.Set("mcp-session-id", sessionID)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTeardownDeletesSession(t *testing.T) {
	s := newTestServer()
	sessionID := initializeSession(t, s)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("mcp-session-id", sessionID)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := s.sessions.Get(sessionID)
	assert.False(t, ok)
}

func TestTeardownUnknownSessionIs404(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("mcp-session-id", "does-not-exist")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKeepAliveUnknownSessionIs404(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("mcp-session-id", "does-not-exist")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestKeepAliveStreamsUntilClientCancels(t *testing.T) {
	s := newTestServer()
	sessionID := initializeSession(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	req.Header.Set("mcp-session-id", sessionID)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.ServeHTTP(rec, req)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keep-alive handler did not return after context cancellation")
	}
	assert.Contains(t, rec.Body.String(), "keep-alive")
}

func TestOptionsReturnsNoContent(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
