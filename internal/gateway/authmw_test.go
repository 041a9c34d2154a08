package gateway

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/gateway/internal/config"
)

func newTestStore(t *testing.T, body string) *config.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gui_config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	store, err := config.NewStore(path)
	require.NoError(t, err)
	return store
}

func passThroughHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareOffAllowsWithoutHeaders(t *testing.T) {
	store := newTestStore(t, `{"auth":{"auth_mode":"off"}}`)
	h := AuthMiddleware(store, passThroughHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareOptionsAlwaysPasses(t *testing.T) {
	store := newTestStore(t, `{"auth":{"auth_mode":"strict","api_key":"secret"}}`)
	h := AuthMiddleware(store, passThroughHandler())

	req := httptest.NewRequest(http.MethodOptions, "/v1/messages", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareAllExceptHealthSkipsHealthz(t *testing.T) {
	store := newTestStore(t, `{"auth":{"auth_mode":"all_except_health","api_key":"secret"}}`)
	h := AuthMiddleware(store, passThroughHandler())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareAllExceptHealthStillGuardsOtherRoutes(t *testing.T) {
	store := newTestStore(t, `{"auth":{"auth_mode":"all_except_health","api_key":"secret"}}`)
	h := AuthMiddleware(store, passThroughHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsWrongKey(t *testing.T) {
	store := newTestStore(t, `{"auth":{"auth_mode":"strict","api_key":"secret"}}`)
	h := AuthMiddleware(store, passThroughHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	req.Header.Set("x-api-key", "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestAuthMiddlewareAcceptsBearerOrXAPIKey(t *testing.T) {
	store := newTestStore(t, `{"auth":{"auth_mode":"strict","api_key":"secret"}}`)
	h := AuthMiddleware(store, passThroughHandler())

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req2 := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	req2.Header.Set("x-api-key", "secret")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestAuthMiddlewareStripsCredentialsBeforeForwarding(t *testing.T) {
	store := newTestStore(t, `{"auth":{"auth_mode":"strict","api_key":"secret"}}`)
	var seenAuth, seenKey string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		seenKey = r.Header.Get("x-api-key")
		w.WriteHeader(http.StatusOK)
	})
	h := AuthMiddleware(store, next)

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, seenAuth)
	assert.Empty(t, seenKey)
}
