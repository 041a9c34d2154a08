package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleGeminiModelListReturnsCatalog(t *testing.T) {
	g := newTestGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/v1beta/models", nil)
	rec := httptest.NewRecorder()
	g.handleGeminiModelList(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "models/gemini-3-flash")
}

func TestHandleGeminiModelGetEchoesPathValue(t *testing.T) {
	g := newTestGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/v1beta/models/gemini-3-flash", nil)
	req.SetPathValue("model", "gemini-3-flash")
	rec := httptest.NewRecorder()
	g.handleGeminiModelGet(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "models/gemini-3-flash")
}
