package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	specpkg "github.com/daap14/coachgate/api"
	"github.com/daap14/coachgate/internal/api/handler"
)

func TestOpenAPIHandler_ReturnsJSON(t *testing.T) {
	t.Parallel()

	h, err := handler.NewOpenAPIHandler([]byte(`openapi: "3.0.3"
info:
  title: Test API
  version: "1.0.0"
paths: {}
`))
	require.NoError(t, err)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "3.0.3", result["openapi"])
}

func TestOpenAPIHandler_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := handler.NewOpenAPIHandler([]byte("paths: [unclosed"))
	assert.Error(t, err)
}

func TestOpenAPIHandler_EmbeddedSpec(t *testing.T) {
	t.Parallel()

	h, err := handler.NewOpenAPIHandler(specpkg.OpenAPISpec)
	require.NoError(t, err)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	info := result["info"].(map[string]interface{})
	assert.Equal(t, "coachgate", info["title"])
	assert.Contains(t, result["paths"], "/users/{userID}/tools/{toolID}/access")
}
