package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"sigs.k8s.io/yaml"
)

// OpenAPIHandler serves the OpenAPI document as JSON.
type OpenAPIHandler struct {
	jsonSpec []byte
}

// NewOpenAPIHandler converts the YAML document once, so a malformed
// document fails at boot rather than on the first request.
func NewOpenAPIHandler(yamlSpec []byte) (*OpenAPIHandler, error) {
	jsonSpec, err := yaml.YAMLToJSON(yamlSpec)
	if err != nil {
		return nil, fmt.Errorf("converting OpenAPI document to JSON: %w", err)
	}
	return &OpenAPIHandler{jsonSpec: jsonSpec}, nil
}

// ServeHTTP writes the cached JSON document.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.jsonSpec); err != nil {
		slog.Error("failed to write OpenAPI response", "error", err)
	}
}
