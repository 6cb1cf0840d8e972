package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/api/middleware"
	"github.com/daap14/coachgate/internal/api/response"
	"github.com/daap14/coachgate/internal/api/validation"
	"github.com/daap14/coachgate/internal/auth"
)

type createClientRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type clientResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	ApiKeyPrefix string  `json:"apiKeyPrefix"`
	CreatedAt    string  `json:"createdAt"`
	RevokedAt    *string `json:"revokedAt,omitempty"`
}

type clientWithKeyResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	ApiKey    string `json:"apiKey"`
	CreatedAt string `json:"createdAt"`
}

func toClientResponse(c *auth.Client) clientResponse {
	resp := clientResponse{
		ID:           c.ID.String(),
		Name:         c.Name,
		Role:         string(c.Role),
		ApiKeyPrefix: c.ApiKeyPrefix,
		CreatedAt:    formatTime(c.CreatedAt),
	}
	if c.RevokedAt != nil {
		revoked := formatTime(*c.RevokedAt)
		resp.RevokedAt = &revoked
	}
	return resp
}

// ClientHandler handles API client CRUD endpoints.
type ClientHandler struct {
	authService *auth.Service
	clientRepo  auth.ClientRepository
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(authService *auth.Service, clientRepo auth.ClientRepository) *ClientHandler {
	return &ClientHandler{
		authService: authService,
		clientRepo:  clientRepo,
	}
}

// Create handles POST /clients. The raw key is only returned here.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateCreateClientRequest(validation.CreateClientRequest{
		Name: req.Name,
		Role: req.Role,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	c, rawKey, err := h.authService.CreateClient(r.Context(), req.Name, auth.Role(req.Role))
	if err != nil {
		writeError(w, r, err, "Failed to create client")
		return
	}

	response.Success(w, http.StatusCreated, clientWithKeyResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Role:      string(c.Role),
		ApiKey:    rawKey,
		CreatedAt: formatTime(c.CreatedAt),
	}, requestID)
}

// List handles GET /clients.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	clients, err := h.clientRepo.List(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to list clients")
		return
	}

	items := make([]clientResponse, 0, len(clients))
	for i := range clients {
		items = append(items, toClientResponse(&clients[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// GetByID handles GET /clients/{id}.
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	c, err := h.clientRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrClientNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Client not found", requestID)
			return
		}
		writeError(w, r, err, "Failed to get client")
		return
	}

	response.Success(w, http.StatusOK, toClientResponse(c), requestID)
}

// Delete handles DELETE /clients/{id} (soft-revoke).
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	// A client cannot revoke its own key and lock itself out.
	if identity := middleware.GetIdentity(r.Context()); identity != nil && identity.ClientID == id {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Cannot revoke the calling client", requestID)
		return
	}

	if err := h.clientRepo.Revoke(r.Context(), id); err != nil {
		if errors.Is(err, auth.ErrClientNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Client not found", requestID)
			return
		}
		if errors.Is(err, auth.ErrClientRevoked) {
			// Already revoked: treat as success (idempotent)
			response.NoContent(w)
			return
		}
		writeError(w, r, err, "Failed to revoke client")
		return
	}

	slog.Info("client revoked", "clientId", id)
	response.NoContent(w)
}
