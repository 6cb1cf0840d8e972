package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/api/middleware"
	"github.com/daap14/coachgate/internal/api/response"
	"github.com/daap14/coachgate/internal/api/validation"
	"github.com/daap14/coachgate/internal/tier"
)

type setTierRequest struct {
	Tier string `json:"tier"`
}

type userTierResponse struct {
	UserID      uuid.UUID `json:"userId"`
	Tier        tier.Tier `json:"tier"`
	DisplayName string    `json:"displayName"`
}

// TierHandler assigns subscription tiers. Billing owns tiers in
// production; this endpoint serves operations and development.
type TierHandler struct {
	repo tier.Repository
}

// NewTierHandler creates a new TierHandler.
func NewTierHandler(repo tier.Repository) *TierHandler {
	return &TierHandler{repo: repo}
}

// Set handles PUT /users/{userID}/tier.
func (h *TierHandler) Set(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req setTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.Tier = strings.TrimSpace(req.Tier)
	if fieldErrors := validation.ValidateSetTierRequest(validation.SetTierRequest{Tier: req.Tier}); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}
	t, _ := tier.Parse(req.Tier) // already validated

	if err := h.repo.Set(r.Context(), userID, t); err != nil {
		writeError(w, r, err, "Failed to set tier")
		return
	}

	attrs := []any{"userId", userID, "tier", t.String()}
	if identity := middleware.GetIdentity(r.Context()); identity != nil {
		attrs = append(attrs, "client", identity.ClientName)
	}
	slog.Info("tier assigned", attrs...)

	response.Success(w, http.StatusOK, userTierResponse{
		UserID:      userID,
		Tier:        t,
		DisplayName: t.DisplayName(),
	}, requestID)
}
