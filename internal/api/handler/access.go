package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/api/middleware"
	"github.com/daap14/coachgate/internal/api/response"
	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/entitlement"
)

// Entitlements is the part of *entitlement.Engine the access handlers use.
type Entitlements interface {
	DecideForUser(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, now time.Time) (entitlement.Decision, error)
	DecideAll(ctx context.Context, userID uuid.UUID, now time.Time) ([]entitlement.Decision, error)
	DecideSuite(ctx context.Context, userID uuid.UUID, suite string, now time.Time) ([]entitlement.Decision, error)
	RecordUsage(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, now time.Time) (entitlement.UsageResult, error)
}

// AccessHandler answers access checks and records metered usage.
type AccessHandler struct {
	engine Entitlements
	clock  Clock
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(engine Entitlements, clock Clock) *AccessHandler {
	return &AccessHandler{engine: engine, clock: clock}
}

// Tool handles GET /users/{userID}/tools/{toolID}/access.
func (h *AccessHandler) Tool(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	d, err := h.engine.DecideForUser(r.Context(), userID, toolIDParam(r), h.clock.now())
	if err != nil {
		writeError(w, r, err, "Failed to decide access")
		return
	}

	response.Success(w, http.StatusOK, d, middleware.GetRequestID(r.Context()))
}

// All handles GET /users/{userID}/access.
func (h *AccessHandler) All(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	decisions, err := h.engine.DecideAll(r.Context(), userID, h.clock.now())
	if err != nil {
		writeError(w, r, err, "Failed to decide access")
		return
	}

	response.SuccessList(w, http.StatusOK, decisions, len(decisions), middleware.GetRequestID(r.Context()))
}

// Suite handles GET /users/{userID}/suites/{suite}/access.
func (h *AccessHandler) Suite(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	decisions, err := h.engine.DecideSuite(r.Context(), userID, chi.URLParam(r, "suite"), h.clock.now())
	if err != nil {
		writeError(w, r, err, "Failed to decide access")
		return
	}

	response.SuccessList(w, http.StatusOK, decisions, len(decisions), middleware.GetRequestID(r.Context()))
}

// RecordUsage handles POST /users/{userID}/tools/{toolID}/usage. It is
// called after the metered action ran; a locked user gets the locked
// decision back and nothing is counted.
func (h *AccessHandler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	toolID := toolIDParam(r)

	result, err := h.engine.RecordUsage(r.Context(), userID, toolID, h.clock.now())
	if err != nil {
		writeError(w, r, err, "Failed to record usage")
		return
	}
	if !result.Recorded {
		slog.Info("usage refused below minimum tier", "userId", userID, "toolId", toolID)
	}

	response.Success(w, http.StatusOK, result, middleware.GetRequestID(r.Context()))
}
