package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/api/middleware"
	"github.com/daap14/coachgate/internal/api/response"
	"github.com/daap14/coachgate/internal/api/validation"
	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/progress"
)

// Progress is the part of *progress.Tracker the progress handlers use.
type Progress interface {
	MarkCompleted(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, actionKey string, metadata json.RawMessage, now time.Time) (bool, error)
	ProgressFor(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID) (progress.ToolProgress, error)
	Overview(ctx context.Context, userID uuid.UUID) ([]progress.ToolProgress, error)
}

type completionRequest struct {
	ActionKey string          `json:"actionKey"`
	Metadata  json.RawMessage `json:"metadata"`
}

type completionResponse struct {
	ToolID        catalog.ToolID        `json:"toolId"`
	ActionKey     string                `json:"actionKey"`
	NewlyRecorded bool                  `json:"newlyRecorded"`
	Progress      progress.ToolProgress `json:"progress"`
}

// ProgressHandler records milestone completions and reports progress.
type ProgressHandler struct {
	tracker Progress
	clock   Clock
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(tracker Progress, clock Clock) *ProgressHandler {
	return &ProgressHandler{tracker: tracker, clock: clock}
}

// MarkCompleted handles POST /users/{userID}/tools/{toolID}/completions.
// The first completion of an action answers 201; repeats answer 200.
func (h *ProgressHandler) MarkCompleted(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	toolID := toolIDParam(r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	req.ActionKey = strings.TrimSpace(req.ActionKey)
	if string(req.Metadata) == "null" {
		req.Metadata = nil
	}

	fieldErrors := validation.ValidateCompletionRequest(validation.CompletionRequest{
		ActionKey: req.ActionKey,
		Metadata:  req.Metadata,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	created, err := h.tracker.MarkCompleted(r.Context(), userID, toolID, req.ActionKey, req.Metadata, h.clock.now())
	if err != nil {
		writeError(w, r, err, "Failed to record completion")
		return
	}

	p, err := h.tracker.ProgressFor(r.Context(), userID, toolID)
	if err != nil {
		writeError(w, r, err, "Failed to compute progress")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(w, status, completionResponse{
		ToolID:        toolID,
		ActionKey:     req.ActionKey,
		NewlyRecorded: created,
		Progress:      p,
	}, requestID)
}

// Tool handles GET /users/{userID}/tools/{toolID}/progress.
func (h *ProgressHandler) Tool(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.tracker.ProgressFor(r.Context(), userID, toolIDParam(r))
	if err != nil {
		writeError(w, r, err, "Failed to compute progress")
		return
	}

	response.Success(w, http.StatusOK, p, middleware.GetRequestID(r.Context()))
}

// All handles GET /users/{userID}/progress.
func (h *ProgressHandler) All(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	overview, err := h.tracker.Overview(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, "Failed to compute progress")
		return
	}

	response.SuccessList(w, http.StatusOK, overview, len(overview), middleware.GetRequestID(r.Context()))
}
