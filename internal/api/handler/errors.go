package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/api/middleware"
	"github.com/daap14/coachgate/internal/api/response"
	"github.com/daap14/coachgate/internal/api/validation"
	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/entitlement"
	"github.com/daap14/coachgate/internal/progress"
	"github.com/daap14/coachgate/internal/storage"
	"github.com/daap14/coachgate/internal/tier"
	"github.com/daap14/coachgate/internal/usage"
)

// Clock returns the current time. Handlers take one so tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

func (c Clock) now() time.Time {
	if c == nil {
		return SystemClock()
	}
	return c()
}

// writeError maps domain and storage errors to the error envelope. failure
// is the message used for unexpected errors, e.g. "Failed to decide access".
func writeError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	requestID := middleware.GetRequestID(r.Context())

	switch {
	case errors.Is(err, catalog.ErrUnknownTool):
		response.Err(w, http.StatusNotFound, "UNKNOWN_TOOL", "Tool not found", requestID)
	case errors.Is(err, entitlement.ErrUnknownSuite):
		response.Err(w, http.StatusNotFound, "UNKNOWN_SUITE", "Suite not found", requestID)
	case errors.Is(err, tier.ErrUnknownTier):
		response.Err(w, http.StatusBadRequest, "UNKNOWN_TIER", "Tier not found", requestID)
	case errors.Is(err, usage.ErrNotMetered):
		response.Err(w, http.StatusConflict, "NOT_METERED", "Tool has no usage quota", requestID)
	case errors.Is(err, progress.ErrEmptyActionKey), errors.Is(err, progress.ErrInvalidMetadata):
		response.Err(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID)
	case errors.Is(err, storage.ErrUnavailable):
		slog.Error(failure, "error", err, "requestId", requestID)
		response.ErrRetryable(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Storage is unavailable", requestID)
	default:
		slog.Error(failure, "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", failure, requestID)
	}
}

// userIDParam parses the {userID} path parameter, writing a 400 on failure.
func userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "userID")
	if fieldErrors := validation.ValidateUUID("userId", raw); len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, middleware.GetRequestID(r.Context()))
		return uuid.Nil, false
	}
	id, _ := uuid.Parse(raw) // already validated
	return id, true
}

func toolIDParam(r *http.Request) catalog.ToolID {
	return catalog.ToolID(chi.URLParam(r, "toolID"))
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
