package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/daap14/coachgate/internal/api/response"
	"github.com/daap14/coachgate/internal/auth"
	"github.com/daap14/coachgate/internal/storage"
)

const identityKey contextKey = "identity"

// Authenticator resolves a raw API key to the calling client.
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*auth.Identity, error)
}

// Auth is middleware that extracts the X-API-Key header and resolves it
// to an Identity. Missing or invalid keys return 401.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			rawKey := r.Header.Get("X-API-Key")
			if rawKey == "" {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is required", requestID)
				return
			}

			identity, err := authenticator.Authenticate(r.Context(), rawKey)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrInvalidKey):
					response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or revoked API key", requestID)
				case errors.Is(err, storage.ErrUnavailable):
					slog.Error("authentication storage unavailable", "error", err, "requestId", requestID)
					response.ErrRetryable(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Storage is unavailable", requestID)
				default:
					slog.Error("authentication failed", "error", err, "requestId", requestID)
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Authentication failed", requestID)
				}
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the authenticated Identity from the request context.
func GetIdentity(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey).(*auth.Identity); ok {
		return id
	}
	return nil
}
