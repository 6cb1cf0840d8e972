package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/entitlement"
	"github.com/daap14/coachgate/internal/progress"
	"github.com/daap14/coachgate/internal/tier"
)

// wednesday is 2026-03-18 10:00 UTC.
var wednesday = time.Date(2026, 3, 18, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return wednesday }

func makeChiRequest(method, path string, body []byte, params map[string]string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	return req, w
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &env)
	require.NoError(t, err, "failed to parse response body")
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseEnvelope(t, w)["error"].(map[string]interface{})
	require.True(t, ok, "expected an error object")
	return errObj["code"].(string)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

// --- Mocks ---

type mockEntitlements struct {
	decideForUserFn func(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, now time.Time) (entitlement.Decision, error)
	decideAllFn     func(ctx context.Context, userID uuid.UUID, now time.Time) ([]entitlement.Decision, error)
	decideSuiteFn   func(ctx context.Context, userID uuid.UUID, suite string, now time.Time) ([]entitlement.Decision, error)
	recordUsageFn   func(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, now time.Time) (entitlement.UsageResult, error)
}

func (m *mockEntitlements) DecideForUser(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, now time.Time) (entitlement.Decision, error) {
	return m.decideForUserFn(ctx, userID, toolID, now)
}

func (m *mockEntitlements) DecideAll(ctx context.Context, userID uuid.UUID, now time.Time) ([]entitlement.Decision, error) {
	return m.decideAllFn(ctx, userID, now)
}

func (m *mockEntitlements) DecideSuite(ctx context.Context, userID uuid.UUID, suite string, now time.Time) ([]entitlement.Decision, error) {
	return m.decideSuiteFn(ctx, userID, suite, now)
}

func (m *mockEntitlements) RecordUsage(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, now time.Time) (entitlement.UsageResult, error) {
	return m.recordUsageFn(ctx, userID, toolID, now)
}

type mockProgress struct {
	markCompletedFn func(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, actionKey string, metadata json.RawMessage, now time.Time) (bool, error)
	progressForFn   func(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID) (progress.ToolProgress, error)
	overviewFn      func(ctx context.Context, userID uuid.UUID) ([]progress.ToolProgress, error)
}

func (m *mockProgress) MarkCompleted(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID, actionKey string, metadata json.RawMessage, now time.Time) (bool, error) {
	return m.markCompletedFn(ctx, userID, toolID, actionKey, metadata, now)
}

func (m *mockProgress) ProgressFor(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID) (progress.ToolProgress, error) {
	return m.progressForFn(ctx, userID, toolID)
}

func (m *mockProgress) Overview(ctx context.Context, userID uuid.UUID) ([]progress.ToolProgress, error) {
	return m.overviewFn(ctx, userID)
}

type mockTierRepo struct {
	getFn func(ctx context.Context, userID uuid.UUID) (tier.Tier, error)
	setFn func(ctx context.Context, userID uuid.UUID, t tier.Tier) error
}

func (m *mockTierRepo) Get(ctx context.Context, userID uuid.UUID) (tier.Tier, error) {
	return m.getFn(ctx, userID)
}

func (m *mockTierRepo) Set(ctx context.Context, userID uuid.UUID, t tier.Tier) error {
	return m.setFn(ctx, userID, t)
}
