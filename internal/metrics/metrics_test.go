package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/entitlement"
	"github.com/daap14/coachgate/internal/metrics"
)

func TestRecorder_Counters(t *testing.T) {
	t.Parallel()

	r := metrics.New()
	r.DecisionMade("chat-coach", entitlement.Locked)
	r.DecisionMade("chat-coach", entitlement.Locked)
	r.DecisionMade("chat-coach", entitlement.Unlocked)
	r.UsageRecorded("chat-coach")
	r.CompletionMarked("gesprek-starter", true)
	r.CompletionMarked("gesprek-starter", false)
	r.StorageFailed("peek usage")

	expected := `
# HELP coachgate_access_decisions_total Access decisions by tool and level.
# TYPE coachgate_access_decisions_total counter
coachgate_access_decisions_total{level="locked",tool="chat-coach"} 2
coachgate_access_decisions_total{level="unlocked",tool="chat-coach"} 1
# HELP coachgate_completions_total Milestone completion calls by tool and whether they wrote an event.
# TYPE coachgate_completions_total counter
coachgate_completions_total{result="duplicate",tool="gesprek-starter"} 1
coachgate_completions_total{result="recorded",tool="gesprek-starter"} 1
# HELP coachgate_storage_failures_total Storage operations that failed and were answered fail-closed.
# TYPE coachgate_storage_failures_total counter
coachgate_storage_failures_total{op="peek usage"} 1
# HELP coachgate_usage_increments_total Metered tool executions counted.
# TYPE coachgate_usage_increments_total counter
coachgate_usage_increments_total{tool="chat-coach"} 1
`
	err := testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected),
		"coachgate_access_decisions_total",
		"coachgate_completions_total",
		"coachgate_storage_failures_total",
		"coachgate_usage_increments_total",
	)
	assert.NoError(t, err)
}

func TestRecorder_CatalogLoaded(t *testing.T) {
	t.Parallel()

	c, err := catalog.Default()
	require.NoError(t, err)

	r := metrics.New()
	r.CatalogLoaded(c)

	expected := `
# HELP coachgate_catalog_version Version of the loaded catalog.
# TYPE coachgate_catalog_version gauge
coachgate_catalog_version 3
`
	assert.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "coachgate_catalog_version"))
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	t.Parallel()

	r := metrics.New()
	router := chi.NewRouter()
	router.Use(r.Middleware)
	router.Get("/users/{userID}/access", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/"+id+"/access", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	expected := `
# HELP coachgate_http_requests_total HTTP requests by route pattern, method and status.
# TYPE coachgate_http_requests_total counter
coachgate_http_requests_total{method="GET",route="/users/{userID}/access",status="418"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "coachgate_http_requests_total"))
}

func TestHandler_ServesExposition(t *testing.T) {
	t.Parallel()

	r := metrics.New()
	r.UsageRecorded("chat-coach")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `coachgate_usage_increments_total{tool="chat-coach"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
