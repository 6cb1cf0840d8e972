package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/daap14/coachgate/internal/api/handler"
	"github.com/daap14/coachgate/internal/api/middleware"
	"github.com/daap14/coachgate/internal/auth"
	"github.com/daap14/coachgate/internal/k8s"
	"github.com/daap14/coachgate/internal/locale"
	"github.com/daap14/coachgate/internal/tier"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Version       string
	Backend       string
	StoragePinger handler.StoragePinger
	K8sChecker    k8s.HealthChecker // nil unless the catalog comes from the cluster
	OpenAPISpec   []byte

	Catalog     handler.CatalogReader
	Engine      handler.Entitlements
	Tracker     handler.Progress
	Advisor     handler.Advisor
	Translator  *locale.Translator
	TierRepo    tier.Repository
	AuthService *auth.Service
	ClientRepo  auth.ClientRepository

	// Metrics, when set, wraps every request and serves GET /metrics.
	Metrics interface {
		Middleware(next http.Handler) http.Handler
		Handler() http.Handler
	}
	Clock handler.Clock
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) (*chi.Mux, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	healthHandler := handler.NewHealthHandler(deps.StoragePinger, deps.Backend, deps.K8sChecker, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler, err := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		if err != nil {
			return nil, err
		}
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	catalogHandler := handler.NewCatalogHandler(deps.Catalog)
	accessHandler := handler.NewAccessHandler(deps.Engine, deps.Clock)
	progressHandler := handler.NewProgressHandler(deps.Tracker, deps.Clock)
	upgradeHandler := handler.NewUpgradeHandler(deps.Advisor, deps.TierRepo, deps.Translator)
	tierHandler := handler.NewTierHandler(deps.TierRepo)
	clientHandler := handler.NewClientHandler(deps.AuthService, deps.ClientRepo)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))
		r.Use(middleware.Locale(deps.Translator))

		r.Get("/catalog", catalogHandler.Get)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/access", accessHandler.All)
			r.Get("/suites/{suite}/access", accessHandler.Suite)
			r.Get("/progress", progressHandler.All)
			r.Get("/upgrade", upgradeHandler.Plan)

			r.Route("/tools/{toolID}", func(r chi.Router) {
				r.Get("/access", accessHandler.Tool)
				r.Post("/usage", accessHandler.RecordUsage)
				r.Post("/completions", progressHandler.MarkCompleted)
				r.Get("/progress", progressHandler.Tool)
			})

			r.With(middleware.RequireRole(auth.RoleAdmin)).Put("/tier", tierHandler.Set)
		})

		r.Get("/tiers/{tier}/locked-tools", upgradeHandler.LockedTools)
		r.Get("/tools/{toolID}/unlock-tier", upgradeHandler.UnlockTier)

		r.Route("/clients", func(r chi.Router) {
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Post("/", clientHandler.Create)
			r.Get("/", clientHandler.List)
			r.Get("/{id}", clientHandler.GetByID)
			r.Delete("/{id}", clientHandler.Delete)
		})
	})

	return r, nil
}
