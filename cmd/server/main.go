package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	specpkg "github.com/daap14/coachgate/api"
	"github.com/daap14/coachgate/internal/advisor"
	"github.com/daap14/coachgate/internal/api"
	"github.com/daap14/coachgate/internal/api/handler"
	"github.com/daap14/coachgate/internal/auth"
	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/config"
	"github.com/daap14/coachgate/internal/entitlement"
	"github.com/daap14/coachgate/internal/k8s"
	"github.com/daap14/coachgate/internal/locale"
	"github.com/daap14/coachgate/internal/metrics"
	"github.com/daap14/coachgate/internal/progress"
	"github.com/daap14/coachgate/internal/storage"
	"github.com/daap14/coachgate/internal/tier"
	"github.com/daap14/coachgate/internal/usage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	c, checker, err := loadCatalog(startCtx, cfg)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	if err := c.Validate(requiredTools(cfg.RequiredTools)); err != nil {
		slog.Error("catalog failed validation", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "version", c.Version(), "tools", len(c.Tools()))

	recorder := metrics.New()
	recorder.CatalogLoaded(c)

	st, err := openStores(startCtx, cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer st.close()
	slog.Info("store ready", "backend", cfg.StoreBackend)

	translator, err := locale.New(cfg.DefaultLocale)
	if err != nil {
		slog.Error("failed to load translations", "error", err)
		os.Exit(1)
	}

	meter := usage.NewMeter(st.usage, c)
	engine := entitlement.NewEngine(c, meter, st.tiers, translator, recorder)
	tracker := progress.NewTracker(st.progress, c, recorder)

	authService := auth.NewService(st.clients, cfg.BcryptCost)
	if _, err := authService.BootstrapAdmin(startCtx); err != nil {
		slog.Error("failed to bootstrap admin client", "error", err)
		os.Exit(1)
	}

	router, err := api.NewRouter(api.RouterDeps{
		Version:       cfg.Version,
		Backend:       cfg.StoreBackend,
		StoragePinger: st.pinger,
		K8sChecker:    checker,
		OpenAPISpec:   specpkg.OpenAPISpec,
		Catalog:       c,
		Engine:        engine,
		Tracker:       tracker,
		Advisor:       advisor.New(c),
		Translator:    translator,
		TierRepo:      st.tiers,
		AuthService:   authService,
		ClientRepo:    st.clients,
		Metrics:       recorder,
		Clock:         handler.SystemClock,
	})
	if err != nil {
		slog.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting coachgate server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		st.close()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		st.close()
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(logHandler))
}

// loadCatalog picks the catalog source. The returned checker is non-nil only
// when the catalog came from the cluster, so health reports on the cluster
// only when it matters.
func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, k8s.HealthChecker, error) {
	switch {
	case cfg.CatalogPath != "":
		c, err := catalog.LoadFile(cfg.CatalogPath)
		return c, nil, err
	case cfg.CatalogConfigMap != "":
		ref, err := k8s.ParseConfigMapRef(cfg.CatalogConfigMap)
		if err != nil {
			return nil, nil, err
		}
		client, err := initK8sClient(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("kubernetes client: %w", err)
		}
		c, err := client.CatalogSource(ref, cfg.CatalogConfigMapKey).Load(ctx)
		return c, client, err
	default:
		c, err := catalog.Default()
		return c, nil, err
	}
}

func initK8sClient(cfg *config.Config) (*k8s.Client, error) {
	var opts []k8s.ClientOption
	if cfg.KubeconfigPath != "" {
		opts = append(opts, k8s.WithKubeconfig(cfg.KubeconfigPath))
	}
	return k8s.NewClient(opts...)
}

// requiredTools is every id the app links to plus any extra ids listed in
// REQUIRED_TOOLS.
func requiredTools(extra []string) []catalog.ToolID {
	tools := catalog.Referenced()
	for _, id := range extra {
		tools = append(tools, catalog.ToolID(id))
	}
	return tools
}

// stores bundles the backend-specific repositories behind their interfaces.
type stores struct {
	usage    usage.Store
	progress progress.Store
	tiers    tier.Repository
	clients  auth.ClientRepository
	pinger   handler.StoragePinger
	closeFn  func()
}

func (s *stores) close() {
	if s.closeFn != nil {
		s.closeFn()
		s.closeFn = nil
	}
}

// openStores connects the configured backend. API clients persist only in
// postgres; the other backends keep them in memory and mint a fresh admin
// key on every boot.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		pool := db.Pool()
		return &stores{
			usage:    usage.NewPostgresStore(pool),
			progress: progress.NewPostgresStore(pool),
			tiers:    tier.NewPostgresRepository(pool),
			clients:  auth.NewRepository(pool),
			pinger:   db,
			closeFn:  db.Close,
		}, nil

	case config.BackendRedis:
		client, err := storage.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return &stores{
			usage:    usage.NewRedisStore(client),
			progress: progress.NewRedisStore(client),
			tiers:    tier.NewRedisRepository(client),
			clients:  auth.NewMemoryRepository(),
			pinger: handler.PingFunc(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}),
			closeFn: func() {
				if err := client.Close(); err != nil {
					slog.Warn("closing redis client", "error", err)
				}
			},
		}, nil

	case config.BackendSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &stores{
			usage:    usage.NewSQLiteStore(db),
			progress: progress.NewSQLiteStore(db),
			tiers:    tier.NewSQLiteRepository(db),
			clients:  auth.NewMemoryRepository(),
			pinger:   handler.PingFunc(db.PingContext),
			closeFn: func() {
				if err := db.Close(); err != nil {
					slog.Warn("closing sqlite database", "error", err)
				}
			},
		}, nil

	default:
		slog.Warn("memory backend selected; counters and progress are lost on restart")
		return &stores{
			usage:    usage.NewMemoryStore(),
			progress: progress.NewMemoryStore(),
			tiers:    tier.NewMemoryRepository(),
			clients:  auth.NewMemoryRepository(),
			pinger:   handler.PingFunc(func(context.Context) error { return nil }),
		}, nil
	}
}
