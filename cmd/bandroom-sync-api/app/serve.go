package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/bandroom-dev/bandroom-sync-server/internal/api"
	"github.com/bandroom-dev/bandroom-sync-server/internal/config"
	"github.com/bandroom-dev/bandroom-sync-server/internal/db"
	"github.com/bandroom-dev/bandroom-sync-server/internal/logger"
	"github.com/bandroom-dev/bandroom-sync-server/internal/review"
	"github.com/bandroom-dev/bandroom-sync-server/internal/sources"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
	storedb "github.com/bandroom-dev/bandroom-sync-server/internal/store/db"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store/inmemory"
	syncpkg "github.com/bandroom-dev/bandroom-sync-server/internal/sync"
	"github.com/bandroom-dev/bandroom-sync-server/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sync API server",
	Long: `Start the sync API server.

The server requires a configuration file (--config) that specifies:
- Calendar and catalog provider endpoints
- Confidence thresholds and job retention
- Database connection settings (omit to run with the in-memory store)

See examples/ directory for sample configurations.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address"))
	if err != nil {
		logger.Fatalf("Failed to bind address flag: %v", err)
	}
	err = viper.BindPFlag("config", serveCmd.Flags().Lookup("config"))
	if err != nil {
		logger.Fatalf("Failed to bind config flag: %v", err)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		logger.Fatalf("Failed to mark config flag as required: %v", err)
	}
}

// buildStore creates the Postgres-backed store when database settings are
// present, otherwise falls back to the in-memory store for local runs.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database == nil {
		logger.Warn("No database configured, using in-memory store")
		return inmemory.New(), nil
	}

	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return storedb.New(pool), nil
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	address := viper.GetString("address")
	if address == "" {
		address = cfg.GetAddress()
	}

	logger.Infof("Starting sync API server on %s", address)

	st, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}

	calendar := sources.NewCalendarProvider(
		cfg.Providers.Calendar.BaseURL,
		cfg.Providers.Calendar.GetTimeout(),
	)
	catalog := sources.NewCatalogClient(
		cfg.Providers.Catalog.BaseURL,
		cfg.Providers.Catalog.GetTimeout(),
		cfg.Providers.Catalog.GetRequestsPerSecond(),
	)

	registry := syncpkg.NewRegistry(cfg.GetJobRetention())
	reviews := review.NewService(st)

	metrics, err := telemetry.NewSyncMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create sync metrics: %w", err)
	}

	orchestrator := syncpkg.NewOrchestrator(
		registry,
		syncpkg.NewSplitter(calendar, st),
		map[syncpkg.Kind]syncpkg.Resolver{
			syncpkg.KindCalendarImport: syncpkg.NewCalendarResolver(calendar, st),
			syncpkg.KindCatalogMatch: syncpkg.NewCatalogResolver(
				catalog, st, cfg.GetAutoApplyThreshold(), cfg.GetMinConfidence(),
			),
		},
		reviews,
		syncpkg.WithMetrics(metrics),
	)

	// Evict terminal jobs past the retention window in the background
	evictCtx, evictCancel := context.WithCancel(context.Background())
	defer evictCancel()
	go registry.RunEviction(evictCtx)

	router := api.NewServer(registry, orchestrator, reviews, st,
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			api.LoggingMiddleware,
		),
	)

	// WriteTimeout stays unset: sync responses are long-lived event streams
	// and must not be cut off mid-job.
	server := &http.Server{
		Addr:        address,
		Handler:     router,
		ReadTimeout: serverReadTimeout,
		IdleTimeout: serverIdleTimeout,
	}

	go func() {
		logger.Infof("Server listening on %s", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	evictCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	logger.Info("Server shutdown complete")
	return nil
}
