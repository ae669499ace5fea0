package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ekoatlas/data-api/docs"
	"github.com/ekoatlas/data-api/internal/aggregate"
	"github.com/ekoatlas/data-api/internal/api/handlers"
	"github.com/ekoatlas/data-api/internal/api/routes"
	"github.com/ekoatlas/data-api/internal/config"
	"github.com/ekoatlas/data-api/internal/logging"
	"github.com/ekoatlas/data-api/internal/manifest"
	"github.com/ekoatlas/data-api/internal/observability"
	"github.com/ekoatlas/data-api/internal/services"
	"github.com/ekoatlas/data-api/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           EkoAtlas Data API
// @version         1.0
// @description     Serves Turkish regional economic datasets from static JSON files indexed by per-section manifests
// @BasePath        /

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	observability.InitTracer(cfg, logger)
	defer observability.ShutdownTracer(logger)

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	logger.Info("Data store configured", zap.String("store", store.Name()))

	resolver := manifest.NewResolver(store, manifest.ResolverOptions{
		Validate: cfg.ManifestValidate,
		Logger:   logger.Named("manifest"),
	})
	if cfg.ManifestPreload {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := resolver.Preload(ctx); err != nil {
			logger.Warn("Manifest preload incomplete", zap.Error(err))
		}
		cancel()
	}

	aggregator := aggregate.New(store, aggregate.Options{
		Concurrency: cfg.AggregateConcurrency,
		Logger:      logger.Named("aggregate"),
	})

	var cache services.ResponseCache
	if cfg.AggregateCacheSize > 0 {
		cache = services.NewLRUCache(cfg.AggregateCacheSize, cfg.AggregateCacheTTL())
	}
	dataService := services.NewDataService(store, resolver, aggregator, services.DataServiceOptions{
		Cache:  cache,
		Logger: logger.Named("data"),
	})

	gin.SetMode(cfg.GinMode)
	r := routes.SetupRouter(cfg, routes.Dependencies{
		Data:   dataService,
		Health: handlers.NewHealthHandler(store, resolver),
		Logger: logger.Named("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.DataSource {
	case config.DataSourceHTTP:
		return storage.NewHTTPStore(cfg.DataBaseURL, storage.HTTPOptions{Timeout: cfg.DataHTTPTimeout()})
	default:
		return storage.NewFileStore(cfg.DataRoot), nil
	}
}
