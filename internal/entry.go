// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/fragments/internal/api"
	"github.com/starford/fragments/internal/fragmentservice"
	"github.com/starford/fragments/internal/sse"
	"github.com/starford/fragments/internal/storage"
)

const serviceVersion = "1.0.0"

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger. In MCP mode stdout carries the
	// protocol, so logs go to stderr.
	logOut := os.Stdout
	if app.mcp {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("metadata_backend", cfg.Storage.Metadata.Backend),
		slog.String("data_backend", cfg.Storage.Data.Backend),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	meta, data, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer meta.Close()

	gateway := storage.NewGateway(meta, data)

	// Surface metadata-without-data inconsistencies before serving.
	if err := gateway.Verify(ctx, logger); err != nil {
		logger.Warn("consistency sweep failed", slog.String("error", err.Error()))
	}

	svc := fragmentservice.NewService(gateway)

	if app.mcp {
		logger.Info("Starting MCP server on stdio")
		return runMCP(svc)
	}

	// SSE broker, fed by lifecycle events.
	broker := sse.NewBroker()
	defer broker.Close()
	svc.SetNotify(broker.PublishFragmentEvent)

	apiRouter := api.NewRouter(svc, cfg.Auth.APIConfig(), broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Service info (unauthenticated).
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		hostname, _ := os.Hostname()
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","version":%q,"hostname":%q}`, serviceVersion, hostname)
	})

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /v1.
	r.Mount("/v1", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// buildStores constructs the configured metadata and data stores.
func buildStores(ctx context.Context, cfg *Config) (storage.MetadataStore, storage.DataStore, error) {
	var meta storage.MetadataStore
	switch cfg.Storage.Metadata.Backend {
	case MetadataBackendSQLite:
		db, err := storage.OpenSQLite(cfg.Storage.Metadata.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init metadata store: %w", err)
		}
		meta = db
	default:
		meta = storage.NewMemoryMetadata()
	}

	var data storage.DataStore
	switch cfg.Storage.Data.Backend {
	case DataBackendFS:
		if err := os.MkdirAll(cfg.Storage.Data.Path, 0o755); err != nil {
			meta.Close()
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		fsData, err := storage.NewFSData(cfg.Storage.Data.Path)
		if err != nil {
			meta.Close()
			return nil, nil, fmt.Errorf("init data store: %w", err)
		}
		data = fsData
	case DataBackendS3:
		s3Data, err := storage.NewS3Data(ctx, storage.S3Config{
			Bucket:   cfg.Storage.Data.S3.Bucket,
			Region:   cfg.Storage.Data.S3.Region,
			Endpoint: cfg.Storage.Data.S3.Endpoint,
			Prefix:   cfg.Storage.Data.S3.Prefix,
		})
		if err != nil {
			meta.Close()
			return nil, nil, fmt.Errorf("init data store: %w", err)
		}
		data = s3Data
	default:
		data = storage.NewMemoryData()
	}

	return meta, data, nil
}
