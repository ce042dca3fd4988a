// Package main is the entry point for the printforge catalog server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"printforge/internal/cache"
	"printforge/internal/catalog"
	"printforge/internal/config"
	"printforge/internal/database"
	"printforge/internal/handlers"
	"printforge/internal/router"
	"printforge/internal/storage"
	"printforge/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey for the storefront response cache.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Connect to S3-compatible object storage. Unlike the DB this has no
	// fallback: every catalog entry owns at least a thumbnail blob.
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize s3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient == nil {
		slog.Error("s3 storage not configured — set S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY")
		os.Exit(1)
	}
	slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)

	// Initialize data stores.
	entryStore := store.NewEntryStore(db)
	assetStore := store.NewAssetStore(db)
	categoryStore := store.NewCategoryStore(db)

	// Catalog orchestration: uploads, draft controller, deletion cascade.
	uploads := catalog.NewUploads(entryStore, assetStore, storageClient)
	listCache := catalog.NewListCache()
	draft := catalog.NewDraft(uploads, entryStore, listCache)
	cascade := catalog.NewCascade(entryStore, assetStore, storageClient)

	respCache := cache.NewResponseCache(valkeyClient, cache.DefaultResponseTTL)

	// Create handler groups with their dependencies.
	publicHandlers := handlers.NewPublic(entryStore, categoryStore, respCache)
	dashboardHandlers := handlers.NewDashboard(entryStore, categoryStore, uploads, cascade, draft, listCache, respCache)

	// Set up the Chi router with all middleware and routes.
	r := router.New(publicHandlers, dashboardHandlers, cfg.JWTSecret)

	// Create the HTTP server with sensible timeouts. WriteTimeout must
	// accommodate multi-megabyte print-file uploads to S3.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
