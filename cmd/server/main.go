package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newsletterhub/crosspromo/internal/api"
	"github.com/newsletterhub/crosspromo/internal/archive"
	"github.com/newsletterhub/crosspromo/internal/config"
	"github.com/newsletterhub/crosspromo/internal/notifications"
	"github.com/newsletterhub/crosspromo/internal/promotion"
	"github.com/newsletterhub/crosspromo/internal/scheduler"
	"github.com/newsletterhub/crosspromo/internal/store"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting cross-promotion matcher")

	ctx := context.Background()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize store: %v", err)
	}

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize run archive: %v", err)
	}
	runArchive := archive.NewRunArchive(blobs, cfg.ArchiveRetention)

	notificationService := notifications.NewService(cfg)
	if !notificationService.Enabled() {
		logrus.Info("No notification channel configured, campaign digests are disabled")
	}

	promotionService := promotion.NewService(cfg, st, runArchive, notificationService)

	schedulerService, err := scheduler.NewService(cfg, promotionService)
	if err != nil {
		logrus.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewRouter(promotionService),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, err
		}
		if err := store.RunMigrations(ctx, db); err != nil {
			return nil, err
		}
		logrus.Info("Using postgres store")
		return store.NewPostgresStore(db), nil
	case config.BackendMemory:
		logrus.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(nil), nil
	default:
		supabase, err := store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StoreTimeout)
		if err != nil {
			return nil, err
		}
		logrus.Info("Using supabase store")
		return supabase, nil
	}
}

func openBlobStore(ctx context.Context, cfg *config.Config) (archive.BlobStore, error) {
	if cfg.StorageAccount == "" {
		logrus.Warn("AZURE_STORAGE_ACCOUNT not set, archiving runs in memory")
		return archive.NewMemoryBlobStore(), nil
	}
	blobs, err := archive.NewAzureBlobStore(ctx, cfg.StorageAccount, cfg.StorageContainer)
	if err != nil {
		return nil, err
	}
	return blobs, nil
}
