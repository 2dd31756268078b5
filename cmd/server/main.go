package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/news-publishing-api/internal/api"
	"github.com/news-publishing-api/internal/config"
	"github.com/news-publishing-api/internal/database"
	"github.com/news-publishing-api/internal/metrics"
	"github.com/news-publishing-api/internal/repository"
	"github.com/news-publishing-api/internal/service"
	"github.com/news-publishing-api/internal/storage"
	"github.com/news-publishing-api/internal/storage/fs"
	"github.com/news-publishing-api/internal/storage/memory"
	"github.com/news-publishing-api/internal/storage/s3"
	"github.com/news-publishing-api/pkg/logger"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back all migrations and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New("info", "json")
		bootstrap.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting News Publishing API server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *migrateDown {
		if err := db.MigrateDown(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back database migrations")
		}
		log.Info().Msg("Database migrations rolled back")
		return
	}

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	if err := metrics.RegisterDBStats(db.DB, cfg.Database.Name); err != nil {
		log.Warn().Err(err).Msg("Failed to register database metrics")
	}

	// Initialize blob storage
	blobs, err := newBlobStore(context.Background(), &cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to initialize blob storage")
	}
	log.Info().Str("backend", cfg.Storage.Backend).Msg("Blob storage ready")

	// Initialize repositories
	repos := repository.New(db)

	// Initialize services
	services := service.NewServices(repos, blobs, cfg, log)

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	waitForShutdown(srv, cfg, log)
}

// newBlobStore builds the configured blob store backend
func newBlobStore(ctx context.Context, cfg *config.StorageConfig) (storage.BlobStore, error) {
	switch cfg.Backend {
	case config.StorageFS:
		return fs.New(fs.Config{BaseDir: cfg.Dir, URLPrefix: cfg.URLPrefix})
	case config.StorageMemory:
		return memory.New(cfg.URLPrefix), nil
	case config.StorageS3:
		return s3.New(ctx, s3.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Endpoint:        cfg.S3.Endpoint,
			UsePathStyle:    cfg.S3.UsePathStyle,
			PublicURL:       cfg.S3.PublicURL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// waitForShutdown blocks until SIGINT or SIGTERM, then drains the server
func waitForShutdown(srv *http.Server, cfg *config.Config, log zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
