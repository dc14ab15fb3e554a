package main

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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"docportal-backend/internal/config"
	"docportal-backend/internal/database"
	"docportal-backend/internal/docgen"
	"docportal-backend/internal/extractor"
	"docportal-backend/internal/handlers"
	"docportal-backend/internal/logging"
	"docportal-backend/internal/memstore"
	"docportal-backend/internal/services"
	"docportal-backend/internal/storage"
	"docportal-backend/internal/supabase"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			skip, _ := cmd.Flags().GetBool("skip-migrations")
			return runServe(cmd.Context(), skip)
		},
	}
	cmd.Flags().Bool("skip-migrations", false, "Do not apply database migrations on startup")
	return cmd
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat), nil
}

func runServe(ctx context.Context, skipMigrations bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore, err := newProjectStore(cfg, logger, skipMigrations)
	if err != nil {
		return err
	}
	defer closeStore()

	blobs, err := newBlobStore(cfg, logger)
	if err != nil {
		return err
	}

	// A nil completer selects the offline generator.
	var completer docgen.Completer
	if cfg.AIAPIKey != "" {
		completer = docgen.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AITimeoutDuration())
	} else {
		logger.Warn("OPENAI_API_KEY not set, documentation will be produced by the offline generator")
	}
	generator := docgen.NewGenerator(completer, cfg.AIModel, logger)

	service := services.NewDocumentationService(store, blobs, extractor.New(logger), generator, logger,
		services.WithGenerationTimeout(cfg.GenerationTimeoutDuration()),
		services.WithUploadLimits(cfg.MaxFiles, cfg.MaxFileBytes()),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(cfg, service, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("waiting for running generations")
	service.Wait()
	logger.Info("server stopped")
	return nil
}

func newProjectStore(cfg *config.Config, logger *slog.Logger, skipMigrations bool) (services.ProjectStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, projects are kept in memory and lost on restart")
		return memstore.New(), func() {}, nil
	}

	if !skipMigrations {
		if err := migrate(cfg.DatabaseURL, logger, false); err != nil {
			return nil, nil, err
		}
	}

	db, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database client: %w", err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
	}, nil
}

func newBlobStore(cfg *config.Config, logger *slog.Logger) (services.BlobStore, error) {
	if !cfg.UseSupabaseStorage() {
		logger.Info("storing project files on the local filesystem", "path", cfg.StoragePath)
		return storage.NewFilesystem(cfg.StoragePath, logger)
	}

	client, err := supabase.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Supabase client: %w", err)
	}
	logger.Info("storing project files in Supabase Storage", "bucket", cfg.SupabaseStorageBucket)
	return client.Storage(), nil
}

func migrate(dbURL string, logger *slog.Logger, down bool) error {
	migrator, err := database.NewMigrator(dbURL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize migrator: %w", err)
	}
	defer migrator.Close()

	if down {
		return migrator.Down()
	}
	return migrator.Run()
}
