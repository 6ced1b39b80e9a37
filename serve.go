package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"thanwia-dashboard/cache"
	"thanwia-dashboard/config"
	"thanwia-dashboard/dashboard"
	"thanwia-dashboard/db"
	"thanwia-dashboard/handlers"
	"thanwia-dashboard/loader"
	"thanwia-dashboard/logging"
)

func newServeCmd() *cobra.Command {
	var seedFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if seedFile != "" {
				cfg.Data.SeedFile = seedFile
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&seedFile, "seed", "", "Results file shown until a user uploads one")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	parser := loader.NewExcelLoader(loader.Columns{
		Seating: cfg.Data.SeatingColumns,
		Name:    cfg.Data.NameColumns,
		Score:   cfg.Data.ScoreColumns,
	}, logger)

	apiHandler := handlers.NewAPIHandler(
		cache.NewLoader(parser, store, logger),
		cache.NewSessions(cfg.Data.MaxSessions, cfg.Data.SessionTTL),
		dashboard.Options{Bins: cfg.Data.HistogramBins, TopN: cfg.Data.TopN},
		logger,
	)

	if cfg.Data.SeedFile != "" {
		if err := apiHandler.SeedFromFile(ctx, cfg.Data.SeedFile); err != nil {
			// Reported on the dashboard; the service still accepts uploads
			logger.Error("failed to load seed file", slog.String("path", cfg.Data.SeedFile), slog.String("error", err.Error()))
		}
	}

	router := handlers.NewRouter(apiHandler, handlers.RouterOptions{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		UploadRPS:      cfg.Server.UploadRPS,
		UploadBurst:    cfg.Server.UploadBurst,
	}, logger)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildStore returns the in-memory cache, fronting Redis when it is enabled
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Store, func(), error) {
	memory := cache.NewMemoryStore(cfg.Data.MemoryDatasets)
	if !cfg.Redis.Enabled {
		return memory, func() {}, nil
	}

	client, err := db.InitializeRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr), slog.Int("db", cfg.Redis.DB))

	redisStore := db.NewRedisService(client, cfg.Redis.TTL, logger)
	if ids, err := redisStore.List(ctx); err == nil {
		logger.Info("shared dataset cache", slog.Int("datasets", len(ids)))
	}

	closer := func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close Redis client", slog.String("error", err.Error()))
		}
	}
	return cache.Tiered{Near: memory, Far: redisStore}, closer, nil
}
