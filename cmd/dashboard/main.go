package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tsdash/internal/amqp"
	"tsdash/internal/cli"
	"tsdash/internal/config"
	apphttp "tsdash/internal/http"
	applog "tsdash/internal/log"
	"tsdash/internal/services"
	"tsdash/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	// SQLite backs the dataset snapshot and the export job table.
	var repo *storage.SQLiteRepository
	if cfg.DataBackend == config.BackendSQLite || cfg.ExportsEnabled() {
		repo = cli.InitSQLite(logger, cfg.SQLiteDBPath)
		defer repo.Close()
	}

	data, err := cli.NewDatasetReader(context.Background(), cfg, repo)
	if err != nil {
		logger.Error("Failed to initialize dataset", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	logger.Info("Dataset ready", applog.FieldSeed, data.Seed(), "backend", cfg.DataBackend)

	opts := apphttp.Options{
		Data:               data,
		Logger:             logger,
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
		HistogramBins:      cfg.HistogramBins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}

	if cfg.ExportsEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		opts.Exports = services.NewExportService(repo, amqpClient)
		logger.Info("Exports enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Exports disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, opts)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	logger.Info("Starting tsdash server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
