package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tsdash/internal/amqp"
	"tsdash/internal/cli"
	applog "tsdash/internal/log"
	"tsdash/internal/sheets"
	gsheet "tsdash/internal/sheets/google"
	memsheet "tsdash/internal/sheets/memory"
	"tsdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting export worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.ExportsEnabled() {
		logger.Error("Export worker needs AMQP_URL")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var writer sheets.ExportWriter
	if cfg.GoogleSpreadsheetID != "" {
		svc, err := gsheet.NewService(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		writer = gsheet.New(svc, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		logger.Info("Google Sheets client initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		writer = memsheet.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided, exports are kept in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exports := worker.NewExportWorker(repo, writer, amqpClient, cfg.ExportBatchSize, cfg.SyncInterval)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeExportRequests(gctx, exports.HandleExportRequest)
	})
	g.Go(func() error {
		return exports.RunSweeper(gctx, cfg.SyncInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Export worker stopped", applog.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Export worker stopped gracefully")
}
