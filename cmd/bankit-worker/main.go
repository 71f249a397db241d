package main

import (
	"context"
	"errors"
	"time"

	"bankit/internal/cli"
	"bankit/internal/log"
	gsheet "bankit/internal/sheets/google"
	"bankit/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting bankit-worker")

	res := cli.InitBackend(context.Background(), logger, cfg)
	account := cli.NewAccountService(cfg, res, logger)

	var exporter worker.SummaryExporter
	if cfg.SheetsEnabled() {
		e, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			// The worker still materializes costs without an exporter.
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err.Error())
		} else {
			exporter = e
			logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewEventWorker(account, exporter, worker.Config{
		Interval:     cfg.MaterializeInterval,
		ExportMonths: cfg.ExportMonths,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := w.Stop(ctx); err != nil {
			logger.Error("Worker stop failed", log.FieldError, err.Error())
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("Failed to start event worker", log.FieldError, err.Error())
	}

	if res.AMQP != nil {
		go func() {
			if err := res.AMQP.Consume(ctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumption stopped", log.FieldError, err.Error())
			}
		}()
	} else {
		logger.Info("AMQP disabled - only the periodic cycle runs")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
