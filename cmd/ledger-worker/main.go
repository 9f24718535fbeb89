package main

import (
	"context"
	"errors"
	"os"
	"time"

	"moneytracker/internal/amqp"
	"moneytracker/internal/cli"
	"moneytracker/internal/kv"
	"moneytracker/internal/log"
	"moneytracker/internal/metrics"
	"moneytracker/internal/sheets"
	gsheet "moneytracker/internal/sheets/google"
	mem "moneytracker/internal/sheets/memory"
	"moneytracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	m := metrics.New()

	logger.Info("Starting ledger-worker")

	res, err := cli.OpenBackend(context.Background(), cfg, logger, m)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Close()

	var mirror sheets.Mirror
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = mem.New()
		logger.Info("Google Sheets disabled - mirroring to memory")
	}

	syncWorker := worker.NewSyncWorker(
		res.Namespace(kv.NamespaceRecords),
		res.Namespace(kv.NamespaceTags),
		mirror,
		logger,
	)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, nil)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	if cfg.AMQPEnabled() {
		consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, m)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer consumer.Close()

		go func() {
			if err := consumer.ConsumeChanges(ctx, syncWorker.HandleChangeMessage); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("Skipping change feed - no AMQP_URL provided")
	}

	go syncWorker.RunPeriodic(ctx, cfg.MirrorInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
