package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"moneytracker/internal/app"
	"moneytracker/internal/cli"
	apphttp "moneytracker/internal/http"
	"moneytracker/internal/log"
	"moneytracker/internal/metrics"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	m := metrics.New()

	res, err := cli.OpenBackend(context.Background(), cfg, logger, m)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	ledger := app.New(res, logger, m)
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	err = ledger.Init(initCtx)
	cancelInit()
	if err != nil {
		logger.Error("Failed to load ledger", log.FieldError, err)
		_ = ledger.Close()
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger, apphttp.Options{
		StatsCacheSize: cfg.StatsCacheSize,
		StatsCacheTTL:  cfg.StatsCacheTTL,
		Metrics:        m,
		Logger:         logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := ledger.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting moneytracker server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
