package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bankit/internal/cache"
	"bankit/internal/cli"
	apphttp "bankit/internal/http"
	"bankit/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	startupCtx := context.Background()
	res := cli.InitBackend(startupCtx, logger, cfg)
	account := cli.NewAccountService(cfg, res, logger)

	// Costs that fell due while the server was down.
	if n, err := account.MaterializeCosts(startupCtx); err != nil {
		logger.Warn("Startup cost materialization failed", log.FieldError, err.Error())
	} else if n > 0 {
		logger.Info("Costs materialized at startup", "count", n)
	}

	caches := cache.NewManager(logger)
	caches.Register(account.SummaryCache())
	caches.StartCleanup(cfg.SummaryCacheTTL)

	var ready func(context.Context) error
	if p, ok := res.Store.(interface{ Ping(context.Context) error }); ok {
		ready = p.Ping
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, account, apphttp.Options{Logger: logger, Ready: ready})
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		caches.Stop()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting bankit server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", res.AMQP != nil,
		"future_months", cfg.FutureMonths)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
