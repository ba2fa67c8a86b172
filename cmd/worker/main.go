package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/opentill/opentill/internal/app"
	"github.com/opentill/opentill/internal/ledger"
	"github.com/opentill/opentill/internal/observability"
	"github.com/opentill/opentill/internal/platform/db"
	"github.com/opentill/opentill/internal/report"
	"github.com/opentill/opentill/internal/workperiod"
	"github.com/opentill/opentill/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	periodService := workperiod.NewService(workperiod.ServiceParams{
		Store:     workperiod.NewRepository(pool),
		Events:    ledger.NewRepository(pool),
		Reports:   report.NewRepository(pool),
		Metrics:   metrics,
		Tolerance: cfg.Tolerance(),
		Logger:    logger,
	})

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:  asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:     logger,
		Periods:    periodService,
		MaxOpenAge: cfg.MaxOpenAge,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
