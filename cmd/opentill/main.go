package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/opentill/opentill/internal/app"
	"github.com/opentill/opentill/internal/ledger"
	ledgerhttp "github.com/opentill/opentill/internal/ledger/http"
	"github.com/opentill/opentill/internal/observability"
	"github.com/opentill/opentill/internal/platform/cache"
	"github.com/opentill/opentill/internal/platform/db"
	"github.com/opentill/opentill/internal/report"
	"github.com/opentill/opentill/internal/shared"
	"github.com/opentill/opentill/internal/workperiod"
	workperiodhttp "github.com/opentill/opentill/internal/workperiod/http"
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

	redisClient, err := cache.NewRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	ledgerRepo := ledger.NewRepository(pool)

	periodService := workperiod.NewService(workperiod.ServiceParams{
		Store:     workperiod.NewRepository(pool),
		Events:    ledgerRepo,
		Reports:   report.NewRepository(pool),
		Bus:       workperiod.NewBus(redisClient, cfg.EventChannel),
		Queue:     jobClient,
		Audit:     shared.NewAuditLogger(pool),
		Metrics:   metrics,
		Tolerance: cfg.Tolerance(),
		Logger:    logger,
	})

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		WorkPeriodHandler: workperiodhttp.NewHandler(logger, periodService),
		LedgerHandler:     ledgerhttp.NewHandler(logger, ledgerRepo),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
