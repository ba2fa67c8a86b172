package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/opentill/opentill/internal/report"
	"github.com/opentill/opentill/internal/workperiod"
)

// PeriodService is the slice of the work period manager the worker needs.
type PeriodService interface {
	RebuildZReport(ctx context.Context, periodID uuid.UUID) (report.ZReport, error)
	StaleOpen(ctx context.Context, maxAge time.Duration) ([]workperiod.Period, error)
}

// Worker wraps the Asynq server and optional scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    *slog.Logger
	Periods   PeriodService
	// MaxOpenAge drives the cron stale scan; zero disables it.
	MaxOpenAge time.Duration
	// StaleScanSpec is the cron expression for the stale scan.
	StaleScanSpec string
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Periods == nil {
		return nil, errors.New("jobs: period service required")
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeZReportRebuild, HandleZReportRebuild(cfg.Periods, cfg.Logger))
	mux.HandleFunc(TaskTypeStaleScan, HandleStaleScan(cfg.Periods, cfg.Logger, cfg.MaxOpenAge))

	var scheduler *asynq.Scheduler
	if cfg.MaxOpenAge > 0 {
		spec := cfg.StaleScanSpec
		if spec == "" {
			spec = "@every 1h"
		}
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		if _, err := scheduler.Register(spec, NewStaleScanTask(), asynq.Queue(QueueDefault)); err != nil {
			return nil, err
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// HandleZReportRebuild processes TaskTypeZReportRebuild tasks. Rebuild is
// idempotent, so asynq retries are safe.
func HandleZReportRebuild(periods PeriodService, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ZReportRebuildPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		periodID, err := uuid.Parse(payload.PeriodID)
		if err != nil {
			return asynq.SkipRetry
		}
		z, err := periods.RebuildZReport(ctx, periodID)
		if err != nil {
			if errors.Is(err, workperiod.ErrNotFound) || errors.Is(err, report.ErrPeriodNotClosed) {
				// Nothing retryable; the period either vanished or was
				// never closed.
				return asynq.SkipRetry
			}
			return err
		}
		logger.Info("z-report rebuilt",
			slog.String("period_id", payload.PeriodID),
			slog.Int64("sequence", z.Sequence))
		return nil
	}
}

// HandleStaleScan logs work periods open longer than maxAge.
func HandleStaleScan(periods PeriodService, logger *slog.Logger, maxAge time.Duration) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if maxAge <= 0 {
			return nil
		}
		stale, err := periods.StaleOpen(ctx, maxAge)
		if err != nil {
			return err
		}
		for _, p := range stale {
			logger.Warn("work period open past age limit",
				slog.String("period_id", p.ID.String()),
				slog.String("register_id", p.RegisterID),
				slog.Time("opened_at", p.OpenedAt))
		}
		return nil
	}
}

// Run starts processing jobs until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("jobs: worker not configured")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector *asynq.Inspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints.
func NewHandler(inspector *asynq.Inspector, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.inspector == nil {
		_, _ = w.Write([]byte(`{"queue":"default","pending":0}`))
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"queue unavailable"}`))
		return
	}
	_, _ = w.Write([]byte(`{"queue":"` + info.Queue + `","pending":` + strconv.Itoa(info.Pending) + `}`))
}
