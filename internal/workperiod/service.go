package workperiod

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opentill/opentill/internal/ledger"
	"github.com/opentill/opentill/internal/observability"
	"github.com/opentill/opentill/internal/reconcile"
	"github.com/opentill/opentill/internal/report"
	"github.com/opentill/opentill/internal/shared"
)

// Store is the persistence boundary for work periods.
type Store interface {
	GetOpen(ctx context.Context, registerID string) (Period, error)
	GetByID(ctx context.Context, id uuid.UUID) (Period, error)
	GetLastClosed(ctx context.Context, registerID string) (Period, error)
	Append(ctx context.Context, p Period) (Period, error)
	Close(ctx context.Context, rec CloseRecord) (Period, error)
	ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]Period, error)
}

// EventSource supplies ledger events recorded by the order/payment subsystem.
type EventSource interface {
	ListRange(ctx context.Context, registerID string, from, to time.Time) ([]ledger.Event, error)
	ListUnsettled(ctx context.Context, registerID string, from, to time.Time) ([]ledger.Event, error)
}

// ReportStore issues and retrieves persisted Z-reports.
type ReportStore interface {
	Issue(ctx context.Context, z report.ZReport) (report.ZReport, error)
	GetByPeriod(ctx context.Context, periodID uuid.UUID) (report.ZReport, error)
}

// Publisher fans out domain events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev BusEvent) error
}

// Enqueuer schedules background recovery work.
type Enqueuer interface {
	EnqueueZReportRebuild(ctx context.Context, periodID uuid.UUID) error
}

// Auditor records financially significant actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates the work period lifecycle. It holds no mutable period
// state between calls; every operation re-fetches from the store so it never
// acts on stale data.
type Service struct {
	store     Store
	events    EventSource
	reports   ReportStore
	bus       Publisher
	queue     Enqueuer
	audit     Auditor
	metrics   *observability.Metrics
	tolerance decimal.Decimal
	logger    *slog.Logger
	now       func() time.Time
}

// ServiceParams groups Service dependencies. Bus, Queue, Audit and Metrics
// are optional; a nil value disables that concern.
type ServiceParams struct {
	Store     Store
	Events    EventSource
	Reports   ReportStore
	Bus       Publisher
	Queue     Enqueuer
	Audit     Auditor
	Metrics   *observability.Metrics
	Tolerance decimal.Decimal
	Logger    *slog.Logger
}

// NewService constructs a Service instance.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     p.Store,
		events:    p.Events,
		reports:   p.Reports,
		bus:       p.Bus,
		queue:     p.Queue,
		audit:     p.Audit,
		metrics:   p.Metrics,
		tolerance: p.Tolerance,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Open starts a new trading session for the register. Fails with
// ErrAlreadyOpen when a period is already open; the Store's transactional
// uniqueness check backs the pre-check so two concurrent opens cannot both
// succeed.
func (s *Service) Open(ctx context.Context, in OpenInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	_, err := s.store.GetOpen(ctx, in.RegisterID)
	if err == nil {
		return Period{}, ErrAlreadyOpen
	}
	if !errors.Is(err, ErrNoOpenPeriod) {
		return Period{}, err
	}

	now := s.now().UTC()
	period, err := s.store.Append(ctx, Period{
		ID:           uuid.New(),
		RegisterID:   in.RegisterID,
		Status:       StatusOpen,
		OpenedAt:     now,
		OpenedBy:     in.UserID,
		OpeningFloat: in.OpeningFloat,
		Notes:        in.Notes,
		CreatedAt:    now,
	})
	if err != nil {
		return Period{}, err
	}

	s.metrics.PeriodOpened()
	s.recordAudit(ctx, in.UserID, "workperiod.open", period.ID, map[string]any{
		"register_id":   period.RegisterID,
		"opening_float": period.OpeningFloat.String(),
	})
	s.publish(ctx, BusEvent{
		Type:       EventPeriodOpened,
		PeriodID:   period.ID,
		RegisterID: period.RegisterID,
		ActorID:    in.UserID,
		At:         now,
	})
	return period, nil
}

// CloseResult bundles the durable close with the reconciliation and, when
// generation succeeded, the issued Z-report. ZReport is nil exactly when
// Close also returned ErrReportPending.
type CloseResult struct {
	Period         Period
	Reconciliation reconcile.Reconciliation
	Classification reconcile.Classification
	ZReport        *report.ZReport
}

// Close ends the register's open trading session. The store write is the
// single durability boundary: if it fails the period stays open and the call
// can be retried; if Z-report generation fails afterwards the close is NOT
// rolled back. A rebuild job is queued and ErrReportPending is returned so
// the caller can present "closed, report pending" rather than a failure.
func (s *Service) Close(ctx context.Context, in CloseInput) (CloseResult, error) {
	if err := in.Validate(); err != nil {
		return CloseResult{}, err
	}
	period, err := s.store.GetOpen(ctx, in.RegisterID)
	if err != nil {
		return CloseResult{}, err
	}

	now := s.now().UTC()
	events, err := s.events.ListRange(ctx, period.RegisterID, period.OpenedAt, now)
	if err != nil {
		return CloseResult{}, err
	}
	// The aggregate is computed once here and reused for the Z-report, so
	// printed totals match exactly what was reconciled.
	agg := ledger.Accumulate(events, period.OpenedAt, now)
	rec := reconcile.Reconcile(period.OpeningFloat, agg, in.CountedCash)
	cls := reconcile.Classify(rec, s.tolerance)

	closed, err := s.store.Close(ctx, CloseRecord{
		PeriodID:     period.ID,
		ClosingCash:  in.CountedCash,
		ExpectedCash: rec.ExpectedCash,
		Variance:     rec.Variance,
		UserID:       in.UserID,
		Notes:        in.Notes,
		ClosedAt:     now,
	})
	if err != nil {
		return CloseResult{}, err
	}

	s.metrics.PeriodClosed()
	s.metrics.VarianceOutcome(string(cls.Outcome))
	s.recordAudit(ctx, in.UserID, "workperiod.close", closed.ID, map[string]any{
		"register_id":   closed.RegisterID,
		"counted_cash":  rec.CountedCash.String(),
		"expected_cash": rec.ExpectedCash.String(),
		"variance":      rec.Variance.String(),
		"outcome":       string(cls.Outcome),
	})
	s.publish(ctx, BusEvent{
		Type:       EventPeriodClosed,
		PeriodID:   closed.ID,
		RegisterID: closed.RegisterID,
		ActorID:    in.UserID,
		At:         now,
		Variance:   &rec.Variance,
	})

	result := CloseResult{Period: closed, Reconciliation: rec, Classification: cls}
	z, err := s.issueZ(ctx, closed, agg, in.UserID, now)
	if err != nil {
		s.logger.Error("z-report generation failed after close",
			slog.String("period_id", closed.ID.String()), slog.Any("error", err))
		s.enqueueRebuild(ctx, closed.ID)
		return result, ErrReportPending
	}
	s.metrics.ReportGenerated("z")
	result.ZReport = &z
	return result, nil
}

func (s *Service) issueZ(ctx context.Context, closed Period, agg ledger.Aggregate, userID string, now time.Time) (report.ZReport, error) {
	z, err := report.BuildZ(periodInfo(closed), agg, userID, now)
	if err != nil {
		return report.ZReport{}, err
	}
	issued, err := s.reports.Issue(ctx, z)
	if errors.Is(err, report.ErrZReportExists) {
		// A concurrent retry already issued the report; hand back the
		// persisted one.
		return s.reports.GetByPeriod(ctx, closed.ID)
	}
	return issued, err
}

// Current returns the register's open period, or ErrNoOpenPeriod.
func (s *Service) Current(ctx context.Context, registerID string) (Period, error) {
	return s.store.GetOpen(ctx, registerID)
}

// XReport builds a point-in-time snapshot of the register's open period.
// Read-only and repeatable; two calls with no new events in between differ
// only in the generation timestamp.
func (s *Service) XReport(ctx context.Context, registerID, userID string) (report.XReport, error) {
	period, err := s.store.GetOpen(ctx, registerID)
	if err != nil {
		return report.XReport{}, err
	}
	now := s.now().UTC()
	events, err := s.events.ListRange(ctx, period.RegisterID, period.OpenedAt, now)
	if err != nil {
		return report.XReport{}, err
	}
	agg := ledger.Accumulate(events, period.OpenedAt, now)
	x, err := report.BuildX(periodInfo(period), agg, userID, now)
	if err != nil {
		return report.XReport{}, err
	}
	s.metrics.ReportGenerated("x")
	return x, nil
}

// ExpectedCash previews the drawer expectation for the register's open
// period without closing it.
func (s *Service) ExpectedCash(ctx context.Context, registerID string) (decimal.Decimal, error) {
	period, err := s.store.GetOpen(ctx, registerID)
	if err != nil {
		return decimal.Zero, err
	}
	now := s.now().UTC()
	events, err := s.events.ListRange(ctx, period.RegisterID, period.OpenedAt, now)
	if err != nil {
		return decimal.Zero, err
	}
	agg := ledger.Accumulate(events, period.OpenedAt, now)
	return reconcile.ExpectedCash(period.OpeningFloat, agg), nil
}

// Unsettled lists sale events in the period's window whose payment has not
// settled. Advisory; used to warn the operator before closing.
func (s *Service) Unsettled(ctx context.Context, periodID uuid.UUID) ([]ledger.Event, error) {
	period, err := s.store.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	to := s.now().UTC()
	if period.ClosedAt != nil {
		to = *period.ClosedAt
	}
	return s.events.ListUnsettled(ctx, period.RegisterID, period.OpenedAt, to)
}

// SuggestedFloat returns the counted cash of the register's last closed
// period as the proposed next opening float. Zero when there is no history.
func (s *Service) SuggestedFloat(ctx context.Context, registerID string) (decimal.Decimal, error) {
	last, err := s.store.GetLastClosed(ctx, registerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	if last.ClosingCash == nil {
		return decimal.Zero, nil
	}
	return *last.ClosingCash, nil
}

// ZReport fetches the issued Z-report for a period.
func (s *Service) ZReport(ctx context.Context, periodID uuid.UUID) (report.ZReport, error) {
	return s.reports.GetByPeriod(ctx, periodID)
}

// RebuildZReport regenerates a missing Z-report for an already closed
// period. Events are immutable and the window is fixed by the recorded
// ClosedAt, so the recomputed aggregate equals the one frozen at close.
// Idempotent: if the report already exists it is returned as-is.
func (s *Service) RebuildZReport(ctx context.Context, periodID uuid.UUID) (report.ZReport, error) {
	if z, err := s.reports.GetByPeriod(ctx, periodID); err == nil {
		return z, nil
	} else if !errors.Is(err, report.ErrZReportNotFound) {
		return report.ZReport{}, err
	}
	period, err := s.store.GetByID(ctx, periodID)
	if err != nil {
		return report.ZReport{}, err
	}
	if period.Status != StatusClosed || period.ClosedAt == nil {
		return report.ZReport{}, report.ErrPeriodNotClosed
	}
	events, err := s.events.ListRange(ctx, period.RegisterID, period.OpenedAt, *period.ClosedAt)
	if err != nil {
		return report.ZReport{}, err
	}
	agg := ledger.Accumulate(events, period.OpenedAt, *period.ClosedAt)
	closedBy := period.OpenedBy
	if period.ClosedBy != nil {
		closedBy = *period.ClosedBy
	}
	z, err := s.issueZ(ctx, period, agg, closedBy, s.now().UTC())
	if err != nil {
		return report.ZReport{}, err
	}
	s.metrics.ReportGenerated("z")
	return z, nil
}

// StaleOpen returns open periods older than the cutoff for operational
// surfacing.
func (s *Service) StaleOpen(ctx context.Context, maxAge time.Duration) ([]Period, error) {
	return s.store.ListOpenOlderThan(ctx, s.now().UTC().Add(-maxAge))
}

func (s *Service) publish(ctx context.Context, ev BusEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish domain event", slog.String("type", ev.Type), slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actor, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "work_period",
		EntityID: entityID.String(),
		Meta:     meta,
		At:       s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("record audit log", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) enqueueRebuild(ctx context.Context, periodID uuid.UUID) {
	if s.queue == nil {
		return
	}
	if err := s.queue.EnqueueZReportRebuild(ctx, periodID); err != nil {
		s.logger.Error("enqueue z-report rebuild", slog.String("period_id", periodID.String()), slog.Any("error", err))
	}
}

func periodInfo(p Period) report.PeriodInfo {
	return report.PeriodInfo{
		ID:           p.ID,
		RegisterID:   p.RegisterID,
		Open:         p.Status == StatusOpen,
		OpenedAt:     p.OpenedAt,
		OpeningFloat: p.OpeningFloat,
		ClosedAt:     p.ClosedAt,
		ClosingCash:  p.ClosingCash,
		ExpectedCash: p.ExpectedCash,
		Variance:     p.Variance,
	}
}
