package workperiodhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opentill/opentill/internal/ledger"
	"github.com/opentill/opentill/internal/platform/httpx"
	"github.com/opentill/opentill/internal/report"
	"github.com/opentill/opentill/internal/workperiod"
)

type periodService interface {
	Open(ctx context.Context, in workperiod.OpenInput) (workperiod.Period, error)
	Close(ctx context.Context, in workperiod.CloseInput) (workperiod.CloseResult, error)
	Current(ctx context.Context, registerID string) (workperiod.Period, error)
	XReport(ctx context.Context, registerID, userID string) (report.XReport, error)
	ExpectedCash(ctx context.Context, registerID string) (decimal.Decimal, error)
	SuggestedFloat(ctx context.Context, registerID string) (decimal.Decimal, error)
	Unsettled(ctx context.Context, periodID uuid.UUID) ([]ledger.Event, error)
	ZReport(ctx context.Context, periodID uuid.UUID) (report.ZReport, error)
}

// Handler wires work period endpoints.
type Handler struct {
	logger   *slog.Logger
	service  periodService
	validate *validator.Validate
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, service periodService) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/work-periods", func(r chi.Router) {
		r.Post("/open", h.open)
		r.Post("/close", h.close)
		r.Get("/current", h.current)
		r.Get("/current/x-report", h.xReport)
		r.Get("/current/expected-cash", h.expectedCash)
		r.Get("/suggested-float", h.suggestedFloat)
		r.Get("/{id}/z-report", h.zReport)
		r.Get("/{id}/unsettled", h.unsettled)
	})
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req openRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	period, err := h.service.Open(r.Context(), workperiod.OpenInput{
		RegisterID:   req.RegisterID,
		OpeningFloat: req.OpeningFloat,
		UserID:       userID,
		Notes:        req.Notes,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPeriodResponse(period))
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req closeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Close(r.Context(), workperiod.CloseInput{
		RegisterID:  req.RegisterID,
		CountedCash: req.CountedCash,
		UserID:      userID,
		Notes:       req.Notes,
	})
	if err != nil && !errors.Is(err, workperiod.ErrReportPending) {
		h.respondError(w, err)
		return
	}
	resp := closeResponse{
		Period:         toPeriodResponse(result.Period),
		Reconciliation: result.Reconciliation,
		Classification: result.Classification,
		ZReport:        result.ZReport,
		ReportPending:  errors.Is(err, workperiod.ErrReportPending),
	}
	// 202 tells the caller the close is durable but the Z-report is still
	// being produced in the background.
	status := http.StatusOK
	if resp.ReportPending {
		status = http.StatusAccepted
	}
	httpx.JSON(w, status, resp)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	registerID, ok := requireRegister(w, r)
	if !ok {
		return
	}
	period, err := h.service.Current(r.Context(), registerID)
	if err != nil {
		if errors.Is(err, workperiod.ErrNoOpenPeriod) {
			httpx.Problem(w, http.StatusNotFound, "No Open Work Period", "no work period is open for this register")
			return
		}
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPeriodResponse(period))
}

func (h *Handler) xReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	registerID, ok := requireRegister(w, r)
	if !ok {
		return
	}
	x, err := h.service.XReport(r.Context(), registerID, userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(report.RenderX(x)))
		return
	}
	httpx.JSON(w, http.StatusOK, x)
}

func (h *Handler) expectedCash(w http.ResponseWriter, r *http.Request) {
	registerID, ok := requireRegister(w, r)
	if !ok {
		return
	}
	expected, err := h.service.ExpectedCash(r.Context(), registerID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expectedCashResponse{RegisterID: registerID, ExpectedCash: expected})
}

func (h *Handler) suggestedFloat(w http.ResponseWriter, r *http.Request) {
	registerID, ok := requireRegister(w, r)
	if !ok {
		return
	}
	suggested, err := h.service.SuggestedFloat(r.Context(), registerID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, suggestedFloatResponse{RegisterID: registerID, SuggestedFloat: suggested})
}

func (h *Handler) zReport(w http.ResponseWriter, r *http.Request) {
	periodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "period id must be a UUID")
		return
	}
	z, err := h.service.ZReport(r.Context(), periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(report.RenderZ(z)))
		return
	}
	httpx.JSON(w, http.StatusOK, z)
}

func (h *Handler) unsettled(w http.ResponseWriter, r *http.Request) {
	periodID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "period id must be a UUID")
		return
	}
	events, err := h.service.Unsettled(r.Context(), periodID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUnsettledResponse(events))
}

// respondError maps domain sentinels to specific, operator-actionable
// messages rather than a blanket failure.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workperiod.ErrAlreadyOpen):
		httpx.Problem(w, http.StatusConflict, "Work Period Already Open", "a work period is already open for this register; close it before opening a new one")
	case errors.Is(err, workperiod.ErrNoOpenPeriod):
		httpx.Problem(w, http.StatusConflict, "No Open Work Period", "no work period is open for this register")
	case errors.Is(err, workperiod.ErrAlreadyClosed):
		httpx.Problem(w, http.StatusConflict, "Work Period Already Closed", "this work period has already been closed")
	case errors.Is(err, workperiod.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "work period not found")
	case errors.Is(err, workperiod.ErrInvalidFloat):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Opening Float", "opening float must not be negative")
	case errors.Is(err, workperiod.ErrInvalidCash):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Counted Cash", "counted cash must not be negative")
	case errors.Is(err, report.ErrZReportNotFound):
		httpx.Problem(w, http.StatusNotFound, "Z-Report Not Found", "no z-report has been issued for this period")
	case errors.Is(err, report.ErrPeriodNotOpen), errors.Is(err, report.ErrPeriodNotClosed):
		httpx.Problem(w, http.StatusConflict, "Invalid Period State", err.Error())
	default:
		h.logger.Error("work period request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing User", "X-User-ID header is required")
		return "", false
	}
	return userID, true
}

func requireRegister(w http.ResponseWriter, r *http.Request) (string, bool) {
	registerID := r.URL.Query().Get("register_id")
	if registerID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing Register", "register_id query parameter is required")
		return "", false
	}
	return registerID, true
}
