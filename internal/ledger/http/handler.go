package ledgerhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/opentill/opentill/internal/ledger"
	"github.com/opentill/opentill/internal/platform/httpx"
)

type eventStore interface {
	Record(ctx context.Context, in ledger.RecordInput) (ledger.Event, error)
	ListRange(ctx context.Context, registerID string, from, to time.Time) ([]ledger.Event, error)
}

// Handler exposes the ledger event intake used by the order/payment
// subsystem, plus a range query for diagnostics.
type Handler struct {
	logger   *slog.Logger
	store    eventStore
	validate *validator.Validate
}

// NewHandler constructs a handler.
func NewHandler(logger *slog.Logger, store eventStore) *Handler {
	return &Handler{logger: logger, store: store, validate: validator.New()}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/events", h.record)
		r.Get("/events", h.list)
	})
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	in := ledger.RecordInput{
		RegisterID: req.RegisterID,
		Kind:       ledger.EventKind(req.Kind),
		Tender:     ledger.Tender(req.Tender),
		Amount:     req.Amount,
		Settled:    req.Settled,
		OccurredAt: req.OccurredAt,
	}
	if req.Reference != nil {
		ref, err := uuid.Parse(*req.Reference)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "reference must be a UUID")
			return
		}
		in.Reference = &ref
	}
	ev, err := h.store.Record(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNegativeAmount),
			errors.Is(err, ledger.ErrUnknownKind),
			errors.Is(err, ledger.ErrUnknownTender):
			httpx.Problem(w, http.StatusBadRequest, "Invalid Event", err.Error())
		default:
			h.logger.Error("record ledger event", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, toEventResponse(ev))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	registerID := r.URL.Query().Get("register_id")
	if registerID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing Register", "register_id query parameter is required")
		return
	}
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "from must be an RFC3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "to must be an RFC3339 timestamp")
		return
	}
	events, err := h.store.ListRange(r.Context(), registerID, from, to)
	if err != nil {
		h.logger.Error("list ledger events", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	resp := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, toEventResponse(ev))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": resp, "count": len(resp)})
}
