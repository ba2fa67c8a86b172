package workperiodhttp

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/opentill/opentill/internal/ledger"
	"github.com/opentill/opentill/internal/reconcile"
	"github.com/opentill/opentill/internal/report"
	"github.com/opentill/opentill/internal/workperiod"
)

type openRequest struct {
	RegisterID   string          `json:"register_id" validate:"required"`
	OpeningFloat decimal.Decimal `json:"opening_float" validate:"required"`
	Notes        string          `json:"notes"`
}

type closeRequest struct {
	RegisterID  string          `json:"register_id" validate:"required"`
	CountedCash decimal.Decimal `json:"counted_cash" validate:"required"`
	Notes       string          `json:"notes"`
}

type periodResponse struct {
	ID           string           `json:"id"`
	RegisterID   string           `json:"register_id"`
	Status       string           `json:"status"`
	OpenedAt     time.Time        `json:"opened_at"`
	OpenedBy     string           `json:"opened_by"`
	OpeningFloat decimal.Decimal  `json:"opening_float"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
	ClosedBy     *string          `json:"closed_by,omitempty"`
	ClosingCash  *decimal.Decimal `json:"closing_cash,omitempty"`
	ExpectedCash *decimal.Decimal `json:"expected_cash,omitempty"`
	Variance     *decimal.Decimal `json:"variance,omitempty"`
	Notes        string           `json:"notes,omitempty"`
}

func toPeriodResponse(p workperiod.Period) periodResponse {
	return periodResponse{
		ID:           p.ID.String(),
		RegisterID:   p.RegisterID,
		Status:       string(p.Status),
		OpenedAt:     p.OpenedAt,
		OpenedBy:     p.OpenedBy,
		OpeningFloat: p.OpeningFloat,
		ClosedAt:     p.ClosedAt,
		ClosedBy:     p.ClosedBy,
		ClosingCash:  p.ClosingCash,
		ExpectedCash: p.ExpectedCash,
		Variance:     p.Variance,
		Notes:        p.Notes,
	}
}

type closeResponse struct {
	Period         periodResponse            `json:"period"`
	Reconciliation reconcile.Reconciliation  `json:"reconciliation"`
	Classification reconcile.Classification  `json:"classification"`
	ZReport        *report.ZReport           `json:"z_report,omitempty"`
	ReportPending  bool                      `json:"report_pending"`
}

type unsettledEvent struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Tender     string          `json:"tender"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

type unsettledResponse struct {
	Unsettled []unsettledEvent `json:"unsettled"`
	Count     int              `json:"count"`
}

func toUnsettledResponse(events []ledger.Event) unsettledResponse {
	resp := unsettledResponse{Unsettled: make([]unsettledEvent, 0, len(events)), Count: len(events)}
	for _, ev := range events {
		resp.Unsettled = append(resp.Unsettled, unsettledEvent{
			ID:         ev.ID.String(),
			Kind:       string(ev.Kind),
			Tender:     string(ev.Tender),
			Amount:     ev.Amount,
			OccurredAt: ev.OccurredAt,
		})
	}
	return resp
}

type expectedCashResponse struct {
	RegisterID   string          `json:"register_id"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
}

type suggestedFloatResponse struct {
	RegisterID     string          `json:"register_id"`
	SuggestedFloat decimal.Decimal `json:"suggested_float"`
}
