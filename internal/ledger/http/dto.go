package ledgerhttp

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/opentill/opentill/internal/ledger"
)

type recordRequest struct {
	RegisterID string          `json:"register_id" validate:"required"`
	Kind       string          `json:"kind" validate:"required,oneof=SALE VOID DISCOUNT PAYOUT REFUND"`
	Tender     string          `json:"tender" validate:"required,oneof=CASH CARD MOBILE"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Reference  *string         `json:"reference,omitempty"`
	Settled    bool            `json:"settled"`
	OccurredAt time.Time       `json:"occurred_at" validate:"required"`
}

type eventResponse struct {
	ID         string          `json:"id"`
	RegisterID string          `json:"register_id"`
	Kind       string          `json:"kind"`
	Tender     string          `json:"tender"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  *string         `json:"reference,omitempty"`
	Settled    bool            `json:"settled"`
	OccurredAt time.Time       `json:"occurred_at"`
	RecordedAt time.Time       `json:"recorded_at"`
}

func toEventResponse(ev ledger.Event) eventResponse {
	resp := eventResponse{
		ID:         ev.ID.String(),
		RegisterID: ev.RegisterID,
		Kind:       string(ev.Kind),
		Tender:     string(ev.Tender),
		Amount:     ev.Amount,
		Settled:    ev.Settled,
		OccurredAt: ev.OccurredAt,
		RecordedAt: ev.RecordedAt,
	}
	if ev.Reference != nil {
		ref := ev.Reference.String()
		resp.Reference = &ref
	}
	return resp
}
