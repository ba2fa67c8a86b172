package report

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opentill/opentill/internal/ledger"
)

// PeriodInfo is the slice of a work period a report needs. Reports render
// from this view rather than holding a reference into the period store.
type PeriodInfo struct {
	ID           uuid.UUID
	RegisterID   string
	Open         bool
	OpenedAt     time.Time
	OpeningFloat decimal.Decimal
	ClosedAt     *time.Time
	ClosingCash  *decimal.Decimal
	ExpectedCash *decimal.Decimal
	Variance     *decimal.Decimal
}

// Totals is the report-facing rendering of a ledger aggregate.
type Totals struct {
	GrossSales    decimal.Decimal `json:"gross_sales"`
	CashSales     decimal.Decimal `json:"cash_sales"`
	NonCashSales  decimal.Decimal `json:"non_cash_sales"`
	NetCashSales  decimal.Decimal `json:"net_cash_sales"`
	NetSales      decimal.Decimal `json:"net_sales"`
	VoidCount     int             `json:"void_count"`
	VoidTotal     decimal.Decimal `json:"void_total"`
	DiscountCount int             `json:"discount_count"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	PayoutTotal   decimal.Decimal `json:"payout_total"`
	RefundTotal   decimal.Decimal `json:"refund_total"`
	EventCount    int             `json:"event_count"`
}

// TotalsFrom converts a ledger aggregate into report totals.
func TotalsFrom(agg ledger.Aggregate) Totals {
	return Totals{
		GrossSales:    agg.GrossSales,
		CashSales:     agg.CashSales,
		NonCashSales:  agg.NonCashSales,
		NetCashSales:  agg.NetCashSales(),
		NetSales:      agg.NetSales(),
		VoidCount:     agg.VoidCount,
		VoidTotal:     agg.VoidTotal,
		DiscountCount: agg.DiscountCount,
		DiscountTotal: agg.DiscountTotal,
		PayoutTotal:   agg.PayoutTotal,
		RefundTotal:   agg.RefundTotal,
		EventCount:    agg.EventCount,
	}
}

// XReport is a non-terminal snapshot of a currently open period. X-reports
// are unnumbered and may be produced any number of times; two generated back
// to back differ only in GeneratedAt.
type XReport struct {
	PeriodID     uuid.UUID       `json:"period_id"`
	RegisterID   string          `json:"register_id"`
	OpenedAt     time.Time       `json:"opened_at"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
	Totals       Totals          `json:"totals"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	GeneratedBy  string          `json:"generated_by"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// ZReport is the terminal, numbered record of a closed period. Exactly one
// exists per closed period; sequence numbers increase monotonically per
// register.
type ZReport struct {
	ID           uuid.UUID       `json:"id"`
	PeriodID     uuid.UUID       `json:"period_id"`
	RegisterID   string          `json:"register_id"`
	Sequence     int64           `json:"sequence"`
	OpenedAt     time.Time       `json:"opened_at"`
	ClosedAt     time.Time       `json:"closed_at"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
	ClosingCash  decimal.Decimal `json:"closing_cash"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	Variance     decimal.Decimal `json:"variance"`
	Totals       Totals          `json:"totals"`
	GeneratedBy  string          `json:"generated_by"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

var (
	// ErrPeriodNotOpen rejects an X-report for a period that is not open.
	ErrPeriodNotOpen = errors.New("report: x-report requires an open work period")
	// ErrPeriodNotClosed rejects a Z-report for a period that has not
	// finished reconciliation.
	ErrPeriodNotClosed = errors.New("report: z-report requires a closed work period")
	// ErrZReportExists indicates a Z-report was already issued for the period.
	ErrZReportExists = errors.New("report: z-report already issued for this period")
	// ErrZReportNotFound indicates no Z-report exists for the period.
	ErrZReportNotFound = errors.New("report: z-report not found")
)
