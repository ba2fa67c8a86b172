package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opentill/opentill/internal/ledger"
	"github.com/opentill/opentill/internal/reconcile"
)

// BuildX produces an X-report snapshot for an open period. Pure; callable any
// number of times while the period stays open.
func BuildX(period PeriodInfo, agg ledger.Aggregate, generatedBy string, now time.Time) (XReport, error) {
	if !period.Open {
		return XReport{}, ErrPeriodNotOpen
	}
	return XReport{
		PeriodID:     period.ID,
		RegisterID:   period.RegisterID,
		OpenedAt:     period.OpenedAt,
		OpeningFloat: period.OpeningFloat,
		Totals:       TotalsFrom(agg),
		ExpectedCash: reconcile.ExpectedCash(period.OpeningFloat, agg),
		GeneratedBy:  generatedBy,
		GeneratedAt:  now,
	}, nil
}

// BuildZ produces the terminal report body for a closed period. The sequence
// number is zero here; the repository assigns it when the report is issued.
func BuildZ(period PeriodInfo, agg ledger.Aggregate, generatedBy string, now time.Time) (ZReport, error) {
	if period.Open || period.ClosedAt == nil {
		return ZReport{}, ErrPeriodNotClosed
	}
	z := ZReport{
		ID:           uuid.New(),
		PeriodID:     period.ID,
		RegisterID:   period.RegisterID,
		OpenedAt:     period.OpenedAt,
		ClosedAt:     *period.ClosedAt,
		OpeningFloat: period.OpeningFloat,
		Totals:       TotalsFrom(agg),
		GeneratedBy:  generatedBy,
		GeneratedAt:  now,
	}
	z.ClosingCash = deref(period.ClosingCash)
	z.Variance = deref(period.Variance)
	if period.ExpectedCash != nil {
		z.ExpectedCash = *period.ExpectedCash
	} else {
		// Closed before expected cash was persisted; recompute from the
		// frozen aggregate, which covers the same window.
		z.ExpectedCash = reconcile.ExpectedCash(period.OpeningFloat, agg)
	}
	return z, nil
}

func deref(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
