// Package reconcile computes expected cash and close variance. It is pure
// computation: policy (what variance is acceptable, who must approve) stays
// with callers.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/opentill/opentill/internal/ledger"
)

// Reconciliation is the result of comparing counted cash against what the
// ledger says should be in the drawer.
type Reconciliation struct {
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	CountedCash  decimal.Decimal `json:"counted_cash"`
	// Variance is counted minus expected: positive means cash over,
	// negative means cash short.
	Variance decimal.Decimal `json:"variance"`
}

// ExpectedCash computes the drawer expectation for a period: opening float
// plus net cash sales less cash payouts. Card and mobile sales never enter
// the drawer and are excluded through the aggregate's net cash figure.
func ExpectedCash(openingFloat decimal.Decimal, agg ledger.Aggregate) decimal.Decimal {
	return openingFloat.Add(agg.NetCashSales()).Sub(agg.PayoutTotal)
}

// Reconcile compares counted cash against the expectation. Pure function of
// its inputs; identical inputs always yield identical output.
func Reconcile(openingFloat decimal.Decimal, agg ledger.Aggregate, countedCash decimal.Decimal) Reconciliation {
	expected := ExpectedCash(openingFloat, agg)
	return Reconciliation{
		ExpectedCash: expected,
		CountedCash:  countedCash,
		Variance:     countedCash.Sub(expected),
	}
}

// Outcome labels the direction of a variance.
type Outcome string

const (
	OutcomeBalanced Outcome = "BALANCED"
	OutcomeOver     Outcome = "OVER"
	OutcomeShort    Outcome = "SHORT"
)

// Classification applies a caller-supplied tolerance band to a reconciliation.
type Classification struct {
	Outcome Outcome `json:"outcome"`
	// WithinTolerance reports whether |variance| <= tolerance. Callers use
	// this to decide whether a close needs manager escalation.
	WithinTolerance bool `json:"within_tolerance"`
}

// Classify labels a reconciliation against a tolerance band. A negative
// tolerance is treated as zero.
func Classify(rec Reconciliation, tolerance decimal.Decimal) Classification {
	if tolerance.IsNegative() {
		tolerance = decimal.Zero
	}
	c := Classification{
		WithinTolerance: rec.Variance.Abs().LessThanOrEqual(tolerance),
	}
	switch {
	case rec.Variance.IsZero():
		c.Outcome = OutcomeBalanced
	case rec.Variance.IsPositive():
		c.Outcome = OutcomeOver
	default:
		c.Outcome = OutcomeShort
	}
	return c
}
