package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventKind classifies a ledger fact.
type EventKind string

const (
	KindSale     EventKind = "SALE"
	KindVoid     EventKind = "VOID"
	KindDiscount EventKind = "DISCOUNT"
	KindPayout   EventKind = "PAYOUT"
	KindRefund   EventKind = "REFUND"
)

// Tender identifies how money moved for an event.
type Tender string

const (
	TenderCash   Tender = "CASH"
	TenderCard   Tender = "CARD"
	TenderMobile Tender = "MOBILE"
)

// Event is an immutable fact affecting cash or sales totals. Events are
// appended by the order/payment subsystem and never updated or deleted;
// corrections arrive as new VOID or REFUND events.
type Event struct {
	ID         uuid.UUID
	RegisterID string
	Kind       EventKind
	Tender     Tender
	// Amount is the positive magnitude of the event. Sign semantics are
	// carried by Kind: a PAYOUT or REFUND of 500 removes 500.
	Amount     decimal.Decimal
	Reference  *uuid.UUID
	Settled    bool
	OccurredAt time.Time
	RecordedAt time.Time
}

// RecordInput captures a new event submission.
type RecordInput struct {
	RegisterID string
	Kind       EventKind
	Tender     Tender
	Amount     decimal.Decimal
	Reference  *uuid.UUID
	Settled    bool
	OccurredAt time.Time
}

// Validate ensures the event submission is coherent.
func (in RecordInput) Validate() error {
	if in.RegisterID == "" {
		return errors.New("ledger: register id required")
	}
	if !validKind(in.Kind) {
		return ErrUnknownKind
	}
	if !validTender(in.Tender) {
		return ErrUnknownTender
	}
	if in.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if in.OccurredAt.IsZero() {
		return errors.New("ledger: occurred_at required")
	}
	return nil
}

func validKind(k EventKind) bool {
	switch k {
	case KindSale, KindVoid, KindDiscount, KindPayout, KindRefund:
		return true
	default:
		return false
	}
}

func validTender(t Tender) bool {
	switch t {
	case TenderCash, TenderCard, TenderMobile:
		return true
	default:
		return false
	}
}

// Aggregate holds period-scoped sums derived from an event window. It is
// recomputed on demand and never persisted, so it cannot go stale. All
// fields are plain sums and counts, which keeps window aggregation additive:
// aggregating two adjacent windows and merging equals aggregating the union.
type Aggregate struct {
	GrossSales   decimal.Decimal
	CashSales    decimal.Decimal
	NonCashSales decimal.Decimal

	VoidCount int
	VoidTotal decimal.Decimal

	DiscountCount int
	DiscountTotal decimal.Decimal

	PayoutTotal decimal.Decimal

	RefundTotal decimal.Decimal
	CashRefunds decimal.Decimal

	CashVoids decimal.Decimal

	EventCount int
}

// NetCashSales is the cash expected in the drawer from trading: cash-tendered
// sales less cash voids and cash refunds. Card and mobile tenders never touch
// the drawer and are excluded.
func (a Aggregate) NetCashSales() decimal.Decimal {
	return a.CashSales.Sub(a.CashVoids).Sub(a.CashRefunds)
}

// NetSales is gross sales less voids and refunds across all tenders.
func (a Aggregate) NetSales() decimal.Decimal {
	return a.GrossSales.Sub(a.VoidTotal).Sub(a.RefundTotal)
}

// Merge combines two aggregates field-wise.
func (a Aggregate) Merge(b Aggregate) Aggregate {
	return Aggregate{
		GrossSales:    a.GrossSales.Add(b.GrossSales),
		CashSales:     a.CashSales.Add(b.CashSales),
		NonCashSales:  a.NonCashSales.Add(b.NonCashSales),
		VoidCount:     a.VoidCount + b.VoidCount,
		VoidTotal:     a.VoidTotal.Add(b.VoidTotal),
		DiscountCount: a.DiscountCount + b.DiscountCount,
		DiscountTotal: a.DiscountTotal.Add(b.DiscountTotal),
		PayoutTotal:   a.PayoutTotal.Add(b.PayoutTotal),
		RefundTotal:   a.RefundTotal.Add(b.RefundTotal),
		CashRefunds:   a.CashRefunds.Add(b.CashRefunds),
		CashVoids:     a.CashVoids.Add(b.CashVoids),
		EventCount:    a.EventCount + b.EventCount,
	}
}

var (
	// ErrUnknownKind is returned for an unrecognised event kind.
	ErrUnknownKind = errors.New("ledger: unknown event kind")
	// ErrUnknownTender is returned for an unrecognised tender.
	ErrUnknownTender = errors.New("ledger: unknown tender")
	// ErrNegativeAmount is returned when an event carries a negative magnitude.
	ErrNegativeAmount = errors.New("ledger: amount must not be negative")
)
