package ledger

import "time"

// Accumulate folds the events falling inside [from, to) into an Aggregate.
// The interval is half-open: an event stamped exactly at `to` belongs to the
// next window, so adjacent period windows never double-count. Events outside
// the window, including events for other registers that leaked into the
// input, are ignored rather than rejected.
func Accumulate(events []Event, from, to time.Time) Aggregate {
	var agg Aggregate
	for _, ev := range events {
		if ev.OccurredAt.Before(from) || !ev.OccurredAt.Before(to) {
			continue
		}
		agg = apply(agg, ev)
	}
	return agg
}

func apply(agg Aggregate, ev Event) Aggregate {
	switch ev.Kind {
	case KindSale:
		agg.GrossSales = agg.GrossSales.Add(ev.Amount)
		if ev.Tender == TenderCash {
			agg.CashSales = agg.CashSales.Add(ev.Amount)
		} else {
			agg.NonCashSales = agg.NonCashSales.Add(ev.Amount)
		}
	case KindVoid:
		agg.VoidCount++
		agg.VoidTotal = agg.VoidTotal.Add(ev.Amount)
		if ev.Tender == TenderCash {
			agg.CashVoids = agg.CashVoids.Add(ev.Amount)
		}
	case KindDiscount:
		// Sale amounts are recorded net of discount; discounts are
		// tracked here for reporting only.
		agg.DiscountCount++
		agg.DiscountTotal = agg.DiscountTotal.Add(ev.Amount)
	case KindPayout:
		agg.PayoutTotal = agg.PayoutTotal.Add(ev.Amount)
	case KindRefund:
		agg.RefundTotal = agg.RefundTotal.Add(ev.Amount)
		if ev.Tender == TenderCash {
			agg.CashRefunds = agg.CashRefunds.Add(ev.Amount)
		}
	default:
		// Producers validate kinds before recording; an unknown kind
		// here is a stale binary reading newer data. Skip it.
		return agg
	}
	agg.EventCount++
	return agg
}
