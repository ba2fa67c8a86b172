package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const lineWidth = 40

var printer = message.NewPrinter(language.English)

// amount renders a decimal with grouped thousands and two fixed places,
// e.g. 16,800.00. Display only; arithmetic stays on decimal.
func amount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("%.2f", f)
}

func line(label, value string) string {
	pad := lineWidth - len(label) - len(value)
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + value + "\n"
}

func totalsBlock(b *strings.Builder, t Totals) {
	b.WriteString(line("Gross sales", amount(t.GrossSales)))
	b.WriteString(line("  Cash", amount(t.CashSales)))
	b.WriteString(line("  Card/Mobile", amount(t.NonCashSales)))
	b.WriteString(line(fmt.Sprintf("Voids (%d)", t.VoidCount), amount(t.VoidTotal)))
	b.WriteString(line(fmt.Sprintf("Discounts (%d)", t.DiscountCount), amount(t.DiscountTotal)))
	b.WriteString(line("Refunds", amount(t.RefundTotal)))
	b.WriteString(line("Payouts", amount(t.PayoutTotal)))
	b.WriteString(line("Net sales", amount(t.NetSales)))
	b.WriteString(line("Net cash sales", amount(t.NetCashSales)))
}

// RenderX renders an X-report as fixed-width text for the printing layer.
func RenderX(x XReport) string {
	var b strings.Builder
	b.WriteString(center("X-REPORT") + "\n")
	b.WriteString(line("Register", x.RegisterID))
	b.WriteString(line("Opened", x.OpenedAt.UTC().Format(time.RFC3339)))
	b.WriteString(line("Opening float", amount(x.OpeningFloat)))
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
	totalsBlock(&b, x.Totals)
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
	b.WriteString(line("Expected cash", amount(x.ExpectedCash)))
	b.WriteString(line("Generated by", x.GeneratedBy))
	b.WriteString(line("Generated at", x.GeneratedAt.UTC().Format(time.RFC3339)))
	return b.String()
}

// RenderZ renders a Z-report as fixed-width text for the printing layer.
func RenderZ(z ZReport) string {
	var b strings.Builder
	b.WriteString(center(fmt.Sprintf("Z-REPORT #%d", z.Sequence)) + "\n")
	b.WriteString(line("Register", z.RegisterID))
	b.WriteString(line("Opened", z.OpenedAt.UTC().Format(time.RFC3339)))
	b.WriteString(line("Closed", z.ClosedAt.UTC().Format(time.RFC3339)))
	b.WriteString(line("Opening float", amount(z.OpeningFloat)))
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
	totalsBlock(&b, z.Totals)
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
	b.WriteString(line("Expected cash", amount(z.ExpectedCash)))
	b.WriteString(line("Counted cash", amount(z.ClosingCash)))
	b.WriteString(line("Variance", amount(z.Variance)))
	b.WriteString(line("Generated by", z.GeneratedBy))
	b.WriteString(line("Generated at", z.GeneratedAt.UTC().Format(time.RFC3339)))
	return b.String()
}

func center(s string) string {
	if len(s) >= lineWidth {
		return s
	}
	pad := (lineWidth - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
