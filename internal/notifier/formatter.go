package notifier

import (
	"fmt"
	"html"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"PortfolioRebalancer/internal/model"
	"PortfolioRebalancer/internal/rebalance"
	"PortfolioRebalancer/internal/recorder"
)

// FormatMoney renders an amount in the given currency, e.g. "$1,234.50".
// Unknown currency codes fall back to USD.
func FormatMoney(amount float64, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		cur = money.GetCurrency(money.USD)
	}
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// FormatPercent renders a fraction as a percentage without float noise.
func FormatPercent(fraction float64) string {
	return decimal.NewFromFloat(fraction).Shift(2).Round(2).String() + "%"
}

// FormatPlan renders a rebalance plan as a table.
func FormatPlan(plan *rebalance.Plan, currency string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Rebalance plan</b> | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Portfolio value: %s\n\n", FormatMoney(plan.TotalValue, currency)))

	writeRecords(&b, plan.Records, currency)

	net := plan.NetCash()
	switch {
	case net > 0:
		b.WriteString(fmt.Sprintf("\n💰 Cash needed: %s\n", FormatMoney(net, currency)))
	case net < 0:
		b.WriteString(fmt.Sprintf("\n💰 Cash freed: %s\n", FormatMoney(-net, currency)))
	default:
		b.WriteString("\n💰 Cash neutral\n")
	}
	return b.String()
}

// FormatRunRecords renders the stored records of one past run.
func FormatRunRecords(runID string, records []model.ComputedRecord, currency string) string {
	if len(records) == 0 {
		return fmt.Sprintf("📜 No records for run %s", html.EscapeString(runID))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📜 <b>Run</b> %s\n\n", html.EscapeString(runID)))
	writeRecords(&b, records, currency)
	return b.String()
}

// writeRecords writes the record table followed by one line per record error.
func writeRecords(b *strings.Builder, records []model.ComputedRecord, currency string) {
	b.WriteString("<pre>\n")
	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Ticker\tPrice\tValue\tTarget\tAction\tQty")
	for _, r := range records {
		price := "N/A"
		if r.HasPrice() {
			price = FormatMoney(r.Price(), currency)
		}
		qty := "-"
		if r.TradeQuantity > 0 {
			qty = fmt.Sprintf("%d", r.TradeQuantity)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s (%s)\t%s\t%s\n",
			html.EscapeString(r.Ticker), price,
			FormatMoney(r.CurrentValue, currency),
			FormatMoney(r.TargetValue, currency), FormatPercent(r.Allocation),
			actionLabel(r.Action), qty)
	}
	tw.Flush()
	b.WriteString("</pre>\n")

	first := true
	for _, r := range records {
		if !r.HasError() {
			continue
		}
		if first {
			b.WriteString("\n")
			first = false
		}
		b.WriteString(fmt.Sprintf("⚠️ %s: %s\n", html.EscapeString(r.Ticker), html.EscapeString(r.Error)))
	}
}

// FormatFailure renders an aborted computation.
func FormatFailure(err error) string {
	return fmt.Sprintf("❌ <b>Rebalance failed</b>\n\n%s", html.EscapeString(err.Error()))
}

// FormatTotal renders the portfolio value.
func FormatTotal(total float64, currency string) string {
	return fmt.Sprintf("💼 <b>Portfolio value</b>: %s", FormatMoney(total, currency))
}

// FormatAllocations renders the target allocation in order.
func FormatAllocations(a model.AllocationTarget) string {
	var b strings.Builder
	b.WriteString("🎯 <b>Target allocation</b>\n\n")
	for _, e := range a.Entries() {
		b.WriteString(fmt.Sprintf("%s: %s\n", html.EscapeString(e.Ticker), FormatPercent(e.Weight)))
	}
	b.WriteString(fmt.Sprintf("\nTotal: %s", FormatPercent(a.Sum())))
	return b.String()
}

// FormatHistory renders recent runs, newest first.
func FormatHistory(runs []recorder.RunSummary, currency string) string {
	if len(runs) == 0 {
		return "📜 No rebalance runs recorded yet"
	}
	var b strings.Builder
	b.WriteString("📜 <b>Recent runs</b>\n\n")
	for _, r := range runs {
		stamp := r.Timestamp.Format("2006-01-02 15:04")
		if r.Status == recorder.StatusFailed {
			b.WriteString(fmt.Sprintf("%s [%s] failed: %s\n", stamp, r.Trigger, html.EscapeString(r.Error)))
			continue
		}
		b.WriteString(fmt.Sprintf("%s [%s] %s | buy %d, sell %d, errors %d\n<code>%s</code>\n",
			stamp, r.Trigger, FormatMoney(r.TotalValue, currency), r.Buys, r.Sells, r.Failed, r.ID))
	}
	return b.String()
}

func actionLabel(a model.Action) string {
	if a == "" {
		return string(model.ActionNone)
	}
	return string(a)
}
