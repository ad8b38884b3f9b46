// Package enrich derives analytics columns for a canonical trade table.
package enrich

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/edgekit/edgekit/internal/domain"
)

// hourLabelUnknown is used when a row has no usable timestamp.
const hourLabelUnknown = "Unknown"

// Enrich computes the derived columns of the canonical schema: calendar and
// time features, win/loss classification, cumulative P&L, running drawdown
// and risk-reward. Rows are stable-sorted by entry time ascending; ties keep
// their original order. The returned slice is the input, enriched in place.
//
// The risk-reward denominator is the average losing-trade magnitude over the
// FULL table passed here; downstream filtering never recomputes it.
func Enrich(trades []domain.Trade) []domain.Trade {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].EntryTime.Before(trades[j].EntryTime)
	})

	lossMean, hasLosses := meanLoss(trades)

	cumulative := decimal.Zero
	peak := decimal.Zero
	havePeak := false

	for i := range trades {
		t := &trades[i]

		enrichTimeFeatures(t)

		t.IsWin = t.RealizedPnL.IsPositive()
		t.IsLoss = t.RealizedPnL.IsNegative()

		cumulative = cumulative.Add(t.RealizedPnL)
		t.CumulativePnL = cumulative

		if !havePeak || cumulative.GreaterThan(peak) {
			peak = cumulative
			havePeak = true
		}
		t.Drawdown = cumulative.Sub(peak)

		if t.IsWin && hasLosses {
			pnl, _ := t.RealizedPnL.Float64()
			rr := pnl / lossMean
			t.RiskReward = &rr
		} else {
			// Undefined for losses, break-even trades, and tables with no
			// losing rows. Never zero.
			t.RiskReward = nil
		}
	}

	return trades
}

// enrichTimeFeatures fills DayOfWeek, HourOfDay, HourLabel and
// DurationMinutes. A missing entry or exit time nulls the duration for that
// row only.
func enrichTimeFeatures(t *domain.Trade) {
	if t.EntryTime.IsZero() {
		t.DayOfWeek = ""
		t.HourOfDay = 0
		t.HourLabel = hourLabelUnknown
		t.DurationMinutes = nil
		return
	}

	t.DayOfWeek = t.EntryTime.Weekday().String()
	t.HourOfDay = t.EntryTime.Hour()
	t.HourLabel = t.EntryTime.Format("3 PM")

	if t.ExitTime.IsZero() {
		t.DurationMinutes = nil
		return
	}
	minutes := t.ExitTime.Sub(t.EntryTime).Minutes()
	t.DurationMinutes = &minutes
}

// meanLoss returns the average magnitude of losing trades' P&L. The second
// return is false when the table has no losing rows (the mean of an empty
// set is undefined, not zero).
func meanLoss(trades []domain.Trade) (float64, bool) {
	var losses []float64
	for i := range trades {
		if trades[i].RealizedPnL.IsNegative() {
			pnl, _ := trades[i].RealizedPnL.Float64()
			losses = append(losses, math.Abs(pnl))
		}
	}
	if len(losses) == 0 {
		return 0, false
	}
	return stat.Mean(losses, nil), true
}
