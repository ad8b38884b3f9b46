// Package reports aggregates a canonical trade table into the summary views
// the presentation layer renders: per-symbol totals, day-of-week and
// hour-of-day breakdowns, and overall performance statistics.
package reports

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/edgekit/edgekit/internal/domain"
)

// SymbolSummary aggregates trades for one symbol.
type SymbolSummary struct {
	Symbol   string          `json:"symbol"`
	Trades   int             `json:"trades"`
	TotalPnL decimal.Decimal `json:"total_pnl"`
}

// BucketSummary aggregates trades for one calendar bucket (a weekday or an
// hour label).
type BucketSummary struct {
	Label    string          `json:"label"`
	Trades   int             `json:"trades"`
	TotalPnL decimal.Decimal `json:"total_pnl"`
	WinRate  float64         `json:"win_rate"`
}

// Overview holds whole-table performance statistics. AverageWin and
// AverageLoss are nil when the table has no wins or no losses respectively;
// ProfitFactor is nil when there are no losses to divide by.
type Overview struct {
	TotalTrades  int             `json:"total_trades"`
	TotalPnL     decimal.Decimal `json:"total_pnl"`
	WinRate      float64         `json:"win_rate"`
	AverageWin   *float64        `json:"average_win"`
	AverageLoss  *float64        `json:"average_loss"`
	MaxDrawdown  decimal.Decimal `json:"max_drawdown"`
	ProfitFactor *float64        `json:"profit_factor"`
}

// Summary is the full aggregation bundle for one import.
type Summary struct {
	Overview Overview        `json:"overview"`
	BySymbol []SymbolSummary `json:"by_symbol"`
	ByDay    []BucketSummary `json:"by_day"`
	ByHour   []BucketSummary `json:"by_hour"`
}

// weekdayOrder fixes the day-of-week breakdown ordering.
var weekdayOrder = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Build computes all summary views over an enriched trade table.
func Build(trades []domain.Trade) *Summary {
	return &Summary{
		Overview: buildOverview(trades),
		BySymbol: buildBySymbol(trades),
		ByDay:    buildBuckets(trades, func(t *domain.Trade) string { return t.DayOfWeek }, weekdayOrder),
		ByHour:   buildBuckets(trades, func(t *domain.Trade) string { return t.HourLabel }, nil),
	}
}

func buildOverview(trades []domain.Trade) Overview {
	o := Overview{TotalTrades: len(trades), TotalPnL: decimal.Zero, MaxDrawdown: decimal.Zero}

	var wins, losses []float64
	grossWin, grossLoss := decimal.Zero, decimal.Zero

	for i := range trades {
		t := &trades[i]
		o.TotalPnL = o.TotalPnL.Add(t.RealizedPnL)
		if t.Drawdown.LessThan(o.MaxDrawdown) {
			o.MaxDrawdown = t.Drawdown
		}

		pnl, _ := t.RealizedPnL.Float64()
		switch {
		case t.IsWin:
			wins = append(wins, pnl)
			grossWin = grossWin.Add(t.RealizedPnL)
		case t.IsLoss:
			losses = append(losses, math.Abs(pnl))
			grossLoss = grossLoss.Add(t.RealizedPnL.Abs())
		}
	}

	if len(trades) > 0 {
		o.WinRate = float64(len(wins)) / float64(len(trades))
	}
	if len(wins) > 0 {
		avg := stat.Mean(wins, nil)
		o.AverageWin = &avg
	}
	if len(losses) > 0 {
		avg := stat.Mean(losses, nil)
		o.AverageLoss = &avg
	}
	if grossLoss.IsPositive() {
		pf, _ := grossWin.Div(grossLoss).Float64()
		o.ProfitFactor = &pf
	}

	return o
}

func buildBySymbol(trades []domain.Trade) []SymbolSummary {
	bySymbol := make(map[string]*SymbolSummary)
	for i := range trades {
		t := &trades[i]
		s, ok := bySymbol[t.Symbol]
		if !ok {
			s = &SymbolSummary{Symbol: t.Symbol, TotalPnL: decimal.Zero}
			bySymbol[t.Symbol] = s
		}
		s.Trades++
		s.TotalPnL = s.TotalPnL.Add(t.RealizedPnL)
	}

	out := make([]SymbolSummary, 0, len(bySymbol))
	for _, s := range bySymbol {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// buildBuckets groups trades by a label. When order is given, buckets follow
// it and labels outside it are appended alphabetically; otherwise buckets
// sort by label.
func buildBuckets(trades []domain.Trade, label func(*domain.Trade) string, order []string) []BucketSummary {
	type counts struct {
		trades int
		wins   int
		pnl    decimal.Decimal
	}
	byLabel := make(map[string]*counts)

	for i := range trades {
		t := &trades[i]
		l := label(t)
		if l == "" {
			continue
		}
		c, ok := byLabel[l]
		if !ok {
			c = &counts{pnl: decimal.Zero}
			byLabel[l] = c
		}
		c.trades++
		c.pnl = c.pnl.Add(t.RealizedPnL)
		if t.IsWin {
			c.wins++
		}
	}

	labels := make([]string, 0, len(byLabel))
	seen := make(map[string]bool, len(order))
	for _, l := range order {
		if byLabel[l] != nil {
			labels = append(labels, l)
			seen[l] = true
		}
	}
	var rest []string
	for l := range byLabel {
		if !seen[l] {
			rest = append(rest, l)
		}
	}
	sort.Strings(rest)
	labels = append(labels, rest...)

	out := make([]BucketSummary, 0, len(labels))
	for _, l := range labels {
		c := byLabel[l]
		out = append(out, BucketSummary{
			Label:    l,
			Trades:   c.trades,
			TotalPnL: c.pnl,
			WinRate:  float64(c.wins) / float64(c.trades),
		})
	}
	return out
}
