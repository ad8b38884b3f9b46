// Package exports serializes the canonical trade table to and from a
// UTF-8 delimited byte stream with a header row, for download by the
// presentation layer.
package exports

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/edgekit/edgekit/internal/domain"
)

// tradeRow mirrors domain.Trade with textual representations. Empty cells
// stand for undefined pointer-valued metrics and zero times.
type tradeRow struct {
	Symbol          string `csv:"symbol"`
	Side            string `csv:"side"`
	Quantity        string `csv:"quantity"`
	Price           string `csv:"price"`
	EntryTime       string `csv:"entry_time"`
	ExitTime        string `csv:"exit_time"`
	RealizedPnL     string `csv:"realized_pnl"`
	DayOfWeek       string `csv:"day_of_week"`
	HourOfDay       int    `csv:"hour_of_day"`
	HourLabel       string `csv:"hour_label"`
	DurationMinutes string `csv:"duration_minutes"`
	IsWin           bool   `csv:"is_win"`
	IsLoss          bool   `csv:"is_loss"`
	CumulativePnL   string `csv:"cumulative_pnl"`
	Drawdown        string `csv:"drawdown"`
	RiskReward      string `csv:"risk_reward"`
}

// MarshalTrades serializes an enriched trade table, header row included,
// one row per trade.
func MarshalTrades(trades []domain.Trade) ([]byte, error) {
	rows := make([]tradeRow, 0, len(trades))
	for i := range trades {
		rows = append(rows, toRow(&trades[i]))
	}
	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize trade table: %w", err)
	}
	return data, nil
}

// UnmarshalTrades parses a canonical CSV back into trades. Together with
// MarshalTrades this round-trips every numeric value exactly; decimals are
// serialized in full precision.
func UnmarshalTrades(data []byte) ([]domain.Trade, error) {
	var rows []tradeRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse trade table: %w", err)
	}

	trades := make([]domain.Trade, 0, len(rows))
	for i := range rows {
		t, err := fromRow(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func toRow(t *domain.Trade) tradeRow {
	return tradeRow{
		Symbol:          t.Symbol,
		Side:            string(t.Side),
		Quantity:        t.Quantity.String(),
		Price:           t.Price.String(),
		EntryTime:       formatTime(t.EntryTime),
		ExitTime:        formatTime(t.ExitTime),
		RealizedPnL:     t.RealizedPnL.String(),
		DayOfWeek:       t.DayOfWeek,
		HourOfDay:       t.HourOfDay,
		HourLabel:       t.HourLabel,
		DurationMinutes: formatFloat(t.DurationMinutes),
		IsWin:           t.IsWin,
		IsLoss:          t.IsLoss,
		CumulativePnL:   t.CumulativePnL.String(),
		Drawdown:        t.Drawdown.String(),
		RiskReward:      formatFloat(t.RiskReward),
	}
}

func fromRow(r *tradeRow) (domain.Trade, error) {
	var t domain.Trade
	var err error

	t.Symbol = r.Symbol
	t.Side = domain.Side(r.Side)
	if t.Quantity, err = decimal.NewFromString(r.Quantity); err != nil {
		return t, fmt.Errorf("quantity: %w", err)
	}
	if t.Price, err = decimal.NewFromString(r.Price); err != nil {
		return t, fmt.Errorf("price: %w", err)
	}
	if t.EntryTime, err = parseTime(r.EntryTime); err != nil {
		return t, fmt.Errorf("entry_time: %w", err)
	}
	if t.ExitTime, err = parseTime(r.ExitTime); err != nil {
		return t, fmt.Errorf("exit_time: %w", err)
	}
	if t.RealizedPnL, err = decimal.NewFromString(r.RealizedPnL); err != nil {
		return t, fmt.Errorf("realized_pnl: %w", err)
	}
	t.DayOfWeek = r.DayOfWeek
	t.HourOfDay = r.HourOfDay
	t.HourLabel = r.HourLabel
	if t.DurationMinutes, err = parseFloat(r.DurationMinutes); err != nil {
		return t, fmt.Errorf("duration_minutes: %w", err)
	}
	t.IsWin = r.IsWin
	t.IsLoss = r.IsLoss
	if t.CumulativePnL, err = decimal.NewFromString(r.CumulativePnL); err != nil {
		return t, fmt.Errorf("cumulative_pnl: %w", err)
	}
	if t.Drawdown, err = decimal.NewFromString(r.Drawdown); err != nil {
		return t, fmt.Errorf("drawdown: %w", err)
	}
	if t.RiskReward, err = parseFloat(r.RiskReward); err != nil {
		return t, fmt.Errorf("risk_reward: %w", err)
	}

	return t, nil
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
