package resultcache

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/edgekit/edgekit/internal/domain"
	"github.com/edgekit/edgekit/internal/modules/imports"
)

// record mirrors imports.ImportResult for msgpack encoding. Decimals are
// stored as strings so no precision is lost in the cache.
type record struct {
	ID          string        `msgpack:"id"`
	Broker      string        `msgpack:"broker"`
	CreatedAt   time.Time     `msgpack:"created_at"`
	RowsTotal   int           `msgpack:"rows_total"`
	RowsParsed  int           `msgpack:"rows_parsed"`
	RowsDropped int           `msgpack:"rows_dropped"`
	Trades      []tradeRecord `msgpack:"trades"`
}

type tradeRecord struct {
	Symbol          string    `msgpack:"symbol"`
	Side            string    `msgpack:"side"`
	Quantity        string    `msgpack:"quantity"`
	Price           string    `msgpack:"price"`
	EntryTime       time.Time `msgpack:"entry_time"`
	ExitTime        time.Time `msgpack:"exit_time"`
	RealizedPnL     string    `msgpack:"realized_pnl"`
	DayOfWeek       string    `msgpack:"day_of_week"`
	HourOfDay       int       `msgpack:"hour_of_day"`
	HourLabel       string    `msgpack:"hour_label"`
	DurationMinutes *float64  `msgpack:"duration_minutes"`
	IsWin           bool      `msgpack:"is_win"`
	IsLoss          bool      `msgpack:"is_loss"`
	CumulativePnL   string    `msgpack:"cumulative_pnl"`
	Drawdown        string    `msgpack:"drawdown"`
	RiskReward      *float64  `msgpack:"risk_reward"`
}

func toRecord(res *imports.ImportResult) *record {
	rec := &record{
		ID:          res.ID,
		Broker:      string(res.Broker),
		CreatedAt:   res.CreatedAt,
		RowsTotal:   res.RowsTotal,
		RowsParsed:  res.RowsParsed,
		RowsDropped: res.RowsDropped,
		Trades:      make([]tradeRecord, 0, len(res.Trades)),
	}
	for i := range res.Trades {
		t := &res.Trades[i]
		rec.Trades = append(rec.Trades, tradeRecord{
			Symbol:          t.Symbol,
			Side:            string(t.Side),
			Quantity:        t.Quantity.String(),
			Price:           t.Price.String(),
			EntryTime:       t.EntryTime,
			ExitTime:        t.ExitTime,
			RealizedPnL:     t.RealizedPnL.String(),
			DayOfWeek:       t.DayOfWeek,
			HourOfDay:       t.HourOfDay,
			HourLabel:       t.HourLabel,
			DurationMinutes: copyFloat(t.DurationMinutes),
			IsWin:           t.IsWin,
			IsLoss:          t.IsLoss,
			CumulativePnL:   t.CumulativePnL.String(),
			Drawdown:        t.Drawdown.String(),
			RiskReward:      copyFloat(t.RiskReward),
		})
	}
	return rec
}

func fromRecord(rec *record) (*imports.ImportResult, error) {
	res := &imports.ImportResult{
		ID:          rec.ID,
		Broker:      domain.Broker(rec.Broker),
		CreatedAt:   rec.CreatedAt,
		RowsTotal:   rec.RowsTotal,
		RowsParsed:  rec.RowsParsed,
		RowsDropped: rec.RowsDropped,
		Trades:      make([]domain.Trade, 0, len(rec.Trades)),
	}
	for i := range rec.Trades {
		r := &rec.Trades[i]
		t := domain.Trade{
			Symbol:          r.Symbol,
			Side:            domain.Side(r.Side),
			EntryTime:       r.EntryTime,
			ExitTime:        r.ExitTime,
			DayOfWeek:       r.DayOfWeek,
			HourOfDay:       r.HourOfDay,
			HourLabel:       r.HourLabel,
			DurationMinutes: copyFloat(r.DurationMinutes),
			IsWin:           r.IsWin,
			IsLoss:          r.IsLoss,
			RiskReward:      copyFloat(r.RiskReward),
		}
		var err error
		if t.Quantity, err = decimal.NewFromString(r.Quantity); err != nil {
			return nil, fmt.Errorf("trade %d quantity: %w", i, err)
		}
		if t.Price, err = decimal.NewFromString(r.Price); err != nil {
			return nil, fmt.Errorf("trade %d price: %w", i, err)
		}
		if t.RealizedPnL, err = decimal.NewFromString(r.RealizedPnL); err != nil {
			return nil, fmt.Errorf("trade %d realized_pnl: %w", i, err)
		}
		if t.CumulativePnL, err = decimal.NewFromString(r.CumulativePnL); err != nil {
			return nil, fmt.Errorf("trade %d cumulative_pnl: %w", i, err)
		}
		if t.Drawdown, err = decimal.NewFromString(r.Drawdown); err != nil {
			return nil, fmt.Errorf("trade %d drawdown: %w", i, err)
		}
		res.Trades = append(res.Trades, t)
	}
	return res, nil
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
