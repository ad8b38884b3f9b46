package enrich

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgekit/edgekit/internal/domain"
)

func trade(symbol string, pnl string, at time.Time) domain.Trade {
	return domain.Trade{
		Symbol:      symbol,
		Side:        domain.SideSell,
		Quantity:    decimal.NewFromInt(1),
		Price:       decimal.NewFromInt(100),
		EntryTime:   at,
		ExitTime:    at,
		RealizedPnL: decimal.RequireFromString(pnl),
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 14, hour, minute, 0, 0, time.UTC) // a Thursday
}

func TestEnrich_CumulativePnLAndDrawdown(t *testing.T) {
	trades := Enrich([]domain.Trade{
		trade("A", "50", at(9, 30)),
		trade("A", "-20", at(10, 0)),
		trade("A", "-40", at(10, 30)),
		trade("A", "30", at(11, 0)),
	})

	// Running sum: 50, 30, -10, 20
	wantCum := []int64{50, 30, -10, 20}
	wantDD := []int64{0, -20, -60, -30}
	for i := range trades {
		assert.True(t, trades[i].CumulativePnL.Equal(decimal.NewFromInt(wantCum[i])),
			"cumulative[%d] = %s", i, trades[i].CumulativePnL)
		assert.True(t, trades[i].Drawdown.Equal(decimal.NewFromInt(wantDD[i])),
			"drawdown[%d] = %s", i, trades[i].Drawdown)
		assert.False(t, trades[i].Drawdown.IsPositive(), "drawdown must never be positive")
	}

	// cumulative[i] = cumulative[i-1] + pnl[i] under time order
	for i := 1; i < len(trades); i++ {
		assert.True(t, trades[i].CumulativePnL.Equal(
			trades[i-1].CumulativePnL.Add(trades[i].RealizedPnL)))
	}
}

func TestEnrich_SortsByEntryTimeStable(t *testing.T) {
	first := trade("B", "1", at(10, 0))
	second := trade("A", "2", at(9, 0))
	tied := trade("C", "3", at(9, 0))

	trades := Enrich([]domain.Trade{first, second, tied})

	assert.Equal(t, "A", trades[0].Symbol)
	assert.Equal(t, "C", trades[1].Symbol) // tie keeps original order
	assert.Equal(t, "B", trades[2].Symbol)
}

func TestEnrich_RiskReward(t *testing.T) {
	trades := Enrich([]domain.Trade{
		trade("A", "60", at(9, 30)),
		trade("A", "-10", at(10, 0)),
		trade("A", "-30", at(10, 30)),
		trade("A", "0", at(11, 0)),
	})

	// Average losing magnitude = 20, so the 60 win has RR 3.
	require.NotNil(t, trades[0].RiskReward)
	assert.InDelta(t, 3.0, *trades[0].RiskReward, 1e-9)

	// Undefined for losses and break-even rows.
	assert.Nil(t, trades[1].RiskReward)
	assert.Nil(t, trades[2].RiskReward)
	assert.Nil(t, trades[3].RiskReward)
}

func TestEnrich_RiskRewardUndefinedWithoutLosses(t *testing.T) {
	trades := Enrich([]domain.Trade{
		trade("A", "10", at(9, 30)),
		trade("A", "20", at(10, 0)),
	})

	for i := range trades {
		assert.Nil(t, trades[i].RiskReward)
	}
}

func TestEnrich_WinLossClassification(t *testing.T) {
	trades := Enrich([]domain.Trade{
		trade("A", "10", at(9, 30)),
		trade("A", "-10", at(10, 0)),
		trade("A", "0", at(10, 30)),
	})

	assert.True(t, trades[0].IsWin)
	assert.False(t, trades[0].IsLoss)
	assert.True(t, trades[1].IsLoss)
	assert.False(t, trades[1].IsWin)
	assert.False(t, trades[2].IsWin)
	assert.False(t, trades[2].IsLoss)
}

func TestEnrich_TimeFeatures(t *testing.T) {
	tr := trade("A", "5", at(15, 45))
	tr.ExitTime = at(16, 15)

	trades := Enrich([]domain.Trade{tr})

	assert.Equal(t, "Thursday", trades[0].DayOfWeek)
	assert.Equal(t, 15, trades[0].HourOfDay)
	assert.Equal(t, "3 PM", trades[0].HourLabel)
	require.NotNil(t, trades[0].DurationMinutes)
	assert.InDelta(t, 30.0, *trades[0].DurationMinutes, 1e-9)
}

func TestEnrich_MissingTimesNullDurationOnly(t *testing.T) {
	missing := domain.Trade{Symbol: "A", RealizedPnL: decimal.NewFromInt(5)}
	ok := trade("B", "7", at(9, 30))

	trades := Enrich([]domain.Trade{missing, ok})

	// The zero-time row sorts first and only loses its duration.
	assert.Equal(t, "Unknown", trades[0].HourLabel)
	assert.Nil(t, trades[0].DurationMinutes)
	assert.True(t, trades[0].IsWin)

	assert.Equal(t, "Thursday", trades[1].DayOfWeek)
	assert.True(t, trades[1].CumulativePnL.Equal(decimal.NewFromInt(12)))
}
