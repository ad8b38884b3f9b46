// Package domain provides core domain models and types.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side represents the direction of an execution
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide normalizes a broker-specific side token into a canonical Side.
// Tokens like "buy", "Buy", "BOT" (ThinkorSwim) and "SLD" map to the enum.
func ParseSide(token string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "BUY", "BOT", "B":
		return SideBuy, nil
	case "SELL", "SLD", "S":
		return SideSell, nil
	default:
		return "", fmt.Errorf("unrecognized side token: %q", token)
	}
}

// ExecStatus represents the fill status of an execution row
type ExecStatus string

const (
	StatusFilled    ExecStatus = "FILLED"
	StatusCancelled ExecStatus = "CANCELLED"
	StatusOther     ExecStatus = "OTHER"
)

// ParseExecStatus maps broker status tokens to the canonical enum.
// Anything that is neither filled nor cancelled is StatusOther.
func ParseExecStatus(token string) ExecStatus {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "FILLED":
		return StatusFilled
	case "CANCELLED", "CANCELED":
		return StatusCancelled
	default:
		return StatusOther
	}
}

// Broker identifies a supported brokerage export format
type Broker string

const (
	BrokerWebull      Broker = "webull"
	BrokerRobinhood   Broker = "robinhood"
	BrokerThinkorSwim Broker = "thinkorswim"
)

// SupportedBrokers lists all recognized broker tags.
var SupportedBrokers = []Broker{BrokerWebull, BrokerRobinhood, BrokerThinkorSwim}

// ParseBroker validates a caller-supplied broker tag. It is case-insensitive.
func ParseBroker(tag string) (Broker, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case string(BrokerWebull):
		return BrokerWebull, nil
	case string(BrokerRobinhood):
		return BrokerRobinhood, nil
	case string(BrokerThinkorSwim):
		return BrokerThinkorSwim, nil
	default:
		return "", &UnsupportedBrokerError{Tag: tag}
	}
}

// Execution represents one atomic fill from a broker export
type Execution struct {
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
	Status    ExecStatus      `json:"status"`
	Ref       string          `json:"ref,omitempty"` // broker-side reference, when the export carries one
}

// Trade represents one row of the canonical, enriched trade table.
// EntryTime equals ExitTime for formats that cannot distinguish open from close.
// Pointer-valued metrics are nil when undefined (never zero-defaulted).
type Trade struct {
	Symbol          string          `json:"symbol"`
	Side            Side            `json:"side"`
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	EntryTime       time.Time       `json:"entry_time"`
	ExitTime        time.Time       `json:"exit_time"`
	RealizedPnL     decimal.Decimal `json:"realized_pnl"`
	DayOfWeek       string          `json:"day_of_week"`
	HourOfDay       int             `json:"hour_of_day"`
	HourLabel       string          `json:"hour_label"`
	DurationMinutes *float64        `json:"duration_minutes"`
	IsWin           bool            `json:"is_win"`
	IsLoss          bool            `json:"is_loss"`
	CumulativePnL   decimal.Decimal `json:"cumulative_pnl"`
	Drawdown        decimal.Decimal `json:"drawdown"`
	RiskReward      *float64        `json:"risk_reward"`
}
