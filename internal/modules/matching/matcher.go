// Package matching implements FIFO inventory-lot matching for realized P&L.
//
// Each symbol has its own queue of open lots. Buys append a lot at the tail;
// sells consume lots head-first, splitting partial lots, until the sell
// quantity is exhausted or the queue empties. P&L assignment is a pure
// function of execution order.
package matching

import (
	"github.com/shopspring/decimal"

	"github.com/edgekit/edgekit/internal/domain"
)

// Lot is an open inventory position created by a buy execution.
type Lot struct {
	Remaining decimal.Decimal
	CostPrice decimal.Decimal
}

// Result is the matching outcome for one execution. Unmatched is the sell
// quantity left over after the symbol's queue emptied (oversell); it books
// no P&L. Known limitation: oversells are truncated, not modeled as short
// positions, to preserve the accounting the exports imply.
type Result struct {
	RealizedPnL decimal.Decimal
	Unmatched   decimal.Decimal
}

// Books holds per-symbol FIFO lot queues for one matching run. Construct a
// fresh Books per run; it is not safe for concurrent use and is meant to be
// discarded once the run's trades are produced.
type Books struct {
	lots map[string][]Lot
}

// NewBooks creates an empty set of lot queues.
func NewBooks() *Books {
	return &Books{lots: make(map[string][]Lot)}
}

// Apply processes one execution. The caller must supply Filled executions in
// non-decreasing timestamp order per symbol; Apply does not re-sort.
func (b *Books) Apply(exec domain.Execution) Result {
	if exec.Side == domain.SideBuy {
		b.lots[exec.Symbol] = append(b.lots[exec.Symbol], Lot{
			Remaining: exec.Quantity,
			CostPrice: exec.Price,
		})
		return Result{}
	}

	queue := b.lots[exec.Symbol]
	remaining := exec.Quantity
	pnl := decimal.Zero

	for remaining.IsPositive() && len(queue) > 0 {
		head := &queue[0]
		matched := decimal.Min(remaining, head.Remaining)

		pnl = pnl.Add(matched.Mul(exec.Price.Sub(head.CostPrice)))
		head.Remaining = head.Remaining.Sub(matched)
		remaining = remaining.Sub(matched)

		if head.Remaining.IsZero() {
			queue = queue[1:]
		}
	}
	b.lots[exec.Symbol] = queue

	return Result{RealizedPnL: pnl, Unmatched: remaining}
}

// Open returns a snapshot of the remaining open inventory per symbol.
// Symbols with empty queues are omitted.
func (b *Books) Open() map[string][]Lot {
	out := make(map[string][]Lot, len(b.lots))
	for symbol, queue := range b.lots {
		if len(queue) == 0 {
			continue
		}
		out[symbol] = append([]Lot(nil), queue...)
	}
	return out
}
