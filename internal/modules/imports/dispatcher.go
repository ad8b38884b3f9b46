// Package imports wires the per-broker parsing, matching and enrichment
// pipeline behind a single dispatch entry point.
package imports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/edgekit/edgekit/internal/domain"
	"github.com/edgekit/edgekit/internal/modules/brokers"
	"github.com/edgekit/edgekit/internal/modules/enrich"
	"github.com/edgekit/edgekit/internal/modules/matching"
)

// ImportResult is the outcome of processing one uploaded export file.
type ImportResult struct {
	ID          string         `json:"id"`
	Broker      domain.Broker  `json:"broker"`
	CreatedAt   time.Time      `json:"created_at"`
	RowsTotal   int            `json:"rows_total"`
	RowsParsed  int            `json:"rows_parsed"`
	RowsDropped int            `json:"rows_dropped"`
	Trades      []domain.Trade `json:"trades"`
}

// Dispatcher selects the parsing pipeline for a broker tag and runs it.
// Brokers whose export states realized P&L per row skip the lot matcher and
// use the stated value as-is; fill-only exports go through FIFO matching.
type Dispatcher struct {
	log zerolog.Logger
}

// NewDispatcher creates a new format dispatcher.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{log: log.With().Str("service", "imports").Logger()}
}

// Process normalizes one export file into the enriched canonical trade table.
// An unrecognized broker tag fails before any of the file is consumed.
// Row-level failures are absorbed and counted; batch-level failures return a
// typed error (SchemaError, EmptyResultError).
func (d *Dispatcher) Process(broker domain.Broker, r io.Reader) (*ImportResult, error) {
	mapping, ok := brokers.MappingFor(broker)
	if !ok {
		return nil, &domain.UnsupportedBrokerError{Tag: string(broker)}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows become per-row parse failures
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	parser, err := brokers.NewRowParser(mapping, header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		ID:        uuid.New().String(),
		Broker:    broker,
		CreatedAt: time.Now().UTC(),
	}

	var rows []brokers.ParsedRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read export row: %w", err)
		}

		result.RowsTotal++
		row, err := parser.ParseRow(record)
		if err != nil {
			result.RowsDropped++
			d.log.Debug().Err(err).Int("row", result.RowsTotal).Msg("Dropped unparseable row")
			continue
		}
		if row.Exec.Status != domain.StatusFilled {
			result.RowsDropped++
			continue
		}

		result.RowsParsed++
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, &domain.EmptyResultError{Broker: broker, RowsTotal: result.RowsTotal}
	}

	// The matcher contract requires non-decreasing timestamps per symbol;
	// a global stable sort by time satisfies it.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Exec.Timestamp.Before(rows[j].Exec.Timestamp)
	})

	trades := make([]domain.Trade, 0, len(rows))
	if mapping.StatedPnL {
		for _, row := range rows {
			trades = append(trades, tradeFromExecution(row.Exec, row.StatedPnL))
		}
	} else {
		books := matching.NewBooks()
		for _, row := range rows {
			res := books.Apply(row.Exec)
			if res.Unmatched.IsPositive() {
				d.log.Debug().
					Str("symbol", row.Exec.Symbol).
					Str("unmatched", res.Unmatched.String()).
					Msg("Sell exceeded recorded inventory, remainder unmatched")
			}
			trades = append(trades, tradeFromExecution(row.Exec, res.RealizedPnL))
		}
	}

	result.Trades = enrich.Enrich(trades)

	d.log.Info().
		Str("import_id", result.ID).
		Str("broker", string(broker)).
		Int("rows_total", result.RowsTotal).
		Int("rows_parsed", result.RowsParsed).
		Int("rows_dropped", result.RowsDropped).
		Msg("Export processed")

	return result, nil
}

// tradeFromExecution builds the canonical row for one execution. The source
// formats carry a single fill timestamp, so entry and exit coincide.
func tradeFromExecution(e domain.Execution, pnl decimal.Decimal) domain.Trade {
	return domain.Trade{
		Symbol:      e.Symbol,
		Side:        e.Side,
		Quantity:    e.Quantity,
		Price:       e.Price,
		EntryTime:   e.Timestamp,
		ExitTime:    e.Timestamp,
		RealizedPnL: pnl,
	}
}
