package brokers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/edgekit/edgekit/internal/domain"
)

// ParsedRow is the outcome of parsing one export row. StatedPnL is only
// meaningful for mappings with StatedPnL set.
type ParsedRow struct {
	Exec      domain.Execution
	StatedPnL decimal.Decimal
}

// RowParser converts rows of one broker's export into executions. Column
// positions are resolved once against the header at construction time, so
// a missing source column fails the whole batch up front rather than
// surfacing as per-row errors.
type RowParser struct {
	mapping *Mapping
	idx     map[Field][]int
}

// NewRowParser resolves the mapping's source columns against the file header.
// Returns a SchemaError naming every absent required column.
func NewRowParser(m *Mapping, header []string) (*RowParser, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}

	idx := make(map[Field][]int, len(m.fields))
	var missing []string
	for field, spec := range m.fields {
		indexes := make([]int, 0, len(spec.columns))
		ok := true
		for _, col := range spec.columns {
			i, found := pos[col]
			if !found {
				ok = false
				if spec.required {
					missing = append(missing, col)
				}
				break
			}
			indexes = append(indexes, i)
		}
		if ok {
			idx[field] = indexes
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &domain.SchemaError{Broker: m.Broker, Columns: missing}
	}

	return &RowParser{mapping: m, idx: idx}, nil
}

// value extracts the raw text for a logical field, joining multi-column
// sources with a space and applying the mapping's transform.
func (p *RowParser) value(field Field, record []string) (string, bool) {
	indexes, ok := p.idx[field]
	if !ok {
		return "", false
	}

	parts := make([]string, 0, len(indexes))
	for _, i := range indexes {
		if i >= len(record) {
			return "", false
		}
		parts = append(parts, strings.TrimSpace(record[i]))
	}
	raw := strings.Join(parts, " ")

	if spec := p.mapping.fields[field]; spec.transform != nil {
		raw = spec.transform(raw)
	}
	return strings.TrimSpace(raw), true
}

// ParseRow converts one record into a ParsedRow. A required field that is
// missing or fails coercion yields a ParseError; the caller drops the row.
func (p *RowParser) ParseRow(record []string) (ParsedRow, error) {
	var row ParsedRow

	symbol, ok := p.value(FieldSymbol, record)
	if !ok || symbol == "" {
		return row, &domain.ParseError{Field: string(FieldSymbol), Reason: "missing value"}
	}
	row.Exec.Symbol = strings.ToUpper(symbol)

	sideRaw, ok := p.value(FieldSide, record)
	if !ok || sideRaw == "" {
		return row, &domain.ParseError{Field: string(FieldSide), Reason: "missing value"}
	}
	side, err := domain.ParseSide(sideRaw)
	if err != nil {
		return row, &domain.ParseError{Field: string(FieldSide), Reason: err.Error()}
	}
	row.Exec.Side = side

	qty, err := p.decimalValue(FieldQuantity, record)
	if err != nil {
		return row, err
	}
	if !qty.IsPositive() {
		return row, &domain.ParseError{Field: string(FieldQuantity), Reason: fmt.Sprintf("quantity must be positive, got %s", qty)}
	}
	row.Exec.Quantity = qty

	price, err := p.decimalValue(FieldPrice, record)
	if err != nil {
		return row, err
	}
	if price.IsNegative() {
		return row, &domain.ParseError{Field: string(FieldPrice), Reason: fmt.Sprintf("price must be non-negative, got %s", price)}
	}
	row.Exec.Price = price

	ts, err := p.timeValue(record)
	if err != nil {
		return row, err
	}
	row.Exec.Timestamp = ts

	// Status column is optional in the mapping; formats without one export
	// only completed fills.
	if statusRaw, ok := p.value(FieldStatus, record); ok && statusRaw != "" {
		row.Exec.Status = domain.ParseExecStatus(statusRaw)
	} else {
		row.Exec.Status = domain.StatusFilled
	}

	if ref, ok := p.value(FieldRef, record); ok {
		row.Exec.Ref = ref
	}

	if p.mapping.StatedPnL {
		pnl, err := p.decimalValue(FieldStatedPnL, record)
		if err != nil {
			return row, err
		}
		row.StatedPnL = pnl
	}

	return row, nil
}

func (p *RowParser) decimalValue(field Field, record []string) (decimal.Decimal, error) {
	raw, ok := p.value(field, record)
	if !ok || raw == "" {
		return decimal.Zero, &domain.ParseError{Field: string(field), Reason: "missing value"}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &domain.ParseError{Field: string(field), Reason: fmt.Sprintf("not a number: %q", raw)}
	}
	return d, nil
}

func (p *RowParser) timeValue(record []string) (time.Time, error) {
	raw, ok := p.value(FieldTimestamp, record)
	if !ok || raw == "" {
		return time.Time{}, &domain.ParseError{Field: string(FieldTimestamp), Reason: "missing value"}
	}
	for _, layout := range p.mapping.timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, &domain.ParseError{Field: string(FieldTimestamp), Reason: fmt.Sprintf("unrecognized timestamp: %q", raw)}
}
