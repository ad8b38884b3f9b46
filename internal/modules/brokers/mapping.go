// Package brokers provides static per-broker column mappings and row parsing
// for brokerage trade-execution exports.
package brokers

import (
	"strings"

	"github.com/edgekit/edgekit/internal/domain"
)

// Field is a logical field of the canonical execution record.
type Field string

const (
	FieldSymbol    Field = "symbol"
	FieldSide      Field = "side"
	FieldQuantity  Field = "quantity"
	FieldPrice     Field = "price"
	FieldTimestamp Field = "timestamp"
	FieldStatus    Field = "status"
	FieldStatedPnL Field = "stated_pnl"
	FieldRef       Field = "ref"
)

// columnSpec binds a logical field to one or more source columns plus an
// optional text transform applied before type coercion. Two columns means
// their values are joined with a space before parsing (date + time exports).
type columnSpec struct {
	columns   []string
	required  bool
	transform func(string) string
}

// Mapping is the static column-mapping table for one broker format.
// StatedPnL marks formats whose export already states realized P&L per row;
// those bypass the lot matcher entirely.
type Mapping struct {
	Broker      domain.Broker
	StatedPnL   bool
	fields      map[Field]columnSpec
	timeLayouts []string
}

// stripDecorations removes currency and at-sign decorations that some
// exports prepend to numeric cells (e.g. "@12.50", "$1,024.00").
func stripDecorations(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "@", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

var mappings = map[domain.Broker]*Mapping{
	domain.BrokerWebull: {
		Broker: domain.BrokerWebull,
		fields: map[Field]columnSpec{
			FieldSymbol:    {columns: []string{"Symbol"}, required: true},
			FieldSide:      {columns: []string{"Side"}, required: true},
			FieldQuantity:  {columns: []string{"Filled"}, required: true},
			FieldPrice:     {columns: []string{"Avg Price"}, required: true, transform: stripDecorations},
			FieldTimestamp: {columns: []string{"Filled Time"}, required: true},
			FieldStatus:    {columns: []string{"Status"}, required: true},
			FieldRef:       {columns: []string{"Ref #"}},
		},
		timeLayouts: []string{
			"01/02/2006 15:04:05 MST",
			"01/02/2006 15:04:05",
		},
	},
	domain.BrokerRobinhood: {
		Broker:    domain.BrokerRobinhood,
		StatedPnL: true,
		fields: map[Field]columnSpec{
			FieldSymbol:    {columns: []string{"Ticker"}, required: true},
			FieldSide:      {columns: []string{"Action"}, required: true},
			FieldQuantity:  {columns: []string{"Shares"}, required: true},
			FieldPrice:     {columns: []string{"Price"}, required: true, transform: stripDecorations},
			FieldTimestamp: {columns: []string{"Date"}, required: true},
			FieldStatedPnL: {columns: []string{"Total Gain/Loss"}, required: true, transform: stripDecorations},
		},
		timeLayouts: []string{
			"2006-01-02T15:04:05Z07:00",
			"2006-01-02 15:04:05",
			"2006-01-02",
			"01/02/2006",
		},
	},
	domain.BrokerThinkorSwim: {
		Broker:    domain.BrokerThinkorSwim,
		StatedPnL: true,
		fields: map[Field]columnSpec{
			FieldSymbol:    {columns: []string{"Symbol"}, required: true},
			FieldSide:      {columns: []string{"Side"}, required: true},
			FieldQuantity:  {columns: []string{"Quantity"}, required: true},
			FieldPrice:     {columns: []string{"Price"}, required: true, transform: stripDecorations},
			FieldTimestamp: {columns: []string{"Date", "Time"}, required: true},
			FieldStatedPnL: {columns: []string{"P/L Close"}, required: true, transform: stripDecorations},
		},
		timeLayouts: []string{
			"01/02/2006 15:04:05",
			"1/2/06 15:04:05",
			"2006-01-02 15:04:05",
		},
	},
}

// MappingFor returns the static mapping table for a broker.
func MappingFor(b domain.Broker) (*Mapping, bool) {
	m, ok := mappings[b]
	return m, ok
}

// RequiredColumns returns the source column names a broker's export must carry.
func (m *Mapping) RequiredColumns() []string {
	var cols []string
	for _, spec := range m.fields {
		if spec.required {
			cols = append(cols, spec.columns...)
		}
	}
	return cols
}
