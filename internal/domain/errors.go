package domain

import (
	"fmt"
	"strings"
)

// ParseError reports a required field that was missing or failed type coercion
// on a single row. Rows with parse errors are dropped; the batch continues.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on field %q: %s", e.Field, e.Reason)
}

// UnsupportedBrokerError reports an unrecognized broker tag. Batch-fatal:
// no processing happens after this is raised.
type UnsupportedBrokerError struct {
	Tag string
}

func (e *UnsupportedBrokerError) Error() string {
	return fmt.Sprintf("unsupported broker tag: %q", e.Tag)
}

// SchemaError reports source columns entirely absent from an uploaded file.
// Distinct from a per-row missing value; batch-fatal.
type SchemaError struct {
	Broker  Broker
	Columns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s export is missing required column(s): %s",
		e.Broker, strings.Join(e.Columns, ", "))
}

// EmptyResultError reports that no rows survived parsing and status filtering.
// A zero-row table is never silently accepted.
type EmptyResultError struct {
	Broker    Broker
	RowsTotal int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no usable trades in %s export (%d rows read, none survived parsing)",
		e.Broker, e.RowsTotal)
}
