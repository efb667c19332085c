package domain

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when a derived table is requested for a run that has none.
var ErrTableNotFound = errors.New("table not found")

// ErrNoRuns is returned when no completed run exists yet.
var ErrNoRuns = errors.New("no completed signals run")

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("signals run not found")

// MissingColumnError reports a required column absent from an input table.
// It aborts the run.
type MissingColumnError struct {
	Table   string
	Column  string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column %q (have: %v)", e.Table, e.Column, e.Columns)
}

// InvalidValueError reports a cell that cannot be coerced to the column's type.
type InvalidValueError struct {
	Table  string
	Column string
	Row    int
	Value  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: row %d: invalid %s value %q", e.Table, e.Row, e.Column, e.Value)
}
