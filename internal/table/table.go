package table

import (
	"fmt"
	"slices"
)

// Backfill is the value written for a column a row does not report.
const Backfill = "0"

// Table is an in-memory view of a table file: the header plus every data
// row. Every row holds exactly len(Columns) fields.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New returns a table whose header is the record's columns and whose only
// row is the record.
func New(rec *Record) *Table {
	t := &Table{Columns: rec.Columns()}
	t.Rows = append(t.Rows, rec.Row(t.Columns))
	return t
}

// AddColumns appends every column not yet in the header, in the given order,
// and backfills it on all existing rows. It returns the columns that were
// actually added.
func (t *Table) AddColumns(cols ...string) []string {
	var added []string
	for _, col := range cols {
		if slices.Contains(t.Columns, col) || slices.Contains(added, col) {
			continue
		}
		added = append(added, col)
	}
	if len(added) == 0 {
		return nil
	}

	t.Columns = append(t.Columns, added...)
	for i, row := range t.Rows {
		for range added {
			row = append(row, Backfill)
		}
		t.Rows[i] = row
	}
	return added
}

// Append grows the header with any new record columns, then adds the record
// as the last row.
func (t *Table) Append(rec *Record) {
	t.AddColumns(rec.Columns()...)
	t.Rows = append(t.Rows, rec.Row(t.Columns))
}

// Normalize makes every row as wide as the header. Short rows are padded
// with Backfill; a row wider than the header is an error because its extra
// fields cannot be attributed to a column.
func (t *Table) Normalize() error {
	for i, row := range t.Rows {
		switch {
		case len(row) > len(t.Columns):
			return fmt.Errorf("%w: row %d has %d fields, header has %d",
				ErrMalformedRow, i+1, len(row), len(t.Columns))
		case len(row) < len(t.Columns):
			for len(row) < len(t.Columns) {
				row = append(row, Backfill)
			}
			t.Rows[i] = row
		}
	}
	return nil
}

// NewColumns returns the record's columns missing from header, in record
// order.
func NewColumns(header []string, rec *Record) []string {
	var cols []string
	for _, col := range rec.Columns() {
		if !slices.Contains(header, col) {
			cols = append(cols, col)
		}
	}
	return cols
}
