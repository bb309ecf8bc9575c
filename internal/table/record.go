// Package table implements the evolving-schema CSV table that accumulates
// per-domain records across runs.
//
// A table file is a delimiter-separated text file whose first line is the
// header. The first column is always DomainColumn. New columns introduced by
// a record are appended to the header and backfilled with "0" on every
// existing row; columns are never removed.
package table

import (
	"fmt"
	"strconv"
)

// DomainColumn is the mandatory first column of every record and table.
const DomainColumn = "Domains"

// Record is one domain's result: the domain name plus an ordered set of
// numeric columns. Column order is first-insertion order.
type Record struct {
	domain  string
	columns []string
	values  map[string]int64
}

// NewRecord returns an empty record for the given domain.
func NewRecord(domain string) *Record {
	return &Record{
		domain: domain,
		values: make(map[string]int64),
	}
}

// Domain returns the value of the Domains column.
func (r *Record) Domain() string {
	return r.domain
}

// Set stores n under column. A column set twice keeps its original position.
func (r *Record) Set(column string, n int64) error {
	if column == DomainColumn {
		return fmt.Errorf("column %q is reserved for the domain name", DomainColumn)
	}
	if column == "" {
		return fmt.Errorf("empty column name")
	}
	if n < 0 {
		return fmt.Errorf("column %q: negative value %d", column, n)
	}

	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = n
	return nil
}

// Columns returns the record's keys, DomainColumn first.
func (r *Record) Columns() []string {
	cols := make([]string, 0, len(r.columns)+1)
	cols = append(cols, DomainColumn)
	return append(cols, r.columns...)
}

// Len returns the number of numeric columns, excluding DomainColumn.
func (r *Record) Len() int {
	return len(r.columns)
}

// Has reports whether the record carries column.
func (r *Record) Has(column string) bool {
	if column == DomainColumn {
		return true
	}
	_, ok := r.values[column]
	return ok
}

// Value returns the column value as written to the table.
func (r *Record) Value(column string) (string, bool) {
	if column == DomainColumn {
		return r.domain, true
	}
	n, ok := r.values[column]
	if !ok {
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}

// Int returns the numeric value of column.
func (r *Record) Int(column string) (int64, bool) {
	n, ok := r.values[column]
	return n, ok
}

// Row renders the record in the order of header, using "0" for columns the
// record does not carry.
func (r *Record) Row(header []string) []string {
	row := make([]string, len(header))
	for i, col := range header {
		if v, ok := r.Value(col); ok {
			row[i] = v
			continue
		}
		row[i] = Backfill
	}
	return row
}
