package table

import (
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultComma is the field delimiter of table files.
const DefaultComma = ';'

// Writer appends records to table files.
//
// A Writer assumes it is the only writer of a given file while a call is in
// progress. Concurrent writers, in this process or another, can lose rows.
type Writer struct {
	// Comma is the field delimiter. Zero means DefaultComma.
	Comma rune
}

// AppendRecord appends rec to the table at path using the default delimiter.
// When isFirstWrite is true the file is truncated and recreated from rec.
func AppendRecord(rec *Record, path string, isFirstWrite bool) error {
	var w Writer
	return w.Append(rec, path, isFirstWrite)
}

// Append writes rec as the last row of the table at path.
//
// If the file is absent, empty, or truncate is set, the file is recreated
// with rec's columns as header. If rec only carries columns already in the
// header, one row is appended and existing rows are left untouched.
// Otherwise the whole table is reloaded, the new columns are appended to the
// header and backfilled with "0", and the table is rewritten.
func (w *Writer) Append(rec *Record, path string, truncate bool) error {
	if rec == nil || rec.Domain() == "" {
		return &WriteError{Path: path, Op: "validate", Err: ErrMissingDomain}
	}

	if truncate {
		return w.create(rec, path)
	}

	state, header, err := Probe(path, w.comma())
	if err != nil {
		return &WriteError{Path: path, Domain: rec.Domain(), Op: "probe", Err: err}
	}

	switch state {
	case StateAbsent, StateEmpty:
		return w.create(rec, path)
	}

	if len(NewColumns(header, rec)) == 0 {
		return w.appendRow(rec, path, header)
	}
	return w.rewrite(rec, path)
}

func (w *Writer) comma() rune {
	if w.Comma == 0 {
		return DefaultComma
	}
	return w.Comma
}

func (w *Writer) create(rec *Record, path string) error {
	if err := w.replace(path, New(rec)); err != nil {
		return &WriteError{Path: path, Domain: rec.Domain(), Op: "create", Err: err}
	}
	return nil
}

func (w *Writer) appendRow(rec *Record, path string, header []string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0)
	if err != nil {
		return &WriteError{Path: path, Domain: rec.Domain(), Op: "append", Err: err}
	}

	err = ensureTrailingNewline(f)
	if err == nil {
		err = w.writeRows(f, rec.Row(header))
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return &WriteError{Path: path, Domain: rec.Domain(), Op: "append", Err: err}
	}
	return nil
}

func (w *Writer) rewrite(rec *Record, path string) error {
	t, err := Load(path, w.comma())
	if err != nil {
		return &WriteError{Path: path, Domain: rec.Domain(), Op: "load", Err: err}
	}

	t.Append(rec)

	if err := w.replace(path, t); err != nil {
		return &WriteError{Path: path, Domain: rec.Domain(), Op: "rewrite", Err: err}
	}
	return nil
}

// replace writes t to a temporary file next to path and renames it over
// path. A symlinked path is replaced at its target, and an existing file
// keeps its permissions.
func (w *Writer) replace(path string, t *Table) error {
	mode := fs.FileMode(0o644)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
		if info, err := os.Stat(path); err == nil {
			mode = info.Mode().Perm()
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	rows := make([][]string, 0, len(t.Rows)+1)
	rows = append(rows, t.Columns)
	rows = append(rows, t.Rows...)

	err = w.writeRows(tmp, rows...)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (w *Writer) writeRows(dst io.Writer, rows ...[]string) error {
	cw := csv.NewWriter(dst)
	cw.Comma = w.comma()
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// ensureTrailingNewline terminates the last line of f if a previous writer
// left it open.
func ensureTrailingNewline(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	_, err = f.Write([]byte{'\n'})
	return err
}
