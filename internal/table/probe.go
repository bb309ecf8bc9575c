package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/dimchansky/utfbom"
)

// State describes what a table file looks like before a write.
type State int

const (
	// StateAbsent means the file does not exist.
	StateAbsent State = iota
	// StateEmpty means the file exists but holds no header.
	StateEmpty
	// StatePresent means the file has a header.
	StatePresent
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateEmpty:
		return "empty"
	case StatePresent:
		return "present"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Probe reads only the header of the table at path.
func Probe(path string, comma rune) (State, []string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return StateAbsent, nil, nil
	}
	if err != nil {
		return StateAbsent, nil, err
	}
	defer f.Close()

	header, err := newReader(f, comma).Read()
	if errors.Is(err, io.EOF) {
		return StateEmpty, nil, nil
	}
	if err != nil {
		return StatePresent, nil, fmt.Errorf("read header: %w", err)
	}

	return StatePresent, header, nil
}

// Load reads the whole table at path. Rows shorter than the header are
// padded; rows wider than the header fail with ErrMalformedRow.
func Load(path string, comma rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := newReader(f, comma).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	t := &Table{
		Columns: records[0],
		Rows:    records[1:],
	}
	if err := t.Normalize(); err != nil {
		return nil, err
	}
	return t, nil
}

func newReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(utfbom.SkipOnly(r))
	cr.Comma = comma
	// Field counts are checked by Table.Normalize.
	cr.FieldsPerRecord = -1
	return cr
}
