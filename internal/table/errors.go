package table

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRow  = errors.New("malformed table row")
	ErrMissingDomain = errors.New("record has no domain")
)

// WriteError provides context for a failed table write. Err is usually an
// *fs.PathError, so errors.Is(err, fs.ErrNotExist) works on the result.
type WriteError struct {
	Path   string
	Domain string
	Op     string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("table %s: %s [%s]: %v", e.Path, e.Op, e.Domain, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
