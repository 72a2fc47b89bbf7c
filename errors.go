package beanimport

import (
	"errors"
	"fmt"
)

// ErrUnknownCategory is returned for a row whose type or category the importer does not support.
var ErrUnknownCategory = errors.New("unknown category")

// RowError locates a malformed row in its source file.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// rowErrorf returns a *RowError with a formatted message.
func rowErrorf(file string, line int, format string, args ...any) error {
	return &RowError{File: file, Line: line, Err: fmt.Errorf(format, args...)}
}
