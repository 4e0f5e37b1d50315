package export

import (
	"errors"
	"fmt"
)

// ErrExport is matched by every export failure.
var ErrExport = errors.New("export failed")

// Export failure kinds.
var (
	ErrEmpty         = errors.New("no records to export")
	ErrUnknownFormat = errors.New("unknown export format")
)

// Error wraps an export failure with the requested format.
type Error struct {
	Format string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports every *Error as an ErrExport.
func (e *Error) Is(target error) bool { return target == ErrExport }
