// Package wifierr holds the error kinds every adaptor operation reports.
// Concrete errors wrap one of the kinds, so callers test them with errors.Is.
package wifierr

import (
	"github.com/go-errors/errors"
)

var (
	// ErrInvalidArgument is returned for empty or out of range input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrFault is returned when an external command, file operation or
	// process spawn failed.
	ErrFault = errors.New("fault")

	// ErrBusy is returned when a conflicting operation is already in progress.
	ErrBusy = errors.New("busy")

	// ErrNotFound is returned when a stream was exhausted without a match.
	ErrNotFound = errors.New("not found")

	// ErrFailedPrecondition is returned for operations invoked out of order.
	ErrFailedPrecondition = errors.New("failed precondition")
)

var kinds = []error{
	ErrInvalidArgument,
	ErrFault,
	ErrBusy,
	ErrNotFound,
	ErrFailedPrecondition,
}

// Kind returns the kind err wraps, or nil when err carries none.
func Kind(err error) error {
	if err == nil {
		return nil
	}

	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}

// ExitCode maps an error to a process exit status for the binaries.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch Kind(err) {
	case ErrInvalidArgument:
		return 2
	case ErrFault:
		return 3
	case ErrBusy:
		return 4
	case ErrNotFound:
		return 5
	case ErrFailedPrecondition:
		return 6
	default:
		return 1
	}
}
