package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks requests rejected before any I/O happened.
	ErrValidation = errors.New("invalid request")
	// ErrNotFound marks a referenced image or tag that is not indexed.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a rename whose destination already exists.
	ErrConflict = errors.New("conflict")
	// ErrPartialFailure marks an operation that committed but could not
	// finish every filesystem step.
	ErrPartialFailure = errors.New("partial failure")
	// ErrNoDataset is returned while no dataset folder has been opened.
	ErrNoDataset = errors.New("no dataset selected")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
