package grating

import (
	"errors"

	"github.com/lightest/grating/resource"
)

var (
	// ErrInvalidTexture is returned for a tex or mask value that is neither a
	// known pattern nor a usable bitmap.
	ErrInvalidTexture = errors.New("invalid texture")
	// ErrResourceNotFound is returned when the loader has no resource of the requested name.
	ErrResourceNotFound = resource.ErrResourceNotFound
	// ErrIncompleteBitmap is returned when a bitmap's size stays unknown after
	// the retry budget is exhausted.
	ErrIncompleteBitmap = errors.New("bitmap size unavailable")
)

// StimError records the operation and stimulus that failed.
type StimError struct {
	Op   string // Operation, i.e: "tex", "mask", "draw".
	Stim string // Stimulus name.
	Err  error
}

func (e *StimError) Error() string {
	return e.Stim + ": " + e.Op + ": " + e.Err.Error()
}

func (e *StimError) Unwrap() error { return e.Err }
