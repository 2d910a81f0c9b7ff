// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBackend is returned for a backend name the registry has never seen
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrUnsupportedMode is returned when a backend lacks the capability for a mode
	ErrUnsupportedMode = errors.New("mode not supported by backend")

	// ErrPageOutOfRange is returned for page numbers outside [1, page count]
	ErrPageOutOfRange = errors.New("page out of range")
)

// UnavailableError is the uniform result for a backend whose library could not be
// loaded at start-up
type UnavailableError struct {
	Backend string
	Reason  string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backend %s is unavailable: %s", e.Backend, e.Reason)
}

// IsUnavailable reports whether err is, or wraps, an *UnavailableError
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// CheckPage validates a 1-based page number against a page count
func CheckPage(page, count int) error {
	if page < 1 || page > count {
		return fmt.Errorf("%w: page %d not in [1, %d]", ErrPageOutOfRange, page, count)
	}
	return nil
}
