package models

import (
	"errors"
	"fmt"
)

// Error kinds returned by the archive engine. The transport layer maps
// each kind to a user-facing message; nothing here terminates the
// process.
var (
	// ErrInvalidInput marks requests rejected before any store access:
	// empty file ids, oversized captions, bad page sizes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCursor marks pagination tokens that do not round-trip
	// from a previously issued page. It is a kind of invalid input.
	ErrInvalidCursor = fmt.Errorf("%w: invalid cursor", ErrInvalidInput)

	// ErrNotFound marks references to items that do not exist or are
	// already deleted.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks items owned by another user. Transports must
	// render it identically to ErrNotFound so existence never leaks.
	ErrForbidden = errors.New("forbidden")

	// ErrConstraintViolation marks a lost uniqueness race on save. The
	// facade recovers from it once; a recurrence surfaces as transient.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrTransient marks timeouts and connection failures the caller
	// may retry.
	ErrTransient = errors.New("transient failure")
)
