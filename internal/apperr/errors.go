// Package apperr defines the sentinel errors shared across the service.
// Every failure is resolved into one of these kinds before it reaches the
// API layer; handlers map them to HTTP statuses with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound: the fragment id does not exist for the given owner.
	ErrNotFound = errors.New("not found")
	// ErrValidation: malformed or unsupported input at construction.
	ErrValidation = errors.New("validation failed")
	// ErrTypeMismatch: an update attempted to change a fragment's type.
	ErrTypeMismatch = errors.New("fragment type cannot be changed")
	// ErrConflict: an If-Match precondition no longer holds.
	ErrConflict = errors.New("conflict")
	// ErrUnsupportedConversion: the target representation is not reachable
	// from the source type. A client error, never logged as a fault.
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	// ErrConversionFailed: the conversion pair is legal but the payload
	// could not be decoded or transformed. A server fault.
	ErrConversionFailed = errors.New("conversion failed")
	// ErrStorage: a metadata or data store operation failed, including the
	// metadata-without-data inconsistency surfaced on reads.
	ErrStorage = errors.New("storage error")
)
