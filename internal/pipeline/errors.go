package pipeline

import (
	"errors"
	"strconv"
)

var (
	// ErrBackendUnavailable marks a failed model call (network, auth,
	// rate limit, timeout, empty response). It is transient.
	ErrBackendUnavailable = errors.New("extraction backend unavailable")

	// ErrMalformed marks model output that is not a JSON record object.
	ErrMalformed = errors.New("malformed model output")

	// ErrMissingField marks a required record field that is absent, null or blank.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidAmount marks an amount that is not a positive whole number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidDate marks a date that is not a YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("invalid date")

	// ErrWriteFailed marks a ledger insert that was rolled back.
	ErrWriteFailed = errors.New("ledger write failed")
)

// ParseError describes why model output was rejected. Kind is one of
// ErrMalformed, ErrMissingField, ErrInvalidAmount or ErrInvalidDate.
type ParseError struct {
	Kind  error
	Field string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg += " " + strconv.Quote(e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// BackendError wraps a failed call to a model backend so that
// errors.Is(err, ErrBackendUnavailable) holds.
type BackendError struct {
	Backend string
	Err     error
}

// NewBackendError returns err tagged as a backend failure.
func NewBackendError(backend string, err error) error {
	return &BackendError{Backend: backend, Err: err}
}

func (e *BackendError) Error() string {
	return e.Backend + ": " + ErrBackendUnavailable.Error() + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() []error {
	return []error{ErrBackendUnavailable, e.Err}
}
