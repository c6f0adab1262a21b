// Package errors classifies failures of claims operations.
//
// Every error surfaced by the SDK carries a Kind (what went wrong, used by
// callers to decide what to show) and a Category (whether the executor may
// retry it).
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory determines how errors should be handled by retry logic.
type ErrorCategory int

const (
	// Recoverable errors may be retried with exponential backoff.
	// Examples: 500 Internal Server Error, network timeouts, connection failures.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors must fail immediately without retry.
	// Examples: 401 Unauthorized, 400 Bad Request, client-side validation.
	Irrecoverable
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Kind is the user-facing failure class.
type Kind int

const (
	// KindTransport: the request could not complete (network unreachable, timeout).
	KindTransport Kind = iota
	// KindService: the claims service answered with a non-success status.
	KindService
	// KindValidation: a client-side constraint failed; no request was sent.
	KindValidation
	// KindNotAuthenticated: no session credential is present.
	KindNotAuthenticated
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "TransportError"
	case KindService:
		return "ServiceError"
	case KindValidation:
		return "ValidationError"
	case KindNotAuthenticated:
		return "NotAuthenticated"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrNotAuthenticated is the cause of every KindNotAuthenticated error.
var ErrNotAuthenticated = stderrors.New("not authenticated")

// ClassifiedError wraps an error with categorization metadata.
type ClassifiedError struct {
	Kind       Kind
	Category   ErrorCategory
	StatusCode int    // HTTP status code (0 for non-HTTP errors)
	Message    string // server-provided message, or the fallback text
	Field      string // offending field for validation errors
	Underlying error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Kind, e.StatusCode, e.Underlying)
	case e.Field != "":
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Field, e.Underlying)
	default:
		return fmt.Sprintf("[%s] %v", e.Kind, e.Underlying)
	}
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Underlying
}

// NotAuthenticated builds the error returned when the session gate refuses.
func NotAuthenticated(reason string) *ClassifiedError {
	err := ErrNotAuthenticated
	if reason != "" {
		err = fmt.Errorf("%w: %s", ErrNotAuthenticated, reason)
	}
	return &ClassifiedError{
		Kind:       KindNotAuthenticated,
		Category:   Irrecoverable,
		Message:    "Please log in.",
		Underlying: err,
	}
}

// Validation builds a client-side validation error for field.
func Validation(field, msg string) *ClassifiedError {
	return &ClassifiedError{
		Kind:       KindValidation,
		Category:   Irrecoverable,
		Message:    msg,
		Field:      field,
		Underlying: stderrors.New(msg),
	}
}

// As extracts the ClassifiedError in err's chain, if any.
func As(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// KindOf reports the Kind of err. Unclassified errors are reported as transport
// failures since they originate below the service protocol.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return 0, false
	}
	if ce, ok := As(err); ok {
		return ce.Kind, true
	}
	return KindTransport, false
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	ce, ok := As(err)
	return ok && ce.Kind == k
}

// IsIrrecoverable returns true if the error should not be retried.
func IsIrrecoverable(err error) bool {
	if ce, ok := As(err); ok {
		return ce.Category == Irrecoverable
	}
	return false
}
