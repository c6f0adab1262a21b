package client

import (
	"context"
	"errors"

	"github.com/claimsure/claims-client/internal/edit"
	clerrors "github.com/claimsure/claims-client/internal/errors"
	"github.com/claimsure/claims-client/internal/fetch"
	"github.com/claimsure/claims-client/internal/shardqueue"
	"github.com/claimsure/claims-client/internal/types"
)

// Re-exported sentinels so callers compare against a single symbol.
var (
	ErrNotAuthenticated = clerrors.ErrNotAuthenticated
	ErrNotFound         = types.ErrNotFound
	ErrNotEditing       = edit.ErrNotEditing
	ErrSuperseded       = fetch.ErrSuperseded
	ErrExecutorClosed   = shardqueue.ErrExecutorClosed
	ErrBackPressure     = shardqueue.ErrQueueFull
)

// Error is the classified error carried by failed operations.
type Error = clerrors.ClassifiedError

// IsNotAuthenticated reports whether err means "log in again".
func IsNotAuthenticated(err error) bool { return clerrors.Is(err, clerrors.KindNotAuthenticated) }

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool { return clerrors.Is(err, clerrors.KindValidation) }

// IsService reports whether the claims service answered with an error status.
func IsService(err error) bool { return clerrors.Is(err, clerrors.KindService) }

// IsTransport reports whether the request could not complete.
func IsTransport(err error) bool { return clerrors.Is(err, clerrors.KindTransport) }

// IsBackPressure reports whether the mutation queue was full.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }

// UserMessage returns the text to show for err: the service message verbatim
// when there is one, otherwise a generic sentence.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if ce, ok := clerrors.As(err); ok && ce.Message != "" {
		return ce.Message
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "Claim not found."
	case errors.Is(err, ErrNotEditing):
		return "No claim is being edited."
	case errors.Is(err, ErrSuperseded):
		return "A newer request replaced this one."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	case IsBackPressure(err), errors.Is(err, ErrExecutorClosed):
		return "Too many pending changes. Please try again."
	default:
		return "An unexpected error occurred."
	}
}
