package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// ClassifyHTTPError determines whether an HTTP error should be retried.
// - 4xx client errors (except 408 and 429) are irrecoverable
// - 5xx server errors are recoverable
// - Network-level errors are recoverable
func ClassifyHTTPError(statusCode int, message string, underlyingErr error) *ClassifiedError {
	return &ClassifiedError{
		Kind:       KindService,
		Category:   getHTTPErrorCategory(statusCode),
		StatusCode: statusCode,
		Message:    message,
		Underlying: underlyingErr,
	}
}

// getHTTPErrorCategory maps HTTP status codes to error categories.
func getHTTPErrorCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return Recoverable
		default:
			return Irrecoverable
		}
	case statusCode >= 500 && statusCode < 600:
		return Recoverable
	default:
		// Unexpected status codes - be conservative and retry
		return Recoverable
	}
}

// envelope is the claims service error body.
type envelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewHTTPError creates a classified error for a non-success response.
// The server's "error" field is kept verbatim as Message; "message" is used
// when "error" is absent, and fallback when neither is present.
func NewHTTPError(operation string, resp *http.Response, fallback string) *ClassifiedError {
	msg := fallback
	if resp.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var env envelope
		if err := json.Unmarshal(body, &env); err == nil {
			switch {
			case strings.TrimSpace(env.Error) != "":
				msg = env.Error
			case strings.TrimSpace(env.Message) != "":
				msg = env.Message
			}
		}
	}
	underlyingErr := fmt.Errorf("%s failed: %s", operation, msg)
	return ClassifyHTTPError(resp.StatusCode, msg, underlyingErr)
}

// NewNetworkError creates a classified error for network-level failures.
// Network errors are always recoverable as they may be transient.
func NewNetworkError(operation string, err error) *ClassifiedError {
	return &ClassifiedError{
		Kind:       KindTransport,
		Category:   Recoverable,
		Message:    fmt.Sprintf("An error occurred while trying to %s.", operation),
		Underlying: fmt.Errorf("%s network error: %w", operation, err),
	}
}

// NewDecodeError reports a success response whose body could not be parsed.
func NewDecodeError(operation string, err error) *ClassifiedError {
	return &ClassifiedError{
		Kind:       KindTransport,
		Category:   Irrecoverable,
		Message:    fmt.Sprintf("An error occurred while trying to %s.", operation),
		Underlying: fmt.Errorf("%s: decode response: %w", operation, err),
	}
}
