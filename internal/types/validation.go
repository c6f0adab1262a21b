package types

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	clerrors "github.com/claimsure/claims-client/internal/errors"
	"github.com/claimsure/claims-client/internal/shardqueue"
)

// ------------------------------
// Shared Interfaces
// ------------------------------

// Executor serializes mutations per key. Do waits for the job's outcome;
// Barrier waits for every job queued before it.
type Executor interface {
	Do(ctx context.Context, key string, job shardqueue.Job) error
	Barrier(ctx context.Context, key string) error
}

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ------------------------------
// Shared Errors
// ------------------------------

// ErrNotFound is returned when a claim is not in the local collection.
var ErrNotFound = fmt.Errorf("claim not found")

// ------------------------------
// Validation
// ------------------------------

const (
	// MaxTitleLength bounds a claim title, in characters.
	MaxTitleLength = 20
	// MaxAttachmentBytes bounds an attached document (50 MB).
	MaxAttachmentBytes int64 = 50 * 1024 * 1024
)

// ValidateUserID checks that a user id is present.
func ValidateUserID(id string) error {
	return ValidateIDPresent(id, "user_id")
}

// ValidateIDPresent checks that a required identifier is non-blank.
func ValidateIDPresent(id, field string) error {
	if strings.TrimSpace(id) == "" {
		return clerrors.Validation(field, field+" is required")
	}
	return nil
}

// ValidateTitle checks that title is present and at most MaxTitleLength characters.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return clerrors.Validation("title", "claim title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return clerrors.Validation("title", fmt.Sprintf("claim title must be at most %d characters", MaxTitleLength))
	}
	return nil
}

// ValidateClaimType checks t against the enumeration.
func ValidateClaimType(t ClaimType) error {
	if t == "" {
		return clerrors.Validation("type", "claim type is required")
	}
	if !t.Valid() {
		return clerrors.Validation("type", fmt.Sprintf("claim type %q is not one of medical, life, car, home, property", string(t)))
	}
	return nil
}

// ValidateDetails checks that details are present.
func ValidateDetails(details string) error {
	if strings.TrimSpace(details) == "" {
		return clerrors.Validation("details", "claim details are required")
	}
	return nil
}

// ValidateFields runs the required-field checks of the claim form in order.
func ValidateFields(f Fields) error {
	if err := ValidateTitle(f.Title); err != nil {
		return err
	}
	if err := ValidateClaimType(f.Type); err != nil {
		return err
	}
	return ValidateDetails(f.Details)
}

// ValidateAttachmentSize rejects documents above MaxAttachmentBytes.
func ValidateAttachmentSize(n int64) error {
	if n < 0 {
		return clerrors.Validation("file", "file size is unknown")
	}
	if n > MaxAttachmentBytes {
		return clerrors.Validation("file", "File size exceeds 50MB. Please upload a smaller file.")
	}
	return nil
}
