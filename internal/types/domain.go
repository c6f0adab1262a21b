package types

import (
	"fmt"
	"strings"
	"time"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// ClaimType enumerates the kinds of insurance claim a user may submit.
type ClaimType string

const (
	ClaimTypeMedical  ClaimType = "medical"
	ClaimTypeLife     ClaimType = "life"
	ClaimTypeCar      ClaimType = "car"
	ClaimTypeHome     ClaimType = "home"
	ClaimTypeProperty ClaimType = "property"
)

var claimTypes = []ClaimType{
	ClaimTypeMedical,
	ClaimTypeLife,
	ClaimTypeCar,
	ClaimTypeHome,
	ClaimTypeProperty,
}

// ClaimTypes returns the accepted claim types in display order.
func ClaimTypes() []ClaimType {
	out := make([]ClaimType, len(claimTypes))
	copy(out, claimTypes)
	return out
}

// Valid reports whether t is one of the enumerated claim types.
func (t ClaimType) Valid() bool {
	for _, ct := range claimTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// ParseClaimType normalises s and checks it against the enumeration.
func ParseClaimType(s string) (ClaimType, error) {
	t := ClaimType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown claim type %q", s)
	}
	return t, nil
}

// Claim is one submitted claim as held by the client.
// ID, SubmissionDate and DueDate are assigned by the claims service and never
// change; FileURL is empty when no document was attached.
type Claim struct {
	ID             string    `json:"ClaimID"`
	Title          string    `json:"ClaimTitle"`
	Type           ClaimType `json:"ClaimType"`
	Details        string    `json:"ClaimDetails"`
	FileURL        string    `json:"FileURL,omitempty"`
	SubmissionDate time.Time `json:"SubmissionDate"`
	DueDate        time.Time `json:"DueDate"`
}

// HasFile reports whether a document is attached to the claim.
func (c Claim) HasFile() bool { return c.FileURL != "" }

// Fields returns the user-editable part of the claim.
func (c Claim) Fields() Fields {
	return Fields{Title: c.Title, Type: c.Type, Details: c.Details}
}

// DueWithin reports whether the claim's due date falls inside [now, now+window].
func (c Claim) DueWithin(now time.Time, window time.Duration) bool {
	if c.DueDate.IsZero() {
		return false
	}
	return !c.DueDate.Before(now) && !c.DueDate.After(now.Add(window))
}

// Fields are the editable attributes of a claim.
type Fields struct {
	Title   string
	Type    ClaimType
	Details string
}

// PendingEdit is an edit ready to be saved: the target claim and its new fields.
type PendingEdit struct {
	TargetID string
	Fields
}

// ------------------------------
// Session
// ------------------------------

// TokenBundle is the opaque token set issued by the authentication service.
// Key names follow the identity provider's authentication result.
type TokenBundle struct {
	AccessToken  string `json:"AccessToken,omitempty"`
	IDToken      string `json:"IdToken,omitempty"`
	RefreshToken string `json:"RefreshToken,omitempty"`
	TokenType    string `json:"TokenType,omitempty"`
	ExpiresIn    int    `json:"ExpiresIn,omitempty"`
}

// Credential is the persisted session: the authenticated user and their tokens.
type Credential struct {
	UserID string
	Tokens TokenBundle
}
