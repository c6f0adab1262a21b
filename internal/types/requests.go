package types

// ------------------------------
// Request Types
// ------------------------------

// SubmitClaimRequest holds the fields of a new claim. File is optional.
// It is sent as multipart form data.
type SubmitClaimRequest struct {
	UserID  string
	Title   string
	Type    ClaimType
	Details string
	File    *Attachment
}

// Fields returns the editable part of the request.
func (r SubmitClaimRequest) Fields() Fields {
	return Fields{Title: r.Title, Type: r.Type, Details: r.Details}
}

// UpdateClaimRequest holds the new editable fields for an existing claim.
type UpdateClaimRequest struct {
	UserID  string    `json:"user_id"`
	ClaimID string    `json:"claim_id"`
	Title   string    `json:"ClaimTitle"`
	Type    ClaimType `json:"ClaimType"`
	Details string    `json:"ClaimDetails"`
}
