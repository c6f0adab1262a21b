package types

// ------------------------------
// Response Types
// ------------------------------

// ListClaimsResponse wraps the get-claims response.
type ListClaimsResponse struct {
	Claims []Claim `json:"claims"`
}

// CountDueResponse wraps the count-due response.
type CountDueResponse struct {
	ClaimsDueInNext30Days int `json:"claims_due_in_next_30_days"`
}

// SubmitClaimResponse identifies a newly created claim.
type SubmitClaimResponse struct {
	Status  string `json:"status"`
	ClaimID string `json:"claim_id"`
	FileURL string `json:"file_url,omitempty"`
}

// StatusResponse is the acknowledgement body of update and delete.
type StatusResponse struct {
	Status string `json:"status"`
}
