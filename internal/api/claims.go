// Package api implements the claims-service HTTP calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	clerrors "github.com/claimsure/claims-client/internal/errors"
	"github.com/claimsure/claims-client/internal/types"
)

// Operation names, used in error messages.
const (
	opList   = "fetch claims"
	opCount  = "count due claims"
	opSubmit = "submit claim"
	opUpdate = "update claim"
	opDelete = "delete claim"
)

// ListClaims returns the claims of userID. Any non-200 status is a failure,
// including the 404 the service uses for a user without claims.
func ListClaims(ctx context.Context, httpClient types.HTTPClient, baseURL, userID string) ([]types.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := url.Values{"user_id": {userID}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/claims/get-claims?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	// Authorization header is added by the transport layer.
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, clerrors.NewNetworkError(opList, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, clerrors.NewHTTPError(opList, resp, "Failed to fetch claims.")
	}
	var lr types.ListClaimsResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, clerrors.NewDecodeError(opList, err)
	}
	return lr.Claims, nil
}

// CountDue returns how many of userID's claims are due in the next 30 days.
func CountDue(ctx context.Context, httpClient types.HTTPClient, baseURL, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	q := url.Values{"user_id": {userID}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/claims/count-due?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return 0, clerrors.NewNetworkError(opCount, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, clerrors.NewHTTPError(opCount, resp, "Failed to fetch claims due soon.")
	}
	var cr types.CountDueResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return 0, clerrors.NewDecodeError(opCount, err)
	}
	return cr.ClaimsDueInNext30Days, nil
}

// SubmitClaim posts req as multipart form data. The attachment is buffered
// first so that a file exceeding the size limit fails validation without a
// request being sent.
func SubmitClaim(ctx context.Context, httpClient types.HTTPClient, baseURL string, req types.SubmitClaimRequest) (types.SubmitClaimResponse, error) {
	if err := ctx.Err(); err != nil {
		return types.SubmitClaimResponse{}, err
	}
	body, contentType, err := encodeSubmission(req)
	if err != nil {
		return types.SubmitClaimResponse{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/claims/submit-claim", body)
	if err != nil {
		return types.SubmitClaimResponse{}, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return types.SubmitClaimResponse{}, clerrors.NewNetworkError(opSubmit, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return types.SubmitClaimResponse{}, clerrors.NewHTTPError(opSubmit, resp, "Failed to submit claim.")
	}
	var sr types.SubmitClaimResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return types.SubmitClaimResponse{}, clerrors.NewDecodeError(opSubmit, err)
	}
	if sr.ClaimID == "" {
		return types.SubmitClaimResponse{}, clerrors.NewDecodeError(opSubmit, fmt.Errorf("response has no claim_id"))
	}
	return sr, nil
}

func encodeSubmission(req types.SubmitClaimRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"user_id", req.UserID},
		{"claimTitle", req.Title},
		{"claimType", string(req.Type)},
		{"claimDetails", req.Details},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if req.File != nil && req.File.Reader != nil {
		part, err := mw.CreateFormFile("file", req.File.Name)
		if err != nil {
			return nil, "", err
		}
		n, err := io.Copy(part, io.LimitReader(req.File.Reader, types.MaxAttachmentBytes+1))
		if err != nil {
			return nil, "", fmt.Errorf("read attachment %s: %w", req.File.Name, err)
		}
		if err := types.ValidateAttachmentSize(n); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// UpdateClaim sends the new title, type and details of a claim.
func UpdateClaim(ctx context.Context, httpClient types.HTTPClient, baseURL string, req types.UpdateClaimRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/claims/update-claim", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return clerrors.NewNetworkError(opUpdate, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return clerrors.NewHTTPError(opUpdate, resp, "Failed to update claim.")
	}
	return nil
}

// DeleteClaim deletes claimID of userID.
func DeleteClaim(ctx context.Context, httpClient types.HTTPClient, baseURL, userID, claimID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q := url.Values{"user_id": {userID}, "claim_id": {claimID}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, baseURL+"/claims/delete-claim?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return clerrors.NewNetworkError(opDelete, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return clerrors.NewHTTPError(opDelete, resp, "Failed to delete claim.")
	}
	return nil
}
