package api

import (
	"context"

	"github.com/claimsure/claims-client/internal/types"
)

// Service binds the claims calls to one HTTP client and base URL. It
// satisfies the read and write service interfaces of the controllers.
type Service struct {
	HTTP    types.HTTPClient
	BaseURL string
}

func (s *Service) ListClaims(ctx context.Context, userID string) ([]types.Claim, error) {
	return ListClaims(ctx, s.HTTP, s.BaseURL, userID)
}

func (s *Service) CountDueSoon(ctx context.Context, userID string) (int, error) {
	return CountDue(ctx, s.HTTP, s.BaseURL, userID)
}

func (s *Service) SubmitClaim(ctx context.Context, req types.SubmitClaimRequest) (types.SubmitClaimResponse, error) {
	return SubmitClaim(ctx, s.HTTP, s.BaseURL, req)
}

func (s *Service) UpdateClaim(ctx context.Context, req types.UpdateClaimRequest) error {
	return UpdateClaim(ctx, s.HTTP, s.BaseURL, req)
}

func (s *Service) DeleteClaim(ctx context.Context, userID, claimID string) error {
	return DeleteClaim(ctx, s.HTTP, s.BaseURL, userID, claimID)
}
