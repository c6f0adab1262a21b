package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/claimsure/claims-client/internal/types"
)

// tokenExpiry reads the exp claim of the access token, falling back to the
// ID token. Signatures are not checked: the claims service does that, and
// the client only needs the expiry for display.
func tokenExpiry(tokens types.TokenBundle) (time.Time, bool) {
	parser := jwt.NewParser()
	for _, raw := range []string{tokens.AccessToken, tokens.IDToken} {
		if raw == "" {
			continue
		}
		var claims jwt.RegisteredClaims
		if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
			continue
		}
		if claims.ExpiresAt == nil {
			continue
		}
		return claims.ExpiresAt.Time, true
	}
	return time.Time{}, false
}
