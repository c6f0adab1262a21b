// Package session decides whether claim operations may be attempted, based
// on the credential the login flow persisted locally.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	clerrors "github.com/claimsure/claims-client/internal/errors"
	"github.com/claimsure/claims-client/internal/types"
)

// Store persists the session credential. Load reports ok=false when no
// credential has been written.
type Store interface {
	Load(ctx context.Context) (cred types.Credential, ok bool, err error)
	Save(ctx context.Context, cred types.Credential) error
	Delete(ctx context.Context) error
}

// Authorizer yields the session user or a NotAuthenticated error.
type Authorizer interface {
	RequireAuthorization(ctx context.Context) (string, error)
}

// Authorize checks the session and, when userID is given, that it is the
// session user. It returns the user to act for.
func Authorize(ctx context.Context, gate Authorizer, userID string) (string, error) {
	sessionUser, err := gate.RequireAuthorization(ctx)
	if err != nil {
		return "", err
	}
	if userID != "" && userID != sessionUser {
		return "", clerrors.NotAuthenticated("user does not match session")
	}
	return sessionUser, nil
}

// Gate guards every claims-service call. It never talks to the network.
type Gate struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewGate returns a Gate reading credentials from store.
func NewGate(store Store, log zerolog.Logger) *Gate {
	return &Gate{
		store: store,
		log:   log.With().Str("component", "session").Logger(),
		now:   time.Now,
	}
}

// IsAuthorized reports whether a credential with a user ID is present.
func (g *Gate) IsAuthorized(ctx context.Context) bool {
	_, err := g.Credential(ctx)
	return err == nil
}

// RequireAuthorization returns the session user ID or a NotAuthenticated error.
func (g *Gate) RequireAuthorization(ctx context.Context) (string, error) {
	cred, err := g.Credential(ctx)
	if err != nil {
		return "", err
	}
	return cred.UserID, nil
}

// Credential returns the persisted credential, failing with NotAuthenticated
// when it is absent, has no user ID, or cannot be read.
func (g *Gate) Credential(ctx context.Context) (types.Credential, error) {
	cred, ok, err := g.store.Load(ctx)
	if err != nil {
		g.log.Warn().Err(err).Msg("session store unreadable")
		return types.Credential{}, clerrors.NotAuthenticated("session store unreadable")
	}
	if !ok || strings.TrimSpace(cred.UserID) == "" {
		return types.Credential{}, clerrors.NotAuthenticated("no session credential")
	}
	return cred, nil
}

// ClearSession removes the credential. Clearing an empty session succeeds.
func (g *Gate) ClearSession(ctx context.Context) error {
	if err := g.store.Delete(ctx); err != nil {
		return err
	}
	g.log.Info().Msg("session cleared")
	return nil
}

// Status describes the current session for display.
type Status struct {
	UserID     string
	Authorized bool
	// ExpiresAt is the token expiry when one could be decoded, zero otherwise.
	ExpiresAt time.Time
	Expired   bool
}

// Status reports the session user and token expiry. Expiry is informational:
// an expired token does not make IsAuthorized false.
func (g *Gate) Status(ctx context.Context) (Status, error) {
	cred, err := g.Credential(ctx)
	if err != nil {
		if clerrors.Is(err, clerrors.KindNotAuthenticated) {
			return Status{}, nil
		}
		return Status{}, err
	}
	st := Status{UserID: cred.UserID, Authorized: true}
	if exp, ok := tokenExpiry(cred.Tokens); ok {
		st.ExpiresAt = exp
		st.Expired = !g.now().Before(exp)
		if st.Expired {
			g.log.Warn().Str("user_id", cred.UserID).Time("expired_at", exp).Msg("session token expired")
		}
	}
	return st, nil
}
