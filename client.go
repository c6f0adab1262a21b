// Package client is the claims client SDK: session gating, claim
// submission, and the manage-claims view with inline editing.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/claimsure/claims-client/internal/api"
	"github.com/claimsure/claims-client/internal/config"
	"github.com/claimsure/claims-client/internal/mutation"
	"github.com/claimsure/claims-client/internal/session"
	"github.com/claimsure/claims-client/internal/shardqueue"
	"github.com/claimsure/claims-client/internal/types"
)

// Client talks to one claims service on behalf of the locally persisted
// session. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	exec    executor
	log     zerolog.Logger

	sessions   session.Store
	ownedStore io.Closer // closed by Close when the client opened the store
	execCfg    *shardqueue.Config

	gate      *session.Gate
	svc       *api.Service
	mutations *mutation.Controller

	closedOnce uint32
}

// New constructs a Client for the claims service at baseURL.
// Without WithSessionStore the session lives in memory only.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.Logger,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.sessions == nil {
		c.sessions = session.NewMemoryStore()
	}
	c.gate = session.NewGate(c.sessions, c.log)
	if c.exec == nil {
		c.exec = newDefaultExecutor(c.execCfg, c.log)
	}

	// Outermost wrapper: every request carries the session token and an ID.
	c.wrapTransportWithSession()

	c.svc = &api.Service{HTTP: c.http, BaseURL: c.baseURL}
	c.mutations = mutation.New(mutation.Config{
		Gate:     c.gate,
		Service:  c.svc,
		Executor: c.exec,
		Logger:   c.log,
		OnResult: observeMutation,
	})
	return c, nil
}

// NewFromConfig builds a Client from environment configuration. The session
// is persisted in the SQLite file cfg.SessionDB unless opts override it.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	base := []Option{WithHTTPTimeout(cfg.HTTPTimeout)}
	if cfg.Debug {
		base = append(base, WithDebugLogging(true))
	}
	if cfg.RateLimit > 0 {
		base = append(base, WithRateLimit(cfg.RateLimit, cfg.RateBurst))
	}

	store, err := session.OpenSQLite(cfg.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	base = append(base, WithSessionStore(store))

	c, err := New(cfg.BaseURL, append(base, opts...)...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if c.sessions == session.Store(store) {
		c.ownedStore = store
	} else {
		_ = store.Close()
	}
	return c, nil
}

// wrapTransportWithSession installs sessionTransport above every other
// transport wrapper.
func (c *Client) wrapTransportWithSession() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = &sessionTransport{base: base, gate: c.gate}
}

// sessionTransport adds the bearer token of the current session and a
// request ID to each request.
type sessionTransport struct {
	base http.RoundTripper
	gate *session.Gate
}

func (t *sessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	if cloned.Header.Get("X-Request-ID") == "" {
		cloned.Header.Set("X-Request-ID", uuid.NewString())
	}
	if cred, err := t.gate.Credential(req.Context()); err == nil && cred.Tokens.AccessToken != "" {
		cloned.Header.Set("Authorization", "Bearer "+cred.Tokens.AccessToken)
	}
	resp, err := t.base.RoundTrip(cloned)
	observeRequest(cloned, resp, err)
	return resp, err
}

// Session returns the session gate.
func (c *Client) Session() *session.Gate { return c.gate }

// SetSession persists the credential produced by the login flow.
func (c *Client) SetSession(ctx context.Context, userID string, tokens TokenBundle) error {
	if err := types.ValidateUserID(userID); err != nil {
		return err
	}
	if err := c.sessions.Save(ctx, types.Credential{UserID: userID, Tokens: tokens}); err != nil {
		return err
	}
	c.log.Info().Str("user_id", userID).Msg("session stored")
	return nil
}

// Logout clears the session. Later protected calls fail with NotAuthenticated.
func (c *Client) Logout(ctx context.Context) error {
	return c.gate.ClearSession(ctx)
}

// SubmitClaim validates and submits a new claim for the session user.
// Nothing is sent when validation fails.
func (c *Client) SubmitClaim(ctx context.Context, req SubmitClaimRequest) (SubmitClaimResponse, error) {
	return c.mutations.Submit(ctx, req)
}

// Close stops the executor and releases the session store when the client
// opened it. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	if c.exec != nil {
		c.exec.Stop()
	}
	if c.ownedStore != nil {
		return c.ownedStore.Close()
	}
	return nil
}

// AwaitConsistency blocks until every mutation issued so far for the session
// user has completed.
func (c *Client) AwaitConsistency(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	userID, err := c.gate.RequireAuthorization(ctx)
	if err != nil {
		return err
	}
	return c.exec.Barrier(ctx, userID)
}
