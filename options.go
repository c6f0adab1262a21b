package client

// Functional options applied by New, in order, before the session transport
// is installed.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/claimsure/claims-client/internal/shardqueue"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout sets the underlying http.Client Timeout.
//
// Prefer per-request context deadlines where possible; this timeout is a
// coarse bound on a single request including reading the response.
// The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithHTTPClient replaces the http.Client. Put it before transport options,
// which wrap whatever client is current.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		cp := *hc
		c.http = &cp
		return nil
	}
}

// WithDebugLogging wraps the transport so each request and response is
// logged at debug level. Bearer tokens are redacted.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			c.http.Transport = &debugTransport{base: c.http.Transport, log: &c.log}
		}
		return nil
	}
}

// WithRateLimit caps outgoing requests at rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) error {
		if rps <= 0 {
			return fmt.Errorf("rate limit must be > 0")
		}
		if burst <= 0 {
			burst = 1
		}
		c.http.Transport = &rateLimitTransport{
			base:    c.http.Transport,
			limiter: rate.NewLimiter(rate.Limit(rps), burst),
		}
		return nil
	}
}

// WithSessionStore sets where the session credential is read from.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) error {
		if store == nil {
			return fmt.Errorf("session store cannot be nil")
		}
		c.sessions = store
		return nil
	}
}

// WithLogger sets the logger used by the client and its components.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = l
		return nil
	}
}

// WithExecutorConfig tunes the mutation executor instead of SQ_* variables.
func WithExecutorConfig(cfg ExecutorConfig) Option {
	return func(c *Client) error {
		cp := shardqueue.Config(cfg)
		c.execCfg = &cp
		return nil
	}
}
