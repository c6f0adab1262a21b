package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/claimsure/claims-client/internal/config"
	"github.com/claimsure/claims-client/internal/shardqueue"
)

type stubExec struct{ stops int }

func (s *stubExec) Do(context.Context, string, shardqueue.Job) error { return nil }
func (s *stubExec) Barrier(context.Context, string) error            { return nil }
func (s *stubExec) Stop()                                            { s.stops++ }

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c, err := New(baseURL, append([]Option{WithLogger(zerolog.Nop())}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_RejectsEmptyBaseURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty baseURL")
	}
}

func TestCloseIdempotent(t *testing.T) {
	s := &stubExec{}
	c := &Client{exec: s}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if s.stops != 1 {
		t.Fatalf("executor stop called %d times", s.stops)
	}
}

func TestSessionTransport_AddsBearerAndRequestID(t *testing.T) {
	var mu sync.Mutex
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = r.Header.Clone()
		mu.Unlock()
		_, _ = w.Write([]byte(`{"claims_due_in_next_30_days":0}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()
	if err := c.SetSession(ctx, "u1", TokenBundle{AccessToken: "tok-123"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if _, err := c.NewManageView().LoadDueSoonCount(ctx); err != nil {
		t.Fatalf("LoadDueSoonCount: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got.Get("Authorization") != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", got.Get("Authorization"))
	}
	if got.Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
}

func TestProtectedOperationsWithoutSessionSendNothing(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	v := c.NewManageView()
	ctx := context.Background()

	if _, err := c.SubmitClaim(ctx, SubmitClaimRequest{Title: "t", Type: ClaimTypeCar, Details: "d"}); !IsNotAuthenticated(err) {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if err := v.Load(ctx); !IsNotAuthenticated(err) {
		t.Fatalf("Load: %v", err)
	}
	if _, err := v.LoadDueSoonCount(ctx); !IsNotAuthenticated(err) {
		t.Fatalf("LoadDueSoonCount: %v", err)
	}
	if err := v.Delete(ctx, "c1"); !IsNotAuthenticated(err) {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.AwaitConsistency(ctx); !IsNotAuthenticated(err) {
		t.Fatalf("AwaitConsistency: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Fatalf("%d requests reached the service", n)
	}
}

func TestLogoutRevokesAccess(t *testing.T) {
	c := newTestClient(t, "http://claims.invalid")
	ctx := context.Background()
	if err := c.SetSession(ctx, "u1", TokenBundle{}); err != nil {
		t.Fatal(err)
	}
	if !c.Session().IsAuthorized(ctx) {
		t.Fatal("expected authorized session")
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if c.Session().IsAuthorized(ctx) {
		t.Fatal("session must be gone after logout")
	}
}

func TestSetSession_RequiresUserID(t *testing.T) {
	c := newTestClient(t, "http://claims.invalid")
	if err := c.SetSession(context.Background(), "", TokenBundle{}); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAwaitConsistency_WaitsForQueuedMutations(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var deleted int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/claims/delete-claim" {
			_, _ = w.Write([]byte(`{"claims_due_in_next_30_days":0}`))
			return
		}
		close(arrived)
		<-release
		atomic.StoreInt32(&deleted, 1)
		_, _ = w.Write([]byte(`{"status":"Claim deleted successfully"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()
	if err := c.SetSession(ctx, "u1", TokenBundle{}); err != nil {
		t.Fatal(err)
	}
	v := c.NewManageView()
	go func() { _ = v.Delete(ctx, "c1") }()
	<-arrived

	time.AfterFunc(30*time.Millisecond, func() { close(release) })
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.AwaitConsistency(waitCtx); err != nil {
		t.Fatalf("AwaitConsistency: %v", err)
	}
	if atomic.LoadInt32(&deleted) != 1 {
		t.Fatal("barrier returned before the running delete finished")
	}
}

func TestNewFromConfig_PersistsSession(t *testing.T) {
	cfg := config.NewForTesting("http://claims.invalid", filepath.Join(t.TempDir(), "session.db"))
	ctx := context.Background()

	c, err := NewFromConfig(cfg, WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if err := c.SetSession(ctx, "u9", TokenBundle{AccessToken: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	c, err = NewFromConfig(cfg, WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c.Close()
	id, err := c.Session().RequireAuthorization(ctx)
	if err != nil || id != "u9" {
		t.Fatalf("RequireAuthorization = %q, %v", id, err)
	}
}
