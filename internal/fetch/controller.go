// Package fetch loads a user's claims and due-soon count into a claimstore.
//
// Every request is tagged with a sequence number when it is issued. A
// response is applied only if no newer request of the same kind was issued
// in the meantime; older responses are dropped and their callers get
// ErrSuperseded.
package fetch

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/claimsure/claims-client/internal/claimstore"
	"github.com/claimsure/claims-client/internal/session"
	"github.com/claimsure/claims-client/internal/types"
)

// ErrSuperseded is returned by a load whose response arrived after a newer
// load had been issued. The store was not touched.
var ErrSuperseded = errors.New("fetch: superseded by a newer request")

// Phase of the claim list.
type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the list loading state. Err is set only in Failed.
type State struct {
	Phase Phase
	Err   error
}

// Service is the subset of the claims service used for reads.
type Service interface {
	ListClaims(ctx context.Context, userID string) ([]types.Claim, error)
	CountDueSoon(ctx context.Context, userID string) (int, error)
}

// Config wires a Controller.
type Config struct {
	Gate    session.Authorizer
	Service Service
	Store   *claimstore.Store
	Logger  zerolog.Logger
	// OnDiscard, if set, is called with "list" or "due_soon" for every
	// stale response dropped.
	OnDiscard func(op string)
}

// Controller owns the loading state of one claim collection.
type Controller struct {
	gate      session.Authorizer
	svc       Service
	store     *claimstore.Store
	log       zerolog.Logger
	onDiscard func(string)

	mu       sync.Mutex
	listSeq  uint64
	lastLoad uint64 // listSeq of the most recent Load
	dueSeq   uint64
	state    State
	dueErr   error
}

// New returns an Idle controller.
func New(cfg Config) *Controller {
	return &Controller{
		gate:      cfg.Gate,
		svc:       cfg.Service,
		store:     cfg.Store,
		log:       cfg.Logger.With().Str("component", "fetch").Logger(),
		onDiscard: cfg.OnDiscard,
	}
}

// Load fetches the claim list for userID and replaces the store content.
// On failure the store keeps its previous content and the state becomes
// Failed. A response issued before a confirmed mutation is never applied:
// when no newer Load exists the list is fetched again.
func (c *Controller) Load(ctx context.Context, userID string) error {
	uid, err := session.Authorize(ctx, c.gate, userID)

	c.mu.Lock()
	seq := c.issueLoadLocked()
	if err != nil {
		c.state = State{Phase: Failed, Err: err}
		c.mu.Unlock()
		return err
	}
	c.state = State{Phase: Loading}
	c.mu.Unlock()

	for {
		c.log.Debug().Str("user_id", uid).Uint64("seq", seq).Msg("loading claims")
		claims, err := c.svc.ListClaims(ctx, uid)

		c.mu.Lock()
		if seq != c.listSeq {
			c.log.Debug().Uint64("seq", seq).Uint64("latest", c.listSeq).Msg("discarding stale claim list")
			c.discarded("list")
			if seq != c.lastLoad {
				c.mu.Unlock()
				return ErrSuperseded
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				c.state = State{Phase: Failed, Err: ctxErr}
				c.mu.Unlock()
				return ctxErr
			}
			seq = c.issueLoadLocked()
			c.mu.Unlock()
			continue
		}
		if err != nil {
			c.state = State{Phase: Failed, Err: err}
			c.mu.Unlock()
			c.log.Warn().Err(err).Str("user_id", uid).Msg("load claims failed")
			return err
		}
		n := c.store.Replace(claims)
		c.state = State{Phase: Loaded}
		c.mu.Unlock()
		c.log.Debug().Int("claims", n).Uint64("seq", seq).Msg("claims loaded")
		return nil
	}
}

func (c *Controller) issueLoadLocked() uint64 {
	c.listSeq++
	c.lastLoad = c.listSeq
	return c.listSeq
}

// InvalidateList fences off every list response still in flight. Mutations
// call it once the service has confirmed them and before they touch the
// store.
func (c *Controller) InvalidateList() {
	c.mu.Lock()
	c.listSeq++
	c.mu.Unlock()
}

// LoadDueSoonCount fetches the due-soon count. It is independent of Load;
// a failure only sets DueSoonError.
func (c *Controller) LoadDueSoonCount(ctx context.Context, userID string) (int, error) {
	uid, err := session.Authorize(ctx, c.gate, userID)
	if err != nil {
		c.mu.Lock()
		c.dueErr = err
		c.mu.Unlock()
		return 0, err
	}

	c.mu.Lock()
	c.dueSeq++
	seq := c.dueSeq
	c.mu.Unlock()

	n, err := c.svc.CountDueSoon(ctx, uid)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.dueSeq {
		c.discarded("due_soon")
		return 0, ErrSuperseded
	}
	if err != nil {
		c.dueErr = err
		c.log.Warn().Err(err).Str("user_id", uid).Msg("count due-soon claims failed")
		return 0, err
	}
	c.dueErr = nil
	c.store.SetDueSoon(n)
	return n, nil
}

// InvalidateDueSoon marks the cached count stale and drops any count request
// still in flight, since it may predate a mutation.
func (c *Controller) InvalidateDueSoon() {
	c.mu.Lock()
	c.dueSeq++
	c.store.InvalidateDueSoon()
	c.mu.Unlock()
}

// Refresh runs Load and LoadDueSoonCount concurrently. The list error, if
// any, takes precedence. A mutation confirmed while the count is in flight
// makes the count half return ErrSuperseded; the mutation recounts itself.
func (c *Controller) Refresh(ctx context.Context, userID string) error {
	var g errgroup.Group
	var listErr error
	g.Go(func() error {
		listErr = c.Load(ctx, userID)
		return listErr
	})
	g.Go(func() error {
		_, err := c.LoadDueSoonCount(ctx, userID)
		return err
	})
	err := g.Wait()
	if listErr != nil {
		return listErr
	}
	return err
}

// State returns the current list state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DueSoonError returns the error of the last applied due-soon request.
func (c *Controller) DueSoonError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dueErr
}

func (c *Controller) discarded(op string) {
	if c.onDiscard != nil {
		c.onDiscard(op)
	}
}
