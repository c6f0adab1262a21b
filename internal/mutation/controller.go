// Package mutation submits, updates and deletes claims and reconciles the
// outcome into the local claim collection.
package mutation

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/claimsure/claims-client/internal/claimstore"
	"github.com/claimsure/claims-client/internal/fetch"
	"github.com/claimsure/claims-client/internal/job"
	"github.com/claimsure/claims-client/internal/session"
	"github.com/claimsure/claims-client/internal/types"
)

// Service is the subset of the claims service used for writes.
type Service interface {
	SubmitClaim(ctx context.Context, req types.SubmitClaimRequest) (types.SubmitClaimResponse, error)
	UpdateClaim(ctx context.Context, req types.UpdateClaimRequest) error
	DeleteClaim(ctx context.Context, userID, claimID string) error
}

// Fetcher is the read side a confirmed mutation has to fence: list
// responses already in flight and the due-soon count.
type Fetcher interface {
	InvalidateList()
	InvalidateDueSoon()
	LoadDueSoonCount(ctx context.Context, userID string) (int, error)
}

// Config wires a Controller. Store and Fetcher may be nil for a controller
// that only submits.
type Config struct {
	Gate      session.Authorizer
	Service   Service
	Executor  types.Executor
	Store     *claimstore.Store
	Fetcher   Fetcher
	Logger    zerolog.Logger
	// OnResult, if set, observes the outcome of every mutation that reached
	// the executor.
	OnResult func(op job.Op, err error)
}

// Controller runs claim mutations one user at a time, in issue order.
type Controller struct {
	gate     session.Authorizer
	svc      Service
	exec     types.Executor
	store    *claimstore.Store
	fetcher  Fetcher
	log      zerolog.Logger
	onResult func(job.Op, error)
}

// New returns a Controller.
func New(cfg Config) *Controller {
	return &Controller{
		gate:     cfg.Gate,
		svc:      cfg.Service,
		exec:     cfg.Executor,
		store:    cfg.Store,
		fetcher:  cfg.Fetcher,
		log:      cfg.Logger.With().Str("component", "mutation").Logger(),
		onResult: cfg.OnResult,
	}
}

// Submit validates req and creates the claim. The local collection is not
// updated; callers reload or append the claim themselves.
func (c *Controller) Submit(ctx context.Context, req types.SubmitClaimRequest) (types.SubmitClaimResponse, error) {
	uid, err := session.Authorize(ctx, c.gate, req.UserID)
	if err != nil {
		return types.SubmitClaimResponse{}, err
	}
	req.UserID = uid
	if err := types.ValidateFields(req.Fields()); err != nil {
		return types.SubmitClaimResponse{}, err
	}
	if req.File != nil {
		if err := types.ValidateAttachmentSize(req.File.Size); err != nil {
			return types.SubmitClaimResponse{}, err
		}
	}

	var resp types.SubmitClaimResponse
	err = c.run(ctx, uid, job.New(job.OpSubmit, "", func(ctx context.Context) error {
		var err error
		resp, err = c.svc.SubmitClaim(ctx, req)
		return err
	}))
	if err != nil {
		return types.SubmitClaimResponse{}, err
	}
	c.log.Info().Str("user_id", uid).Str("claim_id", resp.ClaimID).Bool("file", resp.FileURL != "").Msg("claim submitted")
	c.afterMutation(ctx, uid)
	return resp, nil
}

// Save sends the pending fields of edit and, on success, merges them into
// the matching claim. FileURL and the dates are kept as they were.
func (c *Controller) Save(ctx context.Context, userID string, edit types.PendingEdit) (types.Claim, error) {
	uid, err := session.Authorize(ctx, c.gate, userID)
	if err != nil {
		return types.Claim{}, err
	}
	if err := types.ValidateIDPresent(edit.TargetID, "claim_id"); err != nil {
		return types.Claim{}, err
	}
	if err := types.ValidateFields(edit.Fields); err != nil {
		return types.Claim{}, err
	}
	if c.store != nil {
		if _, ok := c.store.Get(edit.TargetID); !ok {
			return types.Claim{}, types.ErrNotFound
		}
	}

	req := types.UpdateClaimRequest{
		UserID:  uid,
		ClaimID: edit.TargetID,
		Title:   edit.Title,
		Type:    edit.Type,
		Details: edit.Details,
	}
	err = c.run(ctx, uid, job.New(job.OpSave, edit.TargetID, func(ctx context.Context) error {
		return c.svc.UpdateClaim(ctx, req)
	}))
	if err != nil {
		return types.Claim{}, err
	}

	merged := types.Claim{ID: edit.TargetID, Title: edit.Title, Type: edit.Type, Details: edit.Details}
	c.fenceList()
	if c.store != nil {
		if m, ok := c.store.Merge(edit.TargetID, edit.Fields); ok {
			merged = m
		}
	}
	c.log.Info().Str("user_id", uid).Str("claim_id", edit.TargetID).Msg("claim updated")
	c.afterMutation(ctx, uid)
	return merged, nil
}

// Delete removes the claim on the service and then from the local
// collection. The local removal is a no-op for an unknown ID.
func (c *Controller) Delete(ctx context.Context, userID, claimID string) error {
	uid, err := session.Authorize(ctx, c.gate, userID)
	if err != nil {
		return err
	}
	if err := types.ValidateIDPresent(claimID, "claim_id"); err != nil {
		return err
	}

	err = c.run(ctx, uid, job.New(job.OpDelete, claimID, func(ctx context.Context) error {
		return c.svc.DeleteClaim(ctx, uid, claimID)
	}))
	if err != nil {
		return err
	}
	c.fenceList()
	if c.store != nil {
		c.store.Remove(claimID)
	}
	c.log.Info().Str("user_id", uid).Str("claim_id", claimID).Msg("claim deleted")
	c.afterMutation(ctx, uid)
	return nil
}

func (c *Controller) run(ctx context.Context, uid string, j *job.Job) error {
	err := c.exec.Do(ctx, uid, j)
	if c.onResult != nil {
		c.onResult(j.Op, err)
	}
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", uid).Str("job", j.String()).Msg("claim mutation failed")
	}
	return err
}

// fenceList drops list responses that predate the confirmed mutation so they
// cannot undo its effect on the store.
func (c *Controller) fenceList() {
	if c.fetcher != nil {
		c.fetcher.InvalidateList()
	}
}

// afterMutation invalidates the due-soon count and fetches it again.
// A failed recount is logged and does not fail the mutation.
func (c *Controller) afterMutation(ctx context.Context, uid string) {
	if c.fetcher == nil {
		return
	}
	c.fetcher.InvalidateDueSoon()
	if _, err := c.fetcher.LoadDueSoonCount(ctx, uid); err != nil && !errors.Is(err, fetch.ErrSuperseded) {
		c.log.Warn().Err(err).Str("user_id", uid).Msg("due-soon recount failed")
	}
}
