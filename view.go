package client

import (
	"context"

	"github.com/claimsure/claims-client/internal/claimstore"
	"github.com/claimsure/claims-client/internal/edit"
	"github.com/claimsure/claims-client/internal/fetch"
	"github.com/claimsure/claims-client/internal/mutation"
)

// ManageView is the state behind a manage-claims screen: the claim list of
// the session user, its loading state, the due-soon count and at most one
// inline edit. Discard it when the screen goes away.
type ManageView struct {
	store     *claimstore.Store
	fetch     *fetch.Controller
	mutations *mutation.Controller
	edit      *edit.Session
}

// NewManageView returns an empty view in the Idle phase.
func (c *Client) NewManageView() *ManageView {
	store := claimstore.New()
	f := fetch.New(fetch.Config{
		Gate:      c.gate,
		Service:   c.svc,
		Store:     store,
		Logger:    c.log,
		OnDiscard: observeStale,
	})
	m := mutation.New(mutation.Config{
		Gate:      c.gate,
		Service:   c.svc,
		Executor:  c.exec,
		Store:     store,
		Fetcher:   f,
		Logger:    c.log,
		OnResult:  observeMutation,
	})
	return &ManageView{store: store, fetch: f, mutations: m, edit: edit.New(m)}
}

// Load fetches the claim list. A failed load keeps the previous list.
func (v *ManageView) Load(ctx context.Context) error { return v.fetch.Load(ctx, "") }

// LoadDueSoonCount fetches the number of claims due in the next 30 days.
func (v *ManageView) LoadDueSoonCount(ctx context.Context) (int, error) {
	return v.fetch.LoadDueSoonCount(ctx, "")
}

// Refresh loads the list and the due-soon count concurrently.
func (v *ManageView) Refresh(ctx context.Context) error { return v.fetch.Refresh(ctx, "") }

// State returns the loading state of the list.
func (v *ManageView) State() LoadState { return v.fetch.State() }

// DueSoonError returns the error of the last due-soon request, if it failed.
func (v *ManageView) DueSoonError() error { return v.fetch.DueSoonError() }

// Claims returns a copy of the current list.
func (v *ManageView) Claims() []Claim { return v.store.Snapshot() }

// DueSoon returns the cached due-soon count.
func (v *ManageView) DueSoon() DueSoon { return v.store.DueSoon() }

// BeginEdit starts editing the claim with id. If another claim was being
// edited its pending values are discarded and returned.
func (v *ManageView) BeginEdit(id string) (abandoned PendingEdit, discarded bool, err error) {
	c, ok := v.store.Get(id)
	if !ok {
		return PendingEdit{}, false, ErrNotFound
	}
	abandoned, discarded = v.edit.Begin(c)
	return abandoned, discarded, nil
}

// UpdateField changes one pending value of the active edit.
func (v *ManageView) UpdateField(field EditField, value string) error {
	return v.edit.UpdateField(field, value)
}

// CancelEdit drops the active edit. It reports whether one was active.
func (v *ManageView) CancelEdit() bool { return v.edit.Cancel() }

// CommitEdit saves the active edit. On failure the edit stays active.
func (v *ManageView) CommitEdit(ctx context.Context) (Claim, error) {
	return v.edit.Commit(ctx, "")
}

// Editing returns NotEditing or the active Editing state.
func (v *ManageView) Editing() EditState { return v.edit.State() }

// Delete deletes the claim and removes it from the list. An edit of that
// claim is cancelled.
func (v *ManageView) Delete(ctx context.Context, id string) error {
	if err := v.mutations.Delete(ctx, "", id); err != nil {
		return err
	}
	if p, ok := v.edit.Active(); ok && p.TargetID == id {
		v.edit.Cancel()
	}
	return nil
}

// Submit creates a claim. The list is not updated; call Load to see it.
func (v *ManageView) Submit(ctx context.Context, req SubmitClaimRequest) (SubmitClaimResponse, error) {
	return v.mutations.Submit(ctx, req)
}

var _ edit.Saver = (*mutation.Controller)(nil)
