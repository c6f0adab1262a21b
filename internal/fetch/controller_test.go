package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimsure/claims-client/internal/claimstore"
	clerrors "github.com/claimsure/claims-client/internal/errors"
	"github.com/claimsure/claims-client/internal/types"
)

type gate struct{ userID string }

func (g gate) RequireAuthorization(context.Context) (string, error) {
	if g.userID == "" {
		return "", clerrors.NotAuthenticated("")
	}
	return g.userID, nil
}

type listResult struct {
	claims []types.Claim
	err    error
}

// fakeService answers each call from a queue of per-call channels so tests
// decide the completion order.
type fakeService struct {
	mu        sync.Mutex
	lists     []chan listResult
	listCalls int32
	count     int
	countErr  error
}

func (f *fakeService) pending() chan listResult {
	ch := make(chan listResult, 1)
	f.mu.Lock()
	f.lists = append(f.lists, ch)
	f.mu.Unlock()
	return ch
}

func (f *fakeService) ListClaims(ctx context.Context, _ string) ([]types.Claim, error) {
	i := atomic.AddInt32(&f.listCalls, 1) - 1
	f.mu.Lock()
	ch := f.lists[i]
	f.mu.Unlock()
	r := <-ch
	return r.claims, r.err
}

func (f *fakeService) CountDueSoon(context.Context, string) (int, error) {
	return f.count, f.countErr
}

func newController(svc Service, userID string) (*Controller, *claimstore.Store, *[]string) {
	store := claimstore.New()
	var discarded []string
	c := New(Config{
		Gate:      gate{userID: userID},
		Service:   svc,
		Store:     store,
		Logger:    zerolog.Nop(),
		OnDiscard: func(op string) { discarded = append(discarded, op) },
	})
	return c, store, &discarded
}

func TestLoad_Success(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	svc.pending() <- listResult{claims: []types.Claim{{ID: "1"}, {ID: "2"}}}
	c, store, _ := newController(svc, "u1")

	assert.Equal(t, Idle, c.State().Phase)
	require.NoError(t, c.Load(context.Background(), "u1"))
	assert.Equal(t, Loaded, c.State().Phase)
	assert.Equal(t, 2, store.Len())
}

func TestLoad_FailurePreservesPriorData(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	svc.pending() <- listResult{claims: []types.Claim{{ID: "1"}}}
	boom := clerrors.NewNetworkError("fetch claims", errors.New("unreachable"))
	svc.pending() <- listResult{err: boom}
	c, store, _ := newController(svc, "u1")

	require.NoError(t, c.Load(context.Background(), ""))
	err := c.Load(context.Background(), "")
	require.ErrorIs(t, err, boom)

	st := c.State()
	assert.Equal(t, Failed, st.Phase)
	assert.ErrorIs(t, st.Err, boom)
	assert.Equal(t, []types.Claim{{ID: "1"}}, store.Snapshot())
}

func TestLoad_NotAuthenticatedMakesNoCall(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	c, _, _ := newController(svc, "")

	err := c.Load(context.Background(), "u1")
	assert.True(t, clerrors.Is(err, clerrors.KindNotAuthenticated))
	_, err = c.LoadDueSoonCount(context.Background(), "u1")
	assert.True(t, clerrors.Is(err, clerrors.KindNotAuthenticated))
	assert.Zero(t, atomic.LoadInt32(&svc.listCalls))
	assert.Equal(t, Failed, c.State().Phase)
}

func TestLoad_ForeignUserRefused(t *testing.T) {
	t.Parallel()
	c, _, _ := newController(&fakeService{}, "u1")
	err := c.Load(context.Background(), "someone-else")
	assert.True(t, clerrors.Is(err, clerrors.KindNotAuthenticated))
}

// The second-issued load completes first; the first-issued response then
// arrives last and must be discarded instead of overwriting the store.
func TestLoad_StaleResponseDiscarded(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	first := svc.pending()
	second := svc.pending()
	c, store, discarded := newController(svc, "u1")

	firstDone := make(chan error, 1)
	go func() { firstDone <- c.Load(context.Background(), "u1") }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&svc.listCalls) == 1 }, timeout, tick)

	secondDone := make(chan error, 1)
	go func() { secondDone <- c.Load(context.Background(), "u1") }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&svc.listCalls) == 2 }, timeout, tick)

	second <- listResult{claims: []types.Claim{{ID: "new"}}}
	require.NoError(t, <-secondDone)

	first <- listResult{claims: []types.Claim{{ID: "old"}}}
	require.ErrorIs(t, <-firstDone, ErrSuperseded)

	assert.Equal(t, []types.Claim{{ID: "new"}}, store.Snapshot())
	assert.Equal(t, Loaded, c.State().Phase)
	assert.Equal(t, []string{"list"}, *discarded)
}

func TestLoadDueSoonCount(t *testing.T) {
	t.Parallel()
	svc := &fakeService{count: 4}
	c, store, _ := newController(svc, "u1")

	n, err := c.LoadDueSoonCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, claimstore.DueSoon{Count: 4, Known: true}, store.DueSoon())

	svc.countErr = clerrors.NewNetworkError("count due claims", errors.New("down"))
	_, err = c.LoadDueSoonCount(context.Background(), "u1")
	require.Error(t, err)
	assert.Error(t, c.DueSoonError())
	assert.Equal(t, Idle, c.State().Phase, "due-soon failure never touches the list state")

	c.InvalidateDueSoon()
	assert.False(t, store.DueSoon().Known)
}

func TestRefresh_ReturnsListError(t *testing.T) {
	t.Parallel()
	svc := &fakeService{count: 2}
	boom := clerrors.NewNetworkError("fetch claims", errors.New("down"))
	svc.pending() <- listResult{err: boom}
	c, store, _ := newController(svc, "u1")

	err := c.Refresh(context.Background(), "u1")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, claimstore.DueSoon{Count: 2, Known: true}, store.DueSoon())
}

// A list requested before a confirmed mutation must not overwrite the store
// with pre-mutation data; the controller fetches the list again instead.
func TestLoad_InvalidatedByMutationRefetches(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	before := svc.pending()
	after := svc.pending()
	c, store, discarded := newController(svc, "u1")
	store.Replace([]types.Claim{{ID: "1", Title: "Old"}})

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background(), "u1") }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&svc.listCalls) == 1 }, timeout, tick)

	c.InvalidateList()
	store.Merge("1", types.Fields{Title: "New"})

	before <- listResult{claims: []types.Claim{{ID: "1", Title: "Old"}}}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&svc.listCalls) == 2 }, timeout, tick)
	got, _ := store.Get("1")
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, Loading, c.State().Phase)

	after <- listResult{claims: []types.Claim{{ID: "1", Title: "New"}}}
	require.NoError(t, <-done)
	got, _ = store.Get("1")
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, Loaded, c.State().Phase)
	assert.Equal(t, []string{"list"}, *discarded)
}

func TestLoad_InvalidatedThenCanceled(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	first := svc.pending()
	c, store, _ := newController(svc, "u1")
	store.Replace([]types.Claim{{ID: "1"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Load(ctx, "u1") }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&svc.listCalls) == 1 }, timeout, tick)

	c.InvalidateList()
	cancel()
	first <- listResult{claims: []types.Claim{{ID: "stale"}}}
	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, Failed, c.State().Phase)
	assert.Equal(t, []types.Claim{{ID: "1"}}, store.Snapshot())
}

func TestRefresh_ReturnsCountErrorWhenListSucceeds(t *testing.T) {
	t.Parallel()
	svc := &fakeService{countErr: clerrors.NewNetworkError("count due claims", errors.New("down"))}
	svc.pending() <- listResult{claims: []types.Claim{{ID: "1"}}}
	c, store, _ := newController(svc, "u1")

	err := c.Refresh(context.Background(), "u1")
	require.ErrorIs(t, err, svc.countErr)
	assert.Equal(t, Loaded, c.State().Phase)
	assert.Equal(t, 1, store.Len())
}
