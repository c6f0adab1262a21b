// Package edit tracks the single in-place edit of a claim.
//
// The session is either NotEditing or Editing one claim. Pending values live
// only in the session; the claim itself changes only when Commit succeeds.
// Beginning an edit on another claim discards the pending values of the
// current one, and Begin hands them back so the caller can warn the user.
package edit

import (
	"context"
	"errors"
	"sync"

	clerrors "github.com/claimsure/claims-client/internal/errors"
	"github.com/claimsure/claims-client/internal/types"
)

// ErrNotEditing is returned by operations that need an active edit.
var ErrNotEditing = errors.New("edit: no claim is being edited")

// State is NotEditing or Editing.
type State interface {
	isState()
}

// NotEditing is the idle state.
type NotEditing struct{}

// Editing holds the target claim ID and its pending field values.
type Editing struct {
	TargetID string
	Pending  types.Fields
}

func (NotEditing) isState() {}
func (Editing) isState()    {}

// Field names accepted by UpdateField.
type Field string

const (
	FieldTitle   Field = "title"
	FieldType    Field = "type"
	FieldDetails Field = "details"
)

// Saver persists a pending edit; mutation.Controller implements it.
type Saver interface {
	Save(ctx context.Context, userID string, edit types.PendingEdit) (types.Claim, error)
}

// Session is safe for concurrent use.
type Session struct {
	saver Saver

	mu      sync.Mutex
	editing *Editing
	gen     uint64 // bumped on Begin of a new target, UpdateField and Cancel
}

// New returns a session in NotEditing.
func New(saver Saver) *Session {
	return &Session{saver: saver}
}

// Begin starts editing c, seeding the pending values from its current
// fields. Beginning the claim already being edited keeps its pending values.
// When another claim was being edited, its abandoned edit is returned with
// discarded=true.
func (s *Session) Begin(c types.Claim) (abandoned types.PendingEdit, discarded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing != nil {
		if s.editing.TargetID == c.ID {
			return types.PendingEdit{}, false
		}
		abandoned = types.PendingEdit{TargetID: s.editing.TargetID, Fields: s.editing.Pending}
		discarded = true
	}
	s.gen++
	s.editing = &Editing{TargetID: c.ID, Pending: c.Fields()}
	return abandoned, discarded
}

// UpdateField sets one pending value. The claim type is normalised and must
// be one of the enumerated types.
func (s *Session) UpdateField(name Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return ErrNotEditing
	}
	switch name {
	case FieldTitle:
		s.editing.Pending.Title = value
	case FieldType:
		t, err := types.ParseClaimType(value)
		if err != nil {
			return clerrors.Validation("type", err.Error())
		}
		s.editing.Pending.Type = t
	case FieldDetails:
		s.editing.Pending.Details = value
	default:
		return clerrors.Validation(string(name), "unknown field "+string(name))
	}
	s.gen++
	return nil
}

// Cancel leaves the edit without saving. It reports whether an edit was active.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return false
	}
	s.editing = nil
	s.gen++
	return true
}

// Commit saves the pending values. On success the session returns to
// NotEditing unless Begin, UpdateField or Cancel happened while the save was
// in flight: values changed meanwhile stay pending for the next Commit.
// On failure the edit stays active with its pending values.
func (s *Session) Commit(ctx context.Context, userID string) (types.Claim, error) {
	s.mu.Lock()
	if s.editing == nil {
		s.mu.Unlock()
		return types.Claim{}, ErrNotEditing
	}
	pending := types.PendingEdit{TargetID: s.editing.TargetID, Fields: s.editing.Pending}
	gen := s.gen
	s.mu.Unlock()

	saved, err := s.saver.Save(ctx, userID, pending)
	if err != nil {
		return types.Claim{}, err
	}

	s.mu.Lock()
	if s.gen == gen {
		s.editing = nil
		s.gen++
	}
	s.mu.Unlock()
	return saved, nil
}

// State returns a copy of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return NotEditing{}
	}
	return *s.editing
}

// Active returns the pending edit, if any.
func (s *Session) Active() (types.PendingEdit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return types.PendingEdit{}, false
	}
	return types.PendingEdit{TargetID: s.editing.TargetID, Fields: s.editing.Pending}, true
}
