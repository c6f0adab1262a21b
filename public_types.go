package client

import (
	"io"

	"github.com/claimsure/claims-client/internal/claimstore"
	"github.com/claimsure/claims-client/internal/edit"
	"github.com/claimsure/claims-client/internal/fetch"
	"github.com/claimsure/claims-client/internal/session"
	"github.com/claimsure/claims-client/internal/shardqueue"
	"github.com/claimsure/claims-client/internal/types"
)

// Public type aliases so SDK consumers can import only the client package.
type (
	// Domain
	Claim       = types.Claim
	ClaimType   = types.ClaimType
	Fields      = types.Fields
	PendingEdit = types.PendingEdit
	Attachment  = types.Attachment
	DueSoon     = claimstore.DueSoon

	// Requests and responses
	SubmitClaimRequest  = types.SubmitClaimRequest
	SubmitClaimResponse = types.SubmitClaimResponse

	// Session
	TokenBundle   = types.TokenBundle
	Credential    = types.Credential
	SessionStore  = session.Store
	SessionStatus = session.Status

	// View state
	LoadState  = fetch.State
	LoadPhase  = fetch.Phase
	EditState  = edit.State
	Editing    = edit.Editing
	NotEditing = edit.NotEditing
	EditField  = edit.Field

	ExecutorConfig = shardqueue.Config
)

const (
	ClaimTypeMedical  = types.ClaimTypeMedical
	ClaimTypeLife     = types.ClaimTypeLife
	ClaimTypeCar      = types.ClaimTypeCar
	ClaimTypeHome     = types.ClaimTypeHome
	ClaimTypeProperty = types.ClaimTypeProperty

	PhaseIdle    = fetch.Idle
	PhaseLoading = fetch.Loading
	PhaseLoaded  = fetch.Loaded
	PhaseFailed  = fetch.Failed

	FieldTitle   = edit.FieldTitle
	FieldType    = edit.FieldType
	FieldDetails = edit.FieldDetails

	MaxTitleLength     = types.MaxTitleLength
	MaxAttachmentBytes = types.MaxAttachmentBytes
)

// ClaimTypes lists the accepted claim types.
func ClaimTypes() []ClaimType { return types.ClaimTypes() }

// ParseClaimType normalises and checks a claim type name.
func ParseClaimType(s string) (ClaimType, error) { return types.ParseClaimType(s) }

// NewAttachment wraps r as an upload, rejecting sizes above 50 MB.
func NewAttachment(name string, size int64, r io.Reader) (*Attachment, error) {
	return types.NewAttachment(name, size, r)
}

// OpenAttachment opens the file at path for upload.
func OpenAttachment(path string) (*Attachment, error) { return types.OpenAttachment(path) }

// NewMemorySessionStore returns a process-local session store.
func NewMemorySessionStore() SessionStore { return session.NewMemoryStore() }

// OpenSQLiteSessionStore opens a file-backed session store. The caller
// closes it after the Client using it is closed.
func OpenSQLiteSessionStore(path string) (*session.SQLiteStore, error) {
	return session.OpenSQLite(path)
}
