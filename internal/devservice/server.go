// Package devservice is an in-memory claims service with the routes and
// payloads of the production backend. It backs claimsctl serve-dev and the
// end-to-end tests of the client.
package devservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/claimsure/claims-client/internal/types"
)

// Options configure a Server.
type Options struct {
	// Typed encodes listed claims in DynamoDB attribute-value form.
	Typed bool
	// DueIn is added to the submission time to get the due date (default 30 days).
	DueIn time.Duration
	// Window is the count-due horizon (default 30 days).
	Window time.Duration
	Now    func() time.Time
	Logger zerolog.Logger
}

// Server serves the /claims routes.
type Server struct {
	opts   Options
	store  *memStore
	log    zerolog.Logger
	router *mux.Router
}

// New returns a Server with an empty store.
func New(opts Options) *Server {
	if opts.DueIn <= 0 {
		opts.DueIn = 30 * 24 * time.Hour
	}
	if opts.Window <= 0 {
		opts.Window = 30 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		opts:  opts,
		store: newMemStore(),
		log:   opts.Logger.With().Str("component", "devservice").Logger(),
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// Seed inserts c for userID as if it had been submitted. Missing dates are
// derived from Now and DueIn.
func (s *Server) Seed(userID string, c types.Claim) types.Claim {
	if c.SubmissionDate.IsZero() {
		c.SubmissionDate = s.opts.Now().UTC()
	}
	if c.DueDate.IsZero() {
		c.DueDate = c.SubmissionDate.Add(s.opts.DueIn)
	}
	return s.store.add(userID, c, nil)
}

// Claims returns the stored claims of userID.
func (s *Server) Claims(userID string) []types.Claim { return s.store.list(userID) }

func (s *Server) newRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)

	c := r.PathPrefix("/claims").Subrouter()
	c.HandleFunc("/submit-claim", s.submitClaim).Methods(http.MethodPost)
	c.HandleFunc("/get-claims", s.getClaims).Methods(http.MethodGet)
	c.HandleFunc("/count-due", s.countDue).Methods(http.MethodGet)
	c.HandleFunc("/update-claim", s.updateClaim).Methods(http.MethodPost)
	c.HandleFunc("/delete-claim", s.deleteClaim).Methods(http.MethodDelete)
	c.HandleFunc("/files/{claimId}", s.getFile).Methods(http.MethodGet)
	return r
}

// submitClaim POST /claims/submit-claim (multipart)
func (s *Server) submitClaim(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, types.MaxAttachmentBytes+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "File size exceeds 50MB. Please upload a smaller file.")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	userID := r.FormValue("user_id")
	title := r.FormValue("claimTitle")
	claimType := r.FormValue("claimType")
	details := r.FormValue("claimDetails")
	if userID == "" || title == "" || claimType == "" || details == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	now := s.opts.Now().UTC()
	c := types.Claim{
		ID:             uuid.NewString(),
		Title:          title,
		Type:           types.ClaimType(claimType),
		Details:        details,
		SubmissionDate: now,
		DueDate:        now.Add(s.opts.DueIn),
	}

	var file *blob
	if f, hdr, err := r.FormFile("file"); err == nil {
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Could not read file")
			return
		}
		file = &blob{name: hdr.Filename, data: data}
		c.FileURL = s.fileURL(r, c.ID)
	}
	c = s.store.add(userID, c, file)
	writeJSON(w, http.StatusOK, types.SubmitClaimResponse{
		Status:  "Claim submitted successfully",
		ClaimID: c.ID,
		FileURL: c.FileURL,
	})
}

// getClaims GET /claims/get-claims?user_id=
func (s *Server) getClaims(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	claims := s.store.list(userID)
	if len(claims) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No claims found for this user."})
		return
	}
	if !s.opts.Typed {
		writeJSON(w, http.StatusOK, types.ListClaimsResponse{Claims: claims})
		return
	}
	items := make([]map[string]map[string]string, len(claims))
	for i, c := range claims {
		items[i] = c.AttributeMap()
	}
	writeJSON(w, http.StatusOK, map[string]any{"claims": items})
}

// countDue GET /claims/count-due?user_id=
func (s *Server) countDue(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return
	}
	n := s.store.countDue(userID, s.opts.Now(), s.opts.Window)
	writeJSON(w, http.StatusOK, types.CountDueResponse{ClaimsDueInNext30Days: n})
}

// updateClaim POST /claims/update-claim (JSON)
func (s *Server) updateClaim(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.UserID == "" || req.ClaimID == "" || req.Title == "" || req.Type == "" || req.Details == "" {
		writeError(w, http.StatusBadRequest, "All fields are required for updating the claim")
		return
	}
	if !s.store.update(req.UserID, req.ClaimID, types.Fields{Title: req.Title, Type: req.Type, Details: req.Details}) {
		writeError(w, http.StatusNotFound, "Claim not found")
		return
	}
	writeJSON(w, http.StatusOK, types.StatusResponse{Status: "Claim updated successfully"})
}

// deleteClaim DELETE /claims/delete-claim?user_id=&claim_id=
func (s *Server) deleteClaim(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, claimID := q.Get("user_id"), q.Get("claim_id")
	if userID == "" || claimID == "" {
		writeError(w, http.StatusBadRequest, "User ID and Claim ID are required for deletion")
		return
	}
	s.store.remove(userID, claimID)
	writeJSON(w, http.StatusOK, types.StatusResponse{Status: "Claim deleted successfully"})
}

// getFile GET /claims/files/{claimId}
func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	b, ok := s.store.file(mux.Vars(r)["claimId"])
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", b.name))
	_, _ = w.Write(b.data)
}

func (s *Server) fileURL(r *http.Request, claimID string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: r.Host, Path: "/claims/files/" + claimID}
	return u.String()
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Bool("authorized", strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ")).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
