package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	client "github.com/claimsure/claims-client"
	"github.com/claimsure/claims-client/internal/devservice"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestCLI_SessionSubmitListUpdateDelete(t *testing.T) {
	dev := devservice.New(devservice.Options{Logger: zerolog.Nop()})
	srv := httptest.NewServer(dev)
	defer srv.Close()

	t.Setenv("CLAIMSURE_BASE_URL", srv.URL)
	t.Setenv("CLAIMSURE_SESSION_DB", filepath.Join(t.TempDir(), "session.db"))

	out := mustRun(t, "session", "show")
	if !strings.Contains(out, "Not logged in") {
		t.Fatalf("session show before login: %q", out)
	}

	if _, err := run(t, "claims", "list"); !client.IsNotAuthenticated(err) {
		t.Fatalf("list without session: err = %v", err)
	}

	mustRun(t, "session", "set", "--user-id", "u1", "--access-token", "tok")
	if out := mustRun(t, "session", "show"); !strings.Contains(out, "User: u1") {
		t.Fatalf("session show: %q", out)
	}

	out = mustRun(t, "claims", "submit", "--title", "Bike", "--type", "Property", "--details", "stolen")
	m := regexp.MustCompile(`Claim submitted: (\S+)`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("submit output: %q", out)
	}
	id := m[1]

	out = mustRun(t, "claims", "list")
	if !strings.Contains(out, id) || !strings.Contains(out, "Bike") || !strings.Contains(out, "property") {
		t.Fatalf("list output: %q", out)
	}

	if out := mustRun(t, "claims", "due"); !strings.Contains(out, "30 days: 1") {
		t.Fatalf("due output: %q", out)
	}

	mustRun(t, "claims", "update", "--id", id, "--title", "Bicycle")
	got := dev.Claims("u1")
	if len(got) != 1 || got[0].Title != "Bicycle" || got[0].Details != "stolen" || got[0].Type != client.ClaimTypeProperty {
		t.Fatalf("after update: %+v", got)
	}

	mustRun(t, "claims", "delete", "--id", id)
	if n := len(dev.Claims("u1")); n != 0 {
		t.Fatalf("claims after delete = %d", n)
	}

	mustRun(t, "session", "clear")
	if _, err := run(t, "claims", "due"); !client.IsNotAuthenticated(err) {
		t.Fatalf("due after logout: err = %v", err)
	}
}

func TestCLI_SubmitValidation(t *testing.T) {
	dev := devservice.New(devservice.Options{Logger: zerolog.Nop()})
	srv := httptest.NewServer(dev)
	defer srv.Close()

	t.Setenv("CLAIMSURE_BASE_URL", srv.URL)
	t.Setenv("CLAIMSURE_SESSION_DB", filepath.Join(t.TempDir(), "session.db"))
	mustRun(t, "session", "set", "--user-id", "u1")

	if _, err := run(t, "claims", "submit", "--title", "x", "--type", "boat", "--details", "d"); err == nil {
		t.Fatal("unknown claim type accepted")
	}
	_, err := run(t, "claims", "submit", "--title", strings.Repeat("t", 21), "--type", "car", "--details", "d")
	if !client.IsValidation(err) {
		t.Fatalf("long title: err = %v", err)
	}
	if n := len(dev.Claims("u1")); n != 0 {
		t.Fatalf("nothing should have been submitted, got %d", n)
	}

	if _, err := run(t, "claims", "update", "--id", "missing", "--title", "x"); err == nil {
		t.Fatal("update of unknown claim succeeded")
	}
}
