package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestNewHTTPError_MessageSelection(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		body string
		want string
	}{
		{"error field verbatim", `{"error":"All fields are required"}`, "All fields are required"},
		{"message fallback", `{"message":"No claims found for this user."}`, "No claims found for this user."},
		{"empty object", `{}`, "fallback"},
		{"not json", `<html>oops</html>`, "fallback"},
		{"blank error", `{"error":"   "}`, "fallback"},
	}
	for _, c := range cases {
		e := NewHTTPError("list claims", response(http.StatusBadRequest, c.body), "fallback")
		if e.Message != c.want {
			t.Fatalf("%s: message = %q, want %q", c.name, e.Message, c.want)
		}
		if e.Kind != KindService {
			t.Fatalf("%s: kind = %v", c.name, e.Kind)
		}
	}
}

func TestHTTPErrorCategories(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status int
		want   ErrorCategory
	}{
		{400, Irrecoverable}, {401, Irrecoverable}, {404, Irrecoverable},
		{408, Recoverable}, {429, Recoverable}, {500, Recoverable}, {503, Recoverable},
	}
	for _, c := range cases {
		e := NewHTTPError("op", response(c.status, `{}`), "x")
		if e.Category != c.want {
			t.Fatalf("status %d: category = %v, want %v", c.status, e.Category, c.want)
		}
	}
}

func TestKinds(t *testing.T) {
	t.Parallel()
	na := fmt.Errorf("load: %w", NotAuthenticated("no user id"))
	if !Is(na, KindNotAuthenticated) || !stderrors.Is(na, ErrNotAuthenticated) {
		t.Fatalf("expected NotAuthenticated, got %v", na)
	}
	if !IsIrrecoverable(na) {
		t.Fatal("NotAuthenticated must never be retried")
	}

	v := Validation("title", "title must be at most 20 characters")
	if k, ok := KindOf(v); !ok || k != KindValidation {
		t.Fatalf("KindOf(validation) = %v, %v", k, ok)
	}
	if !strings.Contains(v.Error(), "title") {
		t.Fatalf("validation error should name the field: %q", v.Error())
	}

	n := NewNetworkError("fetch claims", io.ErrUnexpectedEOF)
	if !Is(n, KindTransport) || IsIrrecoverable(n) {
		t.Fatalf("network errors are recoverable transport errors: %+v", n)
	}
	if !stderrors.Is(n, io.ErrUnexpectedEOF) {
		t.Fatal("network error must wrap its cause")
	}

	if k, ok := KindOf(stderrors.New("plain")); ok || k != KindTransport {
		t.Fatalf("unclassified errors report transport, got %v %v", k, ok)
	}
	if _, ok := KindOf(nil); ok {
		t.Fatal("nil has no kind")
	}
}
