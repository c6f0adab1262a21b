package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestClaimUnmarshal_AttributeValueForm(t *testing.T) {
	t.Parallel()
	body := `{"claims":[{
		"UserID":{"S":"u1"},
		"ClaimID":{"S":"c1"},
		"ClaimTitle":{"S":"Car crash"},
		"ClaimType":{"S":"car"},
		"ClaimDetails":{"S":"rear-ended"},
		"FileURL":{"S":""},
		"Timestamp":{"S":"2024-10-01T09:30:00.123456+00:00"},
		"DueDate":{"S":"2024-10-31T09:30:00.123456"}
	}]}`
	var lr ListClaimsResponse
	if err := json.Unmarshal([]byte(body), &lr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(lr.Claims) != 1 {
		t.Fatalf("expected one claim, got %d", len(lr.Claims))
	}
	c := lr.Claims[0]
	if c.ID != "c1" || c.Title != "Car crash" || c.Type != ClaimTypeCar || c.Details != "rear-ended" {
		t.Fatalf("unexpected claim: %+v", c)
	}
	if c.HasFile() {
		t.Fatal("empty FileURL means no file")
	}
	if c.SubmissionDate.Year() != 2024 || c.DueDate.Day() != 31 {
		t.Fatalf("dates not parsed: %v %v", c.SubmissionDate, c.DueDate)
	}
}

func TestClaimUnmarshal_PlainForm(t *testing.T) {
	t.Parallel()
	due := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	in := Claim{ID: "c2", Title: "Flood", Type: ClaimTypeHome, Details: "d", FileURL: "https://f", DueDate: due}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Claim
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != "c2" || out.FileURL != "https://f" || !out.DueDate.Equal(due) || !out.SubmissionDate.IsZero() {
		t.Fatalf("unexpected claim: %+v", out)
	}
}

func TestClaimUnmarshal_Errors(t *testing.T) {
	t.Parallel()
	bad := []string{
		`{"ClaimID":{"N":"5"}}`,
		`{"ClaimID":"c","DueDate":"next tuesday"}`,
		`[1,2]`,
	}
	for _, b := range bad {
		var c Claim
		if err := json.Unmarshal([]byte(b), &c); err == nil {
			t.Fatalf("expected error for %s", b)
		}
	}
}

func TestDueWithin(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	window := 30 * 24 * time.Hour
	cases := []struct {
		due  time.Time
		want bool
	}{
		{now.Add(24 * time.Hour), true},
		{now.Add(window), true},
		{now.Add(window + time.Second), false},
		{now.Add(-time.Hour), false},
		{time.Time{}, false},
	}
	for _, c := range cases {
		if got := (Claim{DueDate: c.due}).DueWithin(now, window); got != c.want {
			t.Fatalf("DueWithin(%v) = %v, want %v", c.due, got, c.want)
		}
	}
}

func TestClaimUnmarshal_NormalisesType(t *testing.T) {
	t.Parallel()
	cases := []struct {
		body string
		want ClaimType
	}{
		{`{"ClaimID":"c","ClaimType":"Medical"}`, ClaimTypeMedical},
		{`{"ClaimID":"c","ClaimType":{"S":" CAR "}}`, ClaimTypeCar},
		{`{"ClaimID":"c","ClaimType":"boat"}`, ClaimType("boat")},
		{`{"ClaimID":"c"}`, ClaimType("")},
	}
	for _, tc := range cases {
		var c Claim
		if err := json.Unmarshal([]byte(tc.body), &c); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.body, err)
		}
		if c.Type != tc.want {
			t.Fatalf("%s: type = %q, want %q", tc.body, c.Type, tc.want)
		}
	}
	var c Claim
	if err := json.Unmarshal([]byte(`{"ClaimID":"c","ClaimTitle":"t","ClaimType":"Home","ClaimDetails":"d"}`), &c); err != nil {
		t.Fatal(err)
	}
	if err := ValidateFields(c.Fields()); err != nil {
		t.Fatalf("decoded fields must pass validation unchanged: %v", err)
	}
}
