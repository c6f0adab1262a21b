package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Claim records arrive either as plain JSON strings or in DynamoDB
// attribute-value form ({"ClaimTitle": {"S": "..."}}), depending on the
// backend. Both are accepted, under a few spellings per attribute.
var (
	idKeys         = []string{"ClaimID", "claim_id", "id"}
	titleKeys      = []string{"ClaimTitle", "claimTitle", "title"}
	typeKeys       = []string{"ClaimType", "claimType", "type"}
	detailsKeys    = []string{"ClaimDetails", "claimDetails", "details"}
	fileURLKeys    = []string{"FileURL", "file_url", "fileUrl"}
	submissionKeys = []string{"SubmissionDate", "submissionDate", "Timestamp"}
	dueKeys        = []string{"DueDate", "dueDate"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Claim) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	get := func(keys []string) (string, error) {
		for _, k := range keys {
			v, ok := raw[k]
			if !ok {
				continue
			}
			s, err := attrString(v)
			if err != nil {
				return "", fmt.Errorf("claim attribute %s: %w", k, err)
			}
			return s, nil
		}
		return "", nil
	}

	var out Claim
	var err error
	if out.ID, err = get(idKeys); err != nil {
		return err
	}
	if out.Title, err = get(titleKeys); err != nil {
		return err
	}
	typ, err := get(typeKeys)
	if err != nil {
		return err
	}
	out.Type = ClaimType(typ)
	if t, err := ParseClaimType(typ); err == nil {
		out.Type = t
	}
	if out.Details, err = get(detailsKeys); err != nil {
		return err
	}
	if out.FileURL, err = get(fileURLKeys); err != nil {
		return err
	}
	sub, err := get(submissionKeys)
	if err != nil {
		return err
	}
	if out.SubmissionDate, err = parseTime(sub); err != nil {
		return fmt.Errorf("claim %s submission date: %w", out.ID, err)
	}
	due, err := get(dueKeys)
	if err != nil {
		return err
	}
	if out.DueDate, err = parseTime(due); err != nil {
		return fmt.Errorf("claim %s due date: %w", out.ID, err)
	}
	*c = out
	return nil
}

// attrString decodes a JSON string or a DynamoDB string attribute.
// NULL attributes and JSON null decode to "".
func attrString(v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var attr struct {
		S    *string `json:"S"`
		NULL bool    `json:"NULL"`
	}
	if err := json.Unmarshal(v, &attr); err != nil {
		return "", err
	}
	if attr.S != nil {
		return *attr.S, nil
	}
	if attr.NULL {
		return "", nil
	}
	return "", fmt.Errorf("unsupported attribute value %s", string(v))
}

// parseTime accepts RFC 3339 and zone-less ISO 8601 timestamps; the latter
// are taken as UTC. An empty string yields the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// AttributeMap renders the claim in DynamoDB attribute-value form.
func (c Claim) AttributeMap() map[string]map[string]string {
	s := func(v string) map[string]string { return map[string]string{"S": v} }
	m := map[string]map[string]string{
		"ClaimID":      s(c.ID),
		"ClaimTitle":   s(c.Title),
		"ClaimType":    s(string(c.Type)),
		"ClaimDetails": s(c.Details),
		"FileURL":      s(c.FileURL),
	}
	if !c.SubmissionDate.IsZero() {
		m["SubmissionDate"] = s(c.SubmissionDate.Format(time.RFC3339Nano))
	}
	if !c.DueDate.IsZero() {
		m["DueDate"] = s(c.DueDate.Format(time.RFC3339Nano))
	}
	return m
}
