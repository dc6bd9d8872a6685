package cases

import (
	"strconv"
	"strings"

	"github.com/orangemri/worklog/internal/record"
)

// Fingerprint returns the semantic identity of a case, independent of its
// id. Imported data may have been exported from another device with
// different generated ids, so duplicates are detected by content: the
// authoritative timestamp (handledAt, else createdAt, else 0) plus the
// normalized category and free-text fields, pipe-joined in fixed order.
//
// Two cases with equal fingerprints are duplicates regardless of their ids
// or the timestamps outside the authoritative one.
func Fingerprint(c record.Case) string {
	t := c.HandledAt
	if t == 0 {
		t = c.CreatedAt
	}

	called := "0"
	if c.CustomerCalled {
		called = "1"
	}

	return strings.Join([]string{
		strconv.FormatInt(t, 10),
		norm(c.CustomerCode),
		norm(c.Interaction),
		norm(c.ContactType),
		norm(c.Outcome),
		called,
		norm(c.ProblemDescription),
		norm(c.PreAnalysis),
		norm(c.ActionsDone),
		norm(c.TodoRequired),
	}, "|")
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MergeImported merges raw import candidates into an existing collection,
// adding only candidates whose fingerprint is not already present. Each
// candidate is sanitized before fingerprinting. Returns the merged
// collection and the number of newly added cases.
func MergeImported(existing []record.Case, imported []map[string]any) ([]record.Case, int) {
	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[Fingerprint(c)] = struct{}{}
	}

	merged := make([]record.Case, len(existing), len(existing)+len(imported))
	copy(merged, existing)

	added := 0
	for _, raw := range imported {
		c := record.SanitizeCase(raw)
		fp := Fingerprint(c)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		merged = append(merged, c)
		added++
	}

	return merged, added
}
