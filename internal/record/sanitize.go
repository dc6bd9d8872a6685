package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// finiteMillis coerces an arbitrary decoded JSON value to an epoch-millis
// timestamp. Numbers and numeric strings are accepted; anything non-finite
// or non-numeric is treated as absent.
func finiteMillis(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

// stringField renders a raw value as a string field; missing values become
// the empty string, non-strings are stringified rather than rejected.
func stringField(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

// calledFlag coerces the customerCalled value. Only boolean true, string
// "true", number 1 and string "1" count as called; everything else is false.
func calledFlag(v any) bool {
	switch c := v.(type) {
	case bool:
		return c
	case string:
		return c == "true" || c == "1"
	case float64:
		return c == 1
	case int:
		return c == 1
	default:
		return false
	}
}

// SanitizeCase converts an untyped import candidate into a well-formed Case.
//
// Timestamp resolution: createdAt is authoritative when present; otherwise
// handledAt, then updatedAt, then the import moment. updatedAt and handledAt
// each default to that base timestamp when absent or invalid. The id is
// preserved when present and generated otherwise.
func SanitizeCase(raw map[string]any) Case {
	now := time.Now().UnixMilli()

	createdAt, hasCreated := finiteMillis(raw["createdAt"])
	updatedAt, hasUpdated := finiteMillis(raw["updatedAt"])
	handledAt, hasHandled := finiteMillis(raw["handledAt"])

	baseTs := now
	switch {
	case hasCreated:
		baseTs = createdAt
	case hasHandled:
		baseTs = handledAt
	case hasUpdated:
		baseTs = updatedAt
	}

	if !hasUpdated {
		updatedAt = baseTs
	}
	if !hasHandled {
		handledAt = baseTs
	}

	id := stringField(raw["id"])
	if id == "" {
		id = NewID()
	}

	return Case{
		ID:        id,
		CreatedAt: baseTs,
		UpdatedAt: updatedAt,
		HandledAt: handledAt,

		CustomerCode:       stringField(raw["customerCode"]),
		ProblemDescription: stringField(raw["problemDescription"]),
		PreAnalysis:        stringField(raw["preAnalysis"]),
		Interaction:        stringField(raw["interaction"]),
		ContactType:        stringField(raw["contactType"]),
		Outcome:            stringField(raw["outcome"]),
		CustomerCalled:     calledFlag(raw["customerCalled"]),

		ActionsDone:    stringField(raw["actionsDone"]),
		RingRing:       stringField(raw["ringRing"]),
		TechnicianDate: stringField(raw["technicianDate"]),
		TodoRequired:   stringField(raw["todoRequired"]),
	}
}

// SanitizeFollowup converts an untyped import candidate into a well-formed
// Followup. An empty title becomes "Untitled" and unknown statuses fall back
// to todo, so a partially damaged export still imports.
func SanitizeFollowup(raw map[string]any) Followup {
	now := time.Now().UnixMilli()

	createdAt, ok := finiteMillis(raw["createdAt"])
	if !ok || createdAt == 0 {
		createdAt = now
	}
	updatedAt, ok := finiteMillis(raw["updatedAt"])
	if !ok || updatedAt == 0 {
		updatedAt = now
	}

	id := stringField(raw["id"])
	if id == "" {
		id = NewID()
	}

	title := strings.TrimSpace(stringField(raw["title"]))
	if title == "" {
		title = "Untitled"
	}

	status := Status(stringField(raw["status"]))
	if !ValidStatus(status) {
		status = StatusTodo
	}

	return Followup{
		ID:        id,
		Title:     title,
		Details:   stringField(raw["details"]),
		DueDate:   stringField(raw["dueDate"]),
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}
