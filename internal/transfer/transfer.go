// Package transfer implements file export and import for the worklog
// collections.
//
// Cases export to either a versioned JSON document or CSV, and import back
// from either: JSON is tried first and CSV is the fallback, so a single
// import entry point handles both. Follow-ups exchange a bare JSON array.
// Imports surface raw candidate objects; sanitization and dedup belong to
// the owning repositories.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/orangemri/worklog/internal/record"
)

// MIME types for the download side of an export.
const (
	MIMEJSON = "application/json"
	MIMECSV  = "text/csv"
)

// ErrBadFormat reports content that is neither valid case JSON nor CSV.
var ErrBadFormat = errors.New("unrecognized import format")

// CaseDocument is the JSON export envelope for cases.
type CaseDocument struct {
	Version    int           `json:"version"`
	ExportedAt int64         `json:"exportedAt"`
	Cases      []record.Case `json:"cases"`
}

// ExportCasesJSON renders the case collection as a versioned JSON document.
func ExportCasesJSON(cs []record.Case, exportedAt int64) ([]byte, error) {
	if cs == nil {
		cs = []record.Case{}
	}
	doc := CaseDocument{Version: 1, ExportedAt: exportedAt, Cases: cs}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode case export: %w", err)
	}
	return data, nil
}

// DecodeCasesJSON extracts raw case candidates from JSON content. Both the
// versioned export document and a bare array are accepted; anything else
// is ErrBadFormat.
func DecodeCasesJSON(data []byte) ([]map[string]any, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, ErrBadFormat
	}

	var items []any
	switch v := parsed.(type) {
	case []any:
		items = v
	case map[string]any:
		arr, ok := v["cases"].([]any)
		if !ok {
			return nil, ErrBadFormat
		}
		items = arr
	default:
		return nil, ErrBadFormat
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// DecodeCases extracts raw case candidates from file content of unknown
// type. JSON is tried first, then CSV. Content matching neither returns
// ErrBadFormat.
func DecodeCases(data []byte) ([]map[string]any, error) {
	if raw, err := DecodeCasesJSON(data); err == nil {
		return raw, nil
	}
	return DecodeCasesCSV(data)
}

// ExportFollowupsJSON renders the follow-up collection as a bare JSON
// array.
func ExportFollowupsJSON(items []record.Followup) ([]byte, error) {
	if items == nil {
		items = []record.Followup{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode follow-up export: %w", err)
	}
	return data, nil
}

// DecodeFollowupsJSON extracts raw follow-up candidates. Only a bare JSON
// array is accepted; non-object elements are skipped.
func DecodeFollowupsJSON(data []byte) ([]map[string]any, error) {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, ErrBadFormat
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// ExportFilename builds the dated download name for a collection export,
// e.g. "orange-mri-cases-2026-08-30.json".
func ExportFilename(prefix, collection, ext string, t time.Time) string {
	return fmt.Sprintf("%s-%s-%s.%s", prefix, collection, t.Format("2006-01-02"), ext)
}
