package transfer

import (
	"strconv"
	"strings"

	"github.com/orangemri/worklog/internal/record"
)

// csvHeaders is the fixed case column order; the importer maps columns by
// header name, so reordered files from older exports still round-trip.
var csvHeaders = []string{
	"id",
	"createdAt",
	"updatedAt",
	"handledAt",
	"customerCode",
	"interaction",
	"contactType",
	"outcome",
	"customerCalled",
	"problemDescription",
	"preAnalysis",
	"actionsDone",
	"ringRing",
	"technicianDate",
	"todoRequired",
}

// ExportCasesCSV renders the case collection as CSV with the fixed header
// row. Fields containing a comma, double quote or newline are quoted with
// doubled inner quotes.
func ExportCasesCSV(cs []record.Case) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeaders, ","))

	for _, c := range cs {
		values := caseColumns(c)
		b.WriteByte('\n')
		for i, v := range values {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(csvValue(v))
		}
	}
	return []byte(b.String())
}

func caseColumns(c record.Case) []string {
	called := "false"
	if c.CustomerCalled {
		called = "true"
	}
	return []string{
		c.ID,
		formatMillis(c.CreatedAt),
		formatMillis(c.UpdatedAt),
		formatMillis(c.HandledAt),
		c.CustomerCode,
		c.Interaction,
		c.ContactType,
		c.Outcome,
		called,
		c.ProblemDescription,
		c.PreAnalysis,
		c.ActionsDone,
		c.RingRing,
		c.TechnicianDate,
		c.TodoRequired,
	}
}

func formatMillis(v int64) string {
	return strconv.FormatInt(v, 10)
}

func csvValue(s string) string {
	if strings.ContainsAny(s, "\",\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// DecodeCasesCSV parses CSV content back into raw case candidates. The
// scanner runs over the full text rather than per line, so quoted fields
// may contain commas, doubled quotes and embedded newlines. Content with
// no data rows is ErrBadFormat.
func DecodeCasesCSV(data []byte) ([]map[string]any, error) {
	records := scanCSV(string(data))
	if len(records) < 2 {
		return nil, ErrBadFormat
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	out := make([]map[string]any, 0, len(records)-1)
	for _, cols := range records[1:] {
		obj := make(map[string]any, len(headers))
		for i, h := range headers {
			if i >= len(cols) {
				break
			}
			obj[h] = cols[i]
		}
		if v, ok := obj["customerCalled"].(string); ok {
			obj["customerCalled"] = v == "1" || v == "true"
		}
		out = append(out, obj)
	}
	return out, nil
}

// scanCSV splits CSV text into records of fields. Quote state carries
// across newlines; blank records between rows are dropped.
func scanCSV(text string) [][]string {
	var records [][]string
	var fields []string
	var cur strings.Builder
	inQuotes := false

	endField := func() {
		fields = append(fields, cur.String())
		cur.Reset()
	}
	endRecord := func() {
		endField()
		if len(fields) > 1 || fields[0] != "" {
			records = append(records, fields)
		}
		fields = nil
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == '"' && inQuotes && i+1 < len(text) && text[i+1] == '"':
			cur.WriteByte('"')
			i++
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			endField()
		case ch == '\r' && !inQuotes && i+1 < len(text) && text[i+1] == '\n':
			endRecord()
			i++
		case ch == '\n' && !inQuotes:
			endRecord()
		default:
			cur.WriteByte(ch)
		}
	}
	if cur.Len() > 0 || len(fields) > 0 {
		endRecord()
	}
	return records
}
