package cases

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/orangemri/worklog/internal/record"
)

// CaseTime returns the timestamp a case is bucketed under for reporting:
// handledAt when set, else createdAt, else 0.
func CaseTime(c record.Case) int64 {
	if c.HandledAt != 0 {
		return c.HandledAt
	}
	return c.CreatedAt
}

// IsOutbound classifies a case for the two-column list view. The category
// fields are free text coming from years of inconsistent dropdown values,
// so anything mentioning "outbound" or "cmr" counts as outbound and
// everything else defaults to inbound.
func IsOutbound(c record.Case) bool {
	hay := norm(c.Interaction) + " " + norm(c.ContactType) + " " + norm(c.Outcome)
	return strings.Contains(hay, "outbound") || strings.Contains(hay, "cmr")
}

// Matches reports whether the case matches a free-text search query. The
// query is matched case-insensitively against the customer code, the four
// free-text fields and the three category fields.
func Matches(c record.Case, query string) bool {
	q := norm(query)
	if q == "" {
		return true
	}
	hay := strings.Join([]string{
		norm(c.CustomerCode),
		norm(c.ProblemDescription),
		norm(c.PreAnalysis),
		norm(c.ActionsDone),
		norm(c.TodoRequired),
		norm(c.Interaction),
		norm(c.ContactType),
		norm(c.Outcome),
	}, " ")
	return strings.Contains(hay, q)
}

// Filter returns the cases matching the query and outcome filter, sorted
// newest first. An empty outcome means no outcome filtering.
func Filter(all []record.Case, query, outcome string) []record.Case {
	out := make([]record.Case, 0, len(all))
	for _, c := range all {
		if outcome != "" && c.Outcome != outcome {
			continue
		}
		if !Matches(c, query) {
			continue
		}
		out = append(out, c)
	}
	SortByFreshness(out)
	return out
}

// SortByFreshness sorts cases newest first by updatedAt, falling back to
// createdAt for records that were never updated.
func SortByFreshness(cs []record.Case) {
	key := func(c record.Case) int64 {
		if c.UpdatedAt != 0 {
			return c.UpdatedAt
		}
		return c.CreatedAt
	}
	sort.SliceStable(cs, func(i, j int) bool {
		return key(cs[i]) > key(cs[j])
	})
}

// Stats summarizes the cases handled within one reporting period.
//
// Inbound counts cases whose interaction is exactly "Inbound"; everything
// else is outbound. Called and CallRate cover outbound cases only, since
// calling the customer back is the follow-up obligation of outbound work.
type Stats struct {
	Total          int `json:"total"`
	Inbound        int `json:"inbound"`
	Outbound       int `json:"outbound"`
	OutboundCalled int `json:"outboundCalled"`
	// CallRatePct is OutboundCalled over Outbound, rounded to a whole
	// percentage. Zero when there are no outbound cases.
	CallRatePct int `json:"callRatePct"`
}

// ComputeStats summarizes the cases whose CaseTime falls within
// [fromMillis, toMillis], bounds inclusive.
func ComputeStats(all []record.Case, fromMillis, toMillis int64) Stats {
	var s Stats
	for _, c := range all {
		t := CaseTime(c)
		if t < fromMillis || t > toMillis {
			continue
		}
		s.Total++
		if c.Interaction == "Inbound" {
			s.Inbound++
			continue
		}
		s.Outbound++
		if c.CustomerCalled {
			s.OutboundCalled++
		}
	}
	s.CallRatePct = pct(s.OutboundCalled, s.Outbound)
	return s
}

func pct(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(d) * 100))
}

// DayRange returns the inclusive millisecond bounds of the calendar day
// containing t, in t's location.
func DayRange(t time.Time) (int64, int64) {
	y, m, d := t.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	to := from.AddDate(0, 0, 1).Add(-time.Millisecond)
	return from.UnixMilli(), to.UnixMilli()
}

// MonthRange returns the inclusive millisecond bounds of the calendar month
// containing t, in t's location.
func MonthRange(t time.Time) (int64, int64) {
	y, m, _ := t.Date()
	from := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	to := from.AddDate(0, 1, 0).Add(-time.Millisecond)
	return from.UnixMilli(), to.UnixMilli()
}

// YearRange returns the inclusive millisecond bounds of the calendar year
// containing t, in t's location.
func YearRange(t time.Time) (int64, int64) {
	from := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	to := from.AddDate(1, 0, 0).Add(-time.Millisecond)
	return from.UnixMilli(), to.UnixMilli()
}
