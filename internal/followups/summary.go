package followups

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/orangemri/worklog/internal/record"
)

// SortMode selects the comparator for the follow-up list view.
type SortMode string

const (
	SortDueAsc      SortMode = "dueAsc"
	SortDueDesc     SortMode = "dueDesc"
	SortCreatedAsc  SortMode = "createdAsc"
	SortCreatedDesc SortMode = "createdDesc"
)

// Summary is the one-line rollup shown above the follow-up list.
type Summary struct {
	Total   int `json:"total"`
	Todo    int `json:"todo"`
	TBC     int `json:"tbc"`
	Done    int `json:"done"`
	Overdue int `json:"overdue"`
}

// String renders the rollup the way the list header shows it. The overdue
// segment only appears when something is actually overdue.
func (s Summary) String() string {
	line := fmt.Sprintf("%d total • %d to do • %d to be checked • %d done", s.Total, s.Todo, s.TBC, s.Done)
	if s.Overdue > 0 {
		line += fmt.Sprintf(" • %d overdue", s.Overdue)
	}
	return line
}

// Summarize counts follow-ups per status plus the overdue ones, relative
// to the given reference time.
func Summarize(items []record.Followup, now time.Time) Summary {
	s := Summary{Total: len(items)}
	for _, it := range items {
		switch it.Status {
		case record.StatusTodo:
			s.Todo++
		case record.StatusTBC:
			s.TBC++
		case record.StatusDone:
			s.Done++
		}
		if IsOverdue(it, now) {
			s.Overdue++
		}
	}
	return s
}

// IsOverdue reports whether the follow-up's due date has passed. Items
// without a due date and items already done are never overdue. The due
// date is compared against the start of now's calendar day, so an item
// due today is not yet overdue.
func IsOverdue(f record.Followup, now time.Time) bool {
	if f.DueDate == "" || f.Status == record.StatusDone {
		return false
	}
	due, err := time.ParseInLocation("2006-01-02", f.DueDate, now.Location())
	if err != nil {
		return false
	}
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return due.Before(startOfToday)
}

// Matches reports whether the follow-up matches a free-text query against
// its title, details, status and due date.
func Matches(f record.Followup, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	hay := strings.ToLower(f.Title + " " + f.Details + " " + string(f.Status) + " " + f.DueDate)
	return strings.Contains(hay, q)
}

// FilterSort returns the follow-ups matching the query and status filter,
// ordered per mode. Done items always sink to the bottom regardless of
// mode; within each group the mode's comparator applies. An empty status
// means no status filtering.
func FilterSort(items []record.Followup, query string, status record.Status, mode SortMode) []record.Followup {
	out := make([]record.Followup, 0, len(items))
	for _, it := range items {
		if status != "" && it.Status != status {
			continue
		}
		if !Matches(it, query) {
			continue
		}
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		wi, wj := doneWeight(out[i]), doneWeight(out[j])
		if wi != wj {
			return wi < wj
		}
		switch mode {
		case SortDueAsc:
			return dueValue(out[i]) < dueValue(out[j])
		case SortDueDesc:
			return dueValue(out[i]) > dueValue(out[j])
		case SortCreatedAsc:
			return out[i].CreatedAt < out[j].CreatedAt
		default:
			return out[i].CreatedAt > out[j].CreatedAt
		}
	})
	return out
}

func doneWeight(f record.Followup) int {
	if f.Status == record.StatusDone {
		return 1
	}
	return 0
}

// dueValue orders by due date; items without one sort after everything.
func dueValue(f record.Followup) int64 {
	if f.DueDate == "" {
		return math.MaxInt64
	}
	due, err := time.Parse("2006-01-02", f.DueDate)
	if err != nil {
		return math.MaxInt64
	}
	return due.UnixMilli()
}
