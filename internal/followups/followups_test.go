package followups

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/orangemri/worklog/internal/record"
	"github.com/orangemri/worklog/internal/remote"
	"github.com/orangemri/worklog/internal/store"
)

type fakeQueue struct{}

func (fakeQueue) EnqueueUpsert(rows []remote.Row) {}
func (fakeQueue) EnqueueDelete(id string)         {}

type emptyRemote struct{}

func (emptyRemote) List(ctx context.Context) ([]remote.Row, error)          { return nil, nil }
func (emptyRemote) UpsertMany(ctx context.Context, rows []remote.Row) error { return nil }
func (emptyRemote) DeleteByID(ctx context.Context, id string) error         { return nil }

func setupRepo(t *testing.T) *Repo {
	t.Helper()

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return NewRepo(st, emptyRemote{}, fakeQueue{}, log.New(os.Stderr, "[test] ", 0))
}

func TestCreateRequiresTitle(t *testing.T) {
	r := setupRepo(t)

	if _, err := r.Create(record.FollowupFields{Title: ""}); err == nil {
		t.Error("expected empty title to be rejected")
	}

	item, err := r.Create(record.FollowupFields{Title: "call back customer"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if item.Status != record.StatusTodo {
		t.Errorf("expected default status todo, got %s", item.Status)
	}
	if item.CreatedAt == 0 || item.UpdatedAt == 0 {
		t.Errorf("expected timestamps stamped, got %+v", item)
	}
}

func TestCycleStatusAdvances(t *testing.T) {
	r := setupRepo(t)

	item, err := r.Create(record.FollowupFields{Title: "check ticket"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := []record.Status{record.StatusTBC, record.StatusDone, record.StatusTodo}
	for _, w := range want {
		got, ok, err := r.CycleStatus(item.ID)
		if err != nil || !ok {
			t.Fatalf("CycleStatus failed: ok=%v err=%v", ok, err)
		}
		if got.Status != w {
			t.Errorf("expected status %s, got %s", w, got.Status)
		}
	}

	_, ok, err := r.CycleStatus("ghost")
	if err != nil {
		t.Fatalf("CycleStatus failed: %v", err)
	}
	if ok {
		t.Error("expected missing id to report not found")
	}
}

func TestUpdateRestampsUpdatedAt(t *testing.T) {
	r := setupRepo(t)
	r.now = func() int64 { return 1000 }

	item, err := r.Create(record.FollowupFields{Title: "check ticket"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	r.now = func() int64 { return 2000 }
	details := "ticket 4711"
	updated, ok, err := r.Update(item.ID, record.FollowupPatch{Details: &details})
	if err != nil || !ok {
		t.Fatalf("Update failed: ok=%v err=%v", ok, err)
	}
	if updated.Details != "ticket 4711" || updated.UpdatedAt != 2000 {
		t.Errorf("unexpected updated follow-up: %+v", updated)
	}
}

func TestImportReplaceSanitizes(t *testing.T) {
	r := setupRepo(t)

	if _, err := r.Create(record.FollowupFields{Title: "gone after import"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	n, err := r.ImportReplace([]map[string]any{
		{"id": "x", "title": "  imported  ", "status": "bogus"},
	})
	if err != nil {
		t.Fatalf("ImportReplace failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 imported, got %d", n)
	}

	all := r.All()
	if len(all) != 1 {
		t.Fatalf("expected collection replaced, got %d items", len(all))
	}
	if all[0].Status != record.StatusTodo {
		t.Errorf("expected bogus status coerced to todo, got %s", all[0].Status)
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, time.August, 30, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		f    record.Followup
		want bool
	}{
		{"past due", record.Followup{DueDate: "2026-08-29", Status: record.StatusTodo}, true},
		{"due today", record.Followup{DueDate: "2026-08-30", Status: record.StatusTodo}, false},
		{"future", record.Followup{DueDate: "2026-09-01", Status: record.StatusTodo}, false},
		{"done never overdue", record.Followup{DueDate: "2020-01-01", Status: record.StatusDone}, false},
		{"no due date", record.Followup{Status: record.StatusTodo}, false},
		{"unparseable due date", record.Followup{DueDate: "soonish", Status: record.StatusTodo}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(tt.f, now); got != tt.want {
				t.Errorf("IsOverdue(%+v) = %v, want %v", tt.f, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, time.August, 30, 15, 0, 0, 0, time.UTC)
	items := []record.Followup{
		{Status: record.StatusTodo, DueDate: "2026-08-01"},
		{Status: record.StatusTodo},
		{Status: record.StatusTBC},
		{Status: record.StatusDone, DueDate: "2026-08-01"},
	}

	s := Summarize(items, now)
	if s.Total != 4 || s.Todo != 2 || s.TBC != 1 || s.Done != 1 || s.Overdue != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if got := s.String(); got != "4 total • 2 to do • 1 to be checked • 1 done • 1 overdue" {
		t.Errorf("unexpected summary line: %q", got)
	}

	quiet := Summarize(nil, now)
	if got := quiet.String(); got != "0 total • 0 to do • 0 to be checked • 0 done" {
		t.Errorf("expected overdue segment omitted, got %q", got)
	}
}

func TestFilterSortDoneSinksToBottom(t *testing.T) {
	items := []record.Followup{
		{ID: "done-early", Status: record.StatusDone, DueDate: "2026-01-01", CreatedAt: 1},
		{ID: "b", Status: record.StatusTodo, DueDate: "2026-06-01", CreatedAt: 2},
		{ID: "a", Status: record.StatusTodo, DueDate: "2026-05-01", CreatedAt: 3},
		{ID: "nodue", Status: record.StatusTBC, CreatedAt: 4},
	}

	got := FilterSort(items, "", "", SortDueAsc)
	wantOrder := []string{"a", "b", "nodue", "done-early"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s (full: %+v)", i, id, got[i].ID, got)
		}
	}
}

func TestFilterSortByStatusAndQuery(t *testing.T) {
	items := []record.Followup{
		{ID: "a", Title: "call Alice", Status: record.StatusTodo},
		{ID: "b", Title: "call Bob", Status: record.StatusDone},
		{ID: "c", Title: "email Carol", Status: record.StatusTodo},
	}

	got := FilterSort(items, "call", "", SortCreatedDesc)
	if len(got) != 2 {
		t.Errorf("expected 2 matches for query, got %+v", got)
	}

	got = FilterSort(items, "", record.StatusTodo, SortCreatedDesc)
	if len(got) != 2 {
		t.Errorf("expected 2 todo items, got %+v", got)
	}
}
