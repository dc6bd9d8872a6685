package repo

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/orangemri/worklog/internal/remote"
	"github.com/orangemri/worklog/internal/store"
)

type testRec struct {
	ID        string `json:"id"`
	UpdatedAt int64  `json:"updatedAt"`
	Note      string `json:"note"`
}

func (r testRec) RecordID() string       { return r.ID }
func (r testRec) RecordUpdatedAt() int64 { return r.UpdatedAt }

// fakeRemote is an in-memory remote table.
type fakeRemote struct {
	rows      map[string]remote.Row
	listErr   error
	upsertErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{rows: make(map[string]remote.Row)}
}

func (f *fakeRemote) List(ctx context.Context) ([]remote.Row, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]remote.Row, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRemote) UpsertMany(ctx context.Context, rows []remote.Row) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return nil
}

func (f *fakeRemote) DeleteByID(ctx context.Context, id string) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeRemote) put(t *testing.T, rec testRec) {
	t.Helper()
	payload, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("failed to marshal test record: %v", err)
	}
	f.rows[rec.ID] = remote.Row{ID: rec.ID, Payload: payload}
}

// fakeQueue records enqueued pushes without performing any I/O.
type fakeQueue struct {
	upserts [][]remote.Row
	deletes []string
}

func (f *fakeQueue) EnqueueUpsert(rows []remote.Row) { f.upserts = append(f.upserts, rows) }
func (f *fakeQueue) EnqueueDelete(id string)         { f.deletes = append(f.deletes, id) }

func setup(t *testing.T) (*Collection[testRec], *fakeRemote, *fakeQueue) {
	t.Helper()

	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	rt := newFakeRemote()
	q := &fakeQueue{}
	col := New[testRec](st, "test_items", rt, q, log.New(os.Stderr, "[test] ", 0))
	return col, rt, q
}

func TestGetAllEmptyAndCorrupt(t *testing.T) {
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	col := New[testRec](st, "test_items", newFakeRemote(), &fakeQueue{}, log.New(os.Stderr, "[test] ", 0))

	if got := col.GetAll(); len(got) != 0 {
		t.Errorf("expected empty collection, got %d items", len(got))
	}

	// Corrupt stored content degrades to empty, never errors.
	path := filepath.Join(st.Dir(), "test_items.json")
	if err := os.WriteFile(path, []byte("{{{"), 0600); err != nil {
		t.Fatalf("failed to corrupt store: %v", err)
	}
	if got := col.GetAll(); len(got) != 0 {
		t.Errorf("expected empty collection from corrupt store, got %d items", len(got))
	}
}

func TestInsertPersistsAndEnqueues(t *testing.T) {
	col, _, q := setup(t)

	if err := col.Insert(testRec{ID: "a", UpdatedAt: 1}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	all := col.GetAll()
	if len(all) != 1 || all[0].ID != "a" {
		t.Fatalf("unexpected collection state: %+v", all)
	}
	if len(q.upserts) != 1 || len(q.upserts[0]) != 1 || q.upserts[0][0].ID != "a" {
		t.Errorf("expected one enqueued upsert for a, got %+v", q.upserts)
	}
}

func TestReplaceNotFoundIsNoOp(t *testing.T) {
	col, _, q := setup(t)

	ok, err := col.Replace(testRec{ID: "ghost", UpdatedAt: 1})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if ok {
		t.Error("expected Replace to report not found")
	}
	if len(q.upserts) != 0 {
		t.Error("not-found replace must not push anything")
	}
}

func TestRemoveReportsWhetherRemoved(t *testing.T) {
	col, _, q := setup(t)

	if err := col.Insert(testRec{ID: "a", UpdatedAt: 1}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	removed, err := col.Remove("a")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Error("expected removed=true")
	}

	removed, err = col.Remove("a")
	if err != nil {
		t.Fatalf("second Remove failed: %v", err)
	}
	if removed {
		t.Error("expected removed=false for missing id")
	}
	if len(q.deletes) != 2 {
		t.Errorf("expected delete pushes for both calls, got %v", q.deletes)
	}
}

func TestReplaceAllNilMeansEmpty(t *testing.T) {
	col, _, _ := setup(t)

	if err := col.Insert(testRec{ID: "a", UpdatedAt: 1}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := col.ReplaceAll(nil); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if got := col.GetAll(); len(got) != 0 {
		t.Errorf("expected empty collection, got %+v", got)
	}
}

func TestReconcileUnion(t *testing.T) {
	col, rt, _ := setup(t)

	// Local holds id 1 at t=100; remote holds id 1 at t=200 and id 2 at t=50.
	if err := col.ReplaceAll([]testRec{{ID: "1", UpdatedAt: 100, Note: "local"}}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	rt.put(t, testRec{ID: "1", UpdatedAt: 200, Note: "remote"})
	rt.put(t, testRec{ID: "2", UpdatedAt: 50, Note: "remote-only"})

	col.Reconcile(context.Background())

	all := col.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 records after reconciliation, got %d", len(all))
	}

	byID := make(map[string]testRec)
	for _, r := range all {
		byID[r.ID] = r
	}
	if byID["1"].UpdatedAt != 200 || byID["1"].Note != "remote" {
		t.Errorf("expected remote to win for id 1, got %+v", byID["1"])
	}
	if byID["2"].UpdatedAt != 50 {
		t.Errorf("expected id 2 unchanged, got %+v", byID["2"])
	}

	// The merged set must have been pushed back out.
	if len(rt.rows) != 2 {
		t.Errorf("expected merged set pushed to remote, got %d rows", len(rt.rows))
	}

	meta := col.Meta()
	if meta.LastInitOkAt == 0 || meta.MergedCount != 2 {
		t.Errorf("unexpected sync meta: %+v", meta)
	}
}

func TestReconcileTieFavorsLocal(t *testing.T) {
	col, rt, _ := setup(t)

	if err := col.ReplaceAll([]testRec{{ID: "1", UpdatedAt: 100, Note: "local"}}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	rt.put(t, testRec{ID: "1", UpdatedAt: 100, Note: "remote"})

	col.Reconcile(context.Background())

	all := col.GetAll()
	if len(all) != 1 || all[0].Note != "local" {
		t.Errorf("expected local copy to win the tie, got %+v", all)
	}
}

func TestReconcileRemoteFailureFallsBackToLocal(t *testing.T) {
	col, rt, _ := setup(t)

	if err := col.ReplaceAll([]testRec{{ID: "1", UpdatedAt: 100}}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	rt.listErr = errors.New("connection refused")

	col.Reconcile(context.Background())

	all := col.GetAll()
	if len(all) != 1 || all[0].ID != "1" {
		t.Errorf("expected local store untouched, got %+v", all)
	}

	meta := col.Meta()
	if meta.LastInitErrorAt == 0 || meta.Message == "" {
		t.Errorf("expected error recorded in sync meta, got %+v", meta)
	}
}

func TestReconcileMalformedRemotePayload(t *testing.T) {
	col, rt, _ := setup(t)

	rt.rows["bad"] = remote.Row{ID: "bad", Payload: []byte("[not a record]")}

	col.Reconcile(context.Background())

	meta := col.Meta()
	if meta.LastInitErrorAt == 0 {
		t.Errorf("expected malformed payload recorded as init error, got %+v", meta)
	}
}

func TestMergeDropsRecordsWithoutID(t *testing.T) {
	merged := MergeLocalRemote(
		[]testRec{{ID: "", UpdatedAt: 5}, {ID: "a", UpdatedAt: 1}},
		[]testRec{{ID: "", UpdatedAt: 9}},
	)
	if len(merged) != 1 || merged[0].ID != "a" {
		t.Errorf("expected only record with id kept, got %+v", merged)
	}
}
