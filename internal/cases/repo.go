// Package cases provides the case collection: a local-first repository with
// fingerprint-deduplicated import and presentation helpers.
package cases

import (
	"context"
	"log"
	"time"

	"github.com/orangemri/worklog/internal/record"
	"github.com/orangemri/worklog/internal/repo"
	"github.com/orangemri/worklog/internal/store"
)

const (
	// StorageKey is the local store key holding the case collection.
	StorageKey = "worklog_cases_v1"
	// RemoteTable is the remote table name for case sync.
	RemoteTable = "worklog_cases"
)

// Repo owns the case collection.
type Repo struct {
	col *repo.Collection[record.Case]

	now   func() int64
	newID func() string
}

// NewRepo creates the case repository over the given store and remote ports.
func NewRepo(st *store.Store, rt repo.Remote, q repo.SyncQueue, logger *log.Logger) *Repo {
	return &Repo{
		col:   repo.New[record.Case](st, StorageKey, rt, q, logger),
		now:   func() int64 { return time.Now().UnixMilli() },
		newID: record.NewID,
	}
}

// Reconcile merges the local collection with the remote table. Must complete
// before the collection is first shown; never fails (see repo.Collection).
func (r *Repo) Reconcile(ctx context.Context) {
	r.col.Reconcile(ctx)
}

// Meta returns the last sync diagnostics.
func (r *Repo) Meta() repo.SyncMeta {
	return r.col.Meta()
}

// All returns every stored case.
func (r *Repo) All() []record.Case {
	return r.col.GetAll()
}

// Get returns the case with the given id, or false if absent.
func (r *Repo) Get(id string) (record.Case, bool) {
	return r.col.GetByID(id)
}

// Create builds a new case from the given fields and appends it.
// The id is freshly generated and createdAt, updatedAt and handledAt all
// start at the current time.
func (r *Repo) Create(f record.CaseFields) (record.Case, error) {
	c := record.NewCase(f, r.newID(), r.now())
	if err := r.col.Insert(c); err != nil {
		return record.Case{}, err
	}
	return c, nil
}

// Update merges a partial patch into the stored case and restamps
// updatedAt. handledAt in the patch is dropped (immutable after creation).
// A missing id is not an error: the bool is false and nothing changes.
func (r *Repo) Update(id string, p record.CasePatch) (record.Case, bool, error) {
	existing, ok := r.col.GetByID(id)
	if !ok {
		return record.Case{}, false, nil
	}

	updated := p.Apply(existing)
	updated.UpdatedAt = r.now()

	if _, err := r.col.Replace(updated); err != nil {
		return record.Case{}, false, err
	}
	return updated, true, nil
}

// Remove deletes the case locally and pushes the delete to the remote table.
func (r *Repo) Remove(id string) (bool, error) {
	return r.col.Remove(id)
}

// ReplaceAll overwrites the whole collection (destructive import path).
func (r *Repo) ReplaceAll(cs []record.Case) error {
	return r.col.ReplaceAll(cs)
}

// ClearAll empties the local collection.
func (r *Repo) ClearAll() error {
	return r.col.ClearAll()
}

// ImportMerge runs raw import candidates through the dedup pipeline and
// stores the merged collection. Returns how many cases were newly added;
// candidates whose fingerprint already exists are silently skipped, which
// makes importing the same file twice a no-op.
func (r *Repo) ImportMerge(raw []map[string]any) (int, error) {
	merged, added := MergeImported(r.All(), raw)
	if err := r.col.ReplaceAll(merged); err != nil {
		return 0, err
	}
	return added, nil
}

// ImportReplace sanitizes raw candidates and overwrites the collection with
// them, bypassing dedup. This is the destructive full-replace entry point.
func (r *Repo) ImportReplace(raw []map[string]any) (int, error) {
	cs := make([]record.Case, 0, len(raw))
	for _, candidate := range raw {
		cs = append(cs, record.SanitizeCase(candidate))
	}
	if err := r.col.ReplaceAll(cs); err != nil {
		return 0, err
	}
	return len(cs), nil
}
