// Package followups provides the follow-up collection: a local-first
// repository for personal to-do items with due dates and a three-state
// status cycle.
package followups

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/orangemri/worklog/internal/record"
	"github.com/orangemri/worklog/internal/repo"
	"github.com/orangemri/worklog/internal/store"
)

const (
	// StorageKey is the local store key holding the follow-up collection.
	StorageKey = "worklog_followups_v1"
	// RemoteTable is the remote table name for follow-up sync.
	RemoteTable = "worklog_followups"
)

// Repo owns the follow-up collection.
type Repo struct {
	col *repo.Collection[record.Followup]

	now   func() int64
	newID func() string
}

// NewRepo creates the follow-up repository over the given store and remote
// ports.
func NewRepo(st *store.Store, rt repo.Remote, q repo.SyncQueue, logger *log.Logger) *Repo {
	return &Repo{
		col:   repo.New[record.Followup](st, StorageKey, rt, q, logger),
		now:   func() int64 { return time.Now().UnixMilli() },
		newID: record.NewID,
	}
}

// Reconcile merges the local collection with the remote table.
func (r *Repo) Reconcile(ctx context.Context) {
	r.col.Reconcile(ctx)
}

// Meta returns the last sync diagnostics.
func (r *Repo) Meta() repo.SyncMeta {
	return r.col.Meta()
}

// All returns every stored follow-up.
func (r *Repo) All() []record.Followup {
	return r.col.GetAll()
}

// Get returns the follow-up with the given id, or false if absent.
func (r *Repo) Get(id string) (record.Followup, bool) {
	return r.col.GetByID(id)
}

// Create builds a new follow-up and appends it. A follow-up without a
// title is rejected at this boundary.
func (r *Repo) Create(f record.FollowupFields) (record.Followup, error) {
	item := record.NewFollowup(f, r.newID(), r.now())
	if err := item.Validate(); err != nil {
		return record.Followup{}, fmt.Errorf("invalid follow-up: %w", err)
	}
	if err := r.col.Insert(item); err != nil {
		return record.Followup{}, err
	}
	return item, nil
}

// Update merges a partial patch into the stored follow-up and restamps
// updatedAt. A missing id reports false without error.
func (r *Repo) Update(id string, p record.FollowupPatch) (record.Followup, bool, error) {
	existing, ok := r.col.GetByID(id)
	if !ok {
		return record.Followup{}, false, nil
	}

	updated := p.Apply(existing)
	updated.UpdatedAt = r.now()
	if err := updated.Validate(); err != nil {
		return record.Followup{}, false, fmt.Errorf("invalid follow-up: %w", err)
	}

	if _, err := r.col.Replace(updated); err != nil {
		return record.Followup{}, false, err
	}
	return updated, true, nil
}

// CycleStatus advances the follow-up's status one step along
// todo -> tbc -> done -> todo.
func (r *Repo) CycleStatus(id string) (record.Followup, bool, error) {
	existing, ok := r.col.GetByID(id)
	if !ok {
		return record.Followup{}, false, nil
	}

	existing.Status = existing.Status.Next()
	existing.UpdatedAt = r.now()

	if _, err := r.col.Replace(existing); err != nil {
		return record.Followup{}, false, err
	}
	return existing, true, nil
}

// Remove deletes the follow-up locally and pushes the delete remotely.
func (r *Repo) Remove(id string) (bool, error) {
	return r.col.Remove(id)
}

// ReplaceAll overwrites the whole collection.
func (r *Repo) ReplaceAll(items []record.Followup) error {
	return r.col.ReplaceAll(items)
}

// ClearAll empties the local collection.
func (r *Repo) ClearAll() error {
	return r.col.ClearAll()
}

// ImportReplace sanitizes raw import candidates and overwrites the
// collection with them. Follow-up import has no dedup pipeline; a
// follow-up file always replaces the whole collection.
func (r *Repo) ImportReplace(raw []map[string]any) (int, error) {
	items := make([]record.Followup, 0, len(raw))
	for _, candidate := range raw {
		items = append(items, record.SanitizeFollowup(candidate))
	}
	if err := r.col.ReplaceAll(items); err != nil {
		return 0, err
	}
	return len(items), nil
}
