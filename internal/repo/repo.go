// Package repo implements the local-first record repository shared by the
// worklog collections.
//
// A Collection owns one logical record set (cases or follow-ups) persisted
// in the local store under its own key. Every mutation applies to the local
// store synchronously and then hands the remote side effect to a best-effort
// sync queue without waiting for it. Reconcile pulls the remote table once,
// merges it with the local set using last-write-wins by updatedAt (ties
// favor the local record), writes the union back locally, and pushes it out.
//
// Failure policy: the local store is authoritative and reads never fail
// (corrupt content degrades to an empty collection). Remote failures are
// swallowed, logged, and recorded in a small sync-metadata record; callers
// always proceed on local state. Deletions are not reconciled - a record
// removed on one device while still held locally on another reappears after
// that device's next reconciliation. Deletes only propagate through the
// live push issued by Remove.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/orangemri/worklog/internal/remote"
	"github.com/orangemri/worklog/internal/store"
)

// Record is the minimal surface the repository needs from a stored record.
type Record interface {
	// RecordID returns the record's collection-unique id.
	RecordID() string
	// RecordUpdatedAt returns the last-mutation timestamp in epoch millis.
	// It is the authority for merge tie-breaking; zero means unknown.
	RecordUpdatedAt() int64
}

// Remote is the synchronous remote table surface used by Reconcile.
// *remote.Table implements it.
type Remote interface {
	List(ctx context.Context) ([]remote.Row, error)
	UpsertMany(ctx context.Context, rows []remote.Row) error
	DeleteByID(ctx context.Context, id string) error
}

// SyncQueue is the best-effort background sync port. Mutations enqueue
// their remote effect here and never wait for it. *remote.Pusher is the
// production adapter; tests substitute a recorder.
type SyncQueue interface {
	EnqueueUpsert(rows []remote.Row)
	EnqueueDelete(id string)
}

// SyncMeta is the small diagnostic record written after each reconciliation
// attempt, stored under the collection's meta key.
type SyncMeta struct {
	LastInitOkAt int64 `json:"lastInitOkAt,omitempty"`
	LocalCount   int   `json:"localCount,omitempty"`
	RemoteCount  int   `json:"remoteCount,omitempty"`
	MergedCount  int   `json:"mergedCount,omitempty"`

	LastInitErrorAt int64  `json:"lastInitErrorAt,omitempty"`
	Message         string `json:"message,omitempty"`
}

// Collection is a local-first repository for one record collection.
type Collection[T Record] struct {
	store   *store.Store
	key     string
	metaKey string
	remote  Remote
	queue   SyncQueue
	logger  *log.Logger
}

// New creates a Collection persisting under key in the local store.
// Sync metadata lives under its own key (<key>_sync_meta) so a corrupt
// collection value can never take the diagnostics down with it.
// If logger is nil, a default logger writing to stderr is used.
func New[T Record](st *store.Store, key string, rt Remote, q SyncQueue, logger *log.Logger) *Collection[T] {
	if logger == nil {
		logger = log.New(os.Stderr, "[repo] ", log.LstdFlags)
	}
	return &Collection[T]{
		store:   st,
		key:     key,
		metaKey: key + "_sync_meta",
		remote:  rt,
		queue:   q,
		logger:  logger,
	}
}

// GetAll returns the stored collection. It never fails: a missing or
// corrupt value yields an empty slice.
func (c *Collection[T]) GetAll() []T {
	var items []T
	c.store.Read(c.key, &items)
	if items == nil {
		return []T{}
	}
	return items
}

// GetByID returns the record with the given id, or false if absent.
func (c *Collection[T]) GetByID(id string) (T, bool) {
	for _, item := range c.GetAll() {
		if item.RecordID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Insert appends a record to the local store and enqueues its remote push.
func (c *Collection[T]) Insert(rec T) error {
	all := append(c.GetAll(), rec)
	if err := c.store.Write(c.key, all); err != nil {
		return fmt.Errorf("failed to persist %s: %w", c.key, err)
	}
	c.enqueueUpsert(rec)
	return nil
}

// Replace swaps the stored record with the same id for rec.
// Returns false (and no error) if no record with that id exists.
func (c *Collection[T]) Replace(rec T) (bool, error) {
	all := c.GetAll()
	for i, item := range all {
		if item.RecordID() == rec.RecordID() {
			all[i] = rec
			if err := c.store.Write(c.key, all); err != nil {
				return false, fmt.Errorf("failed to persist %s: %w", c.key, err)
			}
			c.enqueueUpsert(rec)
			return true, nil
		}
	}
	return false, nil
}

// Remove filters the record out of the local store and enqueues the remote
// delete. The returned bool reports whether a record was actually removed.
func (c *Collection[T]) Remove(id string) (bool, error) {
	all := c.GetAll()
	next := make([]T, 0, len(all))
	for _, item := range all {
		if item.RecordID() != id {
			next = append(next, item)
		}
	}
	if err := c.store.Write(c.key, next); err != nil {
		return false, fmt.Errorf("failed to persist %s: %w", c.key, err)
	}
	c.queue.EnqueueDelete(id)
	return len(next) != len(all), nil
}

// ReplaceAll overwrites the whole collection and enqueues a bulk push.
// A nil slice is treated as an empty collection.
func (c *Collection[T]) ReplaceAll(recs []T) error {
	if recs == nil {
		recs = []T{}
	}
	if err := c.store.Write(c.key, recs); err != nil {
		return fmt.Errorf("failed to persist %s: %w", c.key, err)
	}
	c.enqueueUpsert(recs...)
	return nil
}

// ClearAll empties the local collection without touching the remote table.
func (c *Collection[T]) ClearAll() error {
	if err := c.store.Write(c.key, []T{}); err != nil {
		return fmt.Errorf("failed to persist %s: %w", c.key, err)
	}
	return nil
}

// Reconcile runs the startup merge against the remote table. It MUST
// complete before the collection is first rendered.
//
// Steps: pull the remote set, merge with the local set per id (larger
// updatedAt wins, ties favor local), write the merged set locally, push it
// back out in bulk. Any failure is swallowed: the error is logged, recorded
// in sync metadata, and the caller proceeds on whatever the local store
// holds. Reconcile never returns an error by design.
func (c *Collection[T]) Reconcile(ctx context.Context) {
	local := c.GetAll()

	rows, err := c.remote.List(ctx)
	if err != nil {
		c.recordInitError(fmt.Errorf("remote list: %w", err))
		return
	}

	remoteRecs := make([]T, 0, len(rows))
	for _, row := range rows {
		var rec T
		if err := json.Unmarshal(row.Payload, &rec); err != nil {
			c.recordInitError(fmt.Errorf("malformed remote payload %s: %w", row.ID, err))
			return
		}
		remoteRecs = append(remoteRecs, rec)
	}

	merged := MergeLocalRemote(local, remoteRecs)

	if err := c.store.Write(c.key, merged); err != nil {
		c.recordInitError(fmt.Errorf("persist merged set: %w", err))
		return
	}

	if err := c.remote.UpsertMany(ctx, c.rows(merged...)); err != nil {
		c.recordInitError(fmt.Errorf("push merged set: %w", err))
		return
	}

	meta := SyncMeta{
		LastInitOkAt: time.Now().UnixMilli(),
		LocalCount:   len(local),
		RemoteCount:  len(remoteRecs),
		MergedCount:  len(merged),
	}
	if err := c.store.Write(c.metaKey, meta); err != nil {
		c.logger.Printf("Warning: failed to write sync meta for %s: %v", c.key, err)
	}
}

// Meta returns the last recorded sync metadata, zero if none exists.
func (c *Collection[T]) Meta() SyncMeta {
	var meta SyncMeta
	c.store.Read(c.metaKey, &meta)
	return meta
}

// recordInitError logs a failed reconciliation and stores the diagnostic.
func (c *Collection[T]) recordInitError(err error) {
	c.logger.Printf("Warning: %s reconciliation failed, falling back to local store: %v", c.key, err)
	meta := SyncMeta{
		LastInitErrorAt: time.Now().UnixMilli(),
		Message:         err.Error(),
	}
	if werr := c.store.Write(c.metaKey, meta); werr != nil {
		c.logger.Printf("Warning: failed to write sync meta for %s: %v", c.key, werr)
	}
}

func (c *Collection[T]) enqueueUpsert(recs ...T) {
	rows := c.rows(recs...)
	if len(rows) > 0 {
		c.queue.EnqueueUpsert(rows)
	}
}

// rows marshals records into remote rows, skipping any that fail to
// marshal (plain data structs, so in practice none do).
func (c *Collection[T]) rows(recs ...T) []remote.Row {
	rows := make([]remote.Row, 0, len(recs))
	for _, rec := range recs {
		payload, err := json.Marshal(rec)
		if err != nil {
			c.logger.Printf("Warning: failed to marshal record %s: %v", rec.RecordID(), err)
			continue
		}
		rows = append(rows, remote.Row{ID: rec.RecordID(), Payload: payload})
	}
	return rows
}

// MergeLocalRemote merges two record sets per id with last-write-wins
// semantics. The result starts from the remote set; local records missing
// remotely are added, and when both sides hold an id the record with the
// larger updatedAt wins, ties going to the local copy. Records without an
// id are dropped.
func MergeLocalRemote[T Record](local, remoteRecs []T) []T {
	byID := make(map[string]T)
	order := make([]string, 0, len(remoteRecs)+len(local))

	for _, r := range remoteRecs {
		id := r.RecordID()
		if id == "" {
			continue
		}
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = r
	}

	for _, l := range local {
		id := l.RecordID()
		if id == "" {
			continue
		}
		existing, ok := byID[id]
		if !ok {
			byID[id] = l
			order = append(order, id)
			continue
		}
		if l.RecordUpdatedAt() >= existing.RecordUpdatedAt() {
			byID[id] = l
		}
	}

	merged := make([]T, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return merged
}
