// Package drafts persists unsaved case form state: the single current
// draft plus a LIFO stack of parked drafts, so interrupted work survives
// restarts and a half-filled form can be set aside for an urgent case.
package drafts

import (
	"fmt"

	"github.com/orangemri/worklog/internal/record"
	"github.com/orangemri/worklog/internal/store"
)

const (
	// DraftKey is the store key for the current draft.
	DraftKey = "worklog_draft_v1"
	// StackKey is the store key for the parked draft stack.
	StackKey = "worklog_draft_stack_v1"
)

// Drafts is the draft repository. Drafts are plain case field sets; they
// have no id or timestamps until promoted to a real case.
type Drafts struct {
	store *store.Store
}

// New creates the draft repository over the local store.
func New(st *store.Store) *Drafts {
	return &Drafts{store: st}
}

// Current returns the saved draft, or false when none exists.
func (d *Drafts) Current() (record.CaseFields, bool) {
	var f *record.CaseFields
	d.store.Read(DraftKey, &f)
	if f == nil {
		return record.CaseFields{}, false
	}
	return *f, true
}

// Save overwrites the current draft.
func (d *Drafts) Save(f record.CaseFields) error {
	if err := d.store.Write(DraftKey, &f); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Clear discards the current draft.
func (d *Drafts) Clear() error {
	if err := d.store.Write(DraftKey, (*record.CaseFields)(nil)); err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

// Push parks a draft on top of the stack.
func (d *Drafts) Push(f record.CaseFields) error {
	stack := d.stack()
	stack = append(stack, f)
	if err := d.store.Write(StackKey, stack); err != nil {
		return fmt.Errorf("failed to push draft: %w", err)
	}
	return nil
}

// Pop removes and returns the most recently parked draft. An empty stack
// returns false without error.
func (d *Drafts) Pop() (record.CaseFields, bool, error) {
	stack := d.stack()
	if len(stack) == 0 {
		return record.CaseFields{}, false, nil
	}
	top := stack[len(stack)-1]
	if err := d.store.Write(StackKey, stack[:len(stack)-1]); err != nil {
		return record.CaseFields{}, false, fmt.Errorf("failed to pop draft: %w", err)
	}
	return top, true, nil
}

// Count returns how many drafts are parked on the stack.
func (d *Drafts) Count() int {
	return len(d.stack())
}

func (d *Drafts) stack() []record.CaseFields {
	var stack []record.CaseFields
	d.store.Read(StackKey, &stack)
	if stack == nil {
		return []record.CaseFields{}
	}
	return stack
}
