package record

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Status is the follow-up workflow state.
type Status string

const (
	// StatusTodo marks work that still has to be done.
	StatusTodo Status = "todo"
	// StatusTBC marks work that is done but has to be checked.
	StatusTBC Status = "tbc"
	// StatusDone marks completed work.
	StatusDone Status = "done"
)

// Next returns the status that follows in the cycle todo -> tbc -> done -> todo.
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusTBC
	case StatusTBC:
		return StatusDone
	default:
		return StatusTodo
	}
}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	return s == StatusTodo || s == StatusTBC || s == StatusDone
}

// Followup is a single follow-up item.
type Followup struct {
	ID string `json:"id"`

	Title   string `json:"title"`
	Details string `json:"details"`
	// DueDate is a calendar date in YYYY-MM-DD form, empty when unset.
	DueDate string `json:"dueDate"`
	Status  Status `json:"status"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// RecordID implements repo.Record.
func (f Followup) RecordID() string { return f.ID }

// RecordUpdatedAt implements repo.Record.
func (f Followup) RecordUpdatedAt() int64 { return f.UpdatedAt }

// Validate checks the follow-up invariants. Title is the one field a user
// must supply; an empty title is rejected before anything is stored.
func (f Followup) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.ID, validation.Required),
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.Status, validation.Required, validation.In(StatusTodo, StatusTBC, StatusDone)),
	)
}

// FollowupFields holds the caller-supplied fields for a new follow-up.
type FollowupFields struct {
	Title   string
	Details string
	DueDate string
	Status  Status
}

// FollowupPatch is a partial update: nil fields are left unchanged.
type FollowupPatch struct {
	Title   *string
	Details *string
	DueDate *string
	Status  *Status
}

// Apply returns a copy of f with the patch's non-nil fields merged in.
func (p FollowupPatch) Apply(f Followup) Followup {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Details != nil {
		f.Details = *p.Details
	}
	if p.DueDate != nil {
		f.DueDate = *p.DueDate
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	return f
}

// NewFollowup builds a follow-up from domain fields with identity and
// timestamps assigned. An empty status defaults to todo.
func NewFollowup(f FollowupFields, id string, nowMillis int64) Followup {
	status := f.Status
	if status == "" {
		status = StatusTodo
	}
	return Followup{
		ID:        id,
		Title:     f.Title,
		Details:   f.Details,
		DueDate:   f.DueDate,
		Status:    status,
		CreatedAt: nowMillis,
		UpdatedAt: nowMillis,
	}
}
