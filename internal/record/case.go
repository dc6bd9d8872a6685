// Package record defines the worklog record schemas and the single
// sanitization boundary for untrusted import data.
//
// Two collections exist: cases and follow-ups. Both carry epoch-millisecond
// timestamps; updatedAt drives last-write-wins merging during sync, and a
// case's handledAt captures the moment of work and is protected from
// field-level updates once set.
//
// All external data (JSON or CSV imports) enters through SanitizeCase /
// SanitizeFollowup, which apply the defaulting and coercion rules in one
// place. Nothing unvalidated flows past this package.
package record

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Case is a single handled customer case.
//
// JSON field names match the export format of the original dataset so that
// previously exported files import cleanly.
type Case struct {
	ID string `json:"id"`

	// Timestamps, epoch milliseconds. HandledAt is set once at creation
	// (the moment of work) and never changed by partial updates.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
	HandledAt int64 `json:"handledAt"`

	CustomerCode       string `json:"customerCode"`
	ProblemDescription string `json:"problemDescription"`
	PreAnalysis        string `json:"preAnalysis"`
	Interaction        string `json:"interaction"`
	ContactType        string `json:"contactType"`
	Outcome            string `json:"outcome"`
	CustomerCalled     bool   `json:"customerCalled"`

	ActionsDone    string `json:"actionsDone"`
	RingRing       string `json:"ringRing"`
	TechnicianDate string `json:"technicianDate"`
	TodoRequired   string `json:"todoRequired"`
}

// RecordID implements repo.Record.
func (c Case) RecordID() string { return c.ID }

// RecordUpdatedAt implements repo.Record.
func (c Case) RecordUpdatedAt() int64 { return c.UpdatedAt }

// Validate checks that a case carries the fields every stored case must have.
func (c Case) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.CreatedAt, validation.Required),
		validation.Field(&c.UpdatedAt, validation.Required),
	)
}

// CaseFields holds the caller-supplied domain fields for a new case.
// Identity and timestamps are assigned by the repository at creation.
type CaseFields struct {
	CustomerCode       string
	ProblemDescription string
	PreAnalysis        string
	Interaction        string
	ContactType        string
	Outcome            string
	CustomerCalled     bool
	ActionsDone        string
	RingRing           string
	TechnicianDate     string
	TodoRequired       string
}

// CasePatch is a partial update: nil fields are left unchanged.
//
// HandledAt is accepted so loosely-bound input can be passed through
// unfiltered, but it is never applied: handledAt is immutable under
// field-level updates.
type CasePatch struct {
	CustomerCode       *string
	ProblemDescription *string
	PreAnalysis        *string
	Interaction        *string
	ContactType        *string
	Outcome            *string
	CustomerCalled     *bool
	ActionsDone        *string
	RingRing           *string
	TechnicianDate     *string
	TodoRequired       *string

	HandledAt *int64
}

// Apply returns a copy of c with the patch's non-nil fields merged in.
// HandledAt in the patch is deliberately dropped.
func (p CasePatch) Apply(c Case) Case {
	if p.CustomerCode != nil {
		c.CustomerCode = *p.CustomerCode
	}
	if p.ProblemDescription != nil {
		c.ProblemDescription = *p.ProblemDescription
	}
	if p.PreAnalysis != nil {
		c.PreAnalysis = *p.PreAnalysis
	}
	if p.Interaction != nil {
		c.Interaction = *p.Interaction
	}
	if p.ContactType != nil {
		c.ContactType = *p.ContactType
	}
	if p.Outcome != nil {
		c.Outcome = *p.Outcome
	}
	if p.CustomerCalled != nil {
		c.CustomerCalled = *p.CustomerCalled
	}
	if p.ActionsDone != nil {
		c.ActionsDone = *p.ActionsDone
	}
	if p.RingRing != nil {
		c.RingRing = *p.RingRing
	}
	if p.TechnicianDate != nil {
		c.TechnicianDate = *p.TechnicianDate
	}
	if p.TodoRequired != nil {
		c.TodoRequired = *p.TodoRequired
	}
	return c
}

// NewCase builds a case from domain fields with identity and timestamps
// assigned. handledAt starts equal to createdAt.
func NewCase(f CaseFields, id string, nowMillis int64) Case {
	return Case{
		ID:        id,
		CreatedAt: nowMillis,
		UpdatedAt: nowMillis,
		HandledAt: nowMillis,

		CustomerCode:       f.CustomerCode,
		ProblemDescription: f.ProblemDescription,
		PreAnalysis:        f.PreAnalysis,
		Interaction:        f.Interaction,
		ContactType:        f.ContactType,
		Outcome:            f.Outcome,
		CustomerCalled:     f.CustomerCalled,
		ActionsDone:        f.ActionsDone,
		RingRing:           f.RingRing,
		TechnicianDate:     f.TechnicianDate,
		TodoRequired:       f.TodoRequired,
	}
}
