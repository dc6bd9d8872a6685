package record

import (
	"testing"
	"time"
)

func TestSanitizeCaseTimestampResolution(t *testing.T) {
	tests := []struct {
		name        string
		raw         map[string]any
		wantCreated int64
		wantUpdated int64
		wantHandled int64
	}{
		{
			name:        "createdAt wins",
			raw:         map[string]any{"createdAt": float64(100), "updatedAt": float64(200), "handledAt": float64(300)},
			wantCreated: 100,
			wantUpdated: 200,
			wantHandled: 300,
		},
		{
			name:        "handledAt beats updatedAt as base",
			raw:         map[string]any{"updatedAt": float64(200), "handledAt": float64(300)},
			wantCreated: 300,
			wantUpdated: 200,
			wantHandled: 300,
		},
		{
			name:        "updatedAt as last resort base",
			raw:         map[string]any{"updatedAt": float64(200)},
			wantCreated: 200,
			wantUpdated: 200,
			wantHandled: 200,
		},
		{
			name:        "numeric string accepted",
			raw:         map[string]any{"createdAt": "1766991923359"},
			wantCreated: 1766991923359,
			wantUpdated: 1766991923359,
			wantHandled: 1766991923359,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := SanitizeCase(tt.raw)
			if c.CreatedAt != tt.wantCreated {
				t.Errorf("CreatedAt = %d, want %d", c.CreatedAt, tt.wantCreated)
			}
			if c.UpdatedAt != tt.wantUpdated {
				t.Errorf("UpdatedAt = %d, want %d", c.UpdatedAt, tt.wantUpdated)
			}
			if c.HandledAt != tt.wantHandled {
				t.Errorf("HandledAt = %d, want %d", c.HandledAt, tt.wantHandled)
			}
		})
	}
}

func TestSanitizeCaseEmptyInputGetsImportMoment(t *testing.T) {
	before := time.Now().UnixMilli()
	c := SanitizeCase(map[string]any{})
	after := time.Now().UnixMilli()

	if c.CreatedAt < before || c.CreatedAt > after {
		t.Errorf("CreatedAt = %d, want within [%d, %d]", c.CreatedAt, before, after)
	}
	if c.UpdatedAt != c.CreatedAt || c.HandledAt != c.CreatedAt {
		t.Errorf("expected all timestamps equal, got %d/%d/%d", c.CreatedAt, c.UpdatedAt, c.HandledAt)
	}
	if c.ID == "" {
		t.Error("expected a generated id")
	}
	if c.CustomerCode != "" || c.ProblemDescription != "" {
		t.Error("expected free-text fields to default to empty string")
	}
}

func TestSanitizeCaseCustomerCalled(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{true, true},
		{"true", true},
		{float64(1), true},
		{"1", true},
		{false, false},
		{"yes", false},
		{float64(0), false},
		{"0", false},
		{nil, false},
	}

	for _, tt := range tests {
		c := SanitizeCase(map[string]any{"customerCalled": tt.value})
		if c.CustomerCalled != tt.want {
			t.Errorf("customerCalled %v: got %v, want %v", tt.value, c.CustomerCalled, tt.want)
		}
	}
}

func TestSanitizeCasePreservesID(t *testing.T) {
	c := SanitizeCase(map[string]any{"id": "abc123"})
	if c.ID != "abc123" {
		t.Errorf("expected preserved id, got %q", c.ID)
	}
}

func TestSanitizeFollowupDefaults(t *testing.T) {
	f := SanitizeFollowup(map[string]any{"title": "  ", "status": "bogus"})
	if f.Title != "Untitled" {
		t.Errorf("expected Untitled, got %q", f.Title)
	}
	if f.Status != StatusTodo {
		t.Errorf("expected todo fallback, got %q", f.Status)
	}
	if f.ID == "" {
		t.Error("expected generated id")
	}
	if f.CreatedAt == 0 || f.UpdatedAt == 0 {
		t.Error("expected timestamps defaulted to now")
	}
}

func TestStatusCycle(t *testing.T) {
	if StatusTodo.Next() != StatusTBC {
		t.Error("todo should cycle to tbc")
	}
	if StatusTBC.Next() != StatusDone {
		t.Error("tbc should cycle to done")
	}
	if StatusDone.Next() != StatusTodo {
		t.Error("done should cycle back to todo")
	}
}

func TestCasePatchNeverTouchesHandledAt(t *testing.T) {
	c := NewCase(CaseFields{CustomerCode: "A1"}, "id-1", 1000)

	handled := int64(9999)
	code := "B2"
	patched := CasePatch{CustomerCode: &code, HandledAt: &handled}.Apply(c)

	if patched.CustomerCode != "B2" {
		t.Errorf("expected patched customer code, got %q", patched.CustomerCode)
	}
	if patched.HandledAt != 1000 {
		t.Errorf("handledAt must stay %d, got %d", 1000, patched.HandledAt)
	}
}

func TestFollowupValidateRequiresTitle(t *testing.T) {
	f := NewFollowup(FollowupFields{Title: ""}, "id-1", 1000)
	if err := f.Validate(); err == nil {
		t.Error("expected validation error for empty title")
	}

	f.Title = "call back"
	if err := f.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}
