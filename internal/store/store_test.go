package store

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return s
}

func TestReadMissingKeyLeavesFallback(t *testing.T) {
	s := openTestStore(t)

	items := []string{"fallback"}
	if ok := s.Read("nope", &items); ok {
		t.Error("expected Read to return false for missing key")
	}
	if len(items) != 1 || items[0] != "fallback" {
		t.Errorf("expected fallback value untouched, got %v", items)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	type item struct {
		ID    string `json:"id"`
		Count int    `json:"count"`
	}

	in := []item{{ID: "a", Count: 1}, {ID: "b", Count: 2}}
	if err := s.Write("items", in); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var out []item
	if ok := s.Read("items", &out); !ok {
		t.Fatal("expected Read to succeed")
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].Count != 2 {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestReadCorruptContentBehavesLikeMissing(t *testing.T) {
	s := openTestStore(t)

	path := filepath.Join(s.Dir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("failed to write corrupt file: %v", err)
	}

	var items []string
	if ok := s.Read("broken", &items); ok {
		t.Error("expected Read to return false for corrupt content")
	}
	if items != nil {
		t.Errorf("expected value untouched, got %v", items)
	}
}

func TestWriteOverwritesExisting(t *testing.T) {
	s := openTestStore(t)

	if err := s.Write("k", []int{1, 2, 3}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write("k", []int{9}); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	var out []int
	if ok := s.Read("k", &out); !ok {
		t.Fatal("expected Read to succeed")
	}
	if len(out) != 1 || out[0] != 9 {
		t.Errorf("expected overwritten value [9], got %v", out)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	if err := s.Write("k", "v"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete of missing key should be nil, got: %v", err)
	}

	var out string
	if ok := s.Read("k", &out); ok {
		t.Error("expected key to be gone after Delete")
	}
}
