package daemon

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeImporter records import calls.
type fakeImporter struct {
	mu      sync.Mutex
	batches [][]map[string]any
	syncs   int
}

func (f *fakeImporter) ImportMerge(raw []map[string]any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, raw)
	return len(raw), nil
}

func (f *fakeImporter) Reconcile(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
}

func (f *fakeImporter) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func testConfig() *Config {
	return &Config{
		DebounceInterval:  10 * time.Millisecond,
		ReconcileInterval: 0,
		Logger:            log.New(os.Stderr, "[test] ", 0),
	}
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := New("", &fakeImporter{}, nil, nil); err == nil {
		t.Error("expected empty dropDir rejected")
	}
	if _, err := New(t.TempDir(), nil, nil, nil); err == nil {
		t.Error("expected nil importer rejected")
	}
}

func TestSweepImportsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "export.json")
	if err := os.WriteFile(seed, []byte(`[{"id":"a"},{"id":"b"}]`), 0600); err != nil {
		t.Fatalf("failed to seed drop dir: %v", err)
	}
	// Non-importable content must be ignored, not fail the sweep.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0600); err != nil {
		t.Fatalf("failed to seed drop dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "followups.json"), []byte(`[]`), 0600); err != nil {
		t.Fatalf("failed to seed drop dir: %v", err)
	}

	imp := &fakeImporter{}
	d, err := New(dir, imp, nil, testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = d.watcher.Close() })

	if err := d.sweepDropDir(); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if imp.batchCount() != 1 {
		t.Fatalf("expected 1 imported file, got %d", imp.batchCount())
	}
	if len(imp.batches[0]) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(imp.batches[0]))
	}
}

func TestWatchImportsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	imp := &fakeImporter{}
	d, err := New(dir, imp, nil, testConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher a moment to attach before dropping the file.
	time.Sleep(50 * time.Millisecond)
	path := filepath.Join(dir, "cases.csv")
	if err := os.WriteFile(path, []byte("id,customerCode\nc-1,A1\n"), 0600); err != nil {
		t.Fatalf("failed to drop file: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for imp.batchCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for import")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestImportableFilter(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"drop/cases.json", true},
		{"drop/cases.CSV", true},
		{"drop/readme.txt", false},
		{"drop/followups.json", false},
		{"drop/orange-mri-followups-2026-08-30.json", false},
	}
	for _, tt := range tests {
		if got := importable(tt.path); got != tt.want {
			t.Errorf("importable(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
