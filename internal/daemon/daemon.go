// Package daemon provides the background worker that watches a drop
// directory for exported case files and feeds them through the import
// pipeline.
//
// The daemon:
// 1. Sweeps the drop directory once at startup
// 2. Watches for new or rewritten export files
// 3. Imports each file through the dedup merge, so reprocessing is harmless
// 4. Periodically re-runs reconciliation against the remote table
// 5. Handles graceful shutdown
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/orangemri/worklog/internal/transfer"
)

// CaseImporter is the import side of the case repository.
type CaseImporter interface {
	ImportMerge(raw []map[string]any) (int, error)
	Reconcile(ctx context.Context)
}

// Notifier receives daemon lifecycle events; the dashboard broadcasts
// them to connected clients. A nil Notifier disables notifications.
type Notifier interface {
	ImportComplete(file string, added int)
	SyncComplete()
}

// Config holds daemon tuning knobs.
type Config struct {
	// DebounceInterval is how long a file must sit quiet before import.
	// Batches the write bursts that file copies produce.
	DebounceInterval time.Duration

	// ReconcileInterval is how often to re-run remote reconciliation.
	// Zero disables the periodic pass.
	ReconcileInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval:  500 * time.Millisecond,
		ReconcileInterval: 5 * time.Minute,
		Logger:            log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches the drop directory and keeps the case collection fed.
type Daemon struct {
	dropDir  string
	importer CaseImporter
	notifier Notifier
	config   *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon watching dropDir. notifier may be nil.
func New(dropDir string, importer CaseImporter, notifier Notifier, config *Config) (*Daemon, error) {
	if dropDir == "" {
		return nil, fmt.Errorf("dropDir cannot be empty")
	}
	if importer == nil {
		return nil, fmt.Errorf("importer cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		dropDir:     dropDir,
		importer:    importer,
		notifier:    notifier,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation. Blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	if err := os.MkdirAll(d.dropDir, 0755); err != nil {
		return fmt.Errorf("failed to create drop directory: %w", err)
	}

	// Pick up anything dropped while the daemon was down.
	if err := d.sweepDropDir(); err != nil {
		return fmt.Errorf("initial sweep failed: %w", err)
	}

	if err := d.watcher.Add(d.dropDir); err != nil {
		return fmt.Errorf("failed to watch drop directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", d.dropDir)

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processChangeQueue()

	if d.config.ReconcileInterval > 0 {
		d.wg.Add(1)
		go d.reconcileLoop()
	}

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// sweepDropDir imports every importable file already in the drop directory.
func (d *Daemon) sweepDropDir() error {
	entries, err := os.ReadDir(d.dropDir)
	if err != nil {
		return fmt.Errorf("failed to read drop directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(d.dropDir, entry.Name())
		if !importable(path) {
			continue
		}
		d.importFile(path)
	}
	return nil
}

// importable reports whether the path looks like a case export file.
func importable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".csv":
	default:
		return false
	}
	// Follow-up exports replace the whole collection, too destructive for
	// an unattended import. Those go through the CLI.
	return !strings.Contains(strings.ToLower(filepath.Base(path)), "followup")
}

// importFile runs one file through the dedup import. Failures are logged
// and skipped; a bad file must not stall the daemon.
func (d *Daemon) importFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		d.config.Logger.Printf("Error reading %s: %v", path, err)
		return
	}

	raw, err := transfer.DecodeCases(data)
	if err != nil {
		d.config.Logger.Printf("Skipping %s: %v", path, err)
		return
	}

	added, err := d.importer.ImportMerge(raw)
	if err != nil {
		d.config.Logger.Printf("Error importing %s: %v", path, err)
		return
	}

	d.config.Logger.Printf("Imported %s: %d new cases", filepath.Base(path), added)
	if d.notifier != nil {
		d.notifier.ImportComplete(filepath.Base(path), added)
	}
}

// watchFileEvents monitors filesystem events and queues changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !importable(event.Name) {
				continue
			}
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange records a file event, resetting its debounce clock.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue imports queued files once they have settled.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	var ready []string
	now := time.Now()
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		ready = append(ready, path)
		delete(d.changeQueue, path)
	}
	d.changeQueueMu.Unlock()

	for _, path := range ready {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		d.importFile(path)
	}
}

// reconcileLoop periodically re-runs reconciliation against the remote
// table so long-running daemons pick up changes from other devices.
func (d *Daemon) reconcileLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.importer.Reconcile(d.ctx)
			if d.notifier != nil {
				d.notifier.SyncComplete()
			}
		}
	}
}
