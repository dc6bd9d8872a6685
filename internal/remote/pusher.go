package remote

import (
	"context"
	"log"
	"os"
	"sync"
)

// Pusher is the best-effort background sync adapter for one table.
//
// Every enqueue starts a goroutine that performs the remote write and
// forgets about it: failures are logged and dropped, never retried and
// never surfaced to the caller. Local state stays authoritative; the
// remote converges on the next reconciliation.
type Pusher struct {
	table  *Table
	logger *log.Logger
	wg     sync.WaitGroup
}

// NewPusher creates a Pusher for the given table.
// If logger is nil, a default logger writing to stderr is used.
func NewPusher(table *Table, logger *log.Logger) *Pusher {
	if logger == nil {
		logger = log.New(os.Stderr, "[push] ", log.LstdFlags)
	}
	return &Pusher{table: table, logger: logger}
}

// EnqueueUpsert pushes rows to the remote table without blocking the caller.
func (p *Pusher) EnqueueUpsert(rows []Row) {
	if len(rows) == 0 {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.table.UpsertMany(context.Background(), rows); err != nil {
			p.logger.Printf("Warning: %s upsert push failed: %v", p.table.Name(), err)
		}
	}()
}

// EnqueueDelete removes a row from the remote table without blocking the caller.
func (p *Pusher) EnqueueDelete(id string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.table.DeleteByID(context.Background(), id); err != nil {
			p.logger.Printf("Warning: %s delete push failed: %v", p.table.Name(), err)
		}
	}()
}

// Wait blocks until all outstanding pushes have finished.
// Intended for shutdown paths and tests; normal operation never waits.
func (p *Pusher) Wait() {
	p.wg.Wait()
}
