package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/orangemri/worklog/internal/cases"
	"github.com/orangemri/worklog/internal/config"
	"github.com/orangemri/worklog/internal/followups"
	"github.com/orangemri/worklog/internal/remote"
	"github.com/orangemri/worklog/internal/store"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "worklog",
	Short: "Case and follow-up tracking for the support desk",
	Long: `worklog tracks support cases and personal follow-ups.

All data lives in a local JSON store and every change is pushed in the
background to a shared sqlite table, so the tool stays fully usable when
the shared database is unreachable. On startup the local store is
reconciled with the shared table using last-write-wins per record.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "C", ".", "directory holding worklog.yaml and data")

	rootCmd.AddGroup(
		&cobra.Group{ID: "cases", Title: "Cases:"},
		&cobra.Group{ID: "followups", Title: "Follow-ups:"},
		&cobra.Group{ID: "sync", Title: "Sync:"},
		&cobra.Group{ID: "advanced", Title: "Advanced:"},
	)
}

// app bundles the wired repositories for one command invocation.
type app struct {
	cfg       *config.Config
	store     *store.Store
	db        *remote.DB
	pushers   []*remote.Pusher
	cases     *cases.Repo
	followups *followups.Repo
	logger    *log.Logger
}

// newApp loads config and wires the store, remote tables and repositories.
// Reconciliation runs for both collections before the app is handed to a
// command, so every command sees the merged state; remote failures fall
// back to local data without surfacing here.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	logger := log.New(os.Stderr, "[worklog] ", log.LstdFlags)

	db, err := remote.Open(cfg.RemoteDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote database: %w", err)
	}

	a := &app{cfg: cfg, store: st, db: db, logger: logger}

	caseTable, err := db.Table(cases.RemoteTable)
	if err != nil {
		return nil, err
	}
	fuTable, err := db.Table(followups.RemoteTable)
	if err != nil {
		return nil, err
	}
	if err := caseTable.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize case table: %w", err)
	}
	if err := fuTable.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize follow-up table: %w", err)
	}

	casePusher := remote.NewPusher(caseTable, logger)
	fuPusher := remote.NewPusher(fuTable, logger)
	a.pushers = []*remote.Pusher{casePusher, fuPusher}

	a.cases = cases.NewRepo(st, caseTable, casePusher, logger)
	a.followups = followups.NewRepo(st, fuTable, fuPusher, logger)

	a.cases.Reconcile(ctx)
	a.followups.Reconcile(ctx)

	return a, nil
}

// Close drains pending pushes and releases the remote connection.
func (a *app) Close() {
	for _, p := range a.pushers {
		p.Wait()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Printf("Warning: failed to close remote database: %v", err)
	}
}

// newLocalStore opens just the local store, for commands that never touch
// the remote table.
func newLocalStore() (*store.Store, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// fatal prints an error to stderr and exits, the shared failure path for
// command bodies.
func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
