package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/orangemri/worklog/internal/daemon"
	"github.com/orangemri/worklog/internal/dashboard"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Watch the drop directory and import exports automatically",
	Long: `Run the background worker.

The daemon watches the configured drop directory for case export files
(.json or .csv), imports each through the dedup merge, and periodically
re-reconciles with the shared table. With --dashboard it also serves the
live dashboard and broadcasts import and sync events to it.

Logs go to stderr, or to a rotating file when log_file is configured.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		if a.cfg.DropDir == "" {
			fatal("drop_dir is not configured")
		}

		logger := log.New(os.Stderr, "[daemon] ", log.LstdFlags)
		if a.cfg.LogFile != "" {
			logger.SetOutput(&lumberjack.Logger{
				Filename:   a.cfg.LogFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			})
		}

		var notifier daemon.Notifier
		withDashboard, _ := cmd.Flags().GetBool("dashboard")
		if withDashboard {
			server := dashboard.NewServer(a.cfg.DashboardAddr, logger)
			if err := server.Start(); err != nil {
				fatal("%v", err)
			}
			defer func() {
				if err := server.Stop(); err != nil {
					logger.Printf("Error stopping dashboard: %v", err)
				}
			}()
			fmt.Printf("Dashboard: http://%s/\n", server.Addr())
			notifier = server
		}

		cfg := daemon.DefaultConfig()
		cfg.ReconcileInterval = a.cfg.ReconcileEvery()
		cfg.Logger = logger

		d, err := daemon.New(a.cfg.DropDir, a.cases, notifier, cfg)
		if err != nil {
			fatal("%v", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		fmt.Printf("Watching %s, press Ctrl+C to stop\n", a.cfg.DropDir)
		if err := d.Start(ctx); err != nil {
			fatal("%v", err)
		}
	},
}

func init() {
	daemonCmd.Flags().Bool("dashboard", false, "also serve the live dashboard")
	rootCmd.AddCommand(daemonCmd)
}
