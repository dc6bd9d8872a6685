package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orangemri/worklog/internal/cases"
	"github.com/orangemri/worklog/internal/dashboard"
	"github.com/orangemri/worklog/internal/followups"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "advanced",
	Short:   "Serve the live WebSocket dashboard",
	Long: `Serve the WebSocket dashboard on its own.

Connected clients receive JSON messages for record changes, finished
imports, completed sync passes and refreshed statistics. Today's case
statistics and the follow-up summary are rebroadcast periodically.

Connect with any WebSocket client:
  ws://localhost:8844/ws`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		server := dashboard.NewServer(a.cfg.DashboardAddr, log.New(os.Stderr, "[dashboard] ", log.LstdFlags))
		if err := server.Start(); err != nil {
			fatal("%v", err)
		}

		fmt.Printf("Dashboard: http://%s/\n", server.Addr())
		fmt.Printf("WebSocket: ws://%s/ws\n", server.Addr())
		fmt.Println("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		interval, _ := cmd.Flags().GetDuration("stats-interval")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		broadcastStats := func() {
			now := time.Now()
			from, to := cases.DayRange(now)
			server.Stats(
				cases.ComputeStats(a.cases.All(), from, to),
				followups.Summarize(a.followups.All(), now),
			)
		}
		broadcastStats()

		for {
			select {
			case <-ctx.Done():
				if err := server.Stop(); err != nil {
					fatal("%v", err)
				}
				return
			case <-ticker.C:
				broadcastStats()
			}
		}
	},
}

func init() {
	dashboardCmd.Flags().Duration("stats-interval", 30*time.Second, "how often to rebroadcast statistics")
	rootCmd.AddCommand(dashboardCmd)
}
