package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/orangemri/worklog/internal/repo"
	"github.com/orangemri/worklog/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Reconcile with the shared table and show sync status",
	Long: `Reconcile both collections with the shared table and show the result.

Reconciliation merges local and remote per record id: the copy with the
larger updatedAt wins, ties keep the local copy. It cannot fail the
command; when the shared table is unreachable the local data stands and
the error shows up in the status below.`,
	Run: func(cmd *cobra.Command, args []string) {
		// newApp already reconciles both collections on startup.
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		printMeta("Cases", a.cases.Meta())
		printMeta("Follow-ups", a.followups.Meta())
	},
}

func printMeta(name string, m repo.SyncMeta) {
	fmt.Println(ui.Title(name))
	if m.LastInitOkAt == 0 && m.LastInitErrorAt == 0 {
		fmt.Println(ui.Muted("  never reconciled"))
		return
	}
	if m.LastInitOkAt != 0 {
		fmt.Printf("  %s last success %s (local %d, remote %d, merged %d)\n",
			ui.Success("✓"),
			time.UnixMilli(m.LastInitOkAt).Format(time.RFC3339),
			m.LocalCount, m.RemoteCount, m.MergedCount)
	}
	if m.LastInitErrorAt != 0 {
		fmt.Printf("  %s last failure %s: %s\n",
			ui.Warn("✗"),
			time.UnixMilli(m.LastInitErrorAt).Format(time.RFC3339),
			m.Message)
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
