package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/orangemri/worklog/internal/followups"
	"github.com/orangemri/worklog/internal/record"
	"github.com/orangemri/worklog/internal/transfer"
	"github.com/orangemri/worklog/internal/ui"
)

var followupsCmd = &cobra.Command{
	Use:     "followups",
	GroupID: "followups",
	Short:   "Manage personal follow-ups",
}

// parseDue turns a due date argument into YYYY-MM-DD. Exact dates pass
// through; anything else goes through natural language parsing, so
// "tomorrow" and "next friday" work.
func parseDue(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(s, time.Now())
	if err != nil || r == nil {
		return "", fmt.Errorf("could not understand due date %q", s)
	}
	return r.Time.Format("2006-01-02"), nil
}

var followupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List follow-ups with the summary line",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		search, _ := cmd.Flags().GetString("search")
		status, _ := cmd.Flags().GetString("status")
		sortMode, _ := cmd.Flags().GetString("sort")

		all := a.followups.All()
		now := time.Now()

		fmt.Println(ui.Muted(followups.Summarize(all, now).String()))
		fmt.Println()

		view := followups.FilterSort(all, search, record.Status(status), followups.SortMode(sortMode))
		if len(view) == 0 {
			fmt.Println(ui.Muted("  (none)"))
			return
		}
		for _, it := range view {
			due := "—"
			if it.DueDate != "" {
				due = it.DueDate
			}
			line := fmt.Sprintf("  %s  %-13s  due %s  %s",
				ui.Accent(it.ID), ui.StatusBadge(string(it.Status)), due, it.Title)
			if followups.IsOverdue(it, now) {
				line += "  " + ui.Warn("OVERDUE")
			}
			fmt.Println(line)
		}
	},
}

var followupsAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a follow-up",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		details, _ := cmd.Flags().GetString("details")
		dueArg, _ := cmd.Flags().GetString("due")
		due, err := parseDue(dueArg)
		if err != nil {
			fatal("%v", err)
		}

		item, err := a.followups.Create(record.FollowupFields{
			Title:   args[0],
			Details: details,
			DueDate: due,
		})
		if err != nil {
			fatal("failed to create follow-up: %v", err)
		}
		fmt.Printf("%s Created follow-up %s", ui.Success("✓"), ui.Accent(item.ID))
		if item.DueDate != "" {
			fmt.Printf(" due %s", item.DueDate)
		}
		fmt.Println()
	},
}

var followupsCycleCmd = &cobra.Command{
	Use:   "cycle <id>",
	Short: "Advance a follow-up's status (todo → tbc → done → todo)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		item, ok, err := a.followups.CycleStatus(args[0])
		if err != nil {
			fatal("failed to cycle status: %v", err)
		}
		if !ok {
			fatal("follow-up %s not found", args[0])
		}
		fmt.Printf("%s %s is now %s\n", ui.Success("✓"), item.Title, ui.StatusBadge(string(item.Status)))
	},
}

var followupsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a follow-up",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		removed, err := a.followups.Remove(args[0])
		if err != nil {
			fatal("failed to delete follow-up: %v", err)
		}
		if !removed {
			fatal("follow-up %s not found", args[0])
		}
		fmt.Printf("%s Deleted follow-up %s\n", ui.Success("✓"), args[0])
	},
}

var followupsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export follow-ups to a JSON file",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		outDir, _ := cmd.Flags().GetString("out")

		all := a.followups.All()
		data, err := transfer.ExportFollowupsJSON(all)
		if err != nil {
			fatal("%v", err)
		}

		name := transfer.ExportFilename(a.cfg.ExportPrefix, "followups", "json", time.Now())
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			fatal("failed to write export: %v", err)
		}
		fmt.Printf("%s Exported %d follow-ups to %s\n", ui.Success("✓"), len(all), path)
	},
}

var followupsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import follow-ups from a JSON export (replaces the collection)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("failed to read %s: %v", args[0], err)
		}

		raw, err := transfer.DecodeFollowupsJSON(data)
		if err != nil {
			fatal("failed to parse %s: %v", args[0], err)
		}

		n, err := a.followups.ImportReplace(raw)
		if err != nil {
			fatal("import failed: %v", err)
		}
		fmt.Printf("%s Replaced collection with %d follow-ups\n", ui.Warn("!"), n)
	},
}

func init() {
	followupsListCmd.Flags().String("search", "", "free-text filter")
	followupsListCmd.Flags().String("status", "", "only this status: todo, tbc or done")
	followupsListCmd.Flags().String("sort", "createdDesc", "sort: dueAsc, dueDesc, createdAsc or createdDesc")

	followupsAddCmd.Flags().String("details", "", "free-form details")
	followupsAddCmd.Flags().String("due", "", "due date (2006-01-02 or natural language like \"next friday\")")

	followupsExportCmd.Flags().String("out", ".", "directory to write the export into")

	followupsCmd.AddCommand(followupsListCmd, followupsAddCmd, followupsCycleCmd,
		followupsRmCmd, followupsExportCmd, followupsImportCmd)
	rootCmd.AddCommand(followupsCmd)
}
