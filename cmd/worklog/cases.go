package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/orangemri/worklog/internal/cases"
	"github.com/orangemri/worklog/internal/record"
	"github.com/orangemri/worklog/internal/transfer"
	"github.com/orangemri/worklog/internal/ui"
)

var casesCmd = &cobra.Command{
	Use:     "cases",
	GroupID: "cases",
	Short:   "Manage support cases",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cases, split into inbound and outbound",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		search, _ := cmd.Flags().GetString("search")
		outcome, _ := cmd.Flags().GetString("outcome")

		filtered := cases.Filter(a.cases.All(), search, outcome)

		var inbound, outbound []record.Case
		for _, c := range filtered {
			if cases.IsOutbound(c) {
				outbound = append(outbound, c)
			} else {
				inbound = append(inbound, c)
			}
		}

		fmt.Println(ui.Title(fmt.Sprintf("Inbound (%d)", len(inbound))))
		printCases(inbound)
		fmt.Println()
		fmt.Println(ui.Title(fmt.Sprintf("Outbound (%d)", len(outbound))))
		printCases(outbound)
	},
}

func printCases(cs []record.Case) {
	if len(cs) == 0 {
		fmt.Println(ui.Muted("  (none)"))
		return
	}
	for _, c := range cs {
		when := time.UnixMilli(cases.CaseTime(c)).Format("2006-01-02 15:04")
		line := fmt.Sprintf("  %s  %s  %s", ui.Accent(c.ID), when, c.CustomerCode)
		if c.Outcome != "" {
			line += "  " + ui.Muted(c.Outcome)
		}
		fmt.Println(line)
		if c.ProblemDescription != "" {
			fmt.Printf("      %s\n", c.ProblemDescription)
		}
	}
}

var casesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new case",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		f := record.CaseFields{}
		f.CustomerCode, _ = cmd.Flags().GetString("customer")
		f.ProblemDescription, _ = cmd.Flags().GetString("problem")
		f.PreAnalysis, _ = cmd.Flags().GetString("pre-analysis")
		f.Interaction, _ = cmd.Flags().GetString("interaction")
		f.ContactType, _ = cmd.Flags().GetString("contact-type")
		f.Outcome, _ = cmd.Flags().GetString("outcome")
		f.CustomerCalled, _ = cmd.Flags().GetBool("called")
		f.ActionsDone, _ = cmd.Flags().GetString("actions")
		f.RingRing, _ = cmd.Flags().GetString("ring-ring")
		f.TechnicianDate, _ = cmd.Flags().GetString("technician-date")
		f.TodoRequired, _ = cmd.Flags().GetString("todo")

		c, err := a.cases.Create(f)
		if err != nil {
			fatal("failed to create case: %v", err)
		}
		fmt.Printf("%s Created case %s\n", ui.Success("✓"), ui.Accent(c.ID))
	},
}

var casesEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update fields of an existing case",
	Long: `Update fields of an existing case.

Only the flags you pass are changed. The handled timestamp is fixed at
creation and cannot be edited.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		var p record.CasePatch
		strFlag := func(name string, dst **string) {
			if cmd.Flags().Changed(name) {
				v, _ := cmd.Flags().GetString(name)
				*dst = &v
			}
		}
		strFlag("customer", &p.CustomerCode)
		strFlag("problem", &p.ProblemDescription)
		strFlag("pre-analysis", &p.PreAnalysis)
		strFlag("interaction", &p.Interaction)
		strFlag("contact-type", &p.ContactType)
		strFlag("outcome", &p.Outcome)
		strFlag("actions", &p.ActionsDone)
		strFlag("ring-ring", &p.RingRing)
		strFlag("technician-date", &p.TechnicianDate)
		strFlag("todo", &p.TodoRequired)
		if cmd.Flags().Changed("called") {
			v, _ := cmd.Flags().GetBool("called")
			p.CustomerCalled = &v
		}

		c, ok, err := a.cases.Update(args[0], p)
		if err != nil {
			fatal("failed to update case: %v", err)
		}
		if !ok {
			fatal("case %s not found", args[0])
		}
		fmt.Printf("%s Updated case %s\n", ui.Success("✓"), ui.Accent(c.ID))
	},
}

var casesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a case",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		removed, err := a.cases.Remove(args[0])
		if err != nil {
			fatal("failed to delete case: %v", err)
		}
		if !removed {
			fatal("case %s not found", args[0])
		}
		fmt.Printf("%s Deleted case %s\n", ui.Success("✓"), args[0])
	},
}

var casesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show case statistics for a period",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		period, _ := cmd.Flags().GetString("period")
		now := time.Now()

		var from, to int64
		switch period {
		case "day":
			from, to = cases.DayRange(now)
		case "month":
			from, to = cases.MonthRange(now)
		case "year":
			from, to = cases.YearRange(now)
		default:
			fatal("unknown period %q (want day, month or year)", period)
		}

		s := cases.ComputeStats(a.cases.All(), from, to)

		fmt.Println(ui.Title(fmt.Sprintf("Cases this %s", period)))
		fmt.Printf("  Total:    %d\n", s.Total)
		fmt.Printf("  Inbound:  %d\n", s.Inbound)
		fmt.Printf("  Outbound: %d\n", s.Outbound)
		fmt.Printf("  Called:   %d/%d outbound (%d%%)\n", s.OutboundCalled, s.Outbound, s.CallRatePct)
	},
}

var casesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cases to a JSON or CSV file",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd.Context())
		if err != nil {
			fatal("%v", err)
		}
		defer a.Close()

		format, _ := cmd.Flags().GetString("format")
		outDir, _ := cmd.Flags().GetString("out")

		all := a.cases.All()
		var data []byte
		switch format {
		case "json":
			data, err = transfer.ExportCasesJSON(all, time.Now().UnixMilli())
			if err != nil {
				fatal("%v", err)
			}
		case "csv":
			data = transfer.ExportCasesCSV(all)
		default:
			fatal("unknown format %q (want json or csv)", format)
		}

		name := transfer.ExportFilename(a.cfg.ExportPrefix, "cases", format, time.Now())
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			fatal("failed to write export: %v", err)
		}
		fmt.Printf("%s Exported %d cases to %s\n", ui.Success("✓"), len(all), path)
	},
}

var casesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import cases from a JSON or CSV export",
	Long: `Import cases from a JSON or CSV export.

By default candidates are merged: records whose content fingerprint is
already present are skipped, so importing the same file twice changes
nothing. With --replace the whole collection is overwritten instead.`,
	Args: cobra.ExactArgs(1),
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

		raw, err := transfer.DecodeCases(data)
		if err != nil {
			fatal("failed to parse %s: %v", args[0], err)
		}

		replace, _ := cmd.Flags().GetBool("replace")
		if replace {
			n, err := a.cases.ImportReplace(raw)
			if err != nil {
				fatal("import failed: %v", err)
			}
			fmt.Printf("%s Replaced collection with %d cases\n", ui.Warn("!"), n)
			return
		}

		added, err := a.cases.ImportMerge(raw)
		if err != nil {
			fatal("import failed: %v", err)
		}
		fmt.Printf("%s Imported %d new cases (duplicates skipped)\n", ui.Success("✓"), added)
	},
}

func addCaseFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("customer", "", "customer code")
	cmd.Flags().String("problem", "", "problem description")
	cmd.Flags().String("pre-analysis", "", "pre-analysis notes")
	cmd.Flags().String("interaction", "", "interaction type (Inbound, Outbound, ...)")
	cmd.Flags().String("contact-type", "", "contact type")
	cmd.Flags().String("outcome", "", "outcome")
	cmd.Flags().Bool("called", false, "customer was called back")
	cmd.Flags().String("actions", "", "actions done")
	cmd.Flags().String("ring-ring", "", "ring-ring reference")
	cmd.Flags().String("technician-date", "", "technician visit date")
	cmd.Flags().String("todo", "", "follow-up still required")
}

func init() {
	casesListCmd.Flags().String("search", "", "free-text filter")
	casesListCmd.Flags().String("outcome", "", "only cases with this exact outcome")

	addCaseFieldFlags(casesAddCmd)
	addCaseFieldFlags(casesEditCmd)

	casesStatsCmd.Flags().String("period", "day", "reporting period: day, month or year")

	casesExportCmd.Flags().String("format", "json", "export format: json or csv")
	casesExportCmd.Flags().String("out", ".", "directory to write the export into")

	casesImportCmd.Flags().Bool("replace", false, "overwrite the collection instead of merging")

	casesCmd.AddCommand(casesListCmd, casesAddCmd, casesEditCmd, casesRmCmd,
		casesStatsCmd, casesExportCmd, casesImportCmd)
	rootCmd.AddCommand(casesCmd)
}
