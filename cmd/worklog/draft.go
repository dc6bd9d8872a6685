package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orangemri/worklog/internal/drafts"
	"github.com/orangemri/worklog/internal/record"
	"github.com/orangemri/worklog/internal/ui"
)

var draftCmd = &cobra.Command{
	Use:     "draft",
	GroupID: "cases",
	Short:   "Work with the unsaved case draft",
	Long: `Work with the unsaved case draft.

The draft holds case fields before they become a real case. A half-filled
draft can be parked on a stack when something urgent comes in and popped
back later.`,
}

// draftRepo wires the draft store without the full app: drafts are purely
// local, so no remote connection is needed.
func draftRepo() *drafts.Drafts {
	st, err := newLocalStore()
	if err != nil {
		fatal("%v", err)
	}
	return drafts.New(st)
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current draft",
	Run: func(cmd *cobra.Command, args []string) {
		d := draftRepo()

		f, ok := d.Current()
		if !ok {
			fmt.Println(ui.Muted("No draft saved."))
		} else {
			printDraft(f)
		}
		if n := d.Count(); n > 0 {
			fmt.Println(ui.Muted(fmt.Sprintf("%d draft(s) parked on the stack.", n)))
		}
	},
}

func printDraft(f record.CaseFields) {
	fmt.Println(ui.Title("Current draft"))
	if f.CustomerCode != "" {
		fmt.Printf("  Customer:  %s\n", f.CustomerCode)
	}
	if f.Interaction != "" {
		fmt.Printf("  Interaction: %s\n", f.Interaction)
	}
	if f.Outcome != "" {
		fmt.Printf("  Outcome:   %s\n", f.Outcome)
	}
	if f.ProblemDescription != "" {
		fmt.Printf("  Problem:   %s\n", f.ProblemDescription)
	}
}

var draftSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save case fields as the current draft",
	Run: func(cmd *cobra.Command, args []string) {
		d := draftRepo()

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

		if err := d.Save(f); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("%s Draft saved\n", ui.Success("✓"))
	},
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the current draft",
	Run: func(cmd *cobra.Command, args []string) {
		d := draftRepo()
		if err := d.Clear(); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("%s Draft cleared\n", ui.Success("✓"))
	},
}

var draftPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Park the current draft on the stack",
	Run: func(cmd *cobra.Command, args []string) {
		d := draftRepo()

		f, ok := d.Current()
		if !ok {
			fatal("no draft to park")
		}
		if err := d.Push(f); err != nil {
			fatal("%v", err)
		}
		if err := d.Clear(); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("%s Draft parked (%d on stack)\n", ui.Success("✓"), d.Count())
	},
}

var draftPopCmd = &cobra.Command{
	Use:   "pop",
	Short: "Restore the most recently parked draft",
	Run: func(cmd *cobra.Command, args []string) {
		d := draftRepo()

		f, ok, err := d.Pop()
		if err != nil {
			fatal("%v", err)
		}
		if !ok {
			fatal("the draft stack is empty")
		}
		if err := d.Save(f); err != nil {
			fatal("%v", err)
		}
		fmt.Printf("%s Draft restored (%d left on stack)\n", ui.Success("✓"), d.Count())
		printDraft(f)
	},
}

func init() {
	addCaseFieldFlags(draftSaveCmd)

	draftCmd.AddCommand(draftShowCmd, draftSaveCmd, draftClearCmd, draftPushCmd, draftPopCmd)
	rootCmd.AddCommand(draftCmd)
}
