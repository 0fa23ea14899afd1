package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"camsort/internal/audit"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the materialization journal",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded copy and move runs, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if settings.JournalDir == "" {
			return errors.New("journal is disabled: journal_dir is empty")
		}

		runs, err := audit.NewReader(settings.JournalDir).ListRuns()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSTARTED\tMODE\tSTATUS\tFOLDERS\tFILES\tERRORS\tTARGET")
		for _, run := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				run.RunID, run.StartTime.Local().Format(time.DateTime), run.Mode, run.Status,
				run.Summary.Folders, run.Summary.Files, run.Summary.Errors, run.Target)
		}
		return tw.Flush()
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print the events of one run (the latest when no ID is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		reader := audit.NewReader(settings.JournalDir)

		var runID audit.RunID
		if len(args) == 1 {
			runID = audit.RunID(args[0])
		} else {
			latest, err := reader.GetLatestRun()
			if err != nil {
				return err
			}
			if latest == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			runID = latest.RunID
		}

		events, err := reader.GetRun(runID)
		if err != nil {
			return err
		}
		for _, e := range events {
			line := fmt.Sprintf("%s  %-9s %-7s", e.Timestamp.Local().Format(time.DateTime), e.EventType, e.Status)
			switch {
			case e.ErrorDetails != nil:
				line += fmt.Sprintf(" %s: %s", e.SourcePath, e.ErrorDetails.ErrorMessage)
			case e.DestinationPath != "":
				line += fmt.Sprintf(" %s -> %s", e.SourcePath, e.DestinationPath)
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	journalCmd.AddCommand(journalListCmd, journalShowCmd)
	rootCmd.AddCommand(journalCmd)
}
