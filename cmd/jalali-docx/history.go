// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/jalali-docx/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the journal",
	Long: `History lists the most recent batch runs recorded in the run journal, newest
first. With --run it lists the documents of one run and their replacements.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("journal")
		if path == "" {
			path = viper.GetString("journal_path")
		}
		if path == "" {
			return fmt.Errorf("no journal configured: pass --journal or set journal_path")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		runID, _ := cmd.Flags().GetString("run")

		store, err := journal.NewStore(path)
		if err != nil {
			return fmt.Errorf("opening journal %s: %w", path, err)
		}
		defer store.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer tw.Flush()

		if runID != "" {
			files, err := store.Files(cmd.Context(), runID)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "FILE\tSTATUS\tREPLACED\tINVALID\tDETAIL")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", f.Name, f.Status, len(f.Replacements), len(f.Invalid), f.Error)
				for _, r := range f.Replacements {
					fmt.Fprintf(tw, "  %s\t\t\t\t%s → %s\n", r.Part, r.Original, r.Converted)
				}
			}
			return nil
		}

		runs, err := store.Runs(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(tw, "no runs recorded")
			return nil
		}
		fmt.Fprintln(tw, "RUN\tSTARTED\tDIR\tPROCESSED\tSKIPPED\tFAILED\tDURATION")
		for _, r := range runs {
			duration := "running"
			if !r.FinishedAt.IsZero() {
				duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				r.ID, humanize.Time(r.StartedAt), r.InputDir, r.Processed, r.Skipped, r.Failed, duration)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().String("journal", "", "SQLite run journal path (default: journal_path from config)")
	historyCmd.Flags().Int("limit", journal.DefaultRunLimit, "number of runs to list")
	historyCmd.Flags().String("run", "", "list the documents of this run")

	rootCmd.AddCommand(historyCmd)
}
