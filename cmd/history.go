// =============================================================================
// Watson Report Validator - History Command
// =============================================================================
//
// This file defines the 'history' command, which lists the activity entries
// persisted by 'process --save', newest first.
//
// COMMAND USAGE:
//   watson history [--limit N] [--class edits|imports|shifts|undoable]
//   watson history --clear
//
// =============================================================================

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/store"
)

var (
	historyLimit int
	historyClass string
	historyClear bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List persisted activity history",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		out := cmd.OutOrStdout()
		if historyClear {
			if err := db.ClearActivity(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Activity history cleared.")
			return nil
		}

		entries, err := db.ListActivity(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		filter := activity.Filter{Class: activity.Class(historyClass)}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTION\tDESCRIPTION\tUNDONE")
		shown := 0
		for _, e := range entries {
			if !filter.Matches(e) {
				continue
			}
			undone := ""
			if e.Undone {
				undone = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Action, e.Description, undone)
			shown++
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%d entries shown\n", shown)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", store.DefaultActivityLimit, "Maximum number of entries to read")
	historyCmd.Flags().StringVar(&historyClass, "class", string(activity.ClassAll), "Entry class: all, edits, imports, shifts, undoable")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Delete the persisted history")
}
