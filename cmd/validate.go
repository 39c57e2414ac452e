// =============================================================================
// Watson Report Validator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which imports one report and
// prints its metadata, validation findings and fix suggestions. Nothing is
// written to disk.
//
// COMMAND USAGE:
//   watson validate <file> [flags]
//
// FLAGS:
//   --max-findings : Number of findings to print (0 prints all)
//   --fix          : Apply every automatic suggestion before validating
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/watson-validator/internal/session"
	"github.com/ginjaninja78/watson-validator/internal/suggestions"
	"github.com/ginjaninja78/watson-validator/internal/validation"
)

var (
	maxFindings int
	validateFix bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a report and list fix suggestions",
	Long: `The validate command imports a single xlsx, xls or csv report, runs the
column rules over every data row and prints the findings together with the
fix suggestions, grouped by category. The input file is not modified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().IntVar(&maxFindings, "max-findings", 50, "Number of findings to print (0 prints all)")
	validateCmd.Flags().BoolVar(&validateFix, "fix", false, "Apply every automatic suggestion before validating")
}

func runValidate(cmd *cobra.Command, path string) error {
	s := session.New(sessionOptions(cfg, logger, nil))
	if err := importFile(cmd.Context(), s, path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if validateFix {
		fmt.Fprintf(out, "Applied %d automatic fix(es)\n", s.ApplyAllAuto())
	}
	result, err := s.Validate()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "=== %s ===\n", s.FileName())
	meta := s.Meta()
	if meta.ReportName != nil {
		fmt.Fprintf(out, "Report:       %s\n", *meta.ReportName)
	}
	if meta.ReportRunAt != nil {
		fmt.Fprintf(out, "Run at:       %s\n", *meta.ReportRunAt)
	}
	if meta.ReportParameters != nil {
		fmt.Fprintf(out, "Parameters:   %s\n", *meta.ReportParameters)
	}
	fmt.Fprintf(out, "Columns:      %d\n", len(s.Headers()))

	sum := result.Summary
	errs, warns := result.Counts()
	fmt.Fprintf(out, "Rows:         %d (valid %d, with errors %d, with warnings %d)\n",
		sum.TotalRows, sum.ValidRows, sum.ErrorRows, sum.WarningRows)
	fmt.Fprintf(out, "Findings:     %d errors, %d warnings\n\n", errs, warns)

	shown := result.Findings
	if maxFindings > 0 && len(shown) > maxFindings {
		shown = shown[:maxFindings]
	}
	fmt.Fprintln(out, validation.FormatFindings(shown))
	if len(shown) < len(result.Findings) {
		fmt.Fprintf(out, "... %d more\n", len(result.Findings)-len(shown))
	}

	printSuggestions(cmd, s.Groups())

	status := "VALID"
	if !sum.IsValid {
		status = "INVALID"
	}
	fmt.Fprintf(out, "\nResult: %s\n", status)
	return nil
}

func printSuggestions(cmd *cobra.Command, groups []suggestions.Group) {
	out := cmd.OutOrStdout()
	sum := suggestions.Summarize(groups)
	fmt.Fprintf(out, "\nSuggestions: %d (auto %d, manual %d, destructive %d)\n",
		sum.Total, sum.Auto, sum.Manual, sum.Destructive)
	for _, g := range groups {
		fmt.Fprintf(out, "\n%s %s (%d)\n", g.Icon, g.Category, len(g.Suggestions))
		for _, sg := range g.Suggestions {
			line := fmt.Sprintf("  [%s] %s: %s", sg.Severity, sg.Title, sg.Description)
			if sg.Preview != nil {
				line += fmt.Sprintf(" ('%s' -> '%s')", sg.Preview.Before.Display(), sg.Preview.After.Display())
			}
			fmt.Fprintln(out, line)
		}
	}
}
