// =============================================================================
// Watson Report Validator - Process Command
// =============================================================================
//
// This file defines the 'process' command, the batch repair pipeline. Each
// report gets its own editing session.
//
// COMMAND USAGE:
//   watson process [files...] [flags]
//
// FLAGS:
//   --dry-run   : Validate and repair in memory without writing any file
//   --no-fix    : Skip the automatic suggestions
//   --no-report : Skip the validation report workbook
//   --save      : Save each result and its activity history to the store
//   --format    : Output file name format (see utils.GenerateOutputFileName)
//
// PROCESSING PIPELINE:
//   1. Discover reports in the input directory, unless files are named
//   2. For each file (concurrently):
//      a. Import and parse the report
//      b. Apply every automatic suggestion
//      c. Validate the repaired records
//      d. Export the corrected workbook and the validation report
//      e. Write the findings log
//      f. Optionally save to the store
//      g. Archive the input
//   3. Write the processing summary
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/session"
	"github.com/ginjaninja78/watson-validator/internal/store"
	"github.com/ginjaninja78/watson-validator/internal/validation"
	"github.com/ginjaninja78/watson-validator/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dryRun       bool
	noFix        bool
	noReport     bool
	saveToStore  bool
	outputFormat string
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Repair reports and export corrected workbooks",
	Long: `The process command imports every report in the input directory (or the
files named on the command line), applies the automatic fix suggestions,
validates the result and writes a corrected workbook and a validation report
to the output directory.

Files are processed concurrently. An error in one file does not affect the
others.

On success:
  - The corrected workbook and the report are placed in the output directory
  - A findings log lists every remaining finding
  - The input is moved to the archive directory, when one is configured

On error:
  - The input remains where it was
  - The failure is listed in the processing summary`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), args)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and repair in memory without writing any file")
	processCmd.Flags().BoolVar(&noFix, "no-fix", false, "Skip the automatic suggestions")
	processCmd.Flags().BoolVar(&noReport, "no-report", false, "Skip the validation report workbook")
	processCmd.Flags().BoolVar(&saveToStore, "save", false, "Save each result and its activity history to the store")
	processCmd.Flags().StringVar(&outputFormat, "format", "{original}_corrected_{timestamp}", "Output file name format")
}

// fileResult is the outcome of processing one report.
type fileResult struct {
	Input string
	Info  utils.ProcessedFileInfo
	Err   error
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context, files []string) error {
	startTime := time.Now()

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.ArchiveDir)
	if len(files) == 0 {
		found, err := fm.DiscoverReports()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
		files = found
	}
	if len(files) == 0 {
		fmt.Println("No reports found in the input directory.")
		return nil
	}
	if !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	var db *store.SQLiteStore
	if saveToStore && !dryRun {
		opened, err := openStore()
		if err != nil {
			return err
		}
		defer opened.Close()
		db = opened
	}

	fmt.Printf("Processing %d file(s)...\n", len(files))

	var wg sync.WaitGroup
	results := make(chan fileResult, len(files))
	for _, file := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			info, err := processFile(ctx, fm, db, path)
			results <- fileResult{Input: path, Info: info, Err: err}
		}(file)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	summary := utils.ProcessingSummary{StartTime: startTime, TotalFiles: len(files)}
	for r := range results {
		if r.Err != nil {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    r.Input,
				ErrorMessage: r.Err.Error(),
			})
			logger.Error("processing failed", zap.String("file", r.Input), zap.Error(r.Err))
			fmt.Printf("  ✗ %s: %v\n", filepath.Base(r.Input), r.Err)
			continue
		}
		summary.SuccessfulFiles++
		summary.TotalRows += r.Info.Rows
		summary.AutoFixes += r.Info.AutoFixes
		summary.Errors += r.Info.Errors
		summary.Warnings += r.Info.Warnings
		summary.ProcessedFiles = append(summary.ProcessedFiles, r.Info)
		fmt.Printf("  ✓ %s -> %s (%d rows, %d fixes, %d errors)\n",
			filepath.Base(r.Input), r.Info.OutputFile, r.Info.Rows, r.Info.AutoFixes, r.Info.Errors)
	}
	summary.EndTime = time.Now()

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Printf("Failed:          %d\n", summary.FailedFiles)
	fmt.Printf("Auto fixes:      %d\n", summary.AutoFixes)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if !dryRun {
		path, err := utils.WriteSummaryLog(summary, cfg.OutputDir)
		if err != nil {
			return err
		}
		fmt.Printf("Summary written to %s\n", path)
	}
	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// processFile runs the full pipeline for one report. db is nil unless
// results are saved.
func processFile(ctx context.Context, fm *utils.FileManager, db *store.SQLiteStore, path string) (utils.ProcessedFileInfo, error) {
	start := time.Now()
	info := utils.ProcessedFileInfo{InputFile: path}

	var sink activity.Sink
	if db != nil {
		sink = db
	}
	s := session.New(sessionOptions(cfg, logger.With(zap.String("file", filepath.Base(path))), sink))
	if err := importFile(ctx, s, path); err != nil {
		return info, err
	}
	if !noFix {
		info.AutoFixes = s.ApplyAllAuto()
	}
	result, err := s.Validate()
	if err != nil {
		return info, err
	}
	info.Rows = result.Summary.TotalRows
	info.Errors, info.Warnings = result.Counts()

	if dryRun {
		info.OutputFile = "(dry run)"
		info.ProcessTime = time.Since(start)
		return info, nil
	}

	base := utils.BaseName(path)
	info.OutputFile = filepath.Join(cfg.OutputDir,
		utils.GenerateOutputFileName(outputFormat, map[string]string{"original": base}, start))
	if err := writeFile(info.OutputFile, func(f *os.File) error {
		return s.ExportExcel(f, filepath.Base(info.OutputFile))
	}); err != nil {
		return info, err
	}

	if !noReport {
		info.ReportFile = filepath.Join(cfg.OutputDir,
			utils.GenerateOutputFileName("{original}_validation_report_{timestamp}", map[string]string{"original": base}, start))
		if err := writeFile(info.ReportFile, func(f *os.File) error {
			return s.ExportReport(f, filepath.Base(info.ReportFile))
		}); err != nil {
			return info, err
		}
	}

	if _, err := utils.WriteFindingsLog(findingLogEntries(s.FileName(), result.Findings), cfg.OutputDir, start); err != nil {
		return info, err
	}

	if db != nil {
		id, err := s.SaveCloud(ctx, db)
		if err != nil {
			return info, err
		}
		info.ExportID = id
	}

	archived, err := fm.ArchiveInputFile(path)
	if err != nil {
		return info, err
	}
	info.ArchivePath = archived
	info.ProcessTime = time.Since(start)
	return info, nil
}

// writeFile creates path and hands it to write. A failed write removes the
// partial file.
func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func findingLogEntries(fileName string, findings []validation.Finding) []utils.FindingLogEntry {
	entries := make([]utils.FindingLogEntry, 0, len(findings))
	for _, f := range findings {
		entries = append(entries, utils.FindingLogEntry{
			FileName:  fileName,
			Severity:  string(f.Severity),
			Message:   f.Message,
			RowNumber: f.RowIndex + 1,
			Column:    f.ColumnName,
			Value:     f.Value.Display(),
		})
	}
	return entries
}
