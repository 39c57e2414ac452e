// =============================================================================
// Watson Report Validator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Watson CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   watson validate <file>  - Print findings and fix suggestions for a report
//   watson process          - Repair and export every report in the input directory
//   watson allocate         - Split a quantity between price tiers
//   watson history          - List persisted activity history
//   watson version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Import, validation, suggestions, session, storage
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/watson-validator/cmd"
)

func main() {
	cmd.Execute()
}
