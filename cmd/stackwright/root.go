package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stackwright",
	Short: "Phase-driven project generator",
	Long: `Stackwright scaffolds software projects phase by phase.

Pick an archetype (or describe a custom project), review the planned
phases, and confirm each one before the generation gateway produces
its files. Deployment and validation phases hand off to local tooling
and resume when the result comes back.

Core capabilities:
- Plans a project as an ordered list of confirmable phases
- Generates each phase's files through the Anthropic API
- Runs test suites, docker builds, and Azure deployments as phases
- Streams every transition as events, over the terminal or HTTP`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(archetypesCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
