package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackwright/stackwright/internal/config"
	"github.com/stackwright/stackwright/internal/state"
)

var statusRunID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recorded runs",
	Long: `Display runs recorded in the journal.

Without flags, lists recent runs. With --run, shows the phase list and
failures for one run.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusRunID, "run", "", "Show one run's phases")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := cfg.Journal.Path
	if path == "" {
		path = state.DefaultPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No recorded runs. Run 'stackwright run' to start one.")
		return nil
	}

	db, err := state.Open(path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer db.Close()

	if statusRunID != "" {
		return displayRun(db, statusRunID)
	}
	return displayRecentRuns(db)
}

func displayRecentRuns(db *state.DB) error {
	runs, err := db.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs. Run 'stackwright run' to start one.")
		return nil
	}

	fmt.Println("Recent Runs:")
	for i, r := range runs {
		if i >= 10 {
			break
		}
		elapsed := formatDuration(time.Since(r.StartedAt))
		fmt.Printf("  %s: %s [%s] (%s ago)\n", r.ID, r.ArchetypeID, r.Status, elapsed)
	}
	return nil
}

func displayRun(db *state.DB, id string) error {
	run, err := db.GetRun(id)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}

	fmt.Printf("Run: %s\n", run.ID)
	fmt.Printf("  Archetype: %s\n", run.ArchetypeID)
	fmt.Printf("  Workspace: %s\n", run.Workspace)
	fmt.Printf("  Status: %s\n", run.Status)
	fmt.Printf("  Started: %s ago\n", formatDuration(time.Since(run.StartedAt)))

	phases, err := db.ListPhases(id)
	if err != nil {
		return fmt.Errorf("list phases: %w", err)
	}
	if len(phases) > 0 {
		fmt.Println("\nPhases:")
		for _, p := range phases {
			line := fmt.Sprintf("  %d. %s: %s", p.Index+1, p.Name, p.Status)
			if p.Error != "" {
				line += fmt.Sprintf(" (%s)", p.Error)
			}
			fmt.Println(line)
		}
	}

	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
	days := int(d.Hours()) / 24
	return fmt.Sprintf("%dd", days)
}
