package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stackwright/stackwright/internal/config"
)

var archetypesCmd = &cobra.Command{
	Use:   "archetypes",
	Short: "List available archetypes",
	Long: `List the archetypes a run can be generated from.

Built-in archetypes cover common stacks. User-defined archetypes are
loaded from the directory configured under archetypes.dir. The custom
archetype derives its phases from the request text.`,
	RunE: runArchetypes,
}

func runArchetypes(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return err
	}

	idStyle := color.New(color.FgGreen, color.Bold)
	tagStyle := color.New(color.Faint)

	for _, summary := range catalog.ListArchetypes() {
		fmt.Printf("%s  %s\n", idStyle.Sprint(summary.ID), summary.Name)
		if summary.Description != "" {
			fmt.Printf("    %s\n", summary.Description)
		}
		if len(summary.Tags) > 0 {
			fmt.Printf("    %s\n", tagStyle.Sprint(strings.Join(summary.Tags, ", ")))
		}
		fmt.Println()
	}

	return nil
}
