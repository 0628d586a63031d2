package main

import (
	"fmt"

	"github.com/stackwright/stackwright/internal/archetype"
	"github.com/stackwright/stackwright/internal/config"
	"github.com/stackwright/stackwright/internal/deploy"
	"github.com/stackwright/stackwright/internal/exec"
	"github.com/stackwright/stackwright/internal/generate"
	"github.com/stackwright/stackwright/internal/state"
)

// buildCatalog assembles the archetype catalog: built-ins plus any
// user-defined archetypes from the configured directory.
func buildCatalog(cfg *config.Config) (*archetype.Catalog, error) {
	catalog := archetype.NewCatalog()
	if cfg.Archetypes.Dir != "" {
		if err := catalog.LoadDir(cfg.Archetypes.Dir); err != nil {
			return nil, fmt.Errorf("load archetypes from %s: %w", cfg.Archetypes.Dir, err)
		}
	}
	return catalog, nil
}

// gatewayFactory returns a constructor for generation gateways bound
// to the configured credentials. The model flag overrides config.
func gatewayFactory(cfg *config.Config, model string) func() (generate.Gateway, error) {
	if model == "" {
		model = cfg.Anthropic.Model
	}
	return func() (generate.Gateway, error) {
		gw, err := generate.NewClaudeGateway(generate.ClaudeConfig{
			Model:         model,
			APIKey:        cfg.Anthropic.APIKey,
			UseAWSBedrock: cfg.Anthropic.UseBedrock,
			AWSRegion:     cfg.Anthropic.AWSRegion,
			AWSProfile:    cfg.Anthropic.AWSProfile,
		})
		if err != nil {
			return nil, err
		}
		return gw, nil
	}
}

// deployConfig maps config onto the deployment gateway.
func deployConfig(cfg *config.Config) deploy.Config {
	return deploy.Config{
		Runner:        exec.NewRunner(),
		DockerBin:     cfg.Deploy.DockerBin,
		AzureBin:      cfg.Deploy.AzureBin,
		ResourceGroup: cfg.Deploy.ResourceGroup,
		TestCommand:   cfg.Deploy.TestCommand,
	}
}

// openJournal opens the run journal database if journaling is enabled.
// Returns nil when disabled.
func openJournal(cfg *config.Config) (*state.DB, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	path := cfg.Journal.Path
	if path == "" {
		path = state.DefaultPath()
	}
	return state.Open(path)
}
