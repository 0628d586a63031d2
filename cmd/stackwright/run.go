package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackwright/stackwright/internal/archetype"
	"github.com/stackwright/stackwright/internal/config"
	"github.com/stackwright/stackwright/internal/host"
	"github.com/stackwright/stackwright/internal/orchestrator"
)

var (
	runArchetype  string
	runWorkspace  string
	runAttachment string
	runModel      string
	runYes        bool
	runNoTUI      bool
)

var runCmd = &cobra.Command{
	Use:   "run [request]",
	Short: "Generate a project phase by phase",
	Long: `Plan and generate a project in the workspace directory.

The archetype determines the phase list. With --archetype custom, the
phases are inferred from the request text. Each phase waits for your
confirmation before it runs; optional phases can be skipped.

Examples:
  stackwright run -a fastapi-sqlite "a todo API with user accounts"
  stackwright run -a custom -w ./shop "storefront with auth and postgres"
  stackwright run -a go-gin-postgres --yes "url shortener"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runArchetype, "archetype", "a", archetype.CustomID, "Archetype to generate from")
	runCmd.Flags().StringVarP(&runWorkspace, "workspace", "w", ".", "Directory to generate into")
	runCmd.Flags().StringVar(&runAttachment, "attachment", "", "File whose contents supplement the request")
	runCmd.Flags().StringVar(&runModel, "model", "", "Override the configured model")
	runCmd.Flags().BoolVar(&runYes, "yes", false, "Confirm every phase without prompting")
	runCmd.Flags().BoolVar(&runNoTUI, "no-tui", false, "Disable the interactive board")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	request := ""
	if len(args) > 0 {
		request = args[0]
	}
	if request == "" && runArchetype == archetype.CustomID {
		return fmt.Errorf("a request is required with the custom archetype")
	}

	attachment := ""
	if runAttachment != "" {
		content, err := os.ReadFile(runAttachment)
		if err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
		attachment = string(content)
	}

	workspace, err := filepath.Abs(runWorkspace)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	if err := os.MkdirAll(workspace, 0755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return err
	}

	db, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	h := host.NewHost(host.Config{
		Catalog:    catalog,
		NewGateway: gatewayFactory(cfg, runModel),
		Deploy:     deployConfig(cfg),
		DB:         db,
		Debug:      cfg.Debug,
	})
	defer h.Close()

	run, err := h.StartRun(host.StartRunInput{
		ArchetypeID: runArchetype,
		Request:     request,
		Attachment:  attachment,
		Workspace:   workspace,
	})
	if err != nil {
		return err
	}

	// Kick off the first proposal; both front ends subscribe with replay
	// and pick it up from history.
	if _, err := run.Orchestrator.ProposeNextPhase(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if runYes || runNoTUI {
		return runHeadless(ctx, run)
	}
	return runWithTUI(ctx, run)
}

// runHeadless drives the run from the event stream, confirming each
// proposal without prompting. A failed phase stops the run.
func runHeadless(ctx context.Context, run *host.Run) error {
	orch := run.Orchestrator
	events, unsubscribe := orch.Subscribe(true)
	defer unsubscribe()

	proposals := make(chan int, 1)
	done := make(chan error, 1)

	go func() {
		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case event, ok := <-events:
				if !ok {
					done <- nil
					return
				}
				printEvent(event)
				switch event.Type {
				case orchestrator.EventPhaseProposal:
					select {
					case proposals <- event.Index:
					case <-ctx.Done():
						done <- ctx.Err()
						return
					}
				case orchestrator.EventCompleted:
					done <- nil
					return
				}
			}
		}
	}()

	for {
		select {
		case err := <-done:
			return err
		case index := <-proposals:
			if err := orch.ConfirmPhase(ctx, index); err != nil {
				return err
			}
		}
	}
}

// printEvent writes one event line to stdout for headless runs.
func printEvent(event orchestrator.Event) {
	switch event.Type {
	case orchestrator.EventPlan:
		fmt.Printf("Planned %d phases:\n", len(event.Phases))
		for _, p := range event.Phases {
			optional := ""
			if p.Optional {
				optional = " (optional)"
			}
			fmt.Printf("  %d. %s%s\n", p.Index+1, p.Name, optional)
		}
	case orchestrator.EventPhaseStart:
		fmt.Printf("==> %s\n", event.Phase.Name)
	case orchestrator.EventPhaseComplete:
		if event.Outcome != nil {
			mark := "ok"
			if !event.Outcome.Success {
				mark = "failed"
			}
			fmt.Printf("    %s: %s\n", mark, event.Outcome.Summary)
			return
		}
		fmt.Printf("    done: %s\n", event.Phase.Name)
	case orchestrator.EventPhaseError:
		fmt.Printf("    error: %s\n", event.Err)
	case orchestrator.EventValidationReady, orchestrator.EventDockerDeployReady, orchestrator.EventAzureDeployReady:
		fmt.Println("    waiting for external resolution...")
	case orchestrator.EventFile:
		fmt.Printf("    wrote %s\n", event.Path)
	case orchestrator.EventLog:
		fmt.Printf("    %s\n", event.Message)
	case orchestrator.EventCompleted:
		fmt.Printf("Completed. %d files generated.\n", len(event.Files))
	}
}
