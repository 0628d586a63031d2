package main

import (
	"context"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackwright/stackwright/internal/host"
	"github.com/stackwright/stackwright/internal/orchestrator"
	"github.com/stackwright/stackwright/internal/tui"
)

// runController adapts an orchestrator to the board's controller.
type runController struct {
	orch *orchestrator.Orchestrator
}

func (c *runController) Confirm(ctx context.Context, index int) error {
	return c.orch.ConfirmPhase(ctx, index)
}

func (c *runController) Skip(index int) error {
	return c.orch.SkipPhase(index)
}

// runWithTUI runs the phase board until the run finishes or the user quits.
func runWithTUI(ctx context.Context, run *host.Run) (retErr error) {
	// Suppress log output while TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runWithTUI: %v", r)
		}
	}()

	app := tui.New(&runController{orch: run.Orchestrator})
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	events, unsubscribe := run.Orchestrator.Subscribe(true)
	defer unsubscribe()

	go forwardEventsToTUI(program, events)

	_, err := program.Run()
	return err
}

// forwardEventsToTUI converts orchestrator events to board messages.
func forwardEventsToTUI(program *tea.Program, events <-chan orchestrator.Event) {
	for event := range events {
		switch event.Type {
		case orchestrator.EventPlan:
			rows := make([]tui.PhaseRow, 0, len(event.Phases))
			for _, p := range event.Phases {
				rows = append(rows, tui.PhaseRow{
					Index:       p.Index,
					ID:          p.ID,
					Name:        p.Name,
					Description: p.Description,
					Status:      string(p.Status),
					Optional:    p.Optional,
					Kind:        string(p.EffectiveKind()),
				})
			}
			program.Send(tui.PlanMsg{Phases: rows})

		case orchestrator.EventPhaseProposal:
			program.Send(tui.ProposalMsg{
				Index:    event.Index,
				Name:     event.Phase.Name,
				Optional: event.Phase.Optional,
			})

		case orchestrator.EventPhaseStart:
			program.Send(tui.PhaseStartMsg{Index: event.Index})

		case orchestrator.EventPhaseComplete:
			summary := ""
			if event.Outcome != nil {
				summary = event.Outcome.Summary
			} else if event.Phase != nil && event.Phase.Result != nil {
				summary = event.Phase.Result.Summary
			}
			program.Send(tui.PhaseDoneMsg{Index: event.Index, Summary: summary})

		case orchestrator.EventPhaseSkipped:
			program.Send(tui.PhaseDoneMsg{Index: event.Index, Skipped: true})

		case orchestrator.EventPhaseError:
			program.Send(tui.PhaseErrorMsg{Index: event.Index, Error: event.Err})
			// The proposal is restored after a failure; offer a retry.
			if event.Phase != nil {
				program.Send(tui.ProposalMsg{
					Index:    event.Index,
					Name:     event.Phase.Name,
					Optional: event.Phase.Optional,
				})
			}

		case orchestrator.EventValidationReady:
			program.Send(tui.SuspendedMsg{Index: event.Index, Kind: "validation"})
		case orchestrator.EventDockerDeployReady:
			program.Send(tui.SuspendedMsg{Index: event.Index, Kind: "docker deployment"})
		case orchestrator.EventAzureDeployReady:
			program.Send(tui.SuspendedMsg{Index: event.Index, Kind: "azure deployment"})

		case orchestrator.EventLog, orchestrator.EventStatus:
			program.Send(tui.LogMsg{Message: event.Message})

		case orchestrator.EventFile:
			program.Send(tui.FileMsg{Path: event.Path})

		case orchestrator.EventCompleted:
			program.Send(tui.RunDoneMsg{
				Success: true,
				Message: fmt.Sprintf("Completed. %d files generated.", len(event.Files)),
				Files:   len(event.Files),
			})
		}
	}
}
