package orchestrator

import (
	"context"
	"fmt"

	"github.com/stackwright/stackwright/internal/generate"
	"github.com/stackwright/stackwright/pkg/models"
)

// dispatch executes a confirmed phase according to its kind. Callers hold
// o.mu. Validation and deployment kinds return a synthetic in-flight
// result; their real completion arrives later through
// CompleteDeploymentPhase.
func (o *Orchestrator) dispatch(ctx context.Context, phase *models.Phase) (*models.PhaseResult, error) {
	switch phase.EffectiveKind() {
	case models.KindGeneration:
		return o.runGeneration(ctx, phase)

	case models.KindValidation:
		return &models.PhaseResult{
			Summary:            fmt.Sprintf("validation requested for %s", phase.Name),
			RequiresValidation: true,
		}, nil

	case models.KindDockerDeployment:
		return &models.PhaseResult{
			Summary:            fmt.Sprintf("docker deployment requested for %s", phase.Name),
			RequiresDeployment: true,
			DeploymentType:     "docker",
		}, nil

	case models.KindCloudDeployment:
		return o.runCloudGeneration(ctx, phase)

	default:
		return nil, fmt.Errorf("unknown phase kind %q", phase.Kind)
	}
}

// runGeneration builds the phase prompt, invokes the generation gateway,
// and post-checks expected files. Missing non-wildcard expected files are
// attached as warnings; the phase still completes.
func (o *Orchestrator) runGeneration(ctx context.Context, phase *models.Phase) (*models.PhaseResult, error) {
	workspaceFiles, err := generate.ListFiles(o.workspace)
	if err != nil {
		return nil, &generate.GenerationError{Message: "list workspace files", Err: err}
	}

	prompt := generate.BuildPhasePrompt(generate.PromptInput{
		Phase:          phase,
		Completed:      o.completedPhases(),
		WorkspaceFiles: workspaceFiles,
		Request:        o.request,
		Attachment:     o.attachment,
	})

	result, err := o.gateway.Generate(ctx, generate.Request{
		Prompt:     prompt,
		Workspace:  o.workspace,
		PhaseID:    phase.ID,
		OnProgress: o.forwardProgress,
	})
	if err != nil {
		return nil, err
	}

	return &models.PhaseResult{
		Summary:  result.Summary,
		Files:    result.Files,
		Warnings: generate.CheckExpected(o.workspace, phase.ExpectedFiles),
	}, nil
}

// runCloudGeneration produces the infrastructure files through the
// generation gateway, then suspends the phase the same way docker
// deployments do so the actual deployment resolves it externally.
func (o *Orchestrator) runCloudGeneration(ctx context.Context, phase *models.Phase) (*models.PhaseResult, error) {
	workspaceFiles, err := generate.ListFiles(o.workspace)
	if err != nil {
		return nil, &generate.GenerationError{Message: "list workspace files", Err: err}
	}

	prompt := generate.BuildInfraPrompt(generate.ProjectName(o.workspace), generate.PromptInput{
		Phase:          phase,
		WorkspaceFiles: workspaceFiles,
		Request:        o.request,
	})

	result, err := o.gateway.Generate(ctx, generate.Request{
		Prompt:     prompt,
		Workspace:  o.workspace,
		PhaseID:    phase.ID,
		OnProgress: o.forwardProgress,
	})
	if err != nil {
		return nil, err
	}

	return &models.PhaseResult{
		Summary:            result.Summary,
		Files:              result.Files,
		Warnings:           generate.CheckExpected(o.workspace, phase.ExpectedFiles),
		RequiresDeployment: true,
		DeploymentType:     "cloud",
	}, nil
}

// completedPhases returns the phases that reached a terminal status so
// far, in index order. Callers hold o.mu.
func (o *Orchestrator) completedPhases() []*models.Phase {
	var done []*models.Phase
	for _, p := range o.phases {
		if p.Status == models.PhaseCompleted || p.Status == models.PhaseSkipped {
			done = append(done, p)
		}
	}
	return done
}

// forwardProgress republishes gateway progress notifications verbatim as
// log/status/file events.
func (o *Orchestrator) forwardProgress(p generate.Progress) {
	event := Event{Index: o.currentPhase, Message: p.Message, Path: p.Path}
	switch p.Kind {
	case generate.ProgressLog:
		event.Type = EventLog
	case generate.ProgressStatus:
		event.Type = EventStatus
	case generate.ProgressFile:
		event.Type = EventFile
	default:
		return
	}
	o.emit(event)
}
