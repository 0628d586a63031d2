package generate

import (
	"strings"
	"testing"

	"github.com/stackwright/stackwright/pkg/models"
)

func TestBuildPhasePrompt(t *testing.T) {
	phase := models.NewPhase(models.PhaseTemplate{
		ID:            "api",
		Name:          "API Endpoints",
		Description:   "Implement the REST endpoints.",
		ExpectedFiles: []string{"app/api.py"},
	}, 2)

	setup := models.NewPhase(models.PhaseTemplate{ID: "setup", Name: "Setup"}, 0)
	setup.Status = models.PhaseCompleted
	setup.Files = []string{"requirements.txt", "app/__init__.py"}

	auth := models.NewPhase(models.PhaseTemplate{ID: "auth", Name: "Auth"}, 1)
	auth.Status = models.PhaseSkipped

	prompt := BuildPhasePrompt(PromptInput{
		Phase:          phase,
		Completed:      []*models.Phase{setup, auth},
		WorkspaceFiles: []string{"requirements.txt"},
		Request:        "a todo service",
		Attachment:     "use pagination",
	})

	for _, want := range []string{
		"## Current Phase: API Endpoints",
		"Implement the REST endpoints.",
		"Expected output files:\n- app/api.py",
		"## Completed Phases",
		"- Setup: requirements.txt, app/__init__.py",
		"- Auth: skipped",
		"## Files Already In Workspace",
		"Do not regenerate these unless the current phase requires a change:",
		"## Project Request\na todo service",
		"## Attachment\nuse pagination",
		"Generate only the files for the current phase.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n\n%s", want, prompt)
		}
	}
}

func TestBuildPhasePromptMinimal(t *testing.T) {
	phase := models.NewPhase(models.PhaseTemplate{
		ID:          "setup",
		Name:        "Setup",
		Description: "Scaffold the project.",
	}, 0)

	prompt := BuildPhasePrompt(PromptInput{
		Phase:   phase,
		Request: "a thing",
	})

	for _, absent := range []string{
		"## Completed Phases",
		"## Files Already In Workspace",
		"## Attachment",
		"Expected output files:",
	} {
		if strings.Contains(prompt, absent) {
			t.Errorf("minimal prompt should not contain %q", absent)
		}
	}
}

func TestBuildInfraPrompt(t *testing.T) {
	phase := models.NewPhase(models.PhaseTemplate{
		ID:            "deploy",
		Name:          "Deploy",
		Description:   "Provision Azure resources.",
		ExpectedFiles: []string{"infra/main.bicep"},
		Kind:          models.KindCloudDeployment,
	}, 0)

	prompt := BuildInfraPrompt("todo-service", PromptInput{
		Phase:          phase,
		WorkspaceFiles: []string{"main.py"},
		Request:        "a todo service",
	})

	for _, want := range []string{
		"## Infrastructure For: todo-service",
		"Provision Azure resources.",
		`deploy the project "todo-service" to Azure`,
		"Expected output files:\n- infra/main.bicep",
		"## Project Files\n- main.py",
		"## Project Request\na todo service",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("infra prompt missing %q\n\n%s", want, prompt)
		}
	}
}
