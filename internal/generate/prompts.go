package generate

import (
	"fmt"
	"strings"

	"github.com/stackwright/stackwright/pkg/models"
)

// PromptInput gathers everything a phase prompt is composed from.
type PromptInput struct {
	// Phase is the phase being generated.
	Phase *models.Phase
	// Completed lists the phases already finished, in completion order.
	Completed []*models.Phase
	// WorkspaceFiles lists files already present in the workspace.
	WorkspaceFiles []string
	// Request is the original free-text goal.
	Request string
	// Attachment is optional supplementary text supplied with the request.
	Attachment string
}

// BuildPhasePrompt composes the prompt for a generation phase: the phase
// description, the expected output files, what earlier phases produced,
// what already exists in the workspace, and the original request.
func BuildPhasePrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Current Phase: %s\n\n%s\n", in.Phase.Name, in.Phase.Description)

	if len(in.Phase.ExpectedFiles) > 0 {
		b.WriteString("\nExpected output files:\n")
		for _, f := range in.Phase.ExpectedFiles {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	if len(in.Completed) > 0 {
		b.WriteString("\n## Completed Phases\n")
		for _, p := range in.Completed {
			if p.Status == models.PhaseSkipped {
				fmt.Fprintf(&b, "- %s: skipped\n", p.Name)
				continue
			}
			if len(p.Files) == 0 {
				fmt.Fprintf(&b, "- %s\n", p.Name)
				continue
			}
			fmt.Fprintf(&b, "- %s: %s\n", p.Name, strings.Join(p.Files, ", "))
		}
	}

	if len(in.WorkspaceFiles) > 0 {
		b.WriteString("\n## Files Already In Workspace\n")
		b.WriteString("Do not regenerate these unless the current phase requires a change:\n")
		for _, f := range in.WorkspaceFiles {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	fmt.Fprintf(&b, "\n## Project Request\n%s\n", in.Request)
	if in.Attachment != "" {
		fmt.Fprintf(&b, "\n## Attachment\n%s\n", in.Attachment)
	}

	b.WriteString("\nGenerate only the files for the current phase.")

	return b.String()
}

// BuildInfraPrompt composes the infrastructure-generation prompt for a
// cloud deployment phase, parameterized by the project name derived from
// the workspace.
func BuildInfraPrompt(projectName string, in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Infrastructure For: %s\n\n%s\n", projectName, in.Phase.Description)
	fmt.Fprintf(&b, "\nProduce infrastructure-as-code files (Bicep) that deploy the project %q to Azure.\n", projectName)

	if len(in.Phase.ExpectedFiles) > 0 {
		b.WriteString("\nExpected output files:\n")
		for _, f := range in.Phase.ExpectedFiles {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	if len(in.WorkspaceFiles) > 0 {
		b.WriteString("\n## Project Files\n")
		for _, f := range in.WorkspaceFiles {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	fmt.Fprintf(&b, "\n## Project Request\n%s\n", in.Request)

	return b.String()
}
