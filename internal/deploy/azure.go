package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/stackwright/stackwright/internal/generate"
	"github.com/stackwright/stackwright/pkg/models"
)

// StartCloudDeployment deploys the generated Bicep infrastructure through
// the Azure CLI and resolves the phase with the result. The infrastructure
// files themselves were already produced by the generation gateway when
// the phase was confirmed.
func (g *Gateway) StartCloudDeployment(ctx context.Context, workspace string, index int, c Completer, onLog func(string)) {
	go func() {
		if !g.runner.LookPath(g.azureBin) {
			resolve(c, index, models.Outcome{
				Summary: fmt.Sprintf("%s binary not found in PATH", g.azureBin),
				Success: false,
				Extra:   map[string]any{"kind": "cloud"},
			}, onLog)
			return
		}
		if g.resourceGroup == "" {
			resolve(c, index, models.Outcome{
				Summary: "no Azure resource group configured",
				Success: false,
				Extra:   map[string]any{"kind": "cloud"},
			}, onLog)
			return
		}

		template := findBicepTemplate(workspace)
		if template == "" {
			resolve(c, index, models.Outcome{
				Summary: "no Bicep template found in workspace",
				Success: false,
				Extra:   map[string]any{"kind": "cloud"},
			}, onLog)
			return
		}

		project := generate.ProjectName(workspace)
		deployment := project + "-deploy"
		if onLog != nil {
			onLog(fmt.Sprintf("deploying %s to resource group %s", template, g.resourceGroup))
		}

		var lines []string
		err := g.runner.RunStream(ctx, workspace, collectTo(&lines, onLog),
			g.azureBin, "deployment", "group", "create",
			"--resource-group", g.resourceGroup,
			"--name", deployment,
			"--template-file", template)

		outcome := models.Outcome{
			Success: err == nil,
			Extra: map[string]any{
				"kind":           "cloud",
				"resource_group": g.resourceGroup,
				"deployment":     deployment,
				"template":       template,
			},
		}
		if err == nil {
			outcome.Summary = fmt.Sprintf("deployment %s created in %s", deployment, g.resourceGroup)
		} else {
			outcome.Summary = fmt.Sprintf("azure deployment failed: %v%s\n%s", err, ctxErr(ctx), tail(lines, 20))
		}
		resolve(c, index, outcome, onLog)
	}()
}

// findBicepTemplate returns the workspace-relative path of the first
// Bicep file, preferring a main.bicep and the infra directory.
func findBicepTemplate(workspace string) string {
	candidates := []string{
		filepath.Join("infra", "main.bicep"),
		"main.bicep",
	}
	for _, c := range candidates {
		if _, err := os.Stat(filepath.Join(workspace, c)); err == nil {
			return c
		}
	}

	for _, dir := range []string{"infra", "."} {
		matches, err := filepath.Glob(filepath.Join(workspace, dir, "*.bicep"))
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		rel, err := filepath.Rel(workspace, matches[0])
		if err != nil {
			continue
		}
		return rel
	}

	return ""
}
