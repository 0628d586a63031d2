package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stackwright/stackwright/internal/generate"
	"github.com/stackwright/stackwright/pkg/models"
)

// StartDockerDeployment builds and starts the generated project in a
// local container and resolves the phase with the result. A compose file
// takes precedence over a bare Dockerfile.
func (g *Gateway) StartDockerDeployment(ctx context.Context, workspace string, index int, c Completer, onLog func(string)) {
	go func() {
		if !g.runner.LookPath(g.dockerBin) {
			resolve(c, index, models.Outcome{
				Summary: fmt.Sprintf("%s binary not found in PATH", g.dockerBin),
				Success: false,
				Extra:   map[string]any{"kind": "docker"},
			}, onLog)
			return
		}

		project := generate.ProjectName(workspace)
		var lines []string

		if hasFile(workspace, "docker-compose.yml") || hasFile(workspace, "compose.yml") {
			if onLog != nil {
				onLog("starting services with docker compose")
			}
			err := g.runner.RunStream(ctx, workspace, collectTo(&lines, onLog),
				g.dockerBin, "compose", "up", "-d", "--build")

			outcome := models.Outcome{
				Success: err == nil,
				Extra: map[string]any{
					"kind":    "docker",
					"mode":    "compose",
					"project": project,
				},
			}
			if err == nil {
				outcome.Summary = fmt.Sprintf("services for %s started via docker compose", project)
			} else {
				outcome.Summary = fmt.Sprintf("docker compose failed: %v%s\n%s", err, ctxErr(ctx), tail(lines, 20))
			}
			resolve(c, index, outcome, onLog)
			return
		}

		if !hasFile(workspace, "Dockerfile") {
			resolve(c, index, models.Outcome{
				Summary: "no Dockerfile or compose file in workspace",
				Success: false,
				Extra:   map[string]any{"kind": "docker"},
			}, onLog)
			return
		}

		image := project + ":latest"
		if onLog != nil {
			onLog("building image " + image)
		}
		if err := g.runner.RunStream(ctx, workspace, collectTo(&lines, onLog),
			g.dockerBin, "build", "-t", image, "."); err != nil {
			resolve(c, index, models.Outcome{
				Summary: fmt.Sprintf("docker build failed: %v%s\n%s", err, ctxErr(ctx), tail(lines, 20)),
				Success: false,
				Extra:   map[string]any{"kind": "docker", "image": image},
			}, onLog)
			return
		}

		out, err := g.runner.Run(ctx, workspace, g.dockerBin, "run", "-d", "--name", project, image)
		outcome := models.Outcome{
			Success: err == nil,
			Extra: map[string]any{
				"kind":  "docker",
				"mode":  "run",
				"image": image,
			},
		}
		if err == nil {
			containerID := firstLine(string(out))
			outcome.Summary = fmt.Sprintf("container %s started from %s", containerID, image)
			outcome.Extra["container_id"] = containerID
		} else {
			outcome.Summary = fmt.Sprintf("docker run failed: %v%s\n%s", err, ctxErr(ctx), string(out))
		}
		resolve(c, index, outcome, onLog)
	}()
}

func hasFile(workspace, name string) bool {
	_, err := os.Stat(filepath.Join(workspace, name))
	return err == nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
