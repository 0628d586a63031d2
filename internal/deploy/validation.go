package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/stackwright/stackwright/pkg/models"
)

// StartValidation runs the generated project's test suite and resolves
// the phase with the result. A failing suite is reported as a failed
// outcome, not an error: the run still advances (the human sees the
// failure in the outcome and decides what to do).
func (g *Gateway) StartValidation(ctx context.Context, workspace string, index int, c Completer, onLog func(string)) {
	go func() {
		name, args := g.testCommandFor(workspace)
		if name == "" {
			resolve(c, index, models.Outcome{
				Summary: "no test command detected for this workspace",
				Success: false,
				Extra:   map[string]any{"kind": "validation"},
			}, onLog)
			return
		}

		if onLog != nil {
			onLog(fmt.Sprintf("running tests: %s %s", name, strings.Join(args, " ")))
		}

		var lines []string
		err := g.runner.RunStream(ctx, workspace, collectTo(&lines, onLog), name, args...)

		outcome := models.Outcome{
			Success: err == nil,
			Extra: map[string]any{
				"kind":    "validation",
				"command": name + " " + strings.Join(args, " "),
			},
		}
		if err == nil {
			outcome.Summary = "test suite passed"
		} else {
			outcome.Summary = fmt.Sprintf("test suite failed: %v%s\n%s", err, ctxErr(ctx), tail(lines, 20))
		}

		resolve(c, index, outcome, onLog)
	}()
}

// testCommandFor picks the test command for a workspace. An explicit
// configured command wins; otherwise detection goes by build files.
func (g *Gateway) testCommandFor(workspace string) (string, []string) {
	if g.testCommand != "" {
		parts := strings.Fields(g.testCommand)
		return parts[0], parts[1:]
	}

	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(workspace, name))
		return err == nil
	}

	switch {
	case exists("package.json"):
		return "npm", []string{"test"}
	case exists("go.mod"):
		return "go", []string{"test", "./..."}
	case exists("requirements.txt"), exists("pyproject.toml"):
		return "python3", []string{"-m", "pytest"}
	default:
		return "", nil
	}
}
