// Package deploy runs the external effects behind validation, docker and
// cloud deployment phases, and resolves them back into the orchestrator.
package deploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/stackwright/stackwright/internal/exec"
	"github.com/stackwright/stackwright/pkg/models"
)

// Completer is the orchestrator surface an effect resolves into. Each
// dispatched effect invokes CompleteDeploymentPhase exactly once.
type Completer interface {
	CompleteDeploymentPhase(index int, outcome models.Outcome) error
}

// Config contains configuration for the gateway.
type Config struct {
	// Runner executes external commands. Defaults to exec.NewRunner().
	Runner exec.CommandRunner
	// DockerBin is the docker binary name. Defaults to "docker".
	DockerBin string
	// AzureBin is the Azure CLI binary name. Defaults to "az".
	AzureBin string
	// ResourceGroup is the Azure resource group for cloud deployments.
	ResourceGroup string
	// TestCommand overrides test command detection when non-empty.
	TestCommand string
}

// Gateway runs tests, containers and cloud deployments for a workspace.
// All Start methods return immediately; the effect runs in a goroutine
// and resolves through the Completer. The orchestrator places no timeout
// on the suspension; cancel ctx to abort an effect (the phase then
// resolves with a failed outcome).
type Gateway struct {
	runner        exec.CommandRunner
	dockerBin     string
	azureBin      string
	resourceGroup string
	testCommand   string
}

// NewGateway creates a gateway from the given configuration.
func NewGateway(cfg Config) *Gateway {
	runner := cfg.Runner
	if runner == nil {
		runner = exec.NewRunner()
	}
	dockerBin := cfg.DockerBin
	if dockerBin == "" {
		dockerBin = "docker"
	}
	azureBin := cfg.AzureBin
	if azureBin == "" {
		azureBin = "az"
	}
	return &Gateway{
		runner:        runner,
		dockerBin:     dockerBin,
		azureBin:      azureBin,
		resourceGroup: cfg.ResourceGroup,
		testCommand:   cfg.TestCommand,
	}
}

// resolve delivers the outcome for a suspended phase. Errors from the
// completer indicate a host bug (bad index) and are reported to onLog.
func resolve(c Completer, index int, outcome models.Outcome, onLog func(string)) {
	if err := c.CompleteDeploymentPhase(index, outcome); err != nil && onLog != nil {
		onLog(fmt.Sprintf("failed to resolve phase %d: %v", index, err))
	}
}

// tail returns the last n lines of output for outcome summaries.
func tail(lines []string, n int) string {
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// collectTo returns a line callback that appends to dst and forwards to
// onLog when set.
func collectTo(dst *[]string, onLog func(string)) func(string) {
	return func(line string) {
		*dst = append(*dst, line)
		if onLog != nil {
			onLog(line)
		}
	}
}

// ctxErr maps a context error into an outcome summary suffix.
func ctxErr(ctx context.Context) string {
	if ctx.Err() != nil {
		return " (aborted: " + ctx.Err().Error() + ")"
	}
	return ""
}
