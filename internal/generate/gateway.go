// Package generate defines the generation gateway: the collaborator that
// turns a phase-scoped prompt into files written under a run's workspace.
package generate

import (
	"context"
	"fmt"
)

// ProgressKind classifies a progress notification from the gateway.
type ProgressKind string

const (
	// ProgressLog is a free-form message from the model or tool loop.
	ProgressLog ProgressKind = "log"
	// ProgressStatus is a coarse status update (phase started, API call issued).
	ProgressStatus ProgressKind = "status"
	// ProgressFile reports a file written in the workspace.
	ProgressFile ProgressKind = "file"
)

// Progress is a notification emitted while a generation call is running.
type Progress struct {
	Kind    ProgressKind
	Message string
	// Path is the workspace-relative path for ProgressFile notifications.
	Path string
}

// ProgressFunc receives progress notifications. May be nil.
type ProgressFunc func(Progress)

// Request describes one generation call.
type Request struct {
	// Prompt is the fully composed phase prompt.
	Prompt string
	// Workspace is the directory files are written under. The gateway
	// must not touch paths outside it.
	Workspace string
	// PhaseID identifies the phase for logging.
	PhaseID string
	// OnProgress receives log/status/file notifications. May be nil.
	OnProgress ProgressFunc
}

// Result is the outcome of a successful generation call.
type Result struct {
	// Files are the workspace-relative paths written, in write order.
	Files []string
	// Summary is the model's description of what was produced.
	Summary string
}

// Gateway produces files for one phase at a time. Implementations must
// tolerate repeated calls against the same workspace: files from earlier
// phases are listed in the prompt and must not be regenerated.
type Gateway interface {
	Generate(ctx context.Context, req Request) (*Result, error)
	Close() error
}

// GenerationError is the failure reported by a gateway call. It is
// recorded on the phase record and surfaced via a phase_error event.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("generation failed: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// emit invokes the progress callback if one is set.
func (r Request) emit(p Progress) {
	if r.OnProgress != nil {
		r.OnProgress(p)
	}
}
