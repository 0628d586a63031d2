// Package orchestrator drives the phase state machine for a generation run.
package orchestrator

import (
	"time"

	"github.com/stackwright/stackwright/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventPlan carries the full phase list after an archetype is selected.
	EventPlan EventType = "plan"
	// EventPhaseProposal names the next phase awaiting a human decision.
	EventPhaseProposal EventType = "phase_proposal"
	// EventPhaseStart indicates a confirmed phase has begun executing.
	EventPhaseStart EventType = "phase_start"
	// EventPhaseComplete indicates a phase finished, carrying its files or
	// the deployment outcome.
	EventPhaseComplete EventType = "phase_complete"
	// EventPhaseError indicates a phase failed.
	EventPhaseError EventType = "phase_error"
	// EventPhaseSkipped indicates an optional phase was skipped.
	EventPhaseSkipped EventType = "phase_skipped"
	// EventValidationReady signals that a validation phase is waiting for
	// the validation gateway to run the tests.
	EventValidationReady EventType = "validation_ready"
	// EventDockerDeployReady signals that a docker deployment phase is
	// waiting for the container to be started.
	EventDockerDeployReady EventType = "docker_deploy_ready"
	// EventAzureDeployReady signals that a cloud deployment phase has its
	// infrastructure files and is waiting for the deployment to run.
	EventAzureDeployReady EventType = "azure_deploy_ready"
	// EventCompleted indicates every phase reached a terminal status.
	EventCompleted EventType = "completed"
	// EventLog is a free-form progress message forwarded from a gateway.
	EventLog EventType = "log"
	// EventStatus is a free-form status update forwarded from a gateway.
	EventStatus EventType = "status"
	// EventFile reports a file written in the workspace during generation.
	EventFile EventType = "file"
)

// Event is one entry in the run's ordered event stream. Every event
// carries enough data for a sink to reconstruct orchestrator state without
// querying back into the orchestrator.
type Event struct {
	// Type is the kind of event.
	Type EventType `json:"type"`
	// Phase is a copy of the related phase record, if applicable.
	Phase *models.Phase `json:"phase,omitempty"`
	// Index is the phase index, or -1 when not phase-scoped.
	Index int `json:"index"`
	// Phases is the full phase list (plan events only).
	Phases []*models.Phase `json:"phases,omitempty"`
	// Files is the accumulated file list (completed events only).
	Files []string `json:"files,omitempty"`
	// Outcome is the deployment or validation outcome, if applicable.
	Outcome *models.Outcome `json:"outcome,omitempty"`
	// Message provides free-form context (log/status events, errors).
	Message string `json:"message,omitempty"`
	// Path is the workspace-relative path for file events.
	Path string `json:"path,omitempty"`
	// Err holds the failure message for phase_error events.
	Err string `json:"error,omitempty"`
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}
