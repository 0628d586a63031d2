package models

// RunStatus represents the overall state of a generation run.
type RunStatus string

const (
	// RunInitializing indicates no archetype has been selected yet.
	RunInitializing RunStatus = "initializing"
	// RunPlanning indicates the phase list has been populated.
	RunPlanning RunStatus = "planning"
	// RunAwaitingConfirmation indicates a phase proposal is pending a
	// human decision.
	RunAwaitingConfirmation RunStatus = "awaiting_confirmation"
	// RunGenerating indicates a phase is executing or suspended on an
	// external effect.
	RunGenerating RunStatus = "generating"
	// RunCompleted indicates every phase reached a terminal status.
	RunCompleted RunStatus = "completed"
	// RunError indicates the run halted on a phase failure.
	RunError RunStatus = "error"
)

// Valid returns true if the status is a known value.
func (s RunStatus) Valid() bool {
	switch s {
	case RunInitializing, RunPlanning, RunAwaitingConfirmation,
		RunGenerating, RunCompleted, RunError:
		return true
	default:
		return false
	}
}

// PhaseFailure records one phase error for the run's append-only error list.
type PhaseFailure struct {
	// Phase is the phase template ID that failed.
	Phase string `json:"phase"`
	// Error is the failure message.
	Error string `json:"error"`
}

// RunSnapshot is a read-only copy of orchestrator state. Two snapshots
// taken without an intervening transition are equal.
type RunSnapshot struct {
	// ArchetypeID is the selected archetype, empty while initializing.
	ArchetypeID string `json:"archetype_id,omitempty"`
	// Request is the original free-text goal.
	Request string `json:"request,omitempty"`
	// Attachment is optional supplementary text supplied with the request.
	Attachment string `json:"attachment,omitempty"`
	// Status is the overall run status.
	Status RunStatus `json:"status"`
	// Phases is the ordered phase list, deep-copied.
	Phases []*Phase `json:"phases"`
	// CurrentPhaseIndex is the index of the phase in progress, or -1.
	CurrentPhaseIndex int `json:"current_phase_index"`
	// GeneratedFiles is the flattened union of all phases' files in
	// completion order. Append-only.
	GeneratedFiles []string `json:"generated_files"`
	// Errors accumulates phase failures, append-only.
	Errors []PhaseFailure `json:"errors"`
}
