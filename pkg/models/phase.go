package models

// PhaseKind describes how a phase is executed once confirmed.
type PhaseKind string

const (
	// KindGeneration indicates the phase produces files through the generation gateway.
	KindGeneration PhaseKind = "generation"
	// KindValidation indicates the phase runs the project's tests through the deployment gateway.
	KindValidation PhaseKind = "validation"
	// KindDockerDeployment indicates the phase starts the project in a local container.
	KindDockerDeployment PhaseKind = "docker-deployment"
	// KindCloudDeployment indicates the phase generates infrastructure code and deploys to the cloud.
	KindCloudDeployment PhaseKind = "cloud-deployment"
)

// Valid returns true if the kind is a known value.
func (k PhaseKind) Valid() bool {
	switch k {
	case KindGeneration, KindValidation, KindDockerDeployment, KindCloudDeployment:
		return true
	default:
		return false
	}
}

// Suspending returns true if the kind requires an external completion call
// before the run can advance past the phase.
func (k PhaseKind) Suspending() bool {
	switch k {
	case KindValidation, KindDockerDeployment, KindCloudDeployment:
		return true
	default:
		return false
	}
}

// PhaseStatus represents the lifecycle state of a phase.
type PhaseStatus string

const (
	// PhasePending indicates the phase has not been proposed or started.
	PhasePending PhaseStatus = "pending"
	// PhaseInProgress indicates the phase is executing. At most one phase
	// per run holds this status.
	PhaseInProgress PhaseStatus = "in_progress"
	// PhaseCompleted indicates the phase finished successfully.
	PhaseCompleted PhaseStatus = "completed"
	// PhaseSkipped indicates the human skipped an optional phase.
	PhaseSkipped PhaseStatus = "skipped"
	// PhaseError indicates the phase failed.
	PhaseError PhaseStatus = "error"
)

// Valid returns true if the status is a known value.
func (s PhaseStatus) Valid() bool {
	switch s {
	case PhasePending, PhaseInProgress, PhaseCompleted, PhaseSkipped, PhaseError:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is final for the phase.
func (s PhaseStatus) Terminal() bool {
	switch s {
	case PhaseCompleted, PhaseSkipped, PhaseError:
		return true
	default:
		return false
	}
}

// PhaseTemplate is the immutable definition of a phase inside an archetype.
type PhaseTemplate struct {
	// ID is the archetype-scoped identifier (e.g. "database").
	ID string `json:"id" yaml:"id"`
	// Name is the human-readable display name.
	Name string `json:"name" yaml:"name"`
	// Description explains what the phase produces. It is also fed to the
	// generation gateway verbatim.
	Description string `json:"description" yaml:"description"`
	// ExpectedFiles lists output file patterns. Entries may contain
	// wildcards; non-wildcard entries are checked after generation.
	ExpectedFiles []string `json:"expected_files" yaml:"expected_files"`
	// Optional marks the phase as skippable.
	Optional bool `json:"optional" yaml:"optional"`
	// Kind selects the execution path. Empty means KindGeneration.
	Kind PhaseKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// EffectiveKind returns the template kind, defaulting to KindGeneration.
func (t PhaseTemplate) EffectiveKind() PhaseKind {
	if t.Kind == "" {
		return KindGeneration
	}
	return t.Kind
}

// Phase is the mutable unit of work tracked by the orchestrator. It is
// instantiated from a PhaseTemplate when an archetype is selected and is
// owned exclusively by the orchestrator afterwards.
type Phase struct {
	PhaseTemplate

	// Index is the 0-based position in the run's phase list, fixed for the run.
	Index int `json:"index"`
	// Status is the current lifecycle state.
	Status PhaseStatus `json:"status"`
	// Files are the paths actually produced, in completion order. Empty
	// until the phase completes.
	Files []string `json:"files,omitempty"`
	// Result is the opaque outcome payload from execution.
	Result *PhaseResult `json:"result,omitempty"`
	// Error holds the failure message. Present only in error status.
	Error string `json:"error,omitempty"`
}

// NewPhase instantiates a pending phase from a template at the given index.
func NewPhase(t PhaseTemplate, index int) *Phase {
	return &Phase{
		PhaseTemplate: t,
		Index:         index,
		Status:        PhasePending,
	}
}

// Clone returns a deep copy of the phase. Snapshots handed to observers use
// this so that orchestrator-owned state is never shared.
func (p *Phase) Clone() *Phase {
	cp := *p
	cp.ExpectedFiles = append([]string(nil), p.ExpectedFiles...)
	cp.Files = append([]string(nil), p.Files...)
	if p.Result != nil {
		r := *p.Result
		r.Files = append([]string(nil), p.Result.Files...)
		r.Warnings = append([]string(nil), p.Result.Warnings...)
		cp.Result = &r
	}
	return &cp
}

// PhaseResult is the outcome payload attached to an executed phase.
type PhaseResult struct {
	// Summary is the gateway's description of what was produced.
	Summary string `json:"summary,omitempty"`
	// Files are the paths written during this phase.
	Files []string `json:"files,omitempty"`
	// Warnings holds non-fatal post-check findings (expected files that
	// were not produced).
	Warnings []string `json:"warnings,omitempty"`
	// RequiresValidation marks an in-flight validation phase awaiting an
	// external completion call.
	RequiresValidation bool `json:"requires_validation,omitempty"`
	// RequiresDeployment marks an in-flight deployment phase awaiting an
	// external completion call.
	RequiresDeployment bool `json:"requires_deployment,omitempty"`
	// DeploymentType distinguishes suspended deployments: "docker" or "cloud".
	DeploymentType string `json:"deployment_type,omitempty"`
	// Outcome is filled in when a suspended phase is resolved.
	Outcome *Outcome `json:"outcome,omitempty"`
}

// Outcome is the payload supplied when an externally-effected phase is
// resolved. Extra holds kind-specific fields (container id, endpoint URL,
// test counts) without the orchestrator interpreting them.
type Outcome struct {
	Summary string         `json:"summary"`
	Success bool           `json:"success"`
	Extra   map[string]any `json:"extra,omitempty"`
}
