package orchestrator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/stackwright/stackwright/internal/archetype"
	"github.com/stackwright/stackwright/internal/generate"
	"github.com/stackwright/stackwright/pkg/models"
)

// noPhase marks the absence of a current or proposed phase index.
const noPhase = -1

// Journal receives state transitions for post-hoc inspection. The
// orchestrator never reads it back; a nil journal disables recording.
type Journal interface {
	RecordPhase(phase *models.Phase)
	RecordEvent(event Event)
}

// Config contains configuration options for an Orchestrator.
type Config struct {
	// Catalog resolves archetype identifiers to phase templates.
	Catalog *archetype.Catalog
	// Gateway produces files for generation phases.
	Gateway generate.Gateway
	// Workspace is the directory the run generates into.
	Workspace string
	// Journal records transitions for inspection. Optional.
	Journal Journal
	// Logger receives debug output. Optional; defaults to a no-op logger.
	Logger *DebugLogger
	// EventBuffer is the per-subscriber event channel size.
	EventBuffer int
}

// Orchestrator owns the ordered phase list and cursor for one run. It
// proposes phases, gates progress on human confirmation, dispatches
// execution, and republishes every transition as an event. One instance
// per run; instances share no state.
type Orchestrator struct {
	catalog   *archetype.Catalog
	gateway   generate.Gateway
	workspace string
	journal   Journal
	logger    *DebugLogger
	emitter   *EventEmitter

	// mu serializes all operations. The state machine itself guarantees a
	// single phase in flight; the mutex only protects against concurrent
	// callers (HTTP handlers, deployment gateway resolutions).
	mu sync.Mutex

	archetypeID    string
	request        string
	attachment     string
	status         models.RunStatus
	phases         []*models.Phase
	currentPhase   int
	proposedPhase  int
	generatedFiles []string
	failures       []models.PhaseFailure
}

// New creates an orchestrator for a single run.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger()
	}
	return &Orchestrator{
		catalog:       cfg.Catalog,
		gateway:       cfg.Gateway,
		workspace:     cfg.Workspace,
		journal:       cfg.Journal,
		logger:        logger,
		emitter:       NewEventEmitter(cfg.EventBuffer),
		status:        models.RunInitializing,
		currentPhase:  noPhase,
		proposedPhase: noPhase,
	}
}

// Subscribe registers an event sink. With replay, the sink first receives
// every event emitted so far, in order.
func (o *Orchestrator) Subscribe(replay bool) (<-chan Event, func()) {
	return o.emitter.Subscribe(replay)
}

// Events returns the emitter for sinks that need history access.
func (o *Orchestrator) Events() *EventEmitter {
	return o.emitter
}

// Workspace returns the run's workspace directory.
func (o *Orchestrator) Workspace() string {
	return o.workspace
}

// SelectArchetype populates the phase list from the catalog and moves the
// run from initializing to planning. Fails with ErrUnknownArchetype from
// the catalog for a bad identifier.
func (o *Orchestrator) SelectArchetype(archetypeID, request, attachment string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != models.RunInitializing {
		return &ErrAlreadySelected{ArchetypeID: o.archetypeID}
	}

	phases, err := o.catalog.InstantiatePhases(archetypeID, request, attachment)
	if err != nil {
		return err
	}

	o.archetypeID = archetypeID
	o.request = request
	o.attachment = attachment
	o.phases = phases
	o.status = models.RunPlanning

	o.logger.Log("selected archetype %s with %d phases", archetypeID, len(phases))
	for _, p := range phases {
		o.recordPhase(p)
	}

	o.emit(Event{
		Type:   EventPlan,
		Index:  noPhase,
		Phases: clonePhases(phases),
	})

	return nil
}

// ProposeNextPhase scans for the first pending phase and emits a proposal
// for it. When every phase is terminal the run completes and nil is
// returned. The proposed phase is the only one eligible for confirmation
// or skip until it is resolved.
func (o *Orchestrator) ProposeNextPhase() (*models.Phase, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.proposeNextLocked()
}

// proposeNextLocked implements proposal and completion detection. Callers
// hold o.mu.
func (o *Orchestrator) proposeNextLocked() (*models.Phase, error) {
	if o.status == models.RunInitializing {
		return nil, &ErrNoPlan{}
	}

	o.currentPhase = noPhase

	for _, p := range o.phases {
		if p.Status == models.PhasePending {
			o.proposedPhase = p.Index
			o.status = models.RunAwaitingConfirmation
			o.logger.Log("proposing phase %d (%s)", p.Index, p.ID)
			o.emit(Event{
				Type:  EventPhaseProposal,
				Index: p.Index,
				Phase: p.Clone(),
			})
			return p.Clone(), nil
		}
	}

	o.proposedPhase = noPhase
	o.status = models.RunCompleted
	o.logger.Log("run completed with %d generated files", len(o.generatedFiles))
	o.emit(Event{
		Type:  EventCompleted,
		Index: noPhase,
		Files: append([]string(nil), o.generatedFiles...),
	})
	return nil, nil
}

// ConfirmPhase confirms the proposed phase and executes it. The index must
// match the most recent proposal exactly; anything else fails with
// ErrPhaseMismatch so stale or duplicate requests are rejected.
//
// After a successful plain generation phase the next proposal is emitted
// automatically. Validation and deployment phases suspend instead: the run
// stays in generating status until CompleteDeploymentPhase is called.
// On execution failure the phase is marked errored, a phase_error event is
// emitted, and the failure is returned to the caller; the run does not
// advance past an error.
func (o *Orchestrator) ConfirmPhase(ctx context.Context, index int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if index != o.proposedPhase || index < 0 || index >= len(o.phases) {
		return &ErrPhaseMismatch{Expected: o.proposedPhase, Got: index}
	}

	phase := o.phases[index]
	phase.Status = models.PhaseInProgress
	phase.Error = ""
	o.currentPhase = index
	o.proposedPhase = noPhase
	o.status = models.RunGenerating

	o.logger.Log("phase %d (%s) confirmed, kind=%s", index, phase.ID, phase.EffectiveKind())
	o.recordPhase(phase)
	o.emit(Event{
		Type:  EventPhaseStart,
		Index: index,
		Phase: phase.Clone(),
	})

	result, err := o.dispatch(ctx, phase)
	if err != nil {
		phase.Status = models.PhaseError
		phase.Error = err.Error()
		o.status = models.RunError
		// Restore the proposal so the caller may retry this phase.
		o.proposedPhase = index
		o.failures = append(o.failures, models.PhaseFailure{Phase: phase.ID, Error: errMessage(err)})

		o.logger.Log("phase %d (%s) failed: %v", index, phase.ID, err)
		o.recordPhase(phase)
		o.emit(Event{
			Type:  EventPhaseError,
			Index: index,
			Phase: phase.Clone(),
			Err:   errMessage(err),
		})
		return err
	}

	phase.Status = models.PhaseCompleted
	phase.Result = result
	phase.Files = append([]string(nil), result.Files...)
	o.generatedFiles = append(o.generatedFiles, result.Files...)
	o.recordPhase(phase)

	switch phase.EffectiveKind() {
	case models.KindValidation:
		o.emit(Event{Type: EventValidationReady, Index: index, Phase: phase.Clone()})
		return nil
	case models.KindDockerDeployment:
		o.emit(Event{Type: EventDockerDeployReady, Index: index, Phase: phase.Clone()})
		return nil
	case models.KindCloudDeployment:
		o.emit(Event{Type: EventAzureDeployReady, Index: index, Phase: phase.Clone()})
		return nil
	}

	o.emit(Event{
		Type:  EventPhaseComplete,
		Index: index,
		Phase: phase.Clone(),
		Files: append([]string(nil), phase.Files...),
	})

	_, err = o.proposeNextLocked()
	return err
}

// SkipPhase marks an optional phase skipped and proposes the next one.
// Fails with ErrPhaseNotOptional when the addressed phase is mandatory,
// and with ErrPhaseMismatch when the index is not the current proposal.
func (o *Orchestrator) SkipPhase(index int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if index < 0 || index >= len(o.phases) {
		return &ErrPhaseOutOfRange{Index: index, Count: len(o.phases)}
	}

	phase := o.phases[index]
	if !phase.Optional {
		return &ErrPhaseNotOptional{ID: phase.ID, Index: index}
	}
	if index != o.proposedPhase {
		return &ErrPhaseMismatch{Expected: o.proposedPhase, Got: index}
	}

	phase.Status = models.PhaseSkipped
	o.proposedPhase = noPhase

	o.logger.Log("phase %d (%s) skipped", index, phase.ID)
	o.recordPhase(phase)
	o.emit(Event{
		Type:  EventPhaseSkipped,
		Index: index,
		Phase: phase.Clone(),
	})

	_, err := o.proposeNextLocked()
	return err
}

// CompleteDeploymentPhase is the resumption hook for validation, docker
// and cloud phases. The deployment gateway integration is trusted to call
// it exactly once per dispatched effect phase; prior success is not
// re-validated. The outcome is attached to the phase, phase_complete is
// emitted carrying it, and the next proposal follows. A failed outcome
// (Success=false) still advances; the failure stays visible in the
// outcome for the human to act on.
func (o *Orchestrator) CompleteDeploymentPhase(index int, outcome models.Outcome) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if index < 0 || index >= len(o.phases) {
		return &ErrPhaseOutOfRange{Index: index, Count: len(o.phases)}
	}

	phase := o.phases[index]
	if phase.Result == nil {
		phase.Result = &models.PhaseResult{}
	}
	phase.Result.Outcome = &outcome
	o.proposedPhase = noPhase

	if !outcome.Success {
		o.logger.Log("phase %d (%s) external effect reported failure: %s", index, phase.ID, outcome.Summary)
	} else {
		o.logger.Log("phase %d (%s) external effect completed: %s", index, phase.ID, outcome.Summary)
	}
	o.recordPhase(phase)
	o.emit(Event{
		Type:    EventPhaseComplete,
		Index:   index,
		Phase:   phase.Clone(),
		Files:   append([]string(nil), phase.Files...),
		Outcome: &outcome,
	})

	_, err := o.proposeNextLocked()
	return err
}

// PublishLog forwards a free-form progress message from a gateway
// integration into the event stream verbatim.
func (o *Orchestrator) PublishLog(message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emit(Event{Type: EventLog, Index: o.currentPhase, Message: message})
}

// PublishFile reports a workspace file written outside the generation
// gateway, e.g. observed by a filesystem watcher.
func (o *Orchestrator) PublishFile(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emit(Event{Type: EventFile, Index: o.currentPhase, Path: path})
}

// State returns a read-only snapshot of the run. Calling it twice without
// an intervening transition yields equal snapshots.
func (o *Orchestrator) State() models.RunSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	return models.RunSnapshot{
		ArchetypeID:       o.archetypeID,
		Request:           o.request,
		Attachment:        o.attachment,
		Status:            o.status,
		Phases:            clonePhases(o.phases),
		CurrentPhaseIndex: o.currentPhase,
		GeneratedFiles:    append([]string(nil), o.generatedFiles...),
		Errors:            append([]models.PhaseFailure(nil), o.failures...),
	}
}

// Close shuts down the event stream. The orchestrator performs no other
// cleanup: workspace files are left in place for the human.
func (o *Orchestrator) Close() {
	o.emitter.Close()
	if err := o.logger.Close(); err != nil {
		log.Printf("[orchestrator] warning: close debug log: %v", err)
	}
}

// emit stamps and publishes an event, and records it in the journal.
// Callers hold o.mu; event emission happens before control returns so the
// stream order always matches the state transition order.
func (o *Orchestrator) emit(event Event) {
	event.Timestamp = time.Now()
	o.emitter.Emit(event)
	if o.journal != nil {
		o.journal.RecordEvent(event)
	}
}

// recordPhase mirrors a phase transition into the journal.
func (o *Orchestrator) recordPhase(p *models.Phase) {
	if o.journal != nil {
		o.journal.RecordPhase(p.Clone())
	}
}

// clonePhases deep-copies a phase list for snapshots and plan events.
func clonePhases(phases []*models.Phase) []*models.Phase {
	out := make([]*models.Phase, len(phases))
	for i, p := range phases {
		out[i] = p.Clone()
	}
	return out
}

// errMessage unwraps a generation error to its bare message so event and
// error-list payloads match what the gateway reported.
func errMessage(err error) string {
	var genErr *generate.GenerationError
	if errors.As(err, &genErr) {
		return genErr.Message
	}
	return err.Error()
}
