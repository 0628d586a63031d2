package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stackwright/stackwright/internal/archetype"
	"github.com/stackwright/stackwright/internal/generate"
	"github.com/stackwright/stackwright/pkg/models"
)

// fakeGateway returns scripted results per phase id. The default result
// for an unscripted phase is a single file named after the phase.
type fakeGateway struct {
	mu      sync.Mutex
	calls   []generate.Request
	results map[string]*generate.Result
	errs    map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		results: make(map[string]*generate.Result),
		errs:    make(map[string]error),
	}
}

func (f *fakeGateway) Generate(ctx context.Context, req generate.Request) (*generate.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if err := f.errs[req.PhaseID]; err != nil {
		return nil, err
	}
	if r, ok := f.results[req.PhaseID]; ok {
		return r, nil
	}
	return &generate.Result{
		Files:   []string{req.PhaseID + ".txt"},
		Summary: req.PhaseID + " generated",
	}, nil
}

func (f *fakeGateway) Close() error { return nil }

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// testCatalog returns a catalog containing a small controllable archetype.
func testCatalog(t *testing.T, phases ...models.PhaseTemplate) *archetype.Catalog {
	t.Helper()
	c := archetype.NewCatalog()
	if !c.Add(models.Archetype{ID: "pipeline", Name: "Pipeline", Phases: phases}) {
		t.Fatal("failed to register test archetype")
	}
	return c
}

func newTestOrchestrator(t *testing.T, gw generate.Gateway, phases ...models.PhaseTemplate) *Orchestrator {
	t.Helper()
	o := New(Config{
		Catalog:   testCatalog(t, phases...),
		Gateway:   gw,
		Workspace: t.TempDir(),
	})
	t.Cleanup(o.Close)
	return o
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func assertEventTypes(t *testing.T, got []Event, want ...EventType) {
	t.Helper()
	gotTypes := eventTypes(got)
	if len(gotTypes) != len(want) {
		t.Fatalf("event stream = %v, want %v", gotTypes, want)
	}
	for i := range want {
		if gotTypes[i] != want[i] {
			t.Fatalf("event stream = %v, want %v", gotTypes, want)
		}
	}
}

func TestSelectArchetype(t *testing.T) {
	o := newTestOrchestrator(t, newFakeGateway(),
		models.PhaseTemplate{ID: "setup", Name: "Setup"},
	)

	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}

	snap := o.State()
	if snap.Status != models.RunPlanning {
		t.Errorf("status = %q, want planning", snap.Status)
	}
	if len(snap.Phases) != 1 {
		t.Fatalf("expected 1 phase, got %d", len(snap.Phases))
	}

	history := o.Events().History()
	assertEventTypes(t, history, EventPlan)
	if len(history[0].Phases) != 1 {
		t.Errorf("plan event carries %d phases", len(history[0].Phases))
	}

	// Second selection is rejected.
	err := o.SelectArchetype("pipeline", "again", "")
	var already *ErrAlreadySelected
	if !errors.As(err, &already) {
		t.Fatalf("expected ErrAlreadySelected, got %v", err)
	}
}

func TestSelectArchetypeUnknown(t *testing.T) {
	o := newTestOrchestrator(t, newFakeGateway(),
		models.PhaseTemplate{ID: "setup", Name: "Setup"},
	)

	err := o.SelectArchetype("nope", "a thing", "")
	var unknown *archetype.ErrUnknownArchetype
	if !errors.As(err, &unknown) {
		t.Fatalf("expected ErrUnknownArchetype, got %v", err)
	}
	if o.State().Status != models.RunInitializing {
		t.Error("failed selection should leave the run initializing")
	}
}

func TestProposeBeforePlan(t *testing.T) {
	o := newTestOrchestrator(t, newFakeGateway(),
		models.PhaseTemplate{ID: "setup", Name: "Setup"},
	)

	_, err := o.ProposeNextPhase()
	var noPlanErr *ErrNoPlan
	if !errors.As(err, &noPlanErr) {
		t.Fatalf("expected ErrNoPlan, got %v", err)
	}
}

// A run of plain generation phases: every confirmation auto-proposes the
// next phase, and the final confirmation completes the run.
func TestHappyPathGenerationRun(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw,
		models.PhaseTemplate{ID: "setup", Name: "Setup"},
		models.PhaseTemplate{ID: "core", Name: "Core"},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}

	proposal, err := o.ProposeNextPhase()
	if err != nil {
		t.Fatal(err)
	}
	if proposal.Index != 0 {
		t.Fatalf("first proposal index = %d", proposal.Index)
	}
	if o.State().Status != models.RunAwaitingConfirmation {
		t.Errorf("status = %q, want awaiting_confirmation", o.State().Status)
	}

	if err := o.ConfirmPhase(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	// Confirming phase 0 auto-proposed phase 1.
	if o.State().Status != models.RunAwaitingConfirmation {
		t.Errorf("status = %q, want awaiting_confirmation", o.State().Status)
	}

	if err := o.ConfirmPhase(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	snap := o.State()
	if snap.Status != models.RunCompleted {
		t.Fatalf("status = %q, want completed", snap.Status)
	}
	if len(snap.GeneratedFiles) != 2 || snap.GeneratedFiles[0] != "setup.txt" || snap.GeneratedFiles[1] != "core.txt" {
		t.Errorf("generated files = %v", snap.GeneratedFiles)
	}
	for _, p := range snap.Phases {
		if p.Status != models.PhaseCompleted {
			t.Errorf("phase %s status = %q", p.ID, p.Status)
		}
	}

	assertEventTypes(t, o.Events().History(),
		EventPlan,
		EventPhaseProposal,
		EventPhaseStart,
		EventPhaseComplete,
		EventPhaseProposal,
		EventPhaseStart,
		EventPhaseComplete,
		EventCompleted,
	)
}

func TestConfirmPhaseMismatch(t *testing.T) {
	o := newTestOrchestrator(t, newFakeGateway(),
		models.PhaseTemplate{ID: "setup", Name: "Setup"},
		models.PhaseTemplate{ID: "core", Name: "Core"},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ProposeNextPhase(); err != nil {
		t.Fatal(err)
	}

	for _, index := range []int{1, -1, 99} {
		err := o.ConfirmPhase(context.Background(), index)
		var mismatch *ErrPhaseMismatch
		if !errors.As(err, &mismatch) {
			t.Fatalf("ConfirmPhase(%d): expected ErrPhaseMismatch, got %v", index, err)
		}
	}

	// The rejected confirmations must not have touched any phase.
	for _, p := range o.State().Phases {
		if p.Status != models.PhasePending {
			t.Errorf("phase %s status = %q after rejected confirms", p.ID, p.Status)
		}
	}
}

func TestSkipPhase(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw,
		models.PhaseTemplate{ID: "setup", Name: "Setup", Optional: true},
		models.PhaseTemplate{ID: "core", Name: "Core"},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ProposeNextPhase(); err != nil {
		t.Fatal(err)
	}

	if err := o.SkipPhase(0); err != nil {
		t.Fatal(err)
	}

	snap := o.State()
	if snap.Phases[0].Status != models.PhaseSkipped {
		t.Errorf("phase 0 status = %q, want skipped", snap.Phases[0].Status)
	}
	// Skipping proposed the next phase.
	if snap.Status != models.RunAwaitingConfirmation {
		t.Errorf("status = %q, want awaiting_confirmation", snap.Status)
	}
	if gw.callCount() != 0 {
		t.Errorf("skip must not call the gateway, saw %d calls", gw.callCount())
	}

	assertEventTypes(t, o.Events().History(),
		EventPlan, EventPhaseProposal, EventPhaseSkipped, EventPhaseProposal)
}

func TestSkipPhaseErrors(t *testing.T) {
	o := newTestOrchestrator(t, newFakeGateway(),
		models.PhaseTemplate{ID: "setup", Name: "Setup"},
		models.PhaseTemplate{ID: "extras", Name: "Extras", Optional: true},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ProposeNextPhase(); err != nil {
		t.Fatal(err)
	}

	// Out of range.
	var outOfRange *ErrPhaseOutOfRange
	if err := o.SkipPhase(5); !errors.As(err, &outOfRange) {
		t.Fatalf("expected ErrPhaseOutOfRange, got %v", err)
	}

	// Mandatory phase: not-optional wins even though it is the proposal.
	var notOptional *ErrPhaseNotOptional
	if err := o.SkipPhase(0); !errors.As(err, &notOptional) {
		t.Fatalf("expected ErrPhaseNotOptional, got %v", err)
	}

	// Optional but not the current proposal.
	var mismatch *ErrPhaseMismatch
	if err := o.SkipPhase(1); !errors.As(err, &mismatch) {
		t.Fatalf("expected ErrPhaseMismatch, got %v", err)
	}
}

// A generation failure stops the run: the phase is errored, the failure
// is recorded with the gateway's bare message, and nothing advances. The
// restored proposal allows a retry of the same phase.
func TestGenerationFailureStopsRun(t *testing.T) {
	gw := newFakeGateway()
	gw.errs["core"] = &generate.GenerationError{Message: "syntax error"}
	o := newTestOrchestrator(t, gw,
		models.PhaseTemplate{ID: "core", Name: "Core"},
		models.PhaseTemplate{ID: "tests", Name: "Tests"},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ProposeNextPhase(); err != nil {
		t.Fatal(err)
	}

	err := o.ConfirmPhase(context.Background(), 0)
	var genErr *generate.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}

	snap := o.State()
	if snap.Status != models.RunError {
		t.Errorf("status = %q, want error", snap.Status)
	}
	if snap.Phases[0].Status != models.PhaseError {
		t.Errorf("phase status = %q, want error", snap.Phases[0].Status)
	}
	if snap.Phases[1].Status != models.PhasePending {
		t.Errorf("run advanced past a failed phase")
	}
	if len(snap.Errors) != 1 || snap.Errors[0].Phase != "core" || snap.Errors[0].Error != "syntax error" {
		t.Errorf("failures = %+v", snap.Errors)
	}

	history := o.Events().History()
	last := history[len(history)-1]
	if last.Type != EventPhaseError || last.Err != "syntax error" {
		t.Errorf("last event = %+v", last)
	}

	// Retry the same phase after the failure is fixed.
	delete(gw.errs, "core")
	if err := o.ConfirmPhase(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	snap = o.State()
	if snap.Phases[0].Status != models.PhaseCompleted {
		t.Errorf("retried phase status = %q, want completed", snap.Phases[0].Status)
	}
	if snap.Phases[0].Error != "" {
		t.Errorf("retried phase kept stale error %q", snap.Phases[0].Error)
	}
}

// Validation phases suspend: confirmation succeeds but the run stays in
// generating status until the external outcome arrives.
func TestValidationPhaseSuspends(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw,
		models.PhaseTemplate{ID: "core", Name: "Core"},
		models.PhaseTemplate{ID: "validation", Name: "Validation", Kind: models.KindValidation},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ProposeNextPhase(); err != nil {
		t.Fatal(err)
	}
	if err := o.ConfirmPhase(context.Background(), 0); err != nil {
		t.Fatal(err)
	}
	if err := o.ConfirmPhase(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	// Suspended: no proposal, no completion, status stays generating.
	snap := o.State()
	if snap.Status != models.RunGenerating {
		t.Fatalf("status = %q, want generating while suspended", snap.Status)
	}
	if gw.callCount() != 1 {
		t.Errorf("validation phase must not call the generation gateway, saw %d calls", gw.callCount())
	}

	history := o.Events().History()
	last := history[len(history)-1]
	if last.Type != EventValidationReady || last.Index != 1 {
		t.Fatalf("last event = %+v, want validation_ready for phase 1", last)
	}

	// Confirming again while suspended is a mismatch.
	var mismatch *ErrPhaseMismatch
	if err := o.ConfirmPhase(context.Background(), 1); !errors.As(err, &mismatch) {
		t.Fatalf("expected ErrPhaseMismatch while suspended, got %v", err)
	}

	// External resolution completes the phase and the run.
	outcome := models.Outcome{Summary: "12 tests passed", Success: true}
	if err := o.CompleteDeploymentPhase(1, outcome); err != nil {
		t.Fatal(err)
	}

	snap = o.State()
	if snap.Status != models.RunCompleted {
		t.Errorf("status = %q, want completed", snap.Status)
	}
	result := snap.Phases[1].Result
	if result == nil || result.Outcome == nil || result.Outcome.Summary != "12 tests passed" {
		t.Errorf("outcome not attached: %+v", result)
	}

	history = o.Events().History()
	var completeEvent *Event
	for i := range history {
		if history[i].Type == EventPhaseComplete && history[i].Index == 1 {
			completeEvent = &history[i]
		}
	}
	if completeEvent == nil || completeEvent.Outcome == nil || !completeEvent.Outcome.Success {
		t.Errorf("phase_complete for the validation phase should carry the outcome")
	}
}

// A failed deployment outcome does not stop the run; the failure stays
// visible in the outcome while the run advances.
func TestFailedDeploymentOutcomeAdvances(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw,
		models.PhaseTemplate{ID: "docker", Name: "Docker", Kind: models.KindDockerDeployment},
		models.PhaseTemplate{ID: "tests", Name: "Tests"},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ProposeNextPhase(); err != nil {
		t.Fatal(err)
	}
	if err := o.ConfirmPhase(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	history := o.Events().History()
	last := history[len(history)-1]
	if last.Type != EventDockerDeployReady {
		t.Fatalf("last event = %q, want docker_deploy_ready", last.Type)
	}
	if gw.callCount() != 0 {
		t.Errorf("docker phase must not call the generation gateway")
	}

	if err := o.CompleteDeploymentPhase(0, models.Outcome{Summary: "image build failed", Success: false}); err != nil {
		t.Fatal(err)
	}

	snap := o.State()
	if snap.Status != models.RunAwaitingConfirmation {
		t.Errorf("status = %q, want awaiting_confirmation after failed outcome", snap.Status)
	}
	if snap.Phases[0].Result.Outcome.Success {
		t.Error("failed outcome recorded as success")
	}
	if snap.Status == models.RunError {
		t.Error("failed deployment outcome must not error the run")
	}
}

// Cloud deployment phases generate infrastructure files first, then
// suspend like docker deployments.
func TestCloudDeploymentGeneratesThenSuspends(t *testing.T) {
	gw := newFakeGateway()
	gw.results["deploy"] = &generate.Result{
		Files:   []string{"infra/main.bicep"},
		Summary: "bicep template",
	}
	o := newTestOrchestrator(t, gw,
		models.PhaseTemplate{ID: "deploy", Name: "Deploy", Kind: models.KindCloudDeployment},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ProposeNextPhase(); err != nil {
		t.Fatal(err)
	}
	if err := o.ConfirmPhase(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	if gw.callCount() != 1 {
		t.Fatalf("cloud phase should call the gateway once, saw %d", gw.callCount())
	}

	snap := o.State()
	if snap.Phases[0].Result.DeploymentType != "cloud" {
		t.Errorf("deployment type = %q", snap.Phases[0].Result.DeploymentType)
	}
	if len(snap.GeneratedFiles) != 1 || snap.GeneratedFiles[0] != "infra/main.bicep" {
		t.Errorf("generated files = %v", snap.GeneratedFiles)
	}

	history := o.Events().History()
	if history[len(history)-1].Type != EventAzureDeployReady {
		t.Fatalf("last event = %q, want azure_deploy_ready", history[len(history)-1].Type)
	}

	if err := o.CompleteDeploymentPhase(0, models.Outcome{Summary: "deployed", Success: true}); err != nil {
		t.Fatal(err)
	}
	if o.State().Status != models.RunCompleted {
		t.Errorf("status = %q, want completed", o.State().Status)
	}
}

func TestCompleteDeploymentPhaseOutOfRange(t *testing.T) {
	o := newTestOrchestrator(t, newFakeGateway(),
		models.PhaseTemplate{ID: "core", Name: "Core"},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}

	var outOfRange *ErrPhaseOutOfRange
	if err := o.CompleteDeploymentPhase(7, models.Outcome{}); !errors.As(err, &outOfRange) {
		t.Fatalf("expected ErrPhaseOutOfRange, got %v", err)
	}
}

// State snapshots are deep copies: mutating one must not leak back.
func TestStateSnapshotIsolation(t *testing.T) {
	o := newTestOrchestrator(t, newFakeGateway(),
		models.PhaseTemplate{ID: "setup", Name: "Setup"},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}

	snap := o.State()
	snap.Phases[0].Status = models.PhaseError
	snap.Phases[0].Name = "mutated"

	again := o.State()
	if again.Phases[0].Status != models.PhasePending || again.Phases[0].Name == "mutated" {
		t.Error("snapshot mutation leaked into orchestrator state")
	}
}

// Confirming emits events synchronously and in transition order, so a
// replay subscriber sees an identical prefix at any point.
func TestEventOrderMatchesReplay(t *testing.T) {
	gw := newFakeGateway()
	o := newTestOrchestrator(t, gw,
		models.PhaseTemplate{ID: "setup", Name: "Setup"},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := o.ProposeNextPhase(); err != nil {
		t.Fatal(err)
	}
	if err := o.ConfirmPhase(context.Background(), 0); err != nil {
		t.Fatal(err)
	}

	history := o.Events().History()
	events, unsubscribe := o.Subscribe(true)
	defer unsubscribe()

	for i := range history {
		got := <-events
		if got.Type != history[i].Type || got.Index != history[i].Index {
			t.Fatalf("replay event %d = %+v, want %+v", i, got, history[i])
		}
	}
}

func TestPublishLogAndFile(t *testing.T) {
	o := newTestOrchestrator(t, newFakeGateway(),
		models.PhaseTemplate{ID: "setup", Name: "Setup"},
	)
	if err := o.SelectArchetype("pipeline", "a thing", ""); err != nil {
		t.Fatal(err)
	}

	o.PublishLog("hello")
	o.PublishFile("notes.txt")

	history := o.Events().History()
	if history[len(history)-2].Type != EventLog || history[len(history)-2].Message != "hello" {
		t.Errorf("log event = %+v", history[len(history)-2])
	}
	if history[len(history)-1].Type != EventFile || history[len(history)-1].Path != "notes.txt" {
		t.Errorf("file event = %+v", history[len(history)-1])
	}
}
