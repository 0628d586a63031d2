package orchestrator

import "fmt"

// ErrPhaseMismatch is returned when ConfirmPhase or SkipPhase addresses a
// phase other than the most recently proposed one. This rejects stale and
// duplicate client requests; the caller should re-query state and retry.
type ErrPhaseMismatch struct {
	// Expected is the index of the current proposal, or -1 if none.
	Expected int
	// Got is the index the caller supplied.
	Got int
}

func (e *ErrPhaseMismatch) Error() string {
	if e.Expected < 0 {
		return fmt.Sprintf("no phase proposed, got confirmation for index %d", e.Got)
	}
	return fmt.Sprintf("phase mismatch: proposed index %d, got %d", e.Expected, e.Got)
}

// ErrPhaseNotOptional is returned when SkipPhase addresses a phase whose
// optional flag is false.
type ErrPhaseNotOptional struct {
	// ID is the phase template id.
	ID string
	// Index is the addressed phase index.
	Index int
}

func (e *ErrPhaseNotOptional) Error() string {
	return fmt.Sprintf("phase %q (index %d) is not optional and cannot be skipped", e.ID, e.Index)
}

// ErrPhaseOutOfRange is returned when an operation addresses an index
// outside the run's phase list.
type ErrPhaseOutOfRange struct {
	Index int
	Count int
}

func (e *ErrPhaseOutOfRange) Error() string {
	return fmt.Sprintf("phase index %d out of range (run has %d phases)", e.Index, e.Count)
}

// ErrAlreadySelected is returned when SelectArchetype is called on a run
// that already has a phase plan.
type ErrAlreadySelected struct {
	ArchetypeID string
}

func (e *ErrAlreadySelected) Error() string {
	return fmt.Sprintf("archetype %q already selected for this run", e.ArchetypeID)
}

// ErrNoPlan is returned when a phase operation is attempted before an
// archetype has been selected.
type ErrNoPlan struct{}

func (e *ErrNoPlan) Error() string {
	return "no archetype selected: the run has no phase plan"
}
