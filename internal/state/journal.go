package state

import (
	"encoding/json"
	"log"
	"time"

	"github.com/stackwright/stackwright/internal/orchestrator"
	"github.com/stackwright/stackwright/pkg/models"
)

// RunJournal binds a DB to one run and satisfies the orchestrator's
// journal interface. Write failures are logged and swallowed: journaling
// must never stall or fail a run.
type RunJournal struct {
	db    *DB
	runID string
}

// Journal returns a journal bound to the given run id.
func (db *DB) Journal(runID string) *RunJournal {
	return &RunJournal{db: db, runID: runID}
}

// RecordPhase mirrors the latest state of a phase into the journal.
func (j *RunJournal) RecordPhase(phase *models.Phase) {
	if phase == nil {
		return
	}
	rec := PhaseRecord{
		RunID:     j.runID,
		Index:     phase.Index,
		PhaseID:   phase.ID,
		Name:      phase.Name,
		Status:    string(phase.Status),
		Error:     phase.Error,
		UpdatedAt: time.Now(),
	}
	if err := j.db.UpsertPhase(rec); err != nil {
		log.Printf("[journal] phase write failed: %v", err)
	}
}

// RecordEvent appends an event to the journal.
func (j *RunJournal) RecordEvent(event orchestrator.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[journal] event marshal failed: %v", err)
		return
	}
	rec := EventRecord{
		RunID:     j.runID,
		Type:      string(event.Type),
		Index:     event.Index,
		Payload:   string(payload),
		CreatedAt: event.Timestamp,
	}
	if err := j.db.AppendEvent(rec); err != nil {
		log.Printf("[journal] event write failed: %v", err)
	}
}
