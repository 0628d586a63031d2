// Package state provides the SQLite-backed run journal. It records runs,
// phase transitions and events for post-hoc inspection; the orchestrator
// never reads it back, so a lost journal costs history, not correctness.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps an SQLite database connection with journal operations.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultPath returns the path to the user-level journal database.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "stackwright", "journal.db")
}

// Open opens an SQLite database at the given path, creating parent
// directories as needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// migrate creates the journal schema.
func (db *DB) migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			archetype_id TEXT NOT NULL,
			request TEXT NOT NULL,
			workspace TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS phases (
			run_id TEXT NOT NULL REFERENCES runs(id),
			idx INTEGER NOT NULL,
			phase_id TEXT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (run_id, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			type TEXT NOT NULL,
			idx INTEGER NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, seq)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migrate journal schema: %w", err)
		}
	}

	return nil
}

// RunRecord is one row in the runs table.
type RunRecord struct {
	ID          string
	ArchetypeID string
	Request     string
	Workspace   string
	Status      string
	StartedAt   time.Time
}

// CreateRun inserts a new run row.
func (db *DB) CreateRun(r RunRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(
		`INSERT INTO runs (id, archetype_id, request, workspace, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.ArchetypeID, r.Request, r.Workspace, r.Status, r.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", r.ID, err)
	}
	return nil
}

// UpdateRunStatus updates a run's status.
func (db *DB) UpdateRunStatus(id, status string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`UPDATE runs SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	return nil
}

// GetRun returns a run row, or nil if it does not exist.
func (db *DB) GetRun(id string) (*RunRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	row := db.conn.QueryRow(
		`SELECT id, archetype_id, request, workspace, status, started_at FROM runs WHERE id = ?`, id)

	var r RunRecord
	err := row.Scan(&r.ID, &r.ArchetypeID, &r.Request, &r.Workspace, &r.Status, &r.StartedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &r, nil
}

// ListRuns returns all runs, newest first.
func (db *DB) ListRuns() ([]RunRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(
		`SELECT id, archetype_id, request, workspace, status, started_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.ArchetypeID, &r.Request, &r.Workspace, &r.Status, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PhaseRecord is one row in the phases table.
type PhaseRecord struct {
	RunID     string
	Index     int
	PhaseID   string
	Name      string
	Status    string
	Error     string
	UpdatedAt time.Time
}

// UpsertPhase records the latest state of a phase.
func (db *DB) UpsertPhase(p PhaseRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(
		`INSERT INTO phases (run_id, idx, phase_id, name, status, error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id, idx) DO UPDATE SET status = excluded.status,
		   error = excluded.error, updated_at = excluded.updated_at`,
		p.RunID, p.Index, p.PhaseID, p.Name, p.Status, p.Error, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert phase %s/%d: %w", p.RunID, p.Index, err)
	}
	return nil
}

// ListPhases returns a run's phase rows in index order.
func (db *DB) ListPhases(runID string) ([]PhaseRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(
		`SELECT run_id, idx, phase_id, name, status, error, updated_at
		 FROM phases WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("list phases for %s: %w", runID, err)
	}
	defer rows.Close()

	var out []PhaseRecord
	for rows.Next() {
		var p PhaseRecord
		if err := rows.Scan(&p.RunID, &p.Index, &p.PhaseID, &p.Name, &p.Status, &p.Error, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// EventRecord is one row in the events table.
type EventRecord struct {
	Seq       int64
	RunID     string
	Type      string
	Index     int
	Payload   string
	CreatedAt time.Time
}

// AppendEvent records one event.
func (db *DB) AppendEvent(e EventRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(
		`INSERT INTO events (run_id, type, idx, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Type, e.Index, e.Payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append event for %s: %w", e.RunID, err)
	}
	return nil
}

// ListEvents returns a run's events in emission order.
func (db *DB) ListEvents(runID string) ([]EventRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.conn.Query(
		`SELECT seq, run_id, type, idx, payload, created_at
		 FROM events WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", runID, err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var e EventRecord
		if err := rows.Scan(&e.Seq, &e.RunID, &e.Type, &e.Index, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
