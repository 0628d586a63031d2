// Package host owns run lifecycles: it assembles an orchestrator, its
// gateways and journal for each run, keys them by id, and tears them
// down. Orchestrators never register themselves anywhere; the host is
// the only registry.
package host

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stackwright/stackwright/internal/archetype"
	"github.com/stackwright/stackwright/internal/deploy"
	"github.com/stackwright/stackwright/internal/generate"
	"github.com/stackwright/stackwright/internal/orchestrator"
	"github.com/stackwright/stackwright/internal/state"
	"github.com/stackwright/stackwright/internal/watch"
	"github.com/stackwright/stackwright/pkg/models"
)

// Run is one live run with its orchestrator and attached gateways.
type Run struct {
	ID        string
	Workspace string
	StartedAt time.Time

	Orchestrator *orchestrator.Orchestrator

	gateway      generate.Gateway
	watcher      *watch.Watcher
	detachDeploy func()
	cancel       context.CancelFunc
}

// Config configures a host.
type Config struct {
	// Catalog resolves archetype identifiers. Required.
	Catalog *archetype.Catalog
	// NewGateway builds a generation gateway for a run. Required.
	NewGateway func() (generate.Gateway, error)
	// Deploy configures the deployment gateway attached to each run.
	Deploy deploy.Config
	// DB journals runs. Optional.
	DB *state.DB
	// EventBuffer is passed through to each orchestrator.
	EventBuffer int
	// Debug enables per-workspace debug logs.
	Debug bool
}

// Host creates and tracks runs.
type Host struct {
	cfg Config

	mu   sync.RWMutex
	runs map[string]*Run
}

// NewHost creates an empty host.
func NewHost(cfg Config) *Host {
	return &Host{cfg: cfg, runs: make(map[string]*Run)}
}

// StartRunInput carries the parameters for a new run.
type StartRunInput struct {
	ArchetypeID string
	Request     string
	Attachment  string
	Workspace   string
}

// StartRun assembles a run, selects its archetype, and registers it.
// The returned run has already emitted its plan event; callers that
// want the plan should subscribe with replay.
func (h *Host) StartRun(in StartRunInput) (*Run, error) {
	if in.Workspace == "" {
		return nil, fmt.Errorf("workspace is required")
	}

	gateway, err := h.cfg.NewGateway()
	if err != nil {
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	id := uuid.New().String()

	var journal orchestrator.Journal
	if h.cfg.DB != nil {
		if err := h.cfg.DB.CreateRun(state.RunRecord{
			ID:          id,
			ArchetypeID: in.ArchetypeID,
			Request:     in.Request,
			Workspace:   in.Workspace,
			Status:      string(models.RunInitializing),
			StartedAt:   time.Now(),
		}); err != nil {
			gateway.Close()
			return nil, err
		}
		journal = h.cfg.DB.Journal(id)
	}

	var logger *orchestrator.DebugLogger
	if h.cfg.Debug {
		logger = orchestrator.NewDebugLoggerForWorkspace(in.Workspace)
	}

	orch := orchestrator.New(orchestrator.Config{
		Catalog:     h.cfg.Catalog,
		Gateway:     gateway,
		Workspace:   in.Workspace,
		Journal:     journal,
		Logger:      logger,
		EventBuffer: h.cfg.EventBuffer,
	})

	ctx, cancel := context.WithCancel(context.Background())
	deployGW := deploy.NewGateway(h.cfg.Deploy)
	detach := deploy.Attach(ctx, orch, deployGW)

	// Surface files written by external tools alongside gateway output.
	// A failed watcher setup is not fatal; the run just loses those events.
	var seenMu sync.Mutex
	seen := make(map[string]struct{})
	watcher, err := watch.New(in.Workspace, func(relPath string) {
		seenMu.Lock()
		_, dup := seen[relPath]
		seen[relPath] = struct{}{}
		seenMu.Unlock()
		if !dup {
			orch.PublishFile(relPath)
		}
	})
	if err != nil {
		watcher = nil
	}

	run := &Run{
		ID:           id,
		Workspace:    in.Workspace,
		StartedAt:    time.Now(),
		Orchestrator: orch,
		gateway:      gateway,
		watcher:      watcher,
		detachDeploy: detach,
		cancel:       cancel,
	}

	if err := orch.SelectArchetype(in.ArchetypeID, in.Request, in.Attachment); err != nil {
		run.close()
		if h.cfg.DB != nil {
			h.cfg.DB.UpdateRunStatus(id, string(models.RunError))
		}
		return nil, err
	}
	if h.cfg.DB != nil {
		h.cfg.DB.UpdateRunStatus(id, string(orch.State().Status))
	}

	h.mu.Lock()
	h.runs[id] = run
	h.mu.Unlock()

	return run, nil
}

// Get returns a run by id, or nil.
func (h *Host) Get(id string) *Run {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.runs[id]
}

// List returns all live runs ordered by start time.
func (h *Host) List() []*Run {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Run, 0, len(h.runs))
	for _, r := range h.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Remove closes a run and drops it from the registry.
func (h *Host) Remove(id string) {
	h.mu.Lock()
	run := h.runs[id]
	delete(h.runs, id)
	h.mu.Unlock()

	if run != nil {
		if h.cfg.DB != nil {
			h.cfg.DB.UpdateRunStatus(id, string(run.Orchestrator.State().Status))
		}
		run.close()
	}
}

// Close tears down every run.
func (h *Host) Close() {
	h.mu.Lock()
	runs := h.runs
	h.runs = make(map[string]*Run)
	h.mu.Unlock()

	for id, run := range runs {
		if h.cfg.DB != nil {
			h.cfg.DB.UpdateRunStatus(id, string(run.Orchestrator.State().Status))
		}
		run.close()
	}
}

func (r *Run) close() {
	r.cancel()
	if r.watcher != nil {
		r.watcher.Close()
	}
	if r.detachDeploy != nil {
		r.detachDeploy()
	}
	// Orchestrator.Close also closes the debug logger it was given.
	r.Orchestrator.Close()
	if r.gateway != nil {
		r.gateway.Close()
	}
}
