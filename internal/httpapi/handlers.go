package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/stackwright/stackwright/internal/archetype"
	"github.com/stackwright/stackwright/internal/host"
	"github.com/stackwright/stackwright/internal/orchestrator"
	"github.com/stackwright/stackwright/pkg/models"
)

// CreateRunRequest is the request body for POST /api/v1/runs.
type CreateRunRequest struct {
	ArchetypeID string `json:"archetype_id"`
	Request     string `json:"request"`
	Attachment  string `json:"attachment,omitempty"`
	Workspace   string `json:"workspace"`
}

// RunResponse describes one run.
type RunResponse struct {
	ID        string             `json:"id"`
	Workspace string             `json:"workspace"`
	State     models.RunSnapshot `json:"state"`
}

// handleListArchetypes returns the catalog summaries.
func (s *Server) handleListArchetypes(c echo.Context) error {
	return c.JSON(http.StatusOK, s.catalog.ListArchetypes())
}

// handleCreateRun starts a new run and returns its plan.
func (s *Server) handleCreateRun(c echo.Context) error {
	var req CreateRunRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid run request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ArchetypeID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "archetype_id field is required")
	}
	if req.Workspace == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "workspace field is required")
	}

	run, err := s.host.StartRun(host.StartRunInput{
		ArchetypeID: req.ArchetypeID,
		Request:     req.Request,
		Attachment:  req.Attachment,
		Workspace:   req.Workspace,
	})
	if err != nil {
		var unknown *archetype.ErrUnknownArchetype
		if errors.As(err, &unknown) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		s.logger.Error("start run failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	s.logger.Info("run started",
		zap.String("run_id", run.ID),
		zap.String("archetype", req.ArchetypeID),
		zap.String("workspace", run.Workspace),
	)

	return c.JSON(http.StatusCreated, RunResponse{
		ID:        run.ID,
		Workspace: run.Workspace,
		State:     run.Orchestrator.State(),
	})
}

// handleListRuns returns all live runs.
func (s *Server) handleListRuns(c echo.Context) error {
	runs := s.host.List()
	out := make([]RunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunResponse{
			ID:        r.ID,
			Workspace: r.Workspace,
			State:     r.Orchestrator.State(),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// handleGetRun returns one run's snapshot.
func (s *Server) handleGetRun(c echo.Context) error {
	run := s.host.Get(c.Param("id"))
	if run == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	return c.JSON(http.StatusOK, RunResponse{
		ID:        run.ID,
		Workspace: run.Workspace,
		State:     run.Orchestrator.State(),
	})
}

// PhaseActionRequest addresses a phase by index.
type PhaseActionRequest struct {
	Index int `json:"index"`
}

// handleConfirmPhase confirms the proposed phase and executes it. The
// request blocks until the phase settles; progress streams over SSE.
func (s *Server) handleConfirmPhase(c echo.Context) error {
	run := s.host.Get(c.Param("id"))
	if run == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}

	var req PhaseActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := run.Orchestrator.ConfirmPhase(c.Request().Context(), req.Index); err != nil {
		return phaseError(err)
	}
	return c.JSON(http.StatusOK, run.Orchestrator.State())
}

// handleSkipPhase skips the proposed optional phase.
func (s *Server) handleSkipPhase(c echo.Context) error {
	run := s.host.Get(c.Param("id"))
	if run == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}

	var req PhaseActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := run.Orchestrator.SkipPhase(req.Index); err != nil {
		return phaseError(err)
	}
	return c.JSON(http.StatusOK, run.Orchestrator.State())
}

// CompleteDeploymentRequest resolves a suspended phase.
type CompleteDeploymentRequest struct {
	Index   int            `json:"index"`
	Summary string         `json:"summary"`
	Success bool           `json:"success"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// handleCompleteDeployment resolves a suspended deployment or
// validation phase with an externally determined outcome.
func (s *Server) handleCompleteDeployment(c echo.Context) error {
	run := s.host.Get(c.Param("id"))
	if run == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}

	var req CompleteDeploymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	outcome := models.Outcome{
		Summary: req.Summary,
		Success: req.Success,
		Extra:   req.Extra,
	}
	if err := run.Orchestrator.CompleteDeploymentPhase(req.Index, outcome); err != nil {
		return phaseError(err)
	}
	return c.JSON(http.StatusOK, run.Orchestrator.State())
}

// handleRemoveRun tears down a run.
func (s *Server) handleRemoveRun(c echo.Context) error {
	id := c.Param("id")
	if s.host.Get(id) == nil {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	s.host.Remove(id)
	s.logger.Info("run removed", zap.String("run_id", id))
	return c.NoContent(http.StatusNoContent)
}

// phaseError maps orchestrator errors onto HTTP status codes.
func phaseError(err error) error {
	var mismatch *orchestrator.ErrPhaseMismatch
	var notOptional *orchestrator.ErrPhaseNotOptional
	var outOfRange *orchestrator.ErrPhaseOutOfRange
	var noPlan *orchestrator.ErrNoPlan

	switch {
	case errors.As(err, &mismatch), errors.As(err, &notOptional):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &outOfRange):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &noPlan):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
