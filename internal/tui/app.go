// Package tui provides the interactive phase board for a run: the
// planned phases, the current proposal, and the generation log, with
// keys to confirm or skip each phase.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller exposes the run operations the board can trigger.
type Controller interface {
	Confirm(ctx context.Context, index int) error
	Skip(index int) error
}

// PhaseRow is one row on the phase board.
type PhaseRow struct {
	Index       int
	ID          string
	Name        string
	Description string
	Status      string
	Optional    bool
	Kind        string
	Summary     string
	Error       string
}

// PlanMsg carries the full phase list after archetype selection.
type PlanMsg struct {
	Phases []PhaseRow
}

// ProposalMsg is sent when a phase awaits confirmation.
type ProposalMsg struct {
	Index    int
	Name     string
	Optional bool
}

// PhaseStartMsg is sent when a phase begins executing.
type PhaseStartMsg struct {
	Index int
}

// PhaseDoneMsg is sent when a phase completes or is skipped.
type PhaseDoneMsg struct {
	Index   int
	Summary string
	Skipped bool
}

// PhaseErrorMsg is sent when a phase fails.
type PhaseErrorMsg struct {
	Index int
	Error string
}

// SuspendedMsg is sent when a phase hands off to an external resolver.
type SuspendedMsg struct {
	Index int
	Kind  string
}

// LogMsg appends a line to the log panel.
type LogMsg struct {
	Message string
}

// FileMsg reports a generated file.
type FileMsg struct {
	Path string
}

// RunDoneMsg signals that the run has finished.
type RunDoneMsg struct {
	Success bool
	Message string
	Files   int
}

// actionResultMsg reports a confirm or skip call returning.
type actionResultMsg struct {
	err error
}

// LogEntry is one line in the log panel.
type LogEntry struct {
	Timestamp time.Time
	Message   string
}

// App is the main bubbletea model for the run board.
type App struct {
	controller Controller

	phases   []PhaseRow
	logs     []LogEntry
	spinner  spinner.Model
	proposal *ProposalMsg
	busy     bool
	running  int

	width    int
	height   int
	quitting bool

	done        bool
	doneSuccess bool
	doneMessage string

	headerStyle  lipgloss.Style
	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
	hintStyle    lipgloss.Style
	dimStyle     lipgloss.Style
	promptStyle  lipgloss.Style
}

// New creates a new App for the given controller.
func New(controller Controller) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return &App{
		controller: controller,
		spinner:    sp,
		running:    -1,

		headerStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		successStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("28")).Bold(true),
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		hintStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		dimStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		promptStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case PlanMsg:
		a.phases = msg.Phases

	case ProposalMsg:
		proposal := msg
		a.proposal = &proposal
		a.busy = false

	case PhaseStartMsg:
		a.setStatus(msg.Index, "in_progress")
		a.running = msg.Index
		a.proposal = nil

	case PhaseDoneMsg:
		if msg.Skipped {
			a.setStatus(msg.Index, "skipped")
		} else {
			a.setStatus(msg.Index, "completed")
			if msg.Index >= 0 && msg.Index < len(a.phases) {
				a.phases[msg.Index].Summary = msg.Summary
			}
		}
		if a.running == msg.Index {
			a.running = -1
		}

	case PhaseErrorMsg:
		a.setStatus(msg.Index, "error")
		if msg.Index >= 0 && msg.Index < len(a.phases) {
			a.phases[msg.Index].Error = msg.Error
		}
		if a.running == msg.Index {
			a.running = -1
		}
		a.busy = false

	case SuspendedMsg:
		a.appendLog("waiting for " + msg.Kind + " to resolve...")

	case LogMsg:
		a.appendLog(msg.Message)

	case FileMsg:
		a.appendLog("wrote " + msg.Path)

	case RunDoneMsg:
		a.done = true
		a.doneSuccess = msg.Success
		a.doneMessage = msg.Message
		a.proposal = nil
		a.busy = false

	case actionResultMsg:
		a.busy = false
		if msg.err != nil {
			a.appendLog("error: " + msg.err.Error())
		}
	}

	return a, nil
}

// handleKey processes keyboard input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		a.quitting = true
		return a, tea.Quit

	case "y", "enter":
		if a.proposal == nil || a.busy || a.done {
			return a, nil
		}
		index := a.proposal.Index
		a.busy = true
		a.proposal = nil
		return a, func() tea.Msg {
			return actionResultMsg{err: a.controller.Confirm(context.Background(), index)}
		}

	case "s":
		if a.proposal == nil || a.busy || a.done || !a.proposal.Optional {
			return a, nil
		}
		index := a.proposal.Index
		a.busy = true
		a.proposal = nil
		return a, func() tea.Msg {
			return actionResultMsg{err: a.controller.Skip(index)}
		}
	}

	return a, nil
}

func (a *App) setStatus(index int, status string) {
	if index >= 0 && index < len(a.phases) {
		a.phases[index].Status = status
	}
}

func (a *App) appendLog(message string) {
	a.logs = append(a.logs, LogEntry{Timestamp: time.Now(), Message: message})
	// Keep the tail; old lines scroll away for good.
	if len(a.logs) > 500 {
		a.logs = a.logs[len(a.logs)-500:]
	}
}
