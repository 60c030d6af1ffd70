// Package tui provides a Bubble Tea terminal user interface for streetgrab.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/streetgrab/internal/config"
	"github.com/handiism/streetgrab/internal/download"
	"github.com/handiism/streetgrab/internal/mapillary"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// logBuffer collects progress events from worker goroutines until the
// next tick copies them into the model.
type logBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (b *logBuffer) add(event download.ProgressEvent) {
	b.mu.Lock()
	b.entries = append(b.entries, LogEntry{Message: event.Message, Level: event.Level})
	if len(b.entries) > maxLogs {
		b.entries = b.entries[len(b.entries)-maxLogs:]
	}
	b.mu.Unlock()
}

func (b *logBuffer) snapshot() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]LogEntry(nil), b.entries...)
}

func (b *logBuffer) reset() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	buffer    *logBuffer
	err       error

	// Run context
	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	summary *download.Summary

	// Run progress
	processed int
	total     int
	kept      int
	dropped   int

	// Options
	optionsFocused bool
	pano           bool
	verbose        bool
	geoDebug       bool

	width  int
	height int
}

// NewModel creates a new TUI model around settings loaded by the caller.
func NewModel(settings *config.Settings) Model {
	ti := textinput.New()
	ti.Placeholder = "Main Street, Springfield"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Globe
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		buffer:    &logBuffer{},
		ctx:       ctx,
		cancel:    cancel,
		pano:      settings.PanoOnly,
		verbose:   settings.Debug,
		geoDebug:  settings.GeoDebug,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// InitDoneMsg is sent when geocoding and the metadata fetch complete.
	InitDoneMsg struct {
		Manager *download.Manager
		Err     error
	}

	// DownloadDoneMsg is sent when every record has been processed.
	DownloadDoneMsg struct {
		Summary *download.Summary
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				m.cancel()
			}
			return m, nil

		case "tab":
			if m.state == StateInput {
				m.optionsFocused = !m.optionsFocused
				if m.optionsFocused {
					m.textInput.Blur()
				} else {
					m.textInput.Focus()
				}
				return m, nil
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateInitializing
				m.buffer.reset()
				m.logs = nil
				return m, tea.Batch(m.initializeRun(), m.spinner.Tick, m.tickProgress())
			}

		case "p", "v", "g":
			if m.state == StateInput && m.optionsFocused {
				switch msg.String() {
				case "p":
					m.pano = !m.pano
				case "v":
					m.verbose = !m.verbose
				case "g":
					m.geoDebug = !m.geoDebug
				}
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
				return m, textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case InitDoneMsg:
		m.logs = m.filterLogs(m.buffer.snapshot())
		if msg.Err != nil {
			m.fail(msg.Err)
			break
		}
		m.manager = msg.Manager
		m.state = StateDownloading
		cmds = append(cmds, m.startDownload())

	case DownloadDoneMsg:
		m.logs = m.filterLogs(m.buffer.snapshot())
		if m.manager != nil {
			m.processed, m.total, m.kept, m.dropped = m.manager.GetProgress()
		}
		m.summary = msg.Summary
		if msg.Err != nil {
			m.fail(msg.Err)
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		if m.state != StateInitializing && m.state != StateDownloading {
			break
		}
		m.logs = m.filterLogs(m.buffer.snapshot())
		if m.manager != nil {
			m.processed, m.total, m.kept, m.dropped = m.manager.GetProgress()

			var percent float64
			if m.total > 0 {
				percent = float64(m.processed) / float64(m.total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent))
		}
		cmds = append(cmds, m.tickProgress())

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput && !m.optionsFocused {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) fail(err error) {
	m.state = StateError
	switch {
	case m.ctx.Err() != nil:
		m.err = errors.New("cancelled by user")
	case errors.Is(err, config.ErrMissingToken), errors.Is(err, mapillary.ErrMissingToken):
		m.err = errors.New("set MAPILLARY_TOKEN")
	default:
		m.err = err
	}
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.buffer.reset()
	m.err = nil
	m.manager = nil
	m.summary = nil
	m.processed, m.total, m.kept, m.dropped = 0, 0, 0, 0
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.optionsFocused = false
	m.textInput.SetValue("")
	m.textInput.Focus()
}

// filterLogs hides verbose entries unless verbose output is on.
func (m Model) filterLogs(entries []LogEntry) []LogEntry {
	if m.verbose {
		return entries
	}
	filtered := entries[:0]
	for _, e := range entries {
		if e.Level != download.LevelVerbose {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Street Grabber"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download street-level imagery from Mapillary"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter a street:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	header := infoStyle.Render("Options:")
	if m.optionsFocused {
		header = focusStyle.Render("Options:")
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Panoramas only (p)\n", checkbox(m.pano)))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (v)\n", checkbox(m.verbose)))
	b.WriteString(fmt.Sprintf("  %s Show geocoder pick (g)\n", checkbox(m.geoDebug)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Radius: %g m | Output: %s", m.settings.Radius, m.settings.OutputDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Resolving street and fetching metadata..."))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.manager != nil {
		box := m.manager.BoundingBox()
		b.WriteString(successStyle.Render(fmt.Sprintf("Found %d image(s)", len(m.manager.Records()))))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("bbox %s", box.String())))
		b.WriteString("\n\n")
	}

	var percent float64
	if m.total > 0 {
		percent = float64(m.processed) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Images: %d/%d | Kept: %d | Dropped: %d",
		m.processed,
		m.total,
		m.kept,
		m.dropped,
	)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	found, kept, dropped, dir := 0, m.kept, m.dropped, m.settings.OutputDir
	if m.summary != nil {
		found, kept, dropped, dir = m.summary.Found, m.summary.Kept, m.summary.Dropped, m.summary.OutputDir
	}

	headline := "Done!"
	switch {
	case found == 0:
		headline = "No images in area."
	case kept == 0:
		headline = "No images match criteria."
	}

	box := boxStyle.Render(fmt.Sprintf(
		"%s\n\n"+
			"Found: %d\n"+
			"Kept: %d\n"+
			"Dropped: %d\n"+
			"Output: %s",
		headline,
		found,
		kept,
		dropped,
		dir,
	))
	b.WriteString(box)
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		if m.optionsFocused {
			return "p: panoramas • v: verbose • g: geocoder pick • tab: back to street • esc: quit"
		}
		return "enter: start • tab: options • esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new search • q: quit"
	}
	return ""
}

// runSettings returns a copy of the loaded settings with the toggles applied.
func (m Model) runSettings() *config.Settings {
	settings := *m.settings
	settings.PanoOnly = m.pano
	settings.Debug = m.verbose
	settings.GeoDebug = m.geoDebug
	return &settings
}

// initializeRun validates settings, builds the manager and resolves the
// query.
func (m Model) initializeRun() tea.Cmd {
	settings := m.runSettings()
	query := strings.TrimSpace(m.textInput.Value())
	ctx := m.ctx
	buffer := m.buffer

	return func() tea.Msg {
		if err := settings.Validate(); err != nil {
			return InitDoneMsg{Err: err}
		}

		manager, err := download.NewManager(settings, buffer.add)
		if err != nil {
			return InitDoneMsg{Err: err}
		}
		if err := manager.Initialize(ctx, query); err != nil {
			return InitDoneMsg{Err: err}
		}
		return InitDoneMsg{Manager: manager}
	}
}

// startDownload runs the pipeline in the background.
func (m Model) startDownload() tea.Cmd {
	manager := m.manager
	ctx := m.ctx

	return func() tea.Msg {
		summary, err := manager.StartDownloads(ctx)
		return DownloadDoneMsg{Summary: summary, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
