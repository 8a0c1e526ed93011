package models

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupefinder/internal/cleaner"
	"github.com/fenilsonani/dupefinder/internal/progress"
	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/ui/styles"
)

// ViewState represents the current view in the app
type ViewState int

const (
	ViewScanning ViewState = iota
	ViewStrategySelection
	ViewBrowser
	ViewConfirmation
	ViewCleaning
	ViewSummary
	ViewHelp
)

// Settings carries everything the TUI needs to scan and delete
type Settings struct {
	Root           string
	Options        scanner.Options
	Strategy       scanner.Strategy
	DryRun         bool
	ProtectedPaths []string
	Sessions       *session.Manager // optional, enables saving from the browser
	Logger         *slog.Logger
}

func (s Settings) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// AppModel is the root model for the interactive TUI
type AppModel struct {
	state         ViewState
	previousState ViewState // For back navigation

	settings Settings
	session  *session.Session

	scanView     *ScanViewModel
	strategyView *StrategyViewModel
	browserView  *BrowserViewModel
	confirmView  *ConfirmViewModel
	cleanupView  *CleanupViewModel
	summaryView  *SummaryViewModel

	width  int
	height int
	err    error
}

// NewAppModel creates a new app model
func NewAppModel(settings Settings) *AppModel {
	return &AppModel{
		state:    ViewScanning,
		settings: settings,
	}
}

// Session returns the session built by the scan, or nil before it finishes
func (m *AppModel) Session() *session.Session {
	return m.session
}

// Err returns the fatal scan error, if any
func (m *AppModel) Err() error {
	return m.err
}

// State returns the active view
func (m *AppModel) State() ViewState {
	return m.state
}

// Init initializes the model
func (m *AppModel) Init() tea.Cmd {
	m.scanView = NewScanViewModel(m.settings, m.width)
	return m.scanView.Init()
}

// Update handles messages
func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == ViewHelp {
			m.state = m.previousState
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c":
			if m.state != ViewCleaning {
				return m, tea.Quit
			}
		case "q":
			if m.state != ViewCleaning {
				return m, tea.Quit
			}
		case "?":
			m.previousState = m.state
			m.state = ViewHelp
			return m, nil
		case "esc":
			switch m.state {
			case ViewBrowser:
				if m.browserView != nil && m.browserView.info.IsVisible() {
					break
				}
				m.strategyView = NewStrategyViewModel(m.session, m.settings.Strategy, m.width, m.height)
				m.state = ViewStrategySelection
				return m, nil
			case ViewConfirmation:
				m.state = ViewBrowser
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ScanCompleteMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.session = msg.Session
		m.strategyView = NewStrategyViewModel(m.session, m.settings.Strategy, m.width, m.height)
		m.state = ViewStrategySelection
		return m, nil

	case StrategyChosenMsg:
		if msg.Apply {
			m.session.ApplyStrategy(msg.Strategy)
			m.settings.Strategy = msg.Strategy
		}
		m.browserView = NewBrowserViewModel(m.session, m.width, m.height)
		m.state = ViewBrowser
		return m, nil

	case SaveSessionMsg:
		return m, m.saveSession()

	case DeleteRequestedMsg:
		m.confirmView = NewConfirmViewModel(m.session, m.settings.DryRun, m.width, m.height)
		m.state = ViewConfirmation
		return m, nil

	case ReviewSelectionMsg:
		m.state = ViewBrowser
		return m, nil

	case ConfirmedMsg:
		m.cleanupView = NewCleanupViewModel(m.session, m.settings, m.width)
		m.state = ViewCleaning
		return m, m.cleanupView.Init()

	case CleanupCompleteMsg:
		m.summaryView = NewSummaryViewModel(msg.Result, len(m.session.Groups))
		m.state = ViewSummary
		return m, nil

	case BackToBrowserMsg:
		m.browserView = NewBrowserViewModel(m.session, m.width, m.height)
		m.state = ViewBrowser
		return m, nil
	}

	return m.delegateUpdate(msg)
}

// saveSession writes the session through the manager and reports the outcome
// to the browser's status bar
func (m *AppModel) saveSession() tea.Cmd {
	sessions, sess := m.settings.Sessions, m.session
	return func() tea.Msg {
		if sessions == nil {
			return SessionSavedMsg{Err: fmt.Errorf("no session directory configured")}
		}
		if err := sessions.Save(sess); err != nil {
			return SessionSavedMsg{Err: err}
		}
		return SessionSavedMsg{Path: sessions.Path(sess.ID)}
	}
}

// delegateUpdate delegates the update to the current view
func (m *AppModel) delegateUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Background work keeps running while help is shown
	state := m.state
	if state == ViewHelp {
		state = m.previousState
	}

	switch state {
	case ViewScanning:
		if m.scanView != nil {
			m.scanView, cmd = m.scanView.Update(msg)
		}
	case ViewStrategySelection:
		if m.strategyView != nil {
			m.strategyView, cmd = m.strategyView.Update(msg)
		}
	case ViewBrowser:
		if m.browserView != nil {
			m.browserView, cmd = m.browserView.Update(msg)
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			m.confirmView, cmd = m.confirmView.Update(msg)
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			m.cleanupView, cmd = m.cleanupView.Update(msg)
		}
	case ViewSummary:
		if m.summaryView != nil {
			m.summaryView, cmd = m.summaryView.Update(msg)
		}
	}

	return m, cmd
}

// View renders the current view
func (m *AppModel) View() string {
	if m.err != nil {
		return styles.ErrorStyle.Render("Scan failed: "+m.err.Error()) + "\n\nPress q to quit."
	}

	switch m.state {
	case ViewScanning:
		if m.scanView != nil {
			return m.scanView.View()
		}
	case ViewStrategySelection:
		if m.strategyView != nil {
			return m.strategyView.View()
		}
	case ViewBrowser:
		if m.browserView != nil {
			return m.browserView.View()
		}
	case ViewConfirmation:
		if m.confirmView != nil {
			return m.confirmView.View()
		}
	case ViewCleaning:
		if m.cleanupView != nil {
			return m.cleanupView.View()
		}
	case ViewSummary:
		if m.summaryView != nil {
			return m.summaryView.View()
		}
	case ViewHelp:
		return m.renderHelp()
	}

	return "Loading..."
}

// renderHelp renders the help view with context-aware content
func (m *AppModel) renderHelp() string {
	var b strings.Builder

	var viewName, helpContent string
	switch m.previousState {
	case ViewScanning:
		viewName, helpContent = "Scan", helpScan
	case ViewStrategySelection:
		viewName, helpContent = "Strategy", helpStrategy
	case ViewBrowser:
		viewName, helpContent = "Duplicate Browser", helpBrowser
	case ViewConfirmation:
		viewName, helpContent = "Confirmation", helpConfirm
	case ViewSummary:
		viewName, helpContent = "Summary", helpSummary
	default:
		viewName, helpContent = "General", helpGeneral
	}

	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Help - %s", viewName)))
	b.WriteString("\n\n")
	b.WriteString(helpContent)
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("Press any key to close"))

	return b.String()
}

const helpScan = `Walking the directory, then hashing files that share a size.

Actions:
  ctrl+c  - Cancel scan and exit
  q       - Cancel scan and exit

The scan moves on to strategy selection when complete.`

const helpStrategy = `Choose which copy of each duplicate group to keep.

  newest     - keep the most recently modified copy
  oldest     - keep the least recently modified copy
  keep all   - mark nothing for deletion
  keep none  - mark every copy for deletion
  manual     - keep the current marks and review in the browser

Navigation:
  ↑/k ↓/j  - Move
  enter    - Apply and continue
  q        - Quit`

const helpBrowser = `Review duplicate groups. ☑ keeps a file, ☐ deletes it.

Navigation               Selection
  ↑/k     Move up          space    Toggle keep/delete
  ↓/j     Move down        n / o    Keep newest / oldest in group
  pgup    Page up          a / x    Keep all / none in group
  pgdown  Page down        N O A X  Same, for every group
  g / G   Top / bottom

Actions
  enter   Delete marked files (asks first)
  w       Save session
  i       Group details
  esc     Back to strategy selection
  q       Quit`

const helpConfirm = `Review and confirm the deletion.

Navigation:
  ←/→/h/l - Switch between buttons

Actions:
  enter   - Activate button
  y       - Yes, delete
  e       - Edit selection (go back)
  n       - Cancel and quit

Deleted files cannot be recovered!`

const helpSummary = `Deletion finished. Deleted files were removed from their groups,
and groups left with a single copy were dropped.

Actions:
  b       - Back to the remaining groups
  enter   - Exit
  q       - Exit`

const helpGeneral = `dupefinder - Interactive Mode Help

Global Shortcuts:
  ?       - Toggle this help
  esc     - Go back
  q       - Quit (from most views)
  ctrl+c  - Force quit`

// ScanProgressMsg carries one engine progress event to the scan view
type ScanProgressMsg progress.Event

// ScanCompleteMsg is sent once when the scan goroutine finishes
type ScanCompleteMsg struct {
	Session *session.Session
	Err     error
}

// StrategyChosenMsg moves from strategy selection to the browser
type StrategyChosenMsg struct {
	Strategy scanner.Strategy
	Apply    bool // false keeps the current marks
}

// SaveSessionMsg asks the app to persist the session
type SaveSessionMsg struct{}

// SessionSavedMsg reports the outcome of a save
type SessionSavedMsg struct {
	Path string
	Err  error
}

// DeleteRequestedMsg opens the confirmation view
type DeleteRequestedMsg struct{}

// ConfirmedMsg starts deletion
type ConfirmedMsg struct{}

// ReviewSelectionMsg returns from confirmation to the browser
type ReviewSelectionMsg struct{}

// CleanProgressMsg carries one deletion progress event
type CleanProgressMsg progress.Event

// CleanupCompleteMsg is sent once when deletion finishes
type CleanupCompleteMsg struct {
	Result *cleaner.CleanResult
}

// BackToBrowserMsg returns from the summary to the remaining groups
type BackToBrowserMsg struct{}
