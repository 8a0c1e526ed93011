package models

import (
	"fmt"
	"strings"
	"time"

	pbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupefinder/internal/cleaner"
	"github.com/fenilsonani/dupefinder/internal/progress"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupefinder/internal/ui/utils"
)

// CleanupViewModel handles the deletion progress view
type CleanupViewModel struct {
	session   *session.Session
	settings  Settings
	spinner   spinner.Model
	bar       pbar.Model
	reporter  *progress.Reporter
	events    <-chan progress.Event
	latest    *progress.Event
	total     int
	startTime time.Time
}

// NewCleanupViewModel creates a new cleanup view model
func NewCleanupViewModel(s *session.Session, settings Settings, width int) *CleanupViewModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SelectedStyle

	bar := pbar.New(pbar.WithDefaultGradient())
	if width > 10 {
		bar.Width = width - 10
	}

	reporter := progress.NewReporter()

	return &CleanupViewModel{
		session:   s,
		settings:  settings,
		spinner:   sp,
		bar:       bar,
		reporter:  reporter,
		events:    reporter.Subscribe(),
		total:     s.MarkedCount(),
		startTime: time.Now(),
	}
}

// Init initializes the cleanup view
func (m *CleanupViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.performCleanup,
		waitForEvent(m.events, func(e progress.Event) tea.Msg { return CleanProgressMsg(e) }),
	)
}

// Update handles messages
func (m *CleanupViewModel) Update(msg tea.Msg) (*CleanupViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case CleanProgressMsg:
		e := progress.Event(msg)
		m.latest = &e
		return m, waitForEvent(m.events, func(e progress.Event) tea.Msg { return CleanProgressMsg(e) })
	}

	return m, nil
}

// View renders the cleanup view
func (m *CleanupViewModel) View() string {
	var b strings.Builder

	title := "🗑️  Deleting duplicates"
	if m.settings.DryRun {
		title = "🔎 Previewing deletion"
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" Working... ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", progress.FormatDuration(time.Since(m.startTime)))))
	b.WriteString("\n\n")

	current := 0
	if m.latest != nil {
		current = m.latest.Current
	}
	percent := 0.0
	if m.total > 0 {
		percent = float64(current) / float64(m.total)
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Progress: %d/%d files\n", current, m.total))
	if m.latest != nil && m.latest.CurrentFile != "" {
		b.WriteString(styles.DimStyle.Render("Current: "))
		b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.latest.CurrentFile, 60)))
	}

	return b.String()
}

// performCleanup deletes the marked files and prunes the session
func (m *CleanupViewModel) performCleanup() tea.Msg {
	defer m.reporter.Unsubscribe(m.events)

	c := cleaner.New(m.settings.DryRun)
	c.SetLogger(m.settings.logger())
	c.SetProgress(m.reporter.Func())
	for _, p := range m.settings.ProtectedPaths {
		c.AddProtectedPath(p)
	}

	return CleanupCompleteMsg{Result: c.CleanSession(m.session)}
}
