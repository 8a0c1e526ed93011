package models

import (
	"fmt"
	"strings"
	"time"

	pbar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/dupefinder/internal/progress"
	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupefinder/internal/ui/utils"
)

// ScanViewModel runs the scan in the background and shows its progress
type ScanViewModel struct {
	settings  Settings
	spinner   spinner.Model
	bar       pbar.Model
	reporter  *progress.Reporter
	events    <-chan progress.Event
	latest    *progress.Event
	startTime time.Time
	width     int
}

// NewScanViewModel creates a new scan view model
func NewScanViewModel(settings Settings, width int) *ScanViewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SelectedStyle

	bar := pbar.New(pbar.WithDefaultGradient())
	if width > 10 {
		bar.Width = width - 10
	}

	reporter := progress.NewReporter()

	return &ScanViewModel{
		settings:  settings,
		spinner:   s,
		bar:       bar,
		reporter:  reporter,
		events:    reporter.Subscribe(),
		startTime: time.Now(),
		width:     width,
	}
}

// Init starts the spinner, the scan and the progress listener
func (m *ScanViewModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.performScan,
		waitForEvent(m.events, func(e progress.Event) tea.Msg { return ScanProgressMsg(e) }),
	)
}

// Update handles messages
func (m *ScanViewModel) Update(msg tea.Msg) (*ScanViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 10 {
			m.bar.Width = msg.Width - 10
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ScanProgressMsg:
		e := progress.Event(msg)
		m.latest = &e
		return m, waitForEvent(m.events, func(e progress.Event) tea.Msg { return ScanProgressMsg(e) })
	}

	return m, nil
}

// View renders the scan view
func (m *ScanViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("🔍 Scanning for duplicates"))
	b.WriteString("\n\n")

	b.WriteString(styles.DimStyle.Render("Root: "))
	b.WriteString(styles.FilePathStyle.Render(m.settings.Root))
	b.WriteString("\n\n")

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.phaseLabel())
	b.WriteString(" ")
	b.WriteString(styles.DimStyle.Render(fmt.Sprintf("(%s)", progress.FormatDuration(time.Since(m.startTime)))))
	b.WriteString("\n\n")

	if m.latest != nil && m.latest.Phase == progress.PhaseHashing {
		b.WriteString(m.bar.ViewAs(m.latest.Percent() / 100))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("Hashed %s of %s candidate files\n",
			styles.BoldStyle.Render(humanize.Comma(int64(m.latest.Current))),
			styles.BoldStyle.Render(humanize.Comma(int64(m.latest.Total)))))
		if m.latest.CurrentFile != "" {
			b.WriteString(styles.DimStyle.Render("Current: "))
			b.WriteString(styles.FilePathStyle.Render(uiutils.TruncatePath(m.latest.CurrentFile, 60)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("Press ctrl+c to cancel"))

	return b.String()
}

func (m *ScanViewModel) phaseLabel() string {
	if m.latest == nil {
		return "Discovering files..."
	}
	return progress.Format(m.latest)
}

// performScan runs the engine synchronously inside a tea.Cmd goroutine and
// delivers the outcome as a single message
func (m *ScanViewModel) performScan() tea.Msg {
	defer m.reporter.Unsubscribe(m.events)

	s := scanner.New(m.settings.Options)
	s.SetLogger(m.settings.logger())

	result, err := s.Scan(m.settings.Root, m.reporter.Func())
	if err != nil {
		return ScanCompleteMsg{Err: err}
	}

	m.settings.logger().Info("scan complete",
		"root", m.settings.Root,
		"groups", len(result.Groups),
		"errors", len(result.Errors))

	return ScanCompleteMsg{Session: session.New(m.settings.Root, m.settings.Options, result)}
}

// waitForEvent blocks on the next event and wraps it; a closed channel ends
// the listener with a nil message
func waitForEvent(ch <-chan progress.Event, wrap func(progress.Event) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(e)
	}
}
