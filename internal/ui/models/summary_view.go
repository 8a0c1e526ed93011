package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/dupefinder/internal/cleaner"
	"github.com/fenilsonani/dupefinder/internal/ui/styles"
)

// SummaryViewModel handles the summary/results view
type SummaryViewModel struct {
	result          *cleaner.CleanResult
	remainingGroups int
}

// NewSummaryViewModel creates a new summary view model
func NewSummaryViewModel(result *cleaner.CleanResult, remainingGroups int) *SummaryViewModel {
	return &SummaryViewModel{
		result:          result,
		remainingGroups: remainingGroups,
	}
}

// Init initializes the summary view
func (m *SummaryViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *SummaryViewModel) Update(msg tea.Msg) (*SummaryViewModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			return m, tea.Quit
		case "b":
			if m.remainingGroups > 0 {
				return m, func() tea.Msg { return BackToBrowserMsg{} }
			}
		}
	}

	return m, nil
}

// View renders the summary view
func (m *SummaryViewModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("✨ Deletion Summary"))
	b.WriteString("\n\n")

	if m.result != nil {
		verb := "deleted"
		if m.result.DryRun {
			verb = "would be deleted"
		}
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("✓ %d files %s", len(m.result.DeletedFiles), verb)))
		b.WriteString("\n")

		b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("Space freed: %s",
			humanize.IBytes(uint64(m.result.DeletedSize)))))
		b.WriteString("\n\n")

		if len(m.result.CriticalFiles) > 0 {
			b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("⚠ %d critical configuration files were among them",
				len(m.result.CriticalFiles))))
			b.WriteString("\n")
		}

		if len(m.result.Errors) > 0 {
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("✗ %d files could not be deleted", len(m.result.Errors))))
			b.WriteString("\n")
			b.WriteString(cleaner.FormatErrorSummary(m.result.Errors))
		}

		if m.result.DryRun {
			b.WriteString("\n")
			b.WriteString(styles.InfoStyle.Render("Note: This was a dry run. No files were actually deleted."))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	help := "Press q or enter to exit"
	if m.remainingGroups > 0 {
		help = fmt.Sprintf("b: back to %d remaining groups | q/enter: exit", m.remainingGroups)
	}
	b.WriteString(styles.HelpStyle.Render(help))

	return b.String()
}
