package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupefinder/internal/ui/utils"
)

// RiskLevel represents the risk level of a deletion operation
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// ConfirmViewModel handles the confirmation screen
type ConfirmViewModel struct {
	files        int
	size         int64
	critical     []string
	lastCopyLost int // groups where every copy is marked
	dryRun       bool
	cursor       int // 0 = Yes, 1 = Review, 2 = Cancel
	riskLevel    RiskLevel
	width        int
	height       int
}

// NewConfirmViewModel summarizes what deleting the session's marks would do
func NewConfirmViewModel(s *session.Session, dryRun bool, width, height int) *ConfirmViewModel {
	m := &ConfirmViewModel{
		dryRun: dryRun,
		width:  width,
		height: height,
	}

	for _, g := range s.Groups {
		marked := g.Marked()
		if len(marked) == 0 {
			continue
		}
		if len(marked) == len(g.Files) {
			m.lastCopyLost++
		}
		for _, f := range marked {
			m.files++
			m.size += f.Size
			if f.IsCritical {
				m.critical = append(m.critical, f.Path)
			}
		}
	}

	m.riskLevel = m.calculateRiskLevel()
	if m.riskLevel == RiskHigh {
		m.cursor = 2 // Default to "Cancel" for high risk
	}

	if m.width == 0 {
		m.width = 80
	}
	if m.height == 0 {
		m.height = 24
	}

	return m
}

// calculateRiskLevel rates the deletion by what could be lost
func (m *ConfirmViewModel) calculateRiskLevel() RiskLevel {
	// HIGH: sensitive files, content with no surviving copy, or a huge batch
	if len(m.critical) > 0 || m.lastCopyLost > 0 || m.files > 500 {
		return RiskHigh
	}

	if m.files >= 50 {
		return RiskMedium
	}

	return RiskLow
}

// Risk returns the computed risk level
func (m *ConfirmViewModel) Risk() RiskLevel {
	return m.riskLevel
}

// Init initializes the confirm view
func (m *ConfirmViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *ConfirmViewModel) Update(msg tea.Msg) (*ConfirmViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < 2 {
				m.cursor++
			}
		case "tab":
			m.cursor = (m.cursor + 1) % 3
		case "enter":
			switch m.cursor {
			case 0:
				return m, func() tea.Msg { return ConfirmedMsg{} }
			case 1:
				return m, func() tea.Msg { return ReviewSelectionMsg{} }
			case 2:
				return m, tea.Quit
			}
		case "y":
			return m, func() tea.Msg { return ConfirmedMsg{} }
		case "e":
			return m, func() tea.Msg { return ReviewSelectionMsg{} }
		case "n":
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the confirmation view
func (m *ConfirmViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	title := "⚠️  Confirm Deletion"
	if m.dryRun {
		title = "🔎 Confirm Dry Run"
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(styles.BoldStyle.Render(fmt.Sprintf("You are about to delete %d files (%s)",
		m.files, humanize.IBytes(uint64(m.size)))))
	b.WriteString("\n\n")

	if m.lastCopyLost > 0 {
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("%d group(s) will lose every copy", m.lastCopyLost)))
		b.WriteString("\n")
	}

	if len(m.critical) > 0 {
		b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("%d critical configuration file(s) marked:", len(m.critical))))
		b.WriteString("\n")
		for i, path := range m.critical {
			if i == 5 {
				b.WriteString(styles.DimStyle.Render(fmt.Sprintf("  ... and %d more", len(m.critical)-5)))
				b.WriteString("\n")
				break
			}
			b.WriteString("  " + styles.CriticalStyle.Render(uiutils.TruncatePath(path, m.width-4)))
			b.WriteString("\n")
		}
	}

	riskText, riskStyle, riskIcon := m.getRiskDisplay()
	b.WriteString(fmt.Sprintf("\nRisk Level: %s %s\n", riskIcon, riskStyle(riskText)))

	b.WriteString("\n")
	if m.dryRun {
		b.WriteString(styles.InfoStyle.Render("Dry run: nothing will be removed from disk."))
	} else {
		b.WriteString(styles.WarningStyle.Render("⚠️  This action cannot be undone!"))
	}
	b.WriteString("\n\n")

	yesBtn := "[ Yes, delete ]"
	reviewBtn := "[ Review ]"
	cancelBtn := "[ Cancel ]"

	switch m.cursor {
	case 0:
		yesBtn = styles.HighlightStyle.Render(yesBtn)
	case 1:
		reviewBtn = styles.HighlightStyle.Render(reviewBtn)
	case 2:
		cancelBtn = styles.HighlightStyle.Render(cancelBtn)
	}

	b.WriteString(fmt.Sprintf("%s  %s  %s", yesBtn, reviewBtn, cancelBtn))
	b.WriteString("\n\n")

	helpText := "y:confirm  e:edit  n:cancel  ←/→:navigate"
	if m.width < 60 {
		helpText = "y:yes  e:edit  n:no  ←/→"
	}
	b.WriteString(styles.HelpStyle.Render(helpText))

	return b.String()
}

// getRiskDisplay returns the display text, style render function, and icon for the current risk level
func (m *ConfirmViewModel) getRiskDisplay() (string, func(string) string, string) {
	switch m.riskLevel {
	case RiskHigh:
		return "HIGH (critical files, last copies or many files)", func(s string) string { return styles.ErrorStyle.Render(s) }, "🔴"
	case RiskMedium:
		return "MEDIUM (many files)", func(s string) string { return styles.WarningStyle.Render(s) }, "⚠️"
	default:
		return "LOW (redundant copies only)", func(s string) string { return styles.SuccessStyle.Render(s) }, "✓"
	}
}
