package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/ui/styles"
)

// InfoPanel represents a contextual information panel
type InfoPanel struct {
	title   string
	content []InfoItem
	visible bool
	width   int
}

// InfoItem represents a single piece of information
type InfoItem struct {
	Label string
	Value string
}

// NewInfoPanel creates a new info panel
func NewInfoPanel(title string, width int) *InfoPanel {
	return &InfoPanel{
		title: title,
		width: width,
	}
}

// AddItem adds an information item to the panel
func (p *InfoPanel) AddItem(label, value string) {
	p.content = append(p.content, InfoItem{Label: label, Value: value})
}

// Items returns the panel's items in insertion order
func (p *InfoPanel) Items() []InfoItem {
	return p.content
}

// SetVisible sets the visibility of the panel
func (p *InfoPanel) SetVisible(visible bool) {
	p.visible = visible
}

// IsVisible returns whether the panel is visible
func (p *InfoPanel) IsVisible() bool {
	return p.visible
}

// Toggle toggles the visibility of the panel
func (p *InfoPanel) Toggle() {
	p.visible = !p.visible
}

// Render renders the info panel
func (p *InfoPanel) Render() string {
	if !p.visible || len(p.content) == 0 {
		return ""
	}

	// Half the terminal, clamped to [40, 80]
	panelWidth := p.width / 2
	if panelWidth < 40 {
		panelWidth = 40
	}
	if panelWidth > 80 {
		panelWidth = 80
	}

	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(styles.FocusBorder).
		Padding(1, 2).
		Width(panelWidth)

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Underline(true)

	labelStyle := lipgloss.NewStyle().
		Foreground(styles.Secondary).
		Bold(true)

	var content strings.Builder
	content.WriteString(titleStyle.Render(p.title))
	content.WriteString("\n\n")

	for i, item := range p.content {
		content.WriteString(labelStyle.Render(item.Label) + ": ")
		content.WriteString(item.Value)
		if i < len(p.content)-1 {
			content.WriteString("\n")
		}
	}

	content.WriteString("\n\n")
	content.WriteString(styles.HelpStyle.Render("Press 'i' or 'esc' to close"))

	return panelStyle.Render(content.String())
}

// GroupInfoPanel describes a duplicate group and the file under the cursor
func GroupInfoPanel(g session.Group, file scanner.FileRecord, width int) *InfoPanel {
	panel := NewInfoPanel("Duplicate Group", width)

	panel.AddItem("Digest", g.Digest)
	panel.AddItem("Copies", fmt.Sprintf("%d x %s", len(g.Files), humanize.IBytes(uint64(g.Size))))
	panel.AddItem("Wasted", humanize.IBytes(uint64(g.Wasted())))
	panel.AddItem("Reclaimable", humanize.IBytes(uint64(g.Reclaimable())))

	panel.AddItem("Path", file.Path)
	modified := "unknown"
	if file.ModTime != nil {
		modified = fmt.Sprintf("%s (%s)", file.ModTime.Format("2006-01-02 15:04:05"), humanize.Time(*file.ModTime))
	}
	panel.AddItem("Modified", modified)
	if file.IsCritical {
		panel.AddItem("Warning", styles.CriticalStyle.Render("sensitive configuration file"))
	}

	return panel
}
