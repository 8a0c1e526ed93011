package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupefinder/internal/ui/utils"
)

// StrategyItem is one selectable way of marking the whole session
type StrategyItem struct {
	Label       string
	Description string
	Strategy    scanner.Strategy
	Apply       bool  // false keeps the current marks
	Files       int   // files the choice would mark for deletion
	Reclaimable int64 // bytes the choice would free
}

// StrategyViewModel lets the user pick a strategy for every group at once
type StrategyViewModel struct {
	session *session.Session
	items   []StrategyItem
	cursor  int
	width   int
	height  int
}

// NewStrategyViewModel creates a strategy picker with the cursor on the
// configured strategy
func NewStrategyViewModel(s *session.Session, current scanner.Strategy, width, height int) *StrategyViewModel {
	items := []StrategyItem{
		{Label: "Keep newest", Description: "keep the most recently modified copy", Strategy: scanner.KeepNewest, Apply: true},
		{Label: "Keep oldest", Description: "keep the original, least recently modified copy", Strategy: scanner.KeepOldest, Apply: true},
		{Label: "Keep all", Description: "mark nothing, review each group yourself", Strategy: scanner.KeepAll, Apply: true},
		{Label: "Keep none", Description: "mark every copy, including the last one", Strategy: scanner.KeepNone, Apply: true},
		{Label: "Current marks", Description: "leave the selection as it is", Apply: false},
	}

	cursor := 0
	for i := range items {
		if items[i].Apply {
			items[i].Files, items[i].Reclaimable = preview(s, items[i].Strategy)
			if items[i].Strategy == current {
				cursor = i
			}
		} else {
			items[i].Files, items[i].Reclaimable = s.MarkedCount(), s.Reclaimable()
		}
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	return &StrategyViewModel{
		session: s,
		items:   items,
		cursor:  cursor,
		width:   width,
		height:  height,
	}
}

// preview computes what a strategy would mark without changing the session
func preview(s *session.Session, strategy scanner.Strategy) (int, int64) {
	files := 0
	var bytes int64
	for _, g := range s.Groups {
		for _, keep := range scanner.Select(strategy, g.Files) {
			if !keep {
				files++
				bytes += g.Size
			}
		}
	}
	return files, bytes
}

// Items returns the choices in display order
func (m *StrategyViewModel) Items() []StrategyItem {
	return m.items
}

// Cursor returns the highlighted item index
func (m *StrategyViewModel) Cursor() int {
	return m.cursor
}

// Init initializes the strategy view
func (m *StrategyViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *StrategyViewModel) Update(msg tea.Msg) (*StrategyViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter", " ":
			item := m.items[m.cursor]
			return m, func() tea.Msg {
				return StrategyChosenMsg{Strategy: item.Strategy, Apply: item.Apply}
			}
		}
	}

	return m, nil
}

// View renders the strategy view
func (m *StrategyViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("⚖️  Choose what to keep"))
	b.WriteString("\n\n")

	if len(m.session.Groups) == 0 {
		b.WriteString(styles.SuccessStyle.Render("✓ No duplicates found"))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("Press q to exit"))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Found %s duplicate groups with %s files, %s wasted\n",
		styles.BoldStyle.Render(humanize.Comma(int64(len(m.session.Groups)))),
		styles.BoldStyle.Render(humanize.Comma(int64(m.session.FileCount()))),
		styles.FileSizeStyle.Render(humanize.IBytes(uint64(m.session.TotalWasted())))))
	if len(m.session.Errors) > 0 {
		b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("%d files could not be read and were skipped", len(m.session.Errors))))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, item := range m.items {
		cursor := "  "
		label := item.Label
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
			label = styles.SelectedStyle.Render(label)
		}

		b.WriteString(fmt.Sprintf("%s%-14s %s\n", cursor, label, styles.DimStyle.Render(item.Description)))
		b.WriteString(fmt.Sprintf("    deletes %d files, frees %s\n",
			item.Files, styles.FileSizeStyle.Render(humanize.IBytes(uint64(item.Reclaimable)))))
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render("↑/↓ navigate | enter apply | ? help | q quit"))

	return b.String()
}
