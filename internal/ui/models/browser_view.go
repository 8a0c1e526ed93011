package models

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/ui/components"
	"github.com/fenilsonani/dupefinder/internal/ui/styles"
	uiutils "github.com/fenilsonani/dupefinder/internal/ui/utils"
)

// fileRef addresses one file of one group
type fileRef struct {
	group int
	file  int
}

// BrowserViewModel lists every duplicate group and lets the user decide per
// file whether it is kept
type BrowserViewModel struct {
	session   *session.Session
	rows      []fileRef
	cursor    int
	offset    int
	pageSize  int
	statusBar *components.StatusBar
	info      *components.InfoPanel
	width     int
	height    int
}

// NewBrowserViewModel creates a new browser view model
func NewBrowserViewModel(s *session.Session, width, height int) *BrowserViewModel {
	var rows []fileRef
	for gi, g := range s.Groups {
		for fi := range g.Files {
			rows = append(rows, fileRef{group: gi, file: fi})
		}
	}

	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	m := &BrowserViewModel{
		session:   s,
		rows:      rows,
		pageSize:  uiutils.CalculatePageSize(height),
		statusBar: components.NewStatusBar(),
		info:      components.NewInfoPanel("", width),
		width:     width,
		height:    height,
	}
	m.statusBar.SetView("Duplicates")
	m.statusBar.SetShortcuts(map[string]string{
		"space": "toggle",
		"n/o":   "newest/oldest",
		"a/x":   "all/none",
		"enter": "delete",
		"w":     "save",
		"?":     "help",
	})
	m.refreshStatus()
	return m
}

// Init initializes the browser view
func (m *BrowserViewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *BrowserViewModel) Update(msg tea.Msg) (*BrowserViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pageSize = uiutils.CalculatePageSize(msg.Height)
		m.clampOffset()

	case SessionSavedMsg:
		if msg.Err != nil {
			m.statusBar.SetMessage("save failed: " + msg.Err.Error())
		} else {
			m.statusBar.SetMessage("saved " + msg.Path)
		}

	case tea.KeyMsg:
		if m.info.IsVisible() {
			switch msg.String() {
			case "i", "esc":
				m.info.SetVisible(false)
			}
			return m, nil
		}

		if len(m.rows) == 0 {
			return m, nil
		}

		m.statusBar.SetMessage("")
		switch msg.String() {
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "pgup", "ctrl+b":
			m.moveCursor(-m.pageSize)
		case "pgdown", "ctrl+f":
			m.moveCursor(m.pageSize)
		case "g", "home":
			m.moveCursor(-len(m.rows))
		case "G", "end":
			m.moveCursor(len(m.rows))
		case " ":
			ref := m.rows[m.cursor]
			m.session.Groups[ref.group].Toggle(ref.file)
		case "n":
			m.applyToGroup(scanner.KeepNewest)
		case "o":
			m.applyToGroup(scanner.KeepOldest)
		case "a":
			m.applyToGroup(scanner.KeepAll)
		case "x":
			m.applyToGroup(scanner.KeepNone)
		case "N":
			m.session.ApplyStrategy(scanner.KeepNewest)
		case "O":
			m.session.ApplyStrategy(scanner.KeepOldest)
		case "A":
			m.session.ApplyStrategy(scanner.KeepAll)
		case "X":
			m.session.ApplyStrategy(scanner.KeepNone)
		case "i":
			ref := m.rows[m.cursor]
			g := m.session.Groups[ref.group]
			m.info = components.GroupInfoPanel(g, g.Files[ref.file], m.width)
			m.info.SetVisible(true)
		case "w":
			return m, func() tea.Msg { return SaveSessionMsg{} }
		case "enter", "d":
			if m.session.MarkedCount() == 0 {
				m.statusBar.SetMessage("nothing marked for deletion")
				return m, nil
			}
			return m, func() tea.Msg { return DeleteRequestedMsg{} }
		}
		m.refreshStatus()
	}

	return m, nil
}

func (m *BrowserViewModel) applyToGroup(strategy scanner.Strategy) {
	m.session.Groups[m.rows[m.cursor].group].Apply(strategy)
}

func (m *BrowserViewModel) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor > len(m.rows)-1 {
		m.cursor = len(m.rows) - 1
	}
	m.clampOffset()
}

func (m *BrowserViewModel) clampOffset() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.pageSize {
		m.offset = m.cursor - m.pageSize + 1
	}
}

func (m *BrowserViewModel) refreshStatus() {
	m.statusBar.SetSelection(m.session.MarkedCount(), m.session.FileCount(), m.session.Reclaimable())
}

// Cursor returns the group and file index under the cursor
func (m *BrowserViewModel) Cursor() (group, file int) {
	if len(m.rows) == 0 {
		return -1, -1
	}
	ref := m.rows[m.cursor]
	return ref.group, ref.file
}

// View renders the browser view
func (m *BrowserViewModel) View() string {
	var b strings.Builder

	if warning := uiutils.GetSizeWarningBanner(m.width, m.height); warning != "" {
		b.WriteString(warning)
	}

	b.WriteString(styles.TitleStyle.Render("📁 Duplicate Groups"))
	b.WriteString("\n\n")

	if panel := m.info.Render(); panel != "" {
		b.WriteString(panel)
		return b.String()
	}

	if len(m.rows) == 0 {
		b.WriteString(styles.SuccessStyle.Render("✓ No duplicates left"))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("Press q to exit"))
		return b.String()
	}

	end := m.offset + m.pageSize
	if end > len(m.rows) {
		end = len(m.rows)
	}

	pathWidth := m.width - 24
	if pathWidth < 20 {
		pathWidth = 20
	}

	for i := m.offset; i < end; i++ {
		ref := m.rows[i]
		g := m.session.Groups[ref.group]

		// Group header before its first visible file
		if ref.file == 0 || i == m.offset {
			header := fmt.Sprintf("Group %d/%d · %d copies · %s each",
				ref.group+1, len(m.session.Groups), len(g.Files), humanize.IBytes(uint64(g.Size)))
			b.WriteString(styles.GroupHeaderStyle.Render(header))
			b.WriteString("\n")
		}

		file := g.Files[ref.file]

		cursor := "  "
		if i == m.cursor {
			cursor = styles.SelectedStyle.Render("→ ")
		}

		box := styles.KeepBox()
		if !g.Keep[ref.file] {
			box = styles.DeleteBox()
		}

		modified := "unknown"
		if file.ModTime != nil {
			modified = file.ModTime.Format("2006-01-02")
		}

		line := fmt.Sprintf("%s%s %s %s",
			cursor,
			box,
			styles.FilePathStyle.Render(uiutils.TruncatePath(file.Path, pathWidth)),
			styles.DimStyle.Render(modified),
		)
		if file.IsCritical {
			line += " " + styles.CriticalStyle.Render("critical")
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusBar.Render(m.width))

	return b.String()
}
