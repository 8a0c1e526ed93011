package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fenilsonani/dupefinder/internal/ui/styles"
)

// StatusBar represents a status bar component that displays at the bottom of views
type StatusBar struct {
	viewName  string
	marked    int
	total     int
	size      int64
	message   string
	shortcuts map[string]string
}

// NewStatusBar creates a new status bar
func NewStatusBar() *StatusBar {
	return &StatusBar{
		shortcuts: make(map[string]string),
	}
}

// SetView sets the current view name
func (s *StatusBar) SetView(viewName string) {
	s.viewName = viewName
}

// SetSelection sets the marked file count, total files and reclaimable bytes
func (s *StatusBar) SetSelection(marked, total int, size int64) {
	s.marked = marked
	s.total = total
	s.size = size
}

// SetMessage shows a transient message after the selection info
func (s *StatusBar) SetMessage(message string) {
	s.message = message
}

// SetShortcuts sets the shortcuts to display
func (s *StatusBar) SetShortcuts(shortcuts map[string]string) {
	s.shortcuts = shortcuts
}

// Render renders the status bar with the given width
func (s *StatusBar) Render(width int) string {
	if width <= 0 {
		width = 80
	}

	var parts []string

	if s.viewName != "" {
		parts = append(parts, styles.BoldStyle.Render(s.viewName))
	}

	if s.total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d marked", s.marked, s.total))
	}

	if s.size > 0 {
		parts = append(parts, styles.FileSizeStyle.Render(humanize.IBytes(uint64(s.size))))
	}

	if s.message != "" {
		parts = append(parts, styles.InfoStyle.Render(s.message))
	}

	leftSide := strings.Join(parts, " • ")

	var shortcutParts []string
	orderedKeys := []string{"↑/↓", "space", "n/o", "a/x", "enter", "w", "i", "?", "q"}

	for _, key := range orderedKeys {
		if desc, ok := s.shortcuts[key]; ok {
			shortcutParts = append(shortcutParts, fmt.Sprintf("%s:%s",
				styles.DimStyle.Render(key), desc))
		}
	}

	rightSide := strings.Join(shortcutParts, " ")

	leftLen := lipgloss.Width(leftSide)
	rightLen := lipgloss.Width(rightSide)
	spacing := width - leftLen - rightLen - 2 // -2 for padding

	if spacing < 1 {
		// Not enough room for shortcuts
		rightSide = ""
		spacing = 1
	}

	statusLine := leftSide + strings.Repeat(" ", spacing) + rightSide

	statusBarStyle := lipgloss.NewStyle().
		Foreground(styles.Text).
		Background(styles.BgDark).
		Padding(0, 1).
		Width(width)

	return statusBarStyle.Render(statusLine)
}
