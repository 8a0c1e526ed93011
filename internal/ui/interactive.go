package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/ui/models"
)

// RunInteractive starts the interactive TUI and returns the session as the
// user left it, or nil if the scan never finished
func RunInteractive(settings models.Settings) (*session.Session, error) {
	m := models.NewAppModel(settings)

	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("error running interactive mode: %w", err)
	}

	app := final.(*models.AppModel)
	if app.Err() != nil {
		return nil, app.Err()
	}
	return app.Session(), nil
}
