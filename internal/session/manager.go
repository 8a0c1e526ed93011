package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fenilsonani/dupefinder/internal/platform"
)

// Manager stores sessions as <id>.json files in one directory
type Manager struct {
	dir string
}

// DefaultDir returns the sessions directory under the application directory
func DefaultDir() (string, error) {
	dir, err := platform.AppDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate sessions directory: %w", err)
	}
	return filepath.Join(dir, "sessions"), nil
}

// NewManager creates a manager over dir, creating it if needed
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &Manager{dir: dir}, nil
}

// Dir returns the sessions directory
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the file path for a session ID
func (m *Manager) Path(id string) string {
	return filepath.Join(m.dir, id+".json")
}

// Save writes s into the sessions directory
func (m *Manager) Save(s *Session) error {
	if s.ID == "" {
		s.ID = generateSessionID()
	}
	return s.Save(m.Path(s.ID))
}

// Load loads a session by ID
func (m *Manager) Load(id string) (*Session, error) {
	return Load(m.Path(id))
}

// List returns all readable sessions, newest first
func (m *Manager) List() ([]*Session, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		s, err := m.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Skip invalid sessions
			continue
		}
		sessions = append(sessions, s)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})

	return sessions, nil
}

// Latest returns the most recent session
func (m *Manager) Latest() (*Session, error) {
	sessions, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("no sessions found in %s", m.dir)
	}
	return sessions[0], nil
}

// Delete removes a session by ID
func (m *Manager) Delete(id string) error {
	if err := os.Remove(m.Path(id)); err != nil {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// Resolve loads ref as a file path when it exists, otherwise as a session
// ID; an empty ref means the latest session
func (m *Manager) Resolve(ref string) (*Session, error) {
	if ref == "" {
		return m.Latest()
	}
	if _, err := os.Stat(ref); err == nil {
		return Load(ref)
	}
	return m.Load(ref)
}
