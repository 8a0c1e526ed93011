// Package session holds duplicate groups together with the user's keep or
// delete decision for every file, and persists them as JSON.
package session

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/dupefinder/internal/scanner"
)

// Group is a duplicate group plus one keep flag per file
type Group struct {
	scanner.DuplicateGroup `yaml:",inline"`
	Keep                   []bool `json:"keep" yaml:"keep"`
}

// NewGroup wraps g with every file marked keep
func NewGroup(g scanner.DuplicateGroup) Group {
	keep := make([]bool, len(g.Files))
	for i := range keep {
		keep[i] = true
	}
	return Group{DuplicateGroup: g, Keep: keep}
}

// Apply replaces the group's selection with the strategy's choice
func (g *Group) Apply(strategy scanner.Strategy) {
	g.Keep = scanner.Select(strategy, g.Files)
}

// Toggle flips the keep flag of file i
func (g *Group) Toggle(i int) {
	if i >= 0 && i < len(g.Keep) {
		g.Keep[i] = !g.Keep[i]
	}
}

// Marked returns the files not kept, in group order
func (g Group) Marked() []scanner.FileRecord {
	var marked []scanner.FileRecord
	for i, f := range g.Files {
		if !g.Keep[i] {
			marked = append(marked, f)
		}
	}
	return marked
}

// Reclaimable returns the bytes freed by deleting every unkept file
func (g Group) Reclaimable() int64 {
	return g.Size * int64(len(g.Marked()))
}

func (g Group) validate() error {
	if len(g.Files) < 2 {
		return fmt.Errorf("group %s has %d files, need at least 2", g.Digest, len(g.Files))
	}
	if len(g.Keep) != len(g.Files) {
		return fmt.Errorf("group %s has %d keep flags for %d files", g.Digest, len(g.Keep), len(g.Files))
	}
	return nil
}

// Session is the saved outcome of one scan
type Session struct {
	ID        string          `json:"id" yaml:"id"`
	Root      string          `json:"root" yaml:"root"`
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
	Options   scanner.Options `json:"options" yaml:"options"`
	Groups    []Group         `json:"groups" yaml:"groups"`
	Errors    []string        `json:"errors,omitempty" yaml:"errors,omitempty"` // per-file scan failures
}

// New builds a session from a scan result with every file marked keep
func New(root string, opts scanner.Options, result *scanner.Result) *Session {
	s := &Session{
		ID:        generateSessionID(),
		Root:      root,
		Timestamp: time.Now(),
		Options:   opts,
		Groups:    make([]Group, 0, len(result.Groups)),
	}
	for _, g := range result.Groups {
		s.Groups = append(s.Groups, NewGroup(g))
	}
	for _, err := range result.Errors {
		s.Errors = append(s.Errors, err.Error())
	}
	return s
}

// ApplyStrategy applies strategy to every group
func (s *Session) ApplyStrategy(strategy scanner.Strategy) {
	for i := range s.Groups {
		s.Groups[i].Apply(strategy)
	}
}

// Reclaimable sums Reclaimable over all groups
func (s *Session) Reclaimable() int64 {
	var total int64
	for _, g := range s.Groups {
		total += g.Reclaimable()
	}
	return total
}

// MarkedCount returns the number of files marked for deletion
func (s *Session) MarkedCount() int {
	count := 0
	for _, g := range s.Groups {
		count += len(g.Marked())
	}
	return count
}

// FileCount returns the number of files across all groups
func (s *Session) FileCount() int {
	count := 0
	for _, g := range s.Groups {
		count += len(g.Files)
	}
	return count
}

// TotalWasted sums the wasted bytes of every group
func (s *Session) TotalWasted() int64 {
	var total int64
	for _, g := range s.Groups {
		total += g.Wasted()
	}
	return total
}

// Prune drops deleted files from their groups and removes any group left
// with fewer than two files. It returns the number of groups removed.
func (s *Session) Prune(deleted map[string]bool) int {
	if len(deleted) == 0 {
		return 0
	}

	kept := s.Groups[:0]
	removed := 0
	for _, g := range s.Groups {
		var files []scanner.FileRecord
		var keep []bool
		for i, f := range g.Files {
			if deleted[f.Path] {
				continue
			}
			files = append(files, f)
			keep = append(keep, g.Keep[i])
		}

		if len(files) < 2 {
			removed++
			continue
		}

		g.Files = files
		g.Keep = keep
		kept = append(kept, g)
	}
	s.Groups = kept

	return removed
}

// Export writes the session as indented JSON
func (s *Session) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return nil
}

// Import reads a session written by Export. Groups saved without
// selections are marked keep.
func Import(r io.Reader) (*Session, error) {
	var s Session
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	for i := range s.Groups {
		if s.Groups[i].Keep == nil {
			s.Groups[i] = NewGroup(s.Groups[i].DuplicateGroup)
		}
		if err := s.Groups[i].validate(); err != nil {
			return nil, fmt.Errorf("invalid session: %w", err)
		}
	}
	if s.Groups == nil {
		s.Groups = []Group{}
	}

	return &s, nil
}

// Save writes the session to path, creating parent directories
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	defer file.Close()

	if err := s.Export(file); err != nil {
		return err
	}
	return file.Close()
}

// Load reads a session file written by Save
func Load(path string) (*Session, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	defer file.Close()

	return Import(file)
}

func generateSessionID() string {
	return fmt.Sprintf("session_%d", time.Now().UnixNano())
}
