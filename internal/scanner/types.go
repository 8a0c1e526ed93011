package scanner

import (
	"fmt"
	"time"
)

// DefaultBufferSize is the read chunk size used when hashing
const DefaultBufferSize = 64 * 1024

// Options controls a single scan. It is read-only while a scan runs.
type Options struct {
	BufferSize    int      `json:"buffer_size" yaml:"buffer_size"`
	IncludeHidden bool     `json:"include_hidden" yaml:"include_hidden"`
	MinFileSize   int64    `json:"min_file_size" yaml:"min_file_size"`
	MaxThreads    int      `json:"max_threads,omitempty" yaml:"max_threads,omitempty"` // 0 means runtime.NumCPU()
	Exclude       []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`         // basename globs pruned during discovery
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		BufferSize:    DefaultBufferSize,
		IncludeHidden: false,
		MinFileSize:   1,
		MaxThreads:    0,
	}
}

// Validate checks option ranges
func (o Options) Validate() error {
	if o.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be > 0, got %d", o.BufferSize)
	}
	if o.MinFileSize < 0 {
		return fmt.Errorf("min file size must be >= 0, got %d", o.MinFileSize)
	}
	if o.MaxThreads < 0 {
		return fmt.Errorf("max threads must be >= 0, got %d", o.MaxThreads)
	}
	return nil
}

// FileRecord describes a regular file found during discovery. Records are
// never modified after discovery.
type FileRecord struct {
	Path       string     `json:"path" yaml:"path"`
	Size       int64      `json:"size" yaml:"size"`
	ModTime    *time.Time `json:"modified_time,omitempty" yaml:"modified_time,omitempty"`
	IsCritical bool       `json:"is_critical" yaml:"is_critical"`
}

// DuplicateGroup holds two or more files with identical size and content.
// Files are in discovery order.
type DuplicateGroup struct {
	Size   int64        `json:"size" yaml:"size"`
	Digest string       `json:"digest" yaml:"digest"`
	Files  []FileRecord `json:"files" yaml:"files"`
}

// HasCritical reports whether any member is flagged critical
func (g DuplicateGroup) HasCritical() bool {
	for _, f := range g.Files {
		if f.IsCritical {
			return true
		}
	}
	return false
}

// Wasted returns the bytes held by all copies beyond the first
func (g DuplicateGroup) Wasted() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Files)-1)
}

// Result is the outcome of a completed scan
type Result struct {
	Groups     []DuplicateGroup
	Errors     []*ScanError // per-file, non-fatal
	Discovered int          // files indexed by size
	Candidates int          // files that shared a size with another file
}

// TotalWasted sums Wasted over all groups
func (r *Result) TotalWasted() int64 {
	var total int64
	for _, g := range r.Groups {
		total += g.Wasted()
	}
	return total
}

// State is the orchestrator lifecycle
type State int32

const (
	StateIdle State = iota
	StateDiscovering
	StateHashing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateHashing:
		return "hashing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
