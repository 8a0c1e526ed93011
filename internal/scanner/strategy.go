package scanner

import (
	"fmt"
	"strings"
	"time"
)

// Strategy decides which files of a duplicate group to keep
type Strategy int

const (
	KeepNewest Strategy = iota
	KeepOldest
	KeepAll
	KeepNone
)

func (s Strategy) String() string {
	switch s {
	case KeepNewest:
		return "newest"
	case KeepOldest:
		return "oldest"
	case KeepAll:
		return "keep-all"
	case KeepNone:
		return "keep-none"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts a strategy name to a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "newest", "keep-newest":
		return KeepNewest, nil
	case "oldest", "keep-oldest":
		return KeepOldest, nil
	case "all", "keep-all":
		return KeepAll, nil
	case "none", "keep-none":
		return KeepNone, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q (want newest, oldest, keep-all or keep-none)", name)
	}
}

// Select returns one keep flag per file, in the same order. KeepNewest and
// KeepOldest mark exactly one file of a non-empty group; a missing
// modification time sorts before every known time, and on equal times the
// first file in group order wins.
func Select(strategy Strategy, files []FileRecord) []bool {
	keep := make([]bool, len(files))

	switch strategy {
	case KeepAll:
		for i := range keep {
			keep[i] = true
		}
	case KeepNone:
	case KeepNewest:
		if idx := extremeIndex(files, func(a, b *time.Time) bool { return compareModTime(a, b) > 0 }); idx >= 0 {
			keep[idx] = true
		}
	case KeepOldest:
		if idx := extremeIndex(files, func(a, b *time.Time) bool { return compareModTime(a, b) < 0 }); idx >= 0 {
			keep[idx] = true
		}
	}

	return keep
}

// extremeIndex returns the first index whose time beats every earlier one
func extremeIndex(files []FileRecord, better func(a, b *time.Time) bool) int {
	best := -1
	for i := range files {
		if best < 0 || better(files[i].ModTime, files[best].ModTime) {
			best = i
		}
	}
	return best
}

// compareModTime orders optional times with nil below any present value
func compareModTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
