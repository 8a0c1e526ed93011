package scanner

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/dupefinder/internal/security"
	"github.com/spf13/afero"
)

// Walker enumerates regular files under a root, applying the hidden,
// exclude and minimum-size filters
type Walker struct {
	fs     afero.Fs
	opts   Options
	logger *slog.Logger
}

// NewWalker creates a walker over the given filesystem
func NewWalker(fs afero.Fs, opts Options, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		fs:     fs,
		opts:   opts,
		logger: logger,
	}
}

// Walk calls fn for each surviving file in traversal order. Only a root
// that cannot be opened fails the walk; unreadable entries are skipped.
func (w *Walker) Walk(root string, fn func(FileRecord)) error {
	info, err := w.fs.Stat(root)
	if err != nil {
		return &ScanError{Kind: KindIO, Path: root, Err: err}
	}
	if info.IsDir() {
		dir, err := w.fs.Open(root)
		if err != nil {
			return &ScanError{Kind: KindIO, Path: root, Err: err}
		}
		dir.Close()
	}

	err = afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			w.logger.Debug("skipping unreadable entry", "path", path, "error", err)
			return nil
		}

		if path != root && w.shouldSkip(info.Name()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		if info.Size() < w.opts.MinFileSize {
			return nil
		}

		fn(newFileRecord(path, info))
		return nil
	})
	if err != nil {
		return &ScanError{Kind: KindTraversal, Path: root, Err: err}
	}

	return nil
}

// shouldSkip applies the hidden and exclude filters to a basename
func (w *Walker) shouldSkip(name string) bool {
	if !w.opts.IncludeHidden && isHidden(name) {
		return true
	}
	for _, pattern := range w.opts.Exclude {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

func newFileRecord(path string, info os.FileInfo) FileRecord {
	record := FileRecord{
		Path:       path,
		Size:       info.Size(),
		IsCritical: security.IsCritical(path),
	}
	if mt := info.ModTime(); !mt.IsZero() {
		record.ModTime = &mt
	}
	return record
}

// isHidden checks if a file is hidden
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
