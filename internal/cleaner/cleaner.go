package cleaner

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fenilsonani/dupefinder/internal/progress"
	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/security"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/spf13/afero"
)

// CleanResult represents the result of a clean operation
type CleanResult struct {
	DeletedFiles  []string
	DeletedSize   int64
	SkippedFiles  []string
	SkippedReason map[string]string
	Errors        []*DeletionError
	CriticalFiles []string // critical files that were deleted or would be
	GroupsTouched int
	DryRun        bool
}

// Gone returns every path that no longer exists after the run: deleted
// files plus files that were already missing
func (r *CleanResult) Gone() map[string]bool {
	gone := make(map[string]bool, len(r.DeletedFiles))
	if r.DryRun {
		return gone
	}
	for _, path := range r.DeletedFiles {
		gone[path] = true
	}
	for _, err := range r.Errors {
		if err.Reason == ErrorFileNotFound {
			gone[err.Path] = true
		}
	}
	return gone
}

func (r *CleanResult) skip(err *DeletionError) {
	r.Errors = append(r.Errors, err)
	r.SkippedFiles = append(r.SkippedFiles, err.Path)
	r.SkippedReason[err.Path] = err.UserMessage()
}

// Cleaner deletes the files a session marks as not kept
type Cleaner struct {
	fs          afero.Fs
	validator   *security.PathValidator
	manifest    *DeletionManifest
	logger      *slog.Logger
	sink        progress.Func
	dryRun      bool
	retryDelays []time.Duration
}

// New creates a new Cleaner over the OS filesystem
func New(dryRun bool) *Cleaner {
	return &Cleaner{
		fs:        afero.NewOsFs(),
		validator: security.NewPathValidator(),
		manifest:  NewDeletionManifest(),
		logger:    slog.Default(),
		dryRun:    dryRun,
		retryDelays: []time.Duration{
			100 * time.Millisecond,
			500 * time.Millisecond,
			2 * time.Second,
		},
	}
}

// SetFs replaces the filesystem files are deleted from
func (c *Cleaner) SetFs(fs afero.Fs) {
	c.fs = fs
}

// SetLogger sets a custom logger
func (c *Cleaner) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// SetProgress sets a sink receiving one event per processed file
func (c *Cleaner) SetProgress(fn progress.Func) {
	c.sink = fn
}

// AddProtectedPath refuses deletion of path and anything beneath it
func (c *Cleaner) AddProtectedPath(path string) {
	c.validator.AddProtectedPath(path)
}

// Manifest returns the record of files deleted so far
func (c *Cleaner) Manifest() *DeletionManifest {
	return c.manifest
}

// DryRun reports whether the cleaner only previews deletions
func (c *Cleaner) DryRun() bool {
	return c.dryRun
}

// Clean deletes every file whose keep flag is false. A failed file never
// stops the batch; each outcome is recorded in the result.
func (c *Cleaner) Clean(groups []session.Group) *CleanResult {
	result := &CleanResult{
		SkippedReason: make(map[string]string),
		DryRun:        c.dryRun,
	}

	total := 0
	for _, g := range groups {
		total += len(g.Marked())
	}
	tracker := progress.NewTracker(progress.PhaseCleaning, total, c.sink)

	for _, g := range groups {
		deletedInGroup := 0
		for _, file := range g.Marked() {
			if err := c.deleteFileWithRetry(file, result); err != nil {
				c.logger.Warn("failed to delete duplicate", "path", err.Path, "reason", err.Reason.String(), "error", err.Original)
				result.skip(err)
			} else {
				deletedInGroup++
				if file.IsCritical {
					result.CriticalFiles = append(result.CriticalFiles, file.Path)
				}
			}
			tracker.Tick(file.Path)
		}
		if deletedInGroup > 0 {
			result.GroupsTouched++
		}
	}

	return result
}

// CleanSession cleans s and, unless this is a dry run, prunes the deleted
// files from it
func (c *Cleaner) CleanSession(s *session.Session) *CleanResult {
	result := c.Clean(s.Groups)
	if !result.DryRun {
		removed := s.Prune(result.Gone())
		c.logger.Debug("pruned session", "id", s.ID, "groups_removed", removed)
	}
	return result
}

// deleteFileWithRetry attempts to delete a file with retries for transient errors
func (c *Cleaner) deleteFileWithRetry(file scanner.FileRecord, result *CleanResult) *DeletionError {
	var lastErr *DeletionError

	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		lastErr = c.deleteFile(file, result)
		if lastErr == nil || !lastErr.Retryable {
			return lastErr
		}

		if attempt < len(c.retryDelays) {
			c.logger.Debug("retrying busy file", "path", file.Path, "attempt", attempt+1)
			time.Sleep(c.retryDelays[attempt])
		}
	}

	return lastErr
}

// deleteFile removes one duplicate after re-checking it is still the file
// that was scanned
func (c *Cleaner) deleteFile(file scanner.FileRecord, result *CleanResult) *DeletionError {
	if err := c.validator.ValidatePathForDeletion(file.Path); err != nil {
		reason := ErrorInvalidPath
		if errors.Is(err, security.ErrProtectedPath) {
			reason = ErrorProtectedPath
		}
		return &DeletionError{Path: file.Path, Reason: reason, Original: err}
	}

	// Lstat so a file replaced by a symlink is never followed
	info, err := c.lstat(file.Path)
	if err != nil {
		return CategorizeError(file.Path, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return &DeletionError{
			Path:     file.Path,
			Reason:   ErrorInvalidPath,
			Original: fmt.Errorf("path is a symlink"),
		}
	}
	if !info.Mode().IsRegular() {
		return &DeletionError{
			Path:     file.Path,
			Reason:   ErrorIsDirectory,
			Original: fmt.Errorf("not a regular file"),
		}
	}
	if info.Size() != file.Size {
		return &DeletionError{
			Path:     file.Path,
			Reason:   ErrorInvalidPath,
			Original: fmt.Errorf("size changed since scan: %d != %d", info.Size(), file.Size),
		}
	}

	if !c.dryRun {
		if err := c.fs.Remove(file.Path); err != nil {
			return CategorizeError(file.Path, err)
		}
		c.manifest.Add(file.Path, file.Size)
	}

	result.DeletedFiles = append(result.DeletedFiles, file.Path)
	result.DeletedSize += file.Size
	return nil
}

func (c *Cleaner) lstat(path string) (os.FileInfo, error) {
	if lst, ok := c.fs.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(path)
		return info, err
	}
	return c.fs.Stat(path)
}
