package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/dupefinder/internal/platform"
)

// ErrProtectedPath marks a deletion refused because of a protected path
var ErrProtectedPath = errors.New("protected path")

// PathValidator refuses deletions of system paths and user-protected trees
type PathValidator struct {
	protectedPaths []string
}

// NewPathValidator creates a validator protecting the current platform's
// system directories
func NewPathValidator() *PathValidator {
	return &PathValidator{
		protectedPaths: platform.SystemPaths(platform.Detect()),
	}
}

// ValidatePathForDeletion checks a duplicate candidate before it is removed
func (pv *PathValidator) ValidatePathForDeletion(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	if filepath.Clean(path) != path {
		return fmt.Errorf("path contains suspicious elements: %s", path)
	}

	// Resolve symlinked parents so /safe/link/../etc style paths are caught.
	resolved, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to resolve symlinks: %w", err)
		}
		resolved = filepath.Dir(path)
	}
	resolved = filepath.Join(resolved, filepath.Base(path))

	for _, candidate := range []string{path, resolved} {
		if err := pv.checkProtectedPaths(candidate); err != nil {
			return err
		}
	}

	return nil
}

// checkProtectedPaths rejects protected roots and anything beneath them
func (pv *PathValidator) checkProtectedPaths(cleanPath string) error {
	for _, protected := range pv.protectedPaths {
		if cleanPath == protected {
			return fmt.Errorf("refusing to delete %w: %s", ErrProtectedPath, cleanPath)
		}
		if protected == "/" {
			continue
		}
		if strings.HasPrefix(cleanPath, protected+string(filepath.Separator)) {
			return fmt.Errorf("refusing to delete file under %w %s: %s", ErrProtectedPath, protected, cleanPath)
		}
	}

	return nil
}

// IsProtectedPath checks if a path is a protected path or lies under one
func (pv *PathValidator) IsProtectedPath(path string) bool {
	return pv.checkProtectedPaths(filepath.Clean(path)) != nil
}

// AddProtectedPath adds a custom protected path
func (pv *PathValidator) AddProtectedPath(path string) {
	pv.protectedPaths = append(pv.protectedPaths, filepath.Clean(path))
}

// ValidateGlobPattern validates that an exclude pattern is a usable basename glob
func ValidateGlobPattern(pattern string) error {
	if strings.Contains(pattern, "..") {
		return fmt.Errorf("glob pattern contains directory traversal: %s", pattern)
	}

	if _, err := filepath.Match(pattern, "test"); err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}

	return nil
}
