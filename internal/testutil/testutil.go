// Package testutil provides test helpers and fixtures for dupefinder tests.
// All file operations use t.TempDir() for safe, isolated testing.
package testutil

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// TestFixture holds paths to a temporary directory tree
type TestFixture struct {
	T       *testing.T
	RootDir string // Root temp directory (auto-cleaned)
}

// NewFixture creates a new test fixture rooted in a fresh temp directory
func NewFixture(t *testing.T) *TestFixture {
	t.Helper()

	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}

	return &TestFixture{
		T:       t,
		RootDir: root,
	}
}

// =============================================================================
// File Creation Helpers
// =============================================================================

// CreateFile creates a file with specified content and returns its path
func (f *TestFixture) CreateFile(relPath string, content []byte) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		f.T.Fatalf("failed to create file %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateFileWithAge creates a file and sets its modification time to the past
func (f *TestFixture) CreateFileWithAge(relPath string, content []byte, age time.Duration) string {
	f.T.Helper()
	return f.CreateFileWithModTime(relPath, content, time.Now().Add(-age))
}

// CreateFileWithModTime creates a file with an exact modification time
func (f *TestFixture) CreateFileWithModTime(relPath string, content []byte, modTime time.Time) string {
	f.T.Helper()

	fullPath := f.CreateFile(relPath, content)
	if err := os.Chtimes(fullPath, modTime, modTime); err != nil {
		f.T.Fatalf("failed to set file time for %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateRandomFile creates a file with random content
func (f *TestFixture) CreateRandomFile(relPath string, size int) string {
	f.T.Helper()
	return f.CreateFile(relPath, RandomBytes(size))
}

// CreateDuplicates writes the same content to every relPath and returns the
// full paths in argument order
func (f *TestFixture) CreateDuplicates(content []byte, relPaths ...string) []string {
	f.T.Helper()

	paths := make([]string, 0, len(relPaths))
	for _, rel := range relPaths {
		paths = append(paths, f.CreateFile(rel, content))
	}
	return paths
}

// CreateDir creates a directory and returns its path
func (f *TestFixture) CreateDir(relPath string) string {
	f.T.Helper()

	fullPath := filepath.Join(f.RootDir, relPath)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		f.T.Fatalf("failed to create directory %s: %v", fullPath, err)
	}

	return fullPath
}

// CreateSymlink creates a symlink pointing to target
func (f *TestFixture) CreateSymlink(target, linkPath string) string {
	f.T.Helper()

	fullLink := filepath.Join(f.RootDir, linkPath)
	if err := os.MkdirAll(filepath.Dir(fullLink), 0755); err != nil {
		f.T.Fatalf("failed to create directory for symlink: %v", err)
	}
	if err := os.Symlink(target, fullLink); err != nil {
		f.T.Skipf("symlinks not supported: %v", err)
	}

	return fullLink
}

// Path returns the full path for a relative path within the fixture
func (f *TestFixture) Path(relPath string) string {
	return filepath.Join(f.RootDir, relPath)
}

// =============================================================================
// Assertion Helpers
// =============================================================================

// FileExists checks if a file exists
func (f *TestFixture) FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// AssertFileExists fails the test if the file doesn't exist
func (f *TestFixture) AssertFileExists(path string) {
	f.T.Helper()
	if !f.FileExists(path) {
		f.T.Errorf("expected file to exist: %s", path)
	}
}

// AssertFileNotExists fails the test if the file exists
func (f *TestFixture) AssertFileNotExists(path string) {
	f.T.Helper()
	if f.FileExists(path) {
		f.T.Errorf("expected file to not exist: %s", path)
	}
}

// =============================================================================
// Fault Injection
// =============================================================================

// FailingFs wraps an afero.Fs and returns a fixed error for chosen paths
type FailingFs struct {
	afero.Fs

	mu         sync.Mutex
	openErrs   map[string]error
	removeErrs map[string]error
}

// NewFailingFs wraps base; use FailOpen and FailRemove to inject errors
func NewFailingFs(base afero.Fs) *FailingFs {
	return &FailingFs{
		Fs:         base,
		openErrs:   make(map[string]error),
		removeErrs: make(map[string]error),
	}
}

// FailOpen makes Open and OpenFile return err for path
func (fs *FailingFs) FailOpen(path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.openErrs[path] = err
}

// FailRemove makes Remove return err for path
func (fs *FailingFs) FailRemove(path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.removeErrs[path] = err
}

func (fs *FailingFs) lookup(m map[string]error, path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return m[path]
}

// Open implements afero.Fs
func (fs *FailingFs) Open(name string) (afero.File, error) {
	if err := fs.lookup(fs.openErrs, name); err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return fs.Fs.Open(name)
}

// OpenFile implements afero.Fs
func (fs *FailingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := fs.lookup(fs.openErrs, name); err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return fs.Fs.OpenFile(name, flag, perm)
}

// Remove implements afero.Fs
func (fs *FailingFs) Remove(name string) error {
	if err := fs.lookup(fs.removeErrs, name); err != nil {
		return &os.PathError{Op: "remove", Path: name, Err: err}
	}
	return fs.Fs.Remove(name)
}

// =============================================================================
// Misc
// =============================================================================

// RandomBytes returns size random bytes
func RandomBytes(size int) []byte {
	b := make([]byte, size)
	rand.Read(b)
	return b
}

// IsRoot returns true if running as root/admin
func IsRoot() bool {
	return os.Geteuid() == 0
}

// SkipIfRoot skips the test if running as root
func SkipIfRoot(t *testing.T) {
	t.Helper()
	if IsRoot() {
		t.Skip("skipping test when running as root")
	}
}
