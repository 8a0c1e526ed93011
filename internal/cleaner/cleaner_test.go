package cleaner

import (
	"bytes"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/fenilsonani/dupefinder/internal/progress"
	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// groupOf builds a session group over existing paths with the given keep flags
func groupOf(t *testing.T, size int64, paths []string, keep ...bool) session.Group {
	t.Helper()
	require.Len(t, keep, len(paths))

	files := make([]scanner.FileRecord, len(paths))
	for i, p := range paths {
		files[i] = scanner.FileRecord{Path: p, Size: size}
	}
	return session.Group{
		DuplicateGroup: scanner.DuplicateGroup{Size: size, Digest: "digest", Files: files},
		Keep:           keep,
	}
}

func newTestCleaner(dryRun bool) *Cleaner {
	c := New(dryRun)
	c.retryDelays = []time.Duration{0, 0}
	return c
}

// =============================================================================
// Clean Tests
// =============================================================================

func TestClean_DeletesUnkeptFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	content := []byte("duplicate content")
	paths := f.CreateDuplicates(content, "a.txt", "b.txt", "sub/c.txt")

	c := newTestCleaner(false)
	result := c.Clean([]session.Group{groupOf(t, int64(len(content)), paths, true, false, false)})

	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{paths[1], paths[2]}, result.DeletedFiles)
	assert.Equal(t, int64(2*len(content)), result.DeletedSize)
	assert.Equal(t, 1, result.GroupsTouched)
	assert.False(t, result.DryRun)

	f.AssertFileExists(paths[0])
	f.AssertFileNotExists(paths[1])
	f.AssertFileNotExists(paths[2])

	assert.Len(t, c.Manifest().Files, 2)
	assert.Equal(t, int64(2*len(content)), c.Manifest().TotalSize)
}

func TestClean_DryRunDeletesNothing(t *testing.T) {
	f := testutil.NewFixture(t)
	content := []byte("preview")
	paths := f.CreateDuplicates(content, "x", "y")

	c := newTestCleaner(true)
	result := c.Clean([]session.Group{groupOf(t, int64(len(content)), paths, false, true)})

	assert.True(t, result.DryRun)
	assert.Equal(t, []string{paths[0]}, result.DeletedFiles)
	assert.Empty(t, result.Gone())
	assert.Empty(t, c.Manifest().Files)
	f.AssertFileExists(paths[0])
	f.AssertFileExists(paths[1])
}

func TestClean_KeepAllIsNoop(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("same"), "1", "2")

	result := newTestCleaner(false).Clean([]session.Group{groupOf(t, 4, paths, true, true)})

	assert.Empty(t, result.DeletedFiles)
	assert.Equal(t, 0, result.GroupsTouched)
	f.AssertFileExists(paths[0])
	f.AssertFileExists(paths[1])
}

func TestClean_ReportsCriticalFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	content := []byte("Host *\n")
	paths := f.CreateDuplicates(content, ".ssh/config", ".ssh/config.bak")

	g := groupOf(t, int64(len(content)), paths, true, false)
	g.Files[0].IsCritical = true
	g.Files[1].IsCritical = true

	result := newTestCleaner(true).Clean([]session.Group{g})
	assert.Equal(t, []string{paths[1]}, result.CriticalFiles)
}

func TestClean_MissingFile(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("gone"), "keep", "lost")
	require.NoError(t, os.Remove(paths[1]))

	result := newTestCleaner(false).Clean([]session.Group{groupOf(t, 4, paths, true, false)})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrorFileNotFound, result.Errors[0].Reason)
	assert.True(t, result.Gone()[paths[1]])
	assert.Contains(t, result.SkippedReason[paths[1]], "Already deleted")
}

func TestClean_ProtectedPath(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("vault"), "open/a", "vault/b")

	c := newTestCleaner(false)
	c.AddProtectedPath(f.Path("vault"))

	result := c.Clean([]session.Group{groupOf(t, 5, paths, false, false)})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrorProtectedPath, result.Errors[0].Reason)
	assert.Equal(t, paths[1], result.Errors[0].Path)
	f.AssertFileNotExists(paths[0])
	f.AssertFileExists(paths[1])
}

func TestClean_RelativePathRejected(t *testing.T) {
	result := newTestCleaner(false).Clean([]session.Group{groupOf(t, 1, []string{"rel/a", "rel/b"}, true, false)})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrorInvalidPath, result.Errors[0].Reason)
}

func TestClean_SymlinkNotFollowed(t *testing.T) {
	f := testutil.NewFixture(t)
	target := f.CreateFile("target.txt", []byte("precious"))
	original := f.CreateFile("copy.txt", []byte("precious"))

	require.NoError(t, os.Remove(original))
	f.CreateSymlink(target, "copy.txt")

	result := newTestCleaner(false).Clean([]session.Group{groupOf(t, 8, []string{target, original}, true, false)})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrorInvalidPath, result.Errors[0].Reason)
	f.AssertFileExists(original)
	f.AssertFileExists(target)
}

func TestClean_SizeChangedSinceScan(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("1234"), "a", "b")
	f.CreateFile("b", []byte("now different and longer"))

	result := newTestCleaner(false).Clean([]session.Group{groupOf(t, 4, paths, true, false)})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrorInvalidPath, result.Errors[0].Reason)
	f.AssertFileExists(paths[1])
}

func TestClean_PermissionDeniedContinuesBatch(t *testing.T) {
	testutil.SkipIfRoot(t)

	f := testutil.NewFixture(t)
	content := []byte("locked")
	locked := f.CreateDuplicates(content, "locked/a", "locked/b")
	free := f.CreateDuplicates(content, "free/a", "free/b")

	lockedDir := f.Path("locked")
	require.NoError(t, os.Chmod(lockedDir, 0555))
	t.Cleanup(func() { os.Chmod(lockedDir, 0755) })

	size := int64(len(content))
	result := newTestCleaner(false).Clean([]session.Group{
		groupOf(t, size, locked, true, false),
		groupOf(t, size, free, true, false),
	})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrorPermissionDenied, result.Errors[0].Reason)
	assert.Equal(t, []string{free[1]}, result.DeletedFiles)
	assert.Equal(t, 1, result.GroupsTouched)
	f.AssertFileExists(locked[1])
	f.AssertFileNotExists(free[1])
}

func TestClean_BusyFileRetried(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/dupefinder-test", 0755))
	for _, p := range []string{"/dupefinder-test/a", "/dupefinder-test/b"} {
		require.NoError(t, afero.WriteFile(base, p, []byte("busy"), 0644))
	}
	fs := testutil.NewFailingFs(base)
	fs.FailRemove("/dupefinder-test/b", syscall.EBUSY)

	c := newTestCleaner(false)
	c.SetFs(fs)

	result := c.Clean([]session.Group{groupOf(t, 4, []string{"/dupefinder-test/a", "/dupefinder-test/b"}, false, false)})

	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrorFileInUse, result.Errors[0].Reason)
	assert.True(t, result.Errors[0].Retryable)
	assert.Equal(t, []string{"/dupefinder-test/a"}, result.DeletedFiles)

	exists, err := afero.Exists(base, "/dupefinder-test/b")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClean_ProgressEvents(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("p"), "1", "2", "3", "4")

	var (
		mu     sync.Mutex
		events []progress.Event
	)
	c := newTestCleaner(true)
	c.SetProgress(func(e progress.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	c.Clean([]session.Group{groupOf(t, 1, paths, true, false, false, false)})

	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, progress.PhaseCleaning, e.Phase)
		assert.Equal(t, i+1, e.Current)
		assert.Equal(t, 3, e.Total)
	}
}

// =============================================================================
// Session Tests
// =============================================================================

func TestCleanSession_PrunesDeletedFiles(t *testing.T) {
	f := testutil.NewFixture(t)
	a := f.CreateDuplicates([]byte("AAAA"), "a1", "a2", "a3")
	b := f.CreateDuplicates([]byte("BB"), "b1", "b2")

	s := &session.Session{
		ID: "test",
		Groups: []session.Group{
			groupOf(t, 4, a, true, false, true),
			groupOf(t, 2, b, false, true),
		},
	}

	result := newTestCleaner(false).CleanSession(s)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, result.GroupsTouched)

	require.Len(t, s.Groups, 1)
	assert.Equal(t, []string{a[0], a[2]}, []string{s.Groups[0].Files[0].Path, s.Groups[0].Files[1].Path})
	assert.Equal(t, int64(0), s.Reclaimable())
}

func TestCleanSession_DryRunLeavesSession(t *testing.T) {
	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("dry"), "1", "2")

	s := &session.Session{Groups: []session.Group{groupOf(t, 3, paths, true, false)}}
	newTestCleaner(true).CleanSession(s)

	require.Len(t, s.Groups, 1)
	assert.Len(t, s.Groups[0].Files, 2)
}

// =============================================================================
// Manifest Tests
// =============================================================================

func TestDeletionManifest(t *testing.T) {
	m := NewDeletionManifest()
	m.Add("/tmp/a", 1024)
	m.Add("/tmp/b", 2048)

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	out := buf.String()
	assert.Contains(t, out, "Total Files: 2")
	assert.Contains(t, out, "3.0 KiB (3072 bytes)")
	assert.Contains(t, out, "/tmp/b | 2048 bytes")

	f := testutil.NewFixture(t)
	path := f.Path("manifest.txt")
	require.NoError(t, m.Save(path))
	f.AssertFileExists(path)
}
