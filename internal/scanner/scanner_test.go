package scanner

import (
	"bytes"
	"errors"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/fenilsonani/dupefinder/internal/progress"
	"github.com/fenilsonani/dupefinder/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFs builds an in-memory tree from path -> content
func memFs(t *testing.T, files map[string][]byte) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, content, 0644))
	}
	return fs
}

func newMemScanner(fs afero.Fs, opts Options) *Scanner {
	s := New(opts)
	s.SetFs(fs)
	return s
}

func groupPaths(g DuplicateGroup) []string {
	paths := make([]string, len(g.Files))
	for i, f := range g.Files {
		paths[i] = f.Path
	}
	return paths
}

// =============================================================================
// Scan Scenarios
// =============================================================================

func TestScan_FindsIdenticalPair(t *testing.T) {
	same := bytes.Repeat([]byte("x"), 100)
	other := bytes.Repeat([]byte("y"), 100)

	fs := memFs(t, map[string][]byte{
		"/data/a.txt": same,
		"/data/b.txt": same,
		"/data/c.txt": other,
	})

	result, err := newMemScanner(fs, DefaultOptions()).Scan("/data", nil)
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Equal(t, int64(100), group.Size)
	assert.Equal(t, []string{"/data/a.txt", "/data/b.txt"}, groupPaths(group))
	assert.Len(t, group.Digest, 64)
	assert.Equal(t, 3, result.Discovered)
	assert.Equal(t, 3, result.Candidates)
	assert.Empty(t, result.Errors)
	assert.Equal(t, int64(100), result.TotalWasted())
}

func TestScan_CriticalPair(t *testing.T) {
	content := []byte("Host *\n  ServerAliveInterval 60\n")

	fs := memFs(t, map[string][]byte{
		"/home/user/.ssh/config":     content,
		"/home/user/.ssh/config.old": content,
	})

	opts := DefaultOptions()
	opts.IncludeHidden = true

	result, err := newMemScanner(fs, opts).Scan("/home/user", nil)
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	for _, f := range result.Groups[0].Files {
		assert.True(t, f.IsCritical, "expected %s to be critical", f.Path)
	}
	assert.True(t, result.Groups[0].HasCritical())
}

func TestScan_MinFileSizeFiltersSmallFiles(t *testing.T) {
	content := []byte("0123456789")

	fs := memFs(t, map[string][]byte{
		"/data/one.txt": content,
		"/data/two.txt": content,
	})

	opts := DefaultOptions()
	opts.MinFileSize = 1024

	result, err := newMemScanner(fs, opts).Scan("/data", nil)
	require.NoError(t, err)

	assert.Empty(t, result.Groups)
	assert.Equal(t, 0, result.Discovered)
}

func TestScan_ZeroMinSizeGroupsEmptyFiles(t *testing.T) {
	fs := memFs(t, map[string][]byte{
		"/data/empty1": {},
		"/data/empty2": {},
	})

	opts := DefaultOptions()
	opts.MinFileSize = 0

	result, err := newMemScanner(fs, opts).Scan("/data", nil)
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, int64(0), result.Groups[0].Size)
	assert.Equal(t, int64(0), result.TotalWasted())
}

func TestScan_HashFailureDropsFile(t *testing.T) {
	content := bytes.Repeat([]byte("z"), 64)

	base := memFs(t, map[string][]byte{
		"/data/a.bin": content,
		"/data/b.bin": content,
	})
	fs := testutil.NewFailingFs(base)
	fs.FailOpen("/data/b.bin", syscall.EACCES)

	result, err := newMemScanner(fs, DefaultOptions()).Scan("/data", nil)
	require.NoError(t, err)

	assert.Empty(t, result.Groups)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, KindHash, result.Errors[0].Kind)
	assert.Equal(t, "/data/b.bin", result.Errors[0].Path)
	assert.False(t, result.Errors[0].Fatal())
	assert.True(t, errors.Is(result.Errors[0], syscall.EACCES))
}

func TestScan_HashFailureKeepsRemainingGroup(t *testing.T) {
	content := bytes.Repeat([]byte("q"), 32)

	base := memFs(t, map[string][]byte{
		"/data/a": content,
		"/data/b": content,
		"/data/c": content,
	})
	fs := testutil.NewFailingFs(base)
	fs.FailOpen("/data/b", syscall.EIO)

	result, err := newMemScanner(fs, DefaultOptions()).Scan("/data", nil)
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, []string{"/data/a", "/data/c"}, groupPaths(result.Groups[0]))
	assert.Len(t, result.Errors, 1)
}

func TestScan_SameSizeDifferentContent(t *testing.T) {
	fs := memFs(t, map[string][]byte{
		"/data/a": []byte("aaaa"),
		"/data/b": []byte("bbbb"),
		"/data/c": []byte("cccc"),
	})

	result, err := newMemScanner(fs, DefaultOptions()).Scan("/data", nil)
	require.NoError(t, err)

	assert.Empty(t, result.Groups)
	assert.Equal(t, 3, result.Candidates)
}

func TestScan_MultipleGroupsInOneBucket(t *testing.T) {
	fs := memFs(t, map[string][]byte{
		"/data/a1": []byte("aaaa"),
		"/data/b1": []byte("bbbb"),
		"/data/a2": []byte("aaaa"),
		"/data/b2": []byte("bbbb"),
	})

	result, err := newMemScanner(fs, DefaultOptions()).Scan("/data", nil)
	require.NoError(t, err)

	require.Len(t, result.Groups, 2)
	assert.Equal(t, []string{"/data/a1", "/data/a2"}, groupPaths(result.Groups[0]))
	assert.Equal(t, []string{"/data/b1", "/data/b2"}, groupPaths(result.Groups[1]))
	assert.NotEqual(t, result.Groups[0].Digest, result.Groups[1].Digest)
}

func TestScan_GroupMembersShareSizeAndDigest(t *testing.T) {
	small := []byte("dup")
	large := bytes.Repeat([]byte("L"), 5000)

	fs := memFs(t, map[string][]byte{
		"/data/s1":     small,
		"/data/sub/s2": small,
		"/data/l1":     large,
		"/data/sub/l2": large,
		"/data/unique": []byte("only one of these"),
	})

	opts := DefaultOptions()
	opts.BufferSize = 7

	result, err := newMemScanner(fs, opts).Scan("/data", nil)
	require.NoError(t, err)
	require.Len(t, result.Groups, 2)

	hasher := NewHasher(fs, DefaultBufferSize)
	for _, g := range result.Groups {
		assert.GreaterOrEqual(t, len(g.Files), 2)
		for _, f := range g.Files {
			assert.Equal(t, g.Size, f.Size)
			digest, err := hasher.Hash(f.Path)
			require.NoError(t, err)
			assert.Equal(t, g.Digest, digest)
		}
	}
	assert.Equal(t, 5, result.Discovered)
	assert.Equal(t, 4, result.Candidates)
}

func TestScan_NoDuplicates(t *testing.T) {
	fs := memFs(t, map[string][]byte{
		"/data/a": []byte("1"),
		"/data/b": []byte("22"),
	})

	result, err := newMemScanner(fs, DefaultOptions()).Scan("/data", nil)
	require.NoError(t, err)

	assert.Empty(t, result.Groups)
	assert.Equal(t, 0, result.Candidates)
}

// =============================================================================
// Errors and State
// =============================================================================

func TestScan_MissingRoot(t *testing.T) {
	s := newMemScanner(afero.NewMemMapFs(), DefaultOptions())

	result, err := s.Scan("/does/not/exist", nil)
	require.Error(t, err)
	assert.Nil(t, result)

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, KindIO, scanErr.Kind)
	assert.True(t, scanErr.Fatal())
	assert.Equal(t, StateFailed, s.State())
}

func TestScan_UnreadableRoot(t *testing.T) {
	base := memFs(t, map[string][]byte{"/data/a": []byte("a")})
	fs := testutil.NewFailingFs(base)
	fs.FailOpen("/data", syscall.EACCES)

	_, err := newMemScanner(fs, DefaultOptions()).Scan("/data", nil)

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, KindIO, scanErr.Kind)
}

func TestScan_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.BufferSize = 0

	s := newMemScanner(afero.NewMemMapFs(), opts)
	_, err := s.Scan("/", nil)
	assert.Error(t, err)
	assert.Equal(t, StateFailed, s.State())
}

func TestScan_StateTransitions(t *testing.T) {
	fs := memFs(t, map[string][]byte{"/data/a": []byte("a")})
	s := newMemScanner(fs, DefaultOptions())

	assert.Equal(t, StateIdle, s.State())
	_, err := s.Scan("/data", nil)
	require.NoError(t, err)
	assert.Equal(t, StateDone, s.State())
}

func TestScan_RepeatableOnSameTree(t *testing.T) {
	content := []byte("repeat me")
	fs := memFs(t, map[string][]byte{
		"/data/x": content,
		"/data/y": content,
	})
	s := newMemScanner(fs, DefaultOptions())

	first, err := s.Scan("/data", nil)
	require.NoError(t, err)
	second, err := s.Scan("/data", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Groups, second.Groups)
}

// =============================================================================
// Progress Reporting
// =============================================================================

func TestScan_ProgressEvents(t *testing.T) {
	content := bytes.Repeat([]byte("p"), 10)
	files := map[string][]byte{
		"/data/unique": []byte("not a duplicate at all"),
	}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files["/data/"+name] = content
	}
	fs := memFs(t, files)

	opts := DefaultOptions()
	opts.MaxThreads = 3

	var (
		mu     sync.Mutex
		events []progress.Event
	)
	sink := func(e progress.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	result, err := newMemScanner(fs, opts).Scan("/data", sink)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)

	require.Len(t, events, 7)

	discovery := events[0]
	assert.Equal(t, progress.PhaseDiscovery, discovery.Phase)
	assert.Equal(t, 6, discovery.Current)
	assert.Equal(t, 6, discovery.Total)
	assert.Equal(t, DiscoveryCompleteLabel, discovery.CurrentFile)

	for i, e := range events[1:] {
		assert.Equal(t, progress.PhaseHashing, e.Phase)
		assert.Equal(t, i+1, e.Current, "hashing events must count up by one")
		assert.Equal(t, 6, e.Total)
		assert.NotEmpty(t, e.CurrentFile)
		assert.LessOrEqual(t, e.Current, e.Total)
	}
}

func TestScan_ProgressWithoutCandidates(t *testing.T) {
	fs := memFs(t, map[string][]byte{"/data/a": []byte("alone")})

	var events []progress.Event
	_, err := newMemScanner(fs, DefaultOptions()).Scan("/data", func(e progress.Event) {
		events = append(events, e)
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, progress.PhaseDiscovery, events[0].Phase)
	assert.Equal(t, 0, events[0].Total)
}

// =============================================================================
// Real Filesystem
// =============================================================================

func TestScan_OsFs(t *testing.T) {
	f := testutil.NewFixture(t)
	content := testutil.RandomBytes(4096)

	paths := f.CreateDuplicates(content, "photos/img.jpg", "backup/img (1).jpg", "backup/old/img.jpg")
	f.CreateRandomFile("photos/other.jpg", 4096)
	f.CreateFile("notes.txt", []byte("short"))

	result, err := New(DefaultOptions()).Scan(f.RootDir, nil)
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	assert.ElementsMatch(t, paths, groupPaths(result.Groups[0]))
	for _, file := range result.Groups[0].Files {
		require.NotNil(t, file.ModTime)
	}
}

func TestScan_OsFsModTimes(t *testing.T) {
	f := testutil.NewFixture(t)
	content := []byte("versioned content")
	oldTime := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newTime := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	oldPath := f.CreateFileWithModTime("a/old.txt", content, oldTime)
	newPath := f.CreateFileWithModTime("b/new.txt", content, newTime)

	result, err := New(DefaultOptions()).Scan(f.RootDir, nil)
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)

	files := result.Groups[0].Files
	newest := files[indexOf(Select(KeepNewest, files))]
	oldest := files[indexOf(Select(KeepOldest, files))]
	assert.Equal(t, newPath, newest.Path)
	assert.Equal(t, oldPath, oldest.Path)
}

func indexOf(keep []bool) int {
	for i, k := range keep {
		if k {
			return i
		}
	}
	return -1
}
