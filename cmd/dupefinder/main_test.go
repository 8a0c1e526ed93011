package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fenilsonani/dupefinder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelWarn},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseSlogLevel(tt.in, slog.LevelWarn), tt.in)
	}
}

func TestAbsPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	got, err := AbsPath("sub")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "sub"), got)

	// "e" + combining acute composes to a single rune
	got, err = AbsPath("/tmp/cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/caf\u00e9", got)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		ok, err := confirm(strings.NewReader(tt.in), &out, "sure? ")
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%q", tt.in)
		assert.Equal(t, "sure? ", out.String())
	}
}

func TestLoadSettings_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
strategy: oldest
scan:
  max_threads: 2
  min_file_size: 4KiB
exclude_patterns: [".git"]
`), 0644))

	t.Setenv("DUPEFINDER_SCAN_MAX_THREADS", "3")
	t.Setenv("DUPEFINDER_SCAN_INCLUDE_HIDDEN", "true")

	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--strategy", "keep-none", "-x", "*.tmp", "-x", "vendor"}))

	cfg, err := loadSettings(root, cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "keep-none", cfg.Strategy, "flag beats file")
	assert.Equal(t, 3, cfg.Scan.MaxThreads, "env beats file")
	assert.True(t, cfg.Scan.IncludeHidden)
	assert.Equal(t, "4KiB", cfg.Scan.MinFileSize, "file value kept")
	assert.Equal(t, []string{"*.tmp", "vendor"}, cfg.ExcludePatterns)
	assert.Equal(t, 10, cfg.Log.MaxSize, "defaults fill unset keys")
}

func TestLoadSettings_Invalid(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--strategy", "biggest"}))

	_, err := loadSettings(root, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestScanAndClean(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	f := testutil.NewFixture(t)
	dupes := f.CreateDuplicates([]byte("duplicate content"), "a/one.txt", "b/two.txt")
	f.CreateFile("unique.txt", []byte("nothing like it"))
	logFile := filepath.Join(t.TempDir(), "test.log")

	exported := filepath.Join(t.TempDir(), "export.json")
	out := execute(t, "scan", f.RootDir, "-o", "json", "--save", exported, "--log-file", logFile)
	assert.Contains(t, out, `"total_groups": 1`)
	assert.Contains(t, out, "Session saved:")
	f.AssertFileExists(exported)

	out = execute(t, "report", "--session", exported, "-o", "summary", "--log-file", logFile)
	assert.Contains(t, out, "Duplicate Groups: 1")

	out = execute(t, "sessions", "--log-file", logFile)
	assert.Contains(t, out, f.RootDir)

	out = execute(t, "clean", "--dry-run", "--log-file", logFile)
	assert.Contains(t, out, "would be deleted")
	f.AssertFileExists(dupes[0])
	f.AssertFileExists(dupes[1])

	out = execute(t, "clean", "--force", "--log-file", logFile)
	assert.Contains(t, out, "1 files deleted")
	assert.Contains(t, out, "0 groups remain")
	assert.NotEqual(t, f.FileExists(dupes[0]), f.FileExists(dupes[1]), "exactly one copy survives")

	out = execute(t, "clean", "--log-file", logFile)
	assert.Contains(t, out, "Nothing is marked")
}

func TestCleanCancelled(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	f := testutil.NewFixture(t)
	dupes := f.CreateDuplicates([]byte("same"), "x", "y")
	logFile := filepath.Join(t.TempDir(), "test.log")

	execute(t, "scan", f.RootDir, "--log-file", logFile)
	out := execute(t, "clean", "--log-file", logFile)

	assert.Contains(t, out, "Cleanup cancelled")
	f.AssertFileExists(dupes[0])
	f.AssertFileExists(dupes[1])
}
