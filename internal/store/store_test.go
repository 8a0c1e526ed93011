package store

import (
	"context"
	"testing"
	"time"

	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/session"
	"github.com/fenilsonani/dupefinder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(testutil.NewFixture(t).Path("sessions.duckdb"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func utc(year int) *time.Time {
	t := time.Date(year, 5, 6, 7, 8, 9, 0, time.UTC)
	return &t
}

func sampleSession(id string, created time.Time) *session.Session {
	result := &scanner.Result{
		Groups: []scanner.DuplicateGroup{
			{
				Size:   1024,
				Digest: "d1",
				Files: []scanner.FileRecord{
					{Path: "/p/a.jpg", Size: 1024, ModTime: utc(2021)},
					{Path: "/p/b.jpg", Size: 1024, ModTime: utc(2023)},
				},
			},
			{
				Size:   10,
				Digest: "d2",
				Files: []scanner.FileRecord{
					{Path: "/h/.ssh/config", Size: 10, IsCritical: true},
					{Path: "/h/.ssh/config~", Size: 10, ModTime: utc(2020), IsCritical: true},
					{Path: "/h/.ssh/config.orig", Size: 10, ModTime: utc(2019), IsCritical: true},
				},
			},
		},
	}

	opts := scanner.DefaultOptions()
	opts.Exclude = []string{"node_modules"}

	s := session.New("/p", opts, result)
	s.Errors = []string{"hash error: /p/locked.jpg: permission denied"}
	s.ID = id
	s.Timestamp = created
	s.ApplyStrategy(scanner.KeepNewest)
	return s
}

// =============================================================================
// Store Tests
// =============================================================================

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	want := sampleSession("s1", time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))
	require.NoError(t, st.SaveSession(ctx, want))

	got, err := st.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_SaveReplacesExisting(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	sess := sampleSession("s1", time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))
	require.NoError(t, st.SaveSession(ctx, sess))

	sess.Prune(map[string]bool{"/p/a.jpg": true})
	require.NoError(t, st.SaveSession(ctx, sess))

	got, err := st.LoadSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Groups, 1)
	assert.Equal(t, "d2", got.Groups[0].Digest)
}

func TestStore_LoadMissing(t *testing.T) {
	st := openTestStore(t)

	_, err := st.LoadSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.LatestSession(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListAndLatest(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSession(ctx, sampleSession("old", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, st.SaveSession(ctx, sampleSession("new", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))

	summaries, err := st.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "new", summaries[0].ID)
	assert.Equal(t, 2, summaries[0].Groups)
	assert.Equal(t, 5, summaries[0].Files)
	// newest kept: one 1024-byte file and two 10-byte files marked
	assert.Equal(t, int64(1044), summaries[0].Reclaimable)

	latest, err := st.LatestSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.ID)
}

func TestStore_DeleteSession(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSession(ctx, sampleSession("gone", time.Now())))
	require.NoError(t, st.DeleteSession(ctx, "gone"))

	_, err := st.LoadSession(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}
