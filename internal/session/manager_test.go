package session

import (
	"testing"
	"time"

	"github.com/fenilsonani/dupefinder/internal/scanner"
	"github.com/fenilsonani/dupefinder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SaveListLatest(t *testing.T) {
	f := testutil.NewFixture(t)
	m, err := NewManager(f.Path("sessions"))
	require.NoError(t, err)

	older := New("/old", scanner.DefaultOptions(), sampleResult())
	older.ID = "older"
	older.Timestamp = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	newer := New("/new", scanner.DefaultOptions(), sampleResult())
	newer.ID = "newer"
	newer.Timestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Save(older))
	require.NoError(t, m.Save(newer))
	f.CreateFile("sessions/garbage.json", []byte("{not json"))
	f.CreateFile("sessions/readme.txt", []byte("ignored"))

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].ID)
	assert.Equal(t, "older", list[1].ID)

	latest, err := m.Latest()
	require.NoError(t, err)
	assert.Equal(t, "/new", latest.Root)
}

func TestManager_LatestEmpty(t *testing.T) {
	m, err := NewManager(testutil.NewFixture(t).Path("empty"))
	require.NoError(t, err)

	_, err = m.Latest()
	assert.Error(t, err)
}

func TestManager_Resolve(t *testing.T) {
	f := testutil.NewFixture(t)
	m, err := NewManager(f.Path("sessions"))
	require.NoError(t, err)

	s := New("/d", scanner.DefaultOptions(), sampleResult())
	s.ID = "by-id"
	require.NoError(t, m.Save(s))

	external := New("/ext", scanner.DefaultOptions(), sampleResult())
	extPath := f.Path("elsewhere/export.json")
	require.NoError(t, external.Save(extPath))

	got, err := m.Resolve("by-id")
	require.NoError(t, err)
	assert.Equal(t, "/d", got.Root)

	got, err = m.Resolve(extPath)
	require.NoError(t, err)
	assert.Equal(t, "/ext", got.Root)

	got, err = m.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "by-id", got.ID)

	_, err = m.Resolve("unknown")
	assert.Error(t, err)
}

func TestManager_Delete(t *testing.T) {
	f := testutil.NewFixture(t)
	m, err := NewManager(f.Path("sessions"))
	require.NoError(t, err)

	s := New("/d", scanner.DefaultOptions(), sampleResult())
	require.NoError(t, m.Save(s))
	f.AssertFileExists(m.Path(s.ID))

	require.NoError(t, m.Delete(s.ID))
	f.AssertFileNotExists(m.Path(s.ID))
	assert.Error(t, m.Delete(s.ID))
}
