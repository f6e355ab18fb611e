package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	s := openTestStore(t)

	run := &Run{ID: "r1", URL: "https://example.com/", Scope: "full"}
	require.NoError(t, s.Create(run))

	got, err := s.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, "https://example.com/", got.URL)
	assert.False(t, got.StartedAt.IsZero())
}

func TestFinish(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(&Run{ID: "r1", URL: "https://example.com/"}))

	require.NoError(t, s.Finish("r1", StatusCompleted, 7, "/runs/r1/report.md"))

	got, err := s.Get("r1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 7, got.BugCount)
	assert.Equal(t, "/runs/r1/report.md", got.ReportPath)
	require.NotNil(t, got.FinishedAt)
}

func TestFinishUnknownRun(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Finish("missing", StatusFailed, 0, ""))
}

func TestActive(t *testing.T) {
	s := openTestStore(t)

	active, err := s.Active()
	require.NoError(t, err)
	assert.Nil(t, active, "empty store has no active run")

	require.NoError(t, s.Create(&Run{ID: "r1", URL: "https://example.com/"}))
	active, err = s.Active()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "r1", active.ID)

	require.NoError(t, s.Finish("r1", StatusFailed, 0, ""))
	active, err = s.Active()
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.Create(&Run{
			ID: id, URL: "https://example.com/", StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
		require.NoError(t, s.Finish(id, StatusCompleted, 0, ""))
	}

	runs, err := s.List(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, "r2", runs[1].ID)
}
