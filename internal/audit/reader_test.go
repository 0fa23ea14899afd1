package audit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderMissingDirectory(t *testing.T) {
	runs, err := NewReader(filepath.Join(t.TempDir(), "none")).ListRuns()
	require.NoError(t, err)
	require.Empty(t, runs)

	_, err = NewReader(filepath.Join(t.TempDir(), "none")).GetLatestRun()
	require.Error(t, err)
}

func TestReaderListRuns(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Config{Directory: dir, RotationSize: 400})
	require.NoError(t, err)

	first, err := w.StartRun(RunModeCopy, "/out")
	require.NoError(t, err)
	require.NoError(t, w.RecordCopy("/src/a.jpg", "/out/f1/a.jpg", ""))
	require.NoError(t, w.RecordCopy("/src/b.jpg", "/out/f2/b.jpg", ""))
	require.NoError(t, w.EndRun(first, RunStatusCompleted, RunSummary{Folders: 2, Files: 2}))

	second, err := w.StartRun(RunModeMove, "/moved")
	require.NoError(t, err)
	require.NoError(t, w.RecordMove("/src/c.jpg", "/moved/f/c.jpg", ""))
	require.NoError(t, w.RecordError("/src/d.jpg", "MOVE_FAILED", "boom", "move"))
	require.NoError(t, w.Close())

	r := NewReader(dir)
	runs, err := r.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	require.Equal(t, first, runs[0].RunID)
	require.Equal(t, RunModeCopy, runs[0].Mode)
	require.Equal(t, "/out", runs[0].Target)
	require.Equal(t, RunStatusCompleted, runs[0].Status)
	require.NotNil(t, runs[0].EndTime)
	require.Equal(t, RunSummary{Folders: 2, Files: 2}, runs[0].Summary)

	// An unfinished run is counted from its events.
	require.Equal(t, second, runs[1].RunID)
	require.Equal(t, RunModeMove, runs[1].Mode)
	require.Equal(t, RunStatusInProgress, runs[1].Status)
	require.Nil(t, runs[1].EndTime)
	require.Equal(t, RunSummary{Folders: 1, Files: 1, Errors: 1}, runs[1].Summary)

	latest, err := r.GetLatestRun()
	require.NoError(t, err)
	require.Equal(t, second, latest.RunID)

	events, err := r.GetRun(first)
	require.NoError(t, err)
	require.Equal(t, EventRunStart, events[0].EventType)
	require.Equal(t, EventRunEnd, events[len(events)-1].EventType)

	_, err = r.GetRun("missing")
	require.Error(t, err)
}
