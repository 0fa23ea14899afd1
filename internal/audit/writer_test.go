package audit

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

// uuidV4Regex matches xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx where y is 8, 9, a or b.
var uuidV4Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// Feature: run-journal, Property 1: Run IDs are unique UUID v4 strings
func TestRunIDUniquenessAndFormat(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("generated run IDs are unique and match UUID v4", prop.ForAll(
		func(count int) bool {
			seen := make(map[RunID]bool)
			for i := 0; i < count; i++ {
				runID, err := GenerateRunID()
				if err != nil || !uuidV4Regex.MatchString(string(runID)) || seen[runID] {
					return false
				}
				seen[runID] = true
			}
			return true
		},
		gen.IntRange(10, 50),
	))

	properties.TestingRun(t)
}

func readLines(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		e, err := UnmarshalJSONLine(sc.Bytes())
		require.NoError(t, err)
		events = append(events, *e)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestNewWriterInitializesJournal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")

	w, err := NewWriter(Config{Directory: dir})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	events := readLines(t, filepath.Join(dir, activeLogName))
	require.Len(t, events, 1)
	require.Equal(t, EventLogInitialized, events[0].EventType)

	// Reopening an existing journal does not initialize it again.
	w, err = NewWriter(Config{Directory: dir})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Len(t, readLines(t, filepath.Join(dir, activeLogName)), 1)
}

func TestWriterRunLifecycle(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Config{Directory: dir})
	require.NoError(t, err)
	defer w.Close()

	require.Nil(t, w.CurrentRunID())

	runID, err := w.StartRun(RunModeCopy, "/out")
	require.NoError(t, err)
	require.Equal(t, runID, *w.CurrentRunID())

	require.NoError(t, w.RecordCopy("/src/a.jpg", "/out/f/a.jpg", ""))
	require.NoError(t, w.RecordCopy("/src/b.jpg", "/out/f/b_duplicate.jpg", ReasonDuplicateRenamed))
	require.NoError(t, w.RecordError("/src/c.jpg", "COPY_FAILED", "disk full", "copy"))
	require.NoError(t, w.EndRun(runID, RunStatusCompleted, RunSummary{Folders: 1, Files: 2, Errors: 1}))
	require.Nil(t, w.CurrentRunID())

	events := readLines(t, w.LogPath())
	require.Len(t, events, 6)

	types := make([]EventType, len(events))
	for i, e := range events {
		types[i] = e.EventType
	}
	require.Equal(t, []EventType{
		EventLogInitialized, EventRunStart, EventCopy, EventCopy, EventError, EventRunEnd,
	}, types)

	require.Equal(t, "COPY", events[1].Metadata["mode"])
	require.Equal(t, "/out", events[1].Metadata["target"])
	require.Equal(t, ReasonDuplicateRenamed, events[3].ReasonCode)
	require.Equal(t, StatusFailure, events[4].Status)
	require.Equal(t, "disk full", events[4].ErrorDetails.ErrorMessage)
	require.Equal(t, "2", events[5].Metadata["files"])
	for _, e := range events[1:] {
		require.Equal(t, runID, e.RunID)
	}
}

func TestRecordOutsideRun(t *testing.T) {
	w, err := NewWriter(Config{Directory: t.TempDir()})
	require.NoError(t, err)
	defer w.Close()

	require.True(t, errors.Is(w.RecordMove("/a", "/b", ""), ErrNoActiveRun))
	require.True(t, errors.Is(w.RecordError("/a", "X", "y", "move"), ErrNoActiveRun))
}

func TestWriterRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Config{Directory: dir, RotationSize: 512})
	require.NoError(t, err)

	runID, err := w.StartRun(RunModeMove, "/out")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, w.RecordMove("/src/some/long/path/file.jpg", "/out/folder/file.jpg", ""))
	}
	require.NoError(t, w.EndRun(runID, RunStatusCompleted, RunSummary{Folders: 1, Files: 20}))
	require.NoError(t, w.Close())

	segments, err := DiscoverSegments(dir)
	require.NoError(t, err)
	require.NotEmpty(t, segments)

	files, err := GetAllLogFiles(dir)
	require.NoError(t, err)

	moves := 0
	rotations := 0
	for _, f := range files {
		for _, e := range readLines(t, f) {
			switch e.EventType {
			case EventMove:
				moves++
			case EventRotation:
				rotations++
			}
		}
	}
	require.Equal(t, 20, moves)
	require.Equal(t, len(segments), rotations)
}

func TestEventJSONOmitsEmptyFields(t *testing.T) {
	data, err := Event{
		RunID:     "r",
		EventType: EventRunStart,
		Status:    StatusSuccess,
	}.MarshalJSON()
	require.NoError(t, err)

	s := string(data)
	require.NotContains(t, s, "sourcePath")
	require.NotContains(t, s, "destinationPath")
	require.NotContains(t, s, "reasonCode")
	require.NotContains(t, s, "errorDetails")
	require.NotContains(t, s, "metadata")
}
