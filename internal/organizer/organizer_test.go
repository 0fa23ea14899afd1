package organizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"camsort/internal/audit"
	"camsort/internal/classifier"
	"camsort/internal/progress"
)

// recordingJournal keeps the operations it is asked to record.
type recordingJournal struct {
	copies  []string
	moves   []string
	errors  []string
	reasons []audit.ReasonCode
}

func (j *recordingJournal) RecordCopy(source, dest string, reason audit.ReasonCode) error {
	j.copies = append(j.copies, source+" -> "+dest)
	j.reasons = append(j.reasons, reason)
	return nil
}

func (j *recordingJournal) RecordMove(source, dest string, reason audit.ReasonCode) error {
	j.moves = append(j.moves, source+" -> "+dest)
	j.reasons = append(j.reasons, reason)
	return nil
}

func (j *recordingJournal) RecordError(source, errType, _, _ string) error {
	j.errors = append(j.errors, errType+" "+source)
	return nil
}

func samplePlan(t *testing.T, fs afero.Fs) *classifier.Plan {
	t.Helper()
	for _, name := range []string{"a.jpg", "b.jpg", "c.mov", "d.jpg"} {
		require.NoError(t, afero.WriteFile(fs, "/src/"+name, []byte("content of "+name), 0644))
	}
	return &classifier.Plan{Folders: []classifier.Folder{
		{
			Name: "2024-05-01 10:00:00   3 files on 00:07:00 all Light",
			Actions: []classifier.FileAction{
				{Source: "/src/a.jpg", TargetName: "2024-05-01 10:00:00 Light Unknown orientation  a.jpg"},
				{Source: "/src/b.jpg", TargetName: "2024-05-01 10:05:00 Light Unknown orientation  b.jpg"},
				{Source: "/src/c.mov", TargetName: "2024-05-01 10:07:00 Light Unknown orientation  c.mov"},
			},
		},
		{
			Misc: true,
			Actions: []classifier.FileAction{
				{Source: "/src/d.jpg", TargetName: "2024-05-01 14:00:00 Light Unknown orientation  d.jpg"},
			},
		},
	}}
}

// listFiles returns target-relative paths of all regular files under root.
func listFiles(t *testing.T, fs afero.Fs, root string) []string {
	t.Helper()
	var files []string
	require.NoError(t, afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, rel)
		}
		return nil
	}))
	sort.Strings(files)
	return files
}

func TestMaterializeCopy(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := samplePlan(t, fs)
	journal := &recordingJournal{}
	rec := &progress.Recorder{}

	report, err := New(fs, Options{Target: "/out", Mode: ModeCopy, Journal: journal, Progress: rec}).Materialize(plan)
	require.NoError(t, err)
	require.Equal(t, 2, report.Folders)
	require.Equal(t, 4, report.Files)
	require.Empty(t, report.Failures)

	require.Equal(t, []string{
		"2024-05-01 10:00:00   3 files on 00:07:00 all Light/2024-05-01 10:00:00 Light Unknown orientation  a.jpg",
		"2024-05-01 10:00:00   3 files on 00:07:00 all Light/2024-05-01 10:05:00 Light Unknown orientation  b.jpg",
		"2024-05-01 10:00:00   3 files on 00:07:00 all Light/2024-05-01 10:07:00 Light Unknown orientation  c.mov",
		"2024-05-01 14:00:00 Light Unknown orientation  d.jpg",
	}, listFiles(t, fs, "/out"))

	data, err := afero.ReadFile(fs, "/out/2024-05-01 14:00:00 Light Unknown orientation  d.jpg")
	require.NoError(t, err)
	require.Equal(t, "content of d.jpg", string(data))

	// Sources are untouched by a copy.
	require.True(t, FileExists(fs, "/src/a.jpg"))
	require.Len(t, journal.copies, 4)

	// One step per folder, sized by its file count.
	require.Equal(t, []int{4}, rec.Totals)
	require.Equal(t, []int{3, 1}, rec.Steps)
}

func TestMaterializeMove(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := samplePlan(t, fs)
	journal := &recordingJournal{}

	report, err := New(fs, Options{Target: "/out", Mode: ModeMove, Journal: journal}).Materialize(plan)
	require.NoError(t, err)
	require.Equal(t, 4, report.Files)
	require.Len(t, journal.moves, 4)
	require.Empty(t, listFiles(t, fs, "/src"))
	require.Len(t, listFiles(t, fs, "/out"), 4)
}

func TestFolderCountIncludesExistingFolders(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := samplePlan(t, fs)
	require.NoError(t, fs.MkdirAll(filepath.Join("/out", plan.Folders[0].Name), 0755))

	report, err := New(fs, Options{Target: "/out"}).Materialize(plan)
	require.NoError(t, err)
	require.Equal(t, 2, report.Folders)
}

// Feature: materializer, Property 2: Copying twice into a fresh target gives identical results
func TestCopyIdempotence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("copy into a replaced target is repeatable and leaves sources intact", prop.ForAll(
		func(sizes []int) bool {
			fs := afero.NewMemMapFs()
			plan := &classifier.Plan{}
			sources := map[string]string{}
			for i, size := range sizes {
				folder := classifier.Folder{Name: fmt.Sprintf("session %d", i), Misc: i%3 == 2}
				for j := 0; j < size; j++ {
					src := fmt.Sprintf("/src/%d_%d.jpg", i, j)
					content := fmt.Sprintf("%d/%d", i, j)
					if err := afero.WriteFile(fs, src, []byte(content), 0644); err != nil {
						return false
					}
					sources[src] = content
					folder.Actions = append(folder.Actions, classifier.FileAction{Source: src, TargetName: filepath.Base(src)})
				}
				plan.Folders = append(plan.Folders, folder)
			}

			snapshot := func() (map[string]string, *Report, bool) {
				m := New(fs, Options{Target: "/out", ReplaceExisting: true})
				report, err := m.Materialize(plan)
				if err != nil {
					return nil, nil, false
				}
				contents := map[string]string{}
				err = afero.Walk(fs, "/out", func(path string, info os.FileInfo, err error) error {
					if err != nil || info.IsDir() {
						return err
					}
					data, err := afero.ReadFile(fs, path)
					contents[path] = string(data)
					return err
				})
				return contents, report, err == nil
			}

			first, r1, ok1 := snapshot()
			second, r2, ok2 := snapshot()
			if !ok1 || !ok2 || r1.Files != r2.Files || r1.Folders != r2.Folders {
				return false
			}
			if r1.Files != plan.FileCount() || len(first) != len(second) {
				return false
			}
			for path, content := range first {
				if second[path] != content {
					return false
				}
			}
			for src, content := range sources {
				data, err := afero.ReadFile(fs, src)
				if err != nil || string(data) != content {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(4, gen.IntRange(0, 4)),
	))

	properties.TestingRun(t)
}

func TestReplaceExistingRemovesUnrelatedFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := samplePlan(t, fs)
	require.NoError(t, afero.WriteFile(fs, "/out/stale.jpg", []byte("old"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/out/old session/x.jpg", []byte("old"), 0644))

	_, err := New(fs, Options{Target: "/out", ReplaceExisting: true}).Materialize(plan)
	require.NoError(t, err)

	files := listFiles(t, fs, "/out")
	require.Len(t, files, plan.FileCount())
	require.NotContains(t, files, "stale.jpg")
	require.NotContains(t, files, "old session/x.jpg")
}

func TestReplaceRefusesTargetContainingSources(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := samplePlan(t, fs)

	for _, target := range []string{"/", "/src", "/src/"} {
		report, err := New(fs, Options{Target: target, ReplaceExisting: true}).Materialize(plan)

		var merr *MaterializeError
		require.True(t, errors.As(err, &merr), target)
		require.Equal(t, ReplaceFailed, merr.Type)
		require.Equal(t, "/src/a.jpg", merr.Path)
		require.Zero(t, report.Files)
	}

	// Sources survive untouched.
	require.Equal(t, []string{"a.jpg", "b.jpg", "c.mov", "d.jpg"}, listFiles(t, fs, "/src"))

	// A sibling target is still replaced normally.
	_, err := New(fs, Options{Target: "/srcsorted", ReplaceExisting: true}).Materialize(plan)
	require.NoError(t, err)
}

func TestIsWithin(t *testing.T) {
	require.True(t, IsWithin("/photos", "/photos"))
	require.True(t, IsWithin("/photos", "/photos/card/a.jpg"))
	require.True(t, IsWithin("/photos/", "/photos/card"))
	require.False(t, IsWithin("/photos", "/photos2/a.jpg"))
	require.False(t, IsWithin("/photos/card", "/photos/a.jpg"))
	require.False(t, IsWithin("/photos", "/..photos/a.jpg"))
}

func TestWithoutReplaceKeepsExistingFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := samplePlan(t, fs)
	require.NoError(t, afero.WriteFile(fs, "/out/stale.jpg", []byte("old"), 0644))

	_, err := New(fs, Options{Target: "/out"}).Materialize(plan)
	require.NoError(t, err)
	require.Contains(t, listFiles(t, fs, "/out"), "stale.jpg")
}

func TestAbortOnFirstFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := samplePlan(t, fs)
	require.NoError(t, fs.Remove("/src/b.jpg"))
	journal := &recordingJournal{}

	report, err := New(fs, Options{Target: "/out", Journal: journal}).Materialize(plan)

	var merr *MaterializeError
	require.True(t, errors.As(err, &merr))
	require.Equal(t, SourceNotFound, merr.Type)
	require.Equal(t, 1, report.Files)
	require.Equal(t, 1, report.Folders)
	require.Equal(t, []string{"SOURCE_NOT_FOUND /src/b.jpg"}, journal.errors)
	require.Len(t, listFiles(t, fs, "/out"), 1)
}

func TestContinuePolicyCollectsFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := samplePlan(t, fs)
	require.NoError(t, fs.Remove("/src/b.jpg"))

	report, err := New(fs, Options{
		Target:        "/out",
		Mode:          ModeMove,
		FailurePolicy: FailurePolicyContinue,
	}).Materialize(plan)
	require.NoError(t, err)
	require.Equal(t, 3, report.Files)
	require.Equal(t, 2, report.Folders)
	require.Len(t, report.Failures, 1)
	require.Equal(t, "/src/b.jpg", report.Failures[0].Source)
}

func TestCollisionPolicies(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/one/IMG_1.jpg", []byte("first"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/src/two/IMG_1.jpg", []byte("second"), 0644))
	plan := &classifier.Plan{Folders: []classifier.Folder{{
		Name: "s",
		Actions: []classifier.FileAction{
			{Source: "/src/one/IMG_1.jpg", TargetName: "t IMG_1.jpg"},
			{Source: "/src/two/IMG_1.jpg", TargetName: "t IMG_1.jpg"},
		},
	}}}

	report, err := New(fs, Options{Target: "/over"}).Materialize(plan)
	require.NoError(t, err)
	require.Equal(t, 0, report.Renamed)
	require.Equal(t, []string{"s/t IMG_1.jpg"}, listFiles(t, fs, "/over"))
	data, _ := afero.ReadFile(fs, "/over/s/t IMG_1.jpg")
	require.Equal(t, "second", string(data))

	journal := &recordingJournal{}
	report, err = New(fs, Options{Target: "/ren", CollisionPolicy: CollisionPolicyRename, Journal: journal}).Materialize(plan)
	require.NoError(t, err)
	require.Equal(t, 1, report.Renamed)
	require.Equal(t, []string{"s/t IMG_1.jpg", "s/t IMG_1_duplicate.jpg"}, listFiles(t, fs, "/ren"))
	require.Equal(t, []audit.ReasonCode{"", audit.ReasonDuplicateRenamed}, journal.reasons)
}

func TestMaterializeWritesJournal(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := samplePlan(t, fs)

	w, err := audit.NewWriter(audit.Config{Directory: t.TempDir()})
	require.NoError(t, err)
	defer w.Close()
	runID, err := w.StartRun(audit.RunModeCopy, "/out")
	require.NoError(t, err)

	_, err = New(fs, Options{Target: "/out", Journal: w}).Materialize(plan)
	require.NoError(t, err)
	require.NoError(t, w.EndRun(runID, audit.RunStatusCompleted, audit.RunSummary{Folders: 2, Files: 4}))

	events, err := audit.NewReader(filepath.Dir(w.LogPath())).GetRun(runID)
	require.NoError(t, err)
	copies := 0
	for _, e := range events {
		if e.EventType == audit.EventCopy {
			copies++
		}
	}
	require.Equal(t, 4, copies)
}
