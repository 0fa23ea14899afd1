// Package orchestrator runs the top-level camsort operations: analyze the
// source tree, classify the saved results and materialize the plan.
package orchestrator

import (
	"fmt"
	"time"

	"github.com/spf13/afero"

	"camsort/internal/audit"
	"camsort/internal/classifier"
	"camsort/internal/config"
	"camsort/internal/extractor"
	"camsort/internal/logging"
	"camsort/internal/messages"
	"camsort/internal/organizer"
	"camsort/internal/progress"
	"camsort/internal/results"
	"camsort/internal/scanner"
)

// Action names a top-level operation.
type Action string

const (
	// ActionFull analyzes, saves, reloads, classifies and copies.
	ActionFull Action = "full"
	// ActionFullMove is ActionFull with a move instead of a copy.
	ActionFullMove Action = "full-move"
	// ActionAnalyzeAll analyzes the source tree and saves the results.
	ActionAnalyzeAll Action = "analyze-all"
	// ActionClassify loads saved results and logs the plan.
	ActionClassify Action = "classify"
	// ActionCopy loads saved results, classifies and copies.
	ActionCopy Action = "copy"
	// ActionMove loads saved results, classifies and moves.
	ActionMove Action = "move"
)

// Actions lists every action in display order.
var Actions = []Action{ActionFull, ActionFullMove, ActionAnalyzeAll, ActionClassify, ActionCopy, ActionMove}

// Options configures a Runner. Zero values get defaults in New.
type Options struct {
	FS       afero.Fs
	Logger   logging.Logger
	Progress progress.Listener
	Location *time.Location
	Renderer messages.Renderer
}

// Runner executes operations against one set of settings. Runs of one Runner
// must not overlap.
type Runner struct {
	settings *config.Settings
	fs       afero.Fs
	logger   logging.Logger
	progress progress.Listener
	loc      *time.Location
	renderer messages.Renderer
}

// Analysis is the outcome of analyzing the source tree.
type Analysis struct {
	Results  results.ResultSet
	Failures []extractor.FileFailure
	Duration time.Duration
}

// New creates a Runner for settings.
func New(settings *config.Settings, opts Options) *Runner {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Progress == nil {
		opts.Progress = progress.Nop{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Renderer == nil {
		opts.Renderer = messages.English{}
	}
	return &Runner{
		settings: settings,
		fs:       opts.FS,
		logger:   opts.Logger,
		progress: opts.Progress,
		loc:      opts.Location,
		renderer: opts.Renderer,
	}
}

// Run logs the start banner, performs action and logs any failure.
func (r *Runner) Run(action Action) error {
	r.logger.Info(messages.Separator)
	r.logger.Info(messages.Started, "settings", r.settings.String())

	var err error
	switch action {
	case ActionFull:
		_, err = r.Full(organizer.ModeCopy)
	case ActionFullMove:
		_, err = r.Full(organizer.ModeMove)
	case ActionAnalyzeAll:
		_, err = r.AnalyzeAll()
	case ActionClassify:
		_, err = r.Classify()
	case ActionCopy:
		_, err = r.Copy()
	case ActionMove:
		_, err = r.Move()
	default:
		err = fmt.Errorf("unknown action %q", action)
	}

	if err != nil {
		r.logger.Error(messages.OperationFailed, "operation", string(action), "e", err)
	}
	return err
}

// AnalyzeAll scans the source folder, extracts every supported file and
// saves the results.
func (r *Runner) AnalyzeAll() (*Analysis, error) {
	start := time.Now()
	source := r.settings.SourceFolder
	r.logger.Info(messages.LookingThrough, "source_folder", source)

	entries, err := scanner.New(r.fs, scanner.ScanOptions{
		MaxDepth:      -1,
		SymlinkPolicy: r.settings.SymlinkPolicy,
		Logger:        r.logger,
	}).Scan(source)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", source, err)
	}

	ext := extractor.New(r.fs, extractor.Options{
		Verbose:  r.settings.Verbose,
		Location: r.loc,
		Logger:   r.logger,
		Progress: r.progress,
	})
	rs, failures := ext.ExtractAll(entries)

	analysis := &Analysis{Results: rs, Failures: failures, Duration: time.Since(start)}
	r.logger.Info(messages.Analyzed,
		"files_number", len(rs),
		"source_folder", source,
		"duration", formatElapsed(analysis.Duration))

	store := results.Open(r.fs, r.settings.ResultsFilePath)
	if err := store.Save(rs); err != nil {
		return analysis, fmt.Errorf("failed to save results: %w", err)
	}
	r.logger.Info(messages.Dumped,
		"files_number", len(rs),
		"possible_keys", len(rs.Columns()),
		"file_path", store.Location())

	return analysis, nil
}

// Load reads the saved results.
func (r *Runner) Load() (results.ResultSet, error) {
	store := results.Open(r.fs, r.settings.ResultsFilePath)
	rs, err := store.Load()
	if err != nil {
		return nil, err
	}
	if len(rs) == 0 {
		r.logger.Warn(messages.FoundNothing, "file_path", store.Location())
		return rs, nil
	}
	r.logger.Info(messages.FoundResults,
		"files_number", len(rs),
		"keys", len(rs.Columns()),
		"file_path", store.Location())
	return rs, nil
}

// Classify loads the saved results, classifies them and logs the plan.
func (r *Runner) Classify() (*classifier.Result, error) {
	rs, err := r.Load()
	if err != nil {
		return nil, err
	}
	return r.classify(rs)
}

func (r *Runner) classify(rs results.ResultSet) (*classifier.Result, error) {
	if len(rs) == 0 {
		r.logger.Warn(messages.NoResults)
	}

	result, err := classifier.Classify(rs, classifier.Options{
		MinMembers: r.settings.MinFolderFilesCount,
		MaxGap:     time.Duration(r.settings.MaxMinutesBetween) * time.Minute,
		Location:   r.loc,
		Verbose:    r.settings.Verbose,
		Logger:     r.logger,
		Renderer:   r.renderer,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info(messages.Total,
		"folders_len", len(result.Plan.Named()),
		"files_number", result.MiscCount())
	for _, folder := range Status(result.Plan, r.settings.TargetFolder).Folders {
		r.logger.Info(messages.PlanFolder, "folder_name", folder.Display, "files_number", folder.Total)
	}
	return result, nil
}

// Copy loads, classifies and copies into the target folder.
func (r *Runner) Copy() (*RunSummary, error) {
	return r.loadAndMaterialize(organizer.ModeCopy)
}

// Move loads, classifies and moves into the target folder.
func (r *Runner) Move() (*RunSummary, error) {
	return r.loadAndMaterialize(organizer.ModeMove)
}

func (r *Runner) loadAndMaterialize(mode organizer.Mode) (*RunSummary, error) {
	result, err := r.Classify()
	if err != nil {
		return nil, err
	}
	return r.Materialize(result.Plan, mode)
}

// Full analyzes the source folder, saves and reloads the results, then
// classifies and materializes them with mode.
func (r *Runner) Full(mode organizer.Mode) (*RunSummary, error) {
	if _, err := r.AnalyzeAll(); err != nil {
		return nil, err
	}
	return r.loadAndMaterialize(mode)
}

// Materialize copies or moves plan into the target folder, recording the run
// in the journal when one is configured.
func (r *Runner) Materialize(plan *classifier.Plan, mode organizer.Mode) (*RunSummary, error) {
	target := r.settings.TargetFolder
	journal, runID := r.startJournal(mode, target)

	opts := organizer.Options{
		Target:          target,
		Mode:            mode,
		ReplaceExisting: r.settings.IsReplaceTarget,
		FailurePolicy:   r.settings.FailurePolicy,
		CollisionPolicy: r.settings.CollisionPolicy,
		Logger:          r.logger,
		Progress:        r.progress,
	}
	if journal != nil {
		opts.Journal = journal
	}

	report, err := organizer.New(r.fs, opts).Materialize(plan)
	summary := GenerateSummary(report, plan, r.settings.Verbose)
	if err != nil {
		summary.Errors++
	}
	r.endJournal(journal, runID, err, summary)
	if err != nil {
		return summary, err
	}

	key := messages.Copied
	if mode == organizer.ModeMove {
		key = messages.Moved
	}
	r.logger.Info(key,
		"folders_number", summary.Folders,
		"files_number", summary.Files,
		"folder", target,
		"duration", formatElapsed(summary.Duration))
	for _, f := range report.Failures {
		r.logger.Warn(messages.FileSkipped, "file_path", f.Source, "e", f.Err)
	}
	return summary, nil
}

func (r *Runner) startJournal(mode organizer.Mode, target string) (*audit.Writer, audit.RunID) {
	if r.settings.JournalDir == "" {
		return nil, ""
	}
	cfg := audit.DefaultConfig()
	cfg.Directory = r.settings.JournalDir

	w, err := audit.NewWriter(cfg)
	if err != nil {
		r.logger.Warn(messages.JournalUnavailable, "e", err)
		return nil, ""
	}

	runMode := audit.RunModeCopy
	if mode == organizer.ModeMove {
		runMode = audit.RunModeMove
	}
	runID, err := w.StartRun(runMode, target)
	if err != nil {
		r.logger.Warn(messages.JournalUnavailable, "e", err)
		w.Close()
		return nil, ""
	}
	return w, runID
}

func (r *Runner) endJournal(w *audit.Writer, runID audit.RunID, runErr error, summary *RunSummary) {
	if w == nil {
		return
	}
	defer w.Close()

	status := audit.RunStatusCompleted
	if runErr != nil {
		status = audit.RunStatusFailed
	}
	if err := w.EndRun(runID, status, summary.JournalSummary()); err != nil {
		r.logger.Warn(messages.JournalUnavailable, "e", err)
	}
}

// formatElapsed renders an operation duration for log messages.
func formatElapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
