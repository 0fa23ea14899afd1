// Package watcher re-runs analysis when the source tree changes: it watches
// every directory under the source folder and, once media file activity has
// been quiet for the debounce period and the changed files stopped growing,
// invokes the analyze callback.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"camsort/internal/logging"
	"camsort/internal/messages"
)

// sourceKey is the single debounce key: any relevant change re-analyzes the whole tree.
const sourceKey = "source"

// WatchConfig contains watcher settings.
type WatchConfig struct {
	Debounce        time.Duration // Quiet period before re-analysis (default: 5s)
	StableThreshold time.Duration // File size stability threshold (default: 1s)
	IgnorePatterns  []string      // Glob patterns to ignore (e.g., "*.tmp", "*.part")
	Logger          logging.Logger
}

// DefaultWatchConfig returns a WatchConfig with sensible defaults.
func DefaultWatchConfig() *WatchConfig {
	return &WatchConfig{
		Debounce:        5 * time.Second,
		StableThreshold: time.Second,
		IgnorePatterns:  DefaultIgnorePatterns(),
		Logger:          logging.Nop(),
	}
}

// WatchSummary contains stats from the watch session.
type WatchSummary struct {
	Runs         int // Completed analyze runs
	Errors       int // Analyze runs that returned an error
	FilesChanged int // Relevant file events seen
	FilesSkipped int // Events ignored by the filter
	Duration     time.Duration
}

// AnalyzeFunc re-analyzes the source folder.
type AnalyzeFunc func() error

// Watcher monitors a source tree and triggers re-analysis.
type Watcher struct {
	config    *WatchConfig
	analyze   AnalyzeFunc
	fsWatcher *fsnotify.Watcher
	filter    *FileFilter
	debouncer *Debouncer
	stability *StabilityChecker
	root      string
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startTime time.Time

	// runMu serializes analyze runs.
	runMu sync.Mutex

	mu      sync.Mutex
	changed map[string]bool
	running bool
	summary WatchSummary
}

// New creates a Watcher calling analyze after changes settle.
// If config is nil, default configuration is used.
func New(config *WatchConfig, analyze AnalyzeFunc) *Watcher {
	if config == nil {
		config = DefaultWatchConfig()
	}
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}
	w := &Watcher{
		config:    config,
		analyze:   analyze,
		filter:    NewFileFilter(config.IgnorePatterns),
		stability: NewStabilityChecker(config.StableThreshold),
		changed:   make(map[string]bool),
	}
	w.debouncer = NewDebouncer(config.Debounce, func(string) { w.runAnalyze() })
	return w
}

// Start begins watching root and all of its subdirectories. It returns once
// the watches are installed; events are processed until Stop is called.
func (w *Watcher) Start(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.addTree(absRoot); err != nil {
		w.fsWatcher.Close()
		return err
	}

	w.root = absRoot
	w.startTime = time.Now()
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	w.config.Logger.Info(messages.WatchStarted, "source_folder", absRoot)

	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Run watches root until ctx is cancelled, then stops and returns the summary.
func (w *Watcher) Run(ctx context.Context, root string) (*WatchSummary, error) {
	if err := w.Start(root); err != nil {
		return nil, err
	}
	<-ctx.Done()
	return w.Stop(), nil
}

// Stop shuts the watcher down, waiting for an in-flight analyze run, and
// returns a summary of the session.
func (w *Watcher) Stop() *WatchSummary {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return &WatchSummary{}
	}
	w.running = false
	w.mu.Unlock()

	w.debouncer.CancelAll()
	w.cancel()
	w.fsWatcher.Close()
	w.wg.Wait()

	// Wait for a run started by the debouncer before the cancel.
	w.runMu.Lock()
	defer w.runMu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	summary := w.summary
	summary.Duration = time.Since(w.startTime)

	w.config.Logger.Info(messages.WatchStopped,
		"duration", summary.Duration.Round(time.Second).String(),
		"runs", summary.Runs)
	return &summary
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// addTree adds a watch for dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.filter.ShouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

// processEvents handles file system events from fsnotify.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.config.Logger.Warn(messages.OperationFailed, "operation", "watch", "e", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if isDir, err := statDir(event.Name); err == nil && isDir {
			if !w.filter.ShouldIgnore(event.Name) {
				if err := w.addTree(event.Name); err != nil {
					w.config.Logger.Warn(messages.OperationFailed, "operation", "watch", "e", err)
				}
				// Files copied in together with the directory produce no events of their own.
				w.noteChange("")
			}
			return
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	if !w.filter.IsRelevant(event.Name) {
		w.mu.Lock()
		w.summary.FilesSkipped++
		w.mu.Unlock()
		return
	}

	path := event.Name
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		path = ""
	}
	w.noteChange(path)
}

// noteChange records a relevant change and restarts the quiet period. An
// empty path records a change with no file to wait on.
func (w *Watcher) noteChange(path string) {
	w.mu.Lock()
	w.summary.FilesChanged++
	if path != "" {
		w.changed[path] = true
	}
	w.mu.Unlock()
	w.debouncer.Add(sourceKey)
}

// runAnalyze waits for the changed files to stabilize and calls analyze.
func (w *Watcher) runAnalyze() {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	if !w.IsRunning() {
		return
	}

	w.mu.Lock()
	paths := make([]string, 0, len(w.changed))
	for p := range w.changed {
		paths = append(paths, p)
	}
	w.changed = make(map[string]bool)
	w.mu.Unlock()
	sort.Strings(paths)

	if _, err := w.stability.WaitAll(w.ctx, paths); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.config.Logger.Warn(messages.OperationFailed, "operation", "watch", "e", err)
	}

	w.config.Logger.Info(messages.WatchChanged, "source_folder", w.root)
	err := w.analyze()

	w.mu.Lock()
	w.summary.Runs++
	if err != nil {
		w.summary.Errors++
	}
	w.mu.Unlock()
	if err != nil {
		w.config.Logger.Error(messages.OperationFailed, "operation", "analyze-all", "e", err)
	}
}
