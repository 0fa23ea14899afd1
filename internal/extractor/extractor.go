// Package extractor produces the per-file attribute maps stored in results files.
package extractor

import (
	"fmt"
	"time"

	"github.com/spf13/afero"

	"camsort/internal/logging"
	"camsort/internal/media"
	"camsort/internal/messages"
	"camsort/internal/progress"
	"camsort/internal/results"
	"camsort/internal/scanner"
)

// AttributeExtractor produces a subset of a file's attributes.
type AttributeExtractor interface {
	Name() string
	Extract(path string) (map[string]string, error)
}

// FileFailure records a file that was skipped because extraction failed.
type FileFailure struct {
	Path string
	Err  error
}

func (f FileFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f FileFailure) Unwrap() error {
	return f.Err
}

// Options configures an Extractor.
type Options struct {
	Verbose  bool
	Location *time.Location // Zone file times are rendered in (default: time.Local)
	Logger   logging.Logger
	Progress progress.Listener
}

// Extractor runs the sub-extractors registered for each media kind.
type Extractor struct {
	byKind   map[media.Kind][]AttributeExtractor
	verbose  bool
	logger   logging.Logger
	progress progress.Listener
}

// New creates an Extractor over fs. Images get file times and capture tags;
// videos get file times only.
func New(fs afero.Fs, opts Options) *Extractor {
	times := NewFileTimes(fs, opts.Location)
	tags := NewCaptureTags(fs)
	return NewWithExtractors(map[media.Kind][]AttributeExtractor{
		media.Image: {times, tags},
		media.Video: {times},
	}, opts)
}

// NewWithExtractors creates an Extractor with an explicit sub-extractor registry.
func NewWithExtractors(byKind map[media.Kind][]AttributeExtractor, opts Options) *Extractor {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Progress == nil {
		opts.Progress = progress.Nop{}
	}
	return &Extractor{
		byKind:   byKind,
		verbose:  opts.Verbose,
		logger:   opts.Logger,
		progress: opts.Progress,
	}
}

// Extract builds the record for a single file. Unsupported extensions are an error.
func (e *Extractor) Extract(path string) (results.Record, error) {
	kind, ok := media.KindOf(path)
	if !ok {
		return results.Record{}, fmt.Errorf("unsupported file type: %s", path)
	}
	return e.extractKind(path, kind)
}

func (e *Extractor) extractKind(path string, kind media.Kind) (results.Record, error) {
	record := results.NewRecord(path)
	for _, sub := range e.byKind[kind] {
		attrs, err := sub.Extract(path)
		if err != nil {
			return results.Record{}, fmt.Errorf("%s: %w", sub.Name(), err)
		}
		for name, value := range attrs {
			record.Attributes[name] = value
		}
	}
	return record, nil
}

// ExtractAll extracts every entry in order. A failing file is logged, reported
// in the returned failures and left out of the result set.
func (e *Extractor) ExtractAll(entries []scanner.FileEntry) (results.ResultSet, []FileFailure) {
	rs := make(results.ResultSet, 0, len(entries))
	var failures []FileFailure

	e.progress.Start(len(entries))
	for _, entry := range entries {
		record, err := e.extractKind(entry.FullPath, entry.Kind)
		e.progress.Step(1)
		if err != nil {
			failures = append(failures, FileFailure{Path: entry.FullPath, Err: err})
			e.logger.Error(messages.FileFailed, "file_path", entry.FullPath, "e", err)
			continue
		}
		if e.verbose {
			e.logger.Info(messages.FileAnalyzed, "file_path", entry.FullPath, "features", record.String())
		}
		rs = append(rs, record)
	}
	return rs, failures
}
