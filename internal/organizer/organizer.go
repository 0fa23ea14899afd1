// Package organizer materializes a classification plan: it copies or moves
// every planned file into its session folder under the target root.
package organizer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"camsort/internal/audit"
	"camsort/internal/classifier"
	"camsort/internal/logging"
	"camsort/internal/messages"
	"camsort/internal/progress"
)

// MaterializeErrorType represents the type of materialization error.
type MaterializeErrorType string

const (
	// SourceNotFound indicates the source file does not exist.
	SourceNotFound MaterializeErrorType = "SOURCE_NOT_FOUND"
	// PermissionDenied indicates insufficient permissions for the operation.
	PermissionDenied MaterializeErrorType = "PERMISSION_DENIED"
	// CopyFailed indicates a copy failed for another reason (disk full, I/O).
	CopyFailed MaterializeErrorType = "COPY_FAILED"
	// MoveFailed indicates a move failed for another reason.
	MoveFailed MaterializeErrorType = "MOVE_FAILED"
	// ReplaceFailed indicates the existing target tree could not be removed or recreated.
	ReplaceFailed MaterializeErrorType = "REPLACE_FAILED"
)

// MaterializeError represents an error that occurred while materializing a plan.
type MaterializeError struct {
	Type MaterializeErrorType
	Path string
	Err  error
}

func (e *MaterializeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Path)
}

func (e *MaterializeError) Unwrap() error {
	return e.Err
}

// Mode selects whether source files are copied or moved.
type Mode string

const (
	ModeCopy Mode = "copy"
	ModeMove Mode = "move"
)

// Failure policies.
const (
	FailurePolicyAbort    = "abort"
	FailurePolicyContinue = "continue"
)

// Collision policies.
const (
	CollisionPolicyOverwrite = "overwrite"
	CollisionPolicyRename    = "rename"
)

// Journal records file operations. *audit.Writer satisfies it.
type Journal interface {
	RecordCopy(source, dest string, reason audit.ReasonCode) error
	RecordMove(source, dest string, reason audit.ReasonCode) error
	RecordError(source, errType, errMsg, operation string) error
}

// Options configures a Materializer.
type Options struct {
	Target          string // Target root; the miscellaneous folder resolves here
	Mode            Mode
	ReplaceExisting bool   // Delete and recreate Target before materializing
	FailurePolicy   string // "abort" or "continue"
	CollisionPolicy string // "overwrite" or "rename"
	Logger          logging.Logger
	Progress        progress.Listener
	Journal         Journal // Optional
}

// DefaultOptions returns options that copy into ./classified_files, abort on
// the first failure and overwrite existing destination files.
func DefaultOptions() Options {
	return Options{
		Target:          "classified_files",
		Mode:            ModeCopy,
		FailurePolicy:   FailurePolicyAbort,
		CollisionPolicy: CollisionPolicyOverwrite,
		Logger:          logging.Nop(),
		Progress:        progress.Nop{},
	}
}

// Failure is a file that could not be materialized under the continue policy.
type Failure struct {
	Source      string
	Destination string
	Err         error
}

// Report summarizes a materialization run.
type Report struct {
	Folders  int // Plan entries processed, whether or not the directory already existed
	Files    int // Files copied or moved
	Renamed  int // Files stored under a _duplicate name
	Failures []Failure
	Duration time.Duration
}

// Materializer performs the filesystem actions of a plan.
type Materializer struct {
	fs   afero.Fs
	opts Options
}

// New creates a Materializer on fs. Empty options fall back to DefaultOptions.
func New(fs afero.Fs, opts Options) *Materializer {
	defaults := DefaultOptions()
	if opts.Target == "" {
		opts.Target = defaults.Target
	}
	if opts.Mode == "" {
		opts.Mode = defaults.Mode
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = defaults.FailurePolicy
	}
	if opts.CollisionPolicy == "" {
		opts.CollisionPolicy = defaults.CollisionPolicy
	}
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}
	if opts.Progress == nil {
		opts.Progress = defaults.Progress
	}
	return &Materializer{fs: fs, opts: opts}
}

// Materialize copies or moves every planned file into its folder, folders in
// plan order. Under the abort policy the first failure stops the run and is
// returned together with the partial report.
func (m *Materializer) Materialize(plan *classifier.Plan) (*Report, error) {
	start := time.Now()
	report := &Report{}

	if err := m.checkReplaceSafe(plan); err != nil {
		return report, err
	}
	if err := m.prepareTarget(); err != nil {
		return report, err
	}

	m.opts.Progress.Start(plan.FileCount())

	for _, folder := range plan.Folders {
		destDir := m.opts.Target
		displayName := m.opts.Target
		if !folder.Misc {
			destDir = filepath.Join(m.opts.Target, folder.Name)
			displayName = folder.Name
		}

		key := messages.Copying
		if m.opts.Mode == ModeMove {
			key = messages.Moving
		}
		m.opts.Logger.Info(key, "files_number", len(folder.Actions), "folder_name", displayName)

		if err := m.fs.MkdirAll(destDir, 0755); err != nil {
			report.Duration = time.Since(start)
			return report, wrapFSError(m.failedType(), destDir, err)
		}
		report.Folders++
		m.opts.Progress.Step(len(folder.Actions))

		for _, action := range folder.Actions {
			dest, renamed, err := m.materializeFile(action, destDir)
			if err == nil {
				report.Files++
				if renamed {
					report.Renamed++
				}
				continue
			}

			m.opts.Logger.Error(messages.FileFailed, "file_path", action.Source, "e", err)
			m.journalError(action.Source, err)
			if m.opts.FailurePolicy != FailurePolicyContinue {
				report.Duration = time.Since(start)
				return report, err
			}
			report.Failures = append(report.Failures, Failure{Source: action.Source, Destination: dest, Err: err})
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

// prepareTarget creates the target root, first removing it entirely when
// ReplaceExisting is set.
// checkReplaceSafe refuses to replace a target folder that holds planned sources.
func (m *Materializer) checkReplaceSafe(plan *classifier.Plan) error {
	if !m.opts.ReplaceExisting {
		return nil
	}
	for _, folder := range plan.Folders {
		for _, action := range folder.Actions {
			if IsWithin(m.opts.Target, action.Source) {
				return &MaterializeError{
					Type: ReplaceFailed,
					Path: action.Source,
					Err:  errors.New("source is inside the target folder to be replaced"),
				}
			}
		}
	}
	return nil
}

// IsWithin reports whether path is root or lies below it.
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(absPath(root), absPath(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func (m *Materializer) prepareTarget() error {
	if m.opts.ReplaceExisting {
		if exists, _ := afero.DirExists(m.fs, m.opts.Target); exists {
			m.opts.Logger.Info(messages.ReplacingTarget, "folder", m.opts.Target)
			if err := m.fs.RemoveAll(m.opts.Target); err != nil {
				return &MaterializeError{Type: ReplaceFailed, Path: m.opts.Target, Err: err}
			}
		}
	}
	if err := m.fs.MkdirAll(m.opts.Target, 0755); err != nil {
		if m.opts.ReplaceExisting {
			return &MaterializeError{Type: ReplaceFailed, Path: m.opts.Target, Err: err}
		}
		return wrapFSError(m.failedType(), m.opts.Target, err)
	}
	return nil
}

func (m *Materializer) materializeFile(action classifier.FileAction, destDir string) (string, bool, error) {
	name := action.TargetName
	renamed := false
	if m.opts.CollisionPolicy == CollisionPolicyRename && FileExists(m.fs, filepath.Join(destDir, name)) {
		name = GenerateDuplicateName(m.fs, destDir, name)
		renamed = true
	}
	dest := filepath.Join(destDir, name)

	var reason audit.ReasonCode
	if renamed {
		reason = audit.ReasonDuplicateRenamed
	}

	if m.opts.Mode == ModeMove {
		if err := m.moveFile(action.Source, dest); err != nil {
			return dest, false, err
		}
		m.journal(func(j Journal) error { return j.RecordMove(action.Source, dest, reason) })
		return dest, renamed, nil
	}

	if err := copyFile(m.fs, action.Source, dest); err != nil {
		return dest, false, err
	}
	m.journal(func(j Journal) error { return j.RecordCopy(action.Source, dest, reason) })
	return dest, renamed, nil
}

// moveFile renames src to dst, falling back to copy and delete when the
// rename fails (e.g., cross-device moves).
func (m *Materializer) moveFile(src, dst string) error {
	if _, err := m.fs.Stat(src); err != nil {
		return wrapFSError(MoveFailed, src, err)
	}
	if err := m.fs.Rename(src, dst); err != nil {
		if os.IsPermission(err) {
			return &MaterializeError{Type: PermissionDenied, Path: src, Err: err}
		}
		return copyAndDelete(m.fs, src, dst)
	}
	return nil
}

// copyFile copies src to dst, replacing dst and keeping the source permissions.
func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return wrapFSError(CopyFailed, src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return wrapFSError(CopyFailed, src, err)
	}

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return wrapFSError(CopyFailed, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &MaterializeError{Type: CopyFailed, Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &MaterializeError{Type: CopyFailed, Path: dst, Err: err}
	}
	return nil
}

// copyAndDelete copies a file to a new location and deletes the original.
func copyAndDelete(fs afero.Fs, src, dst string) error {
	if err := copyFile(fs, src, dst); err != nil {
		var merr *MaterializeError
		if errors.As(err, &merr) && merr.Type == CopyFailed {
			merr.Type = MoveFailed
		}
		return err
	}
	if err := fs.Remove(src); err != nil {
		// Leave the source in place rather than keep two copies.
		fs.Remove(dst)
		return wrapFSError(MoveFailed, src, err)
	}
	return nil
}

func wrapFSError(fallback MaterializeErrorType, path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return &MaterializeError{Type: SourceNotFound, Path: path, Err: err}
	case os.IsPermission(err):
		return &MaterializeError{Type: PermissionDenied, Path: path, Err: err}
	default:
		return &MaterializeError{Type: fallback, Path: path, Err: err}
	}
}

func (m *Materializer) failedType() MaterializeErrorType {
	if m.opts.Mode == ModeMove {
		return MoveFailed
	}
	return CopyFailed
}

func (m *Materializer) journal(record func(Journal) error) {
	if m.opts.Journal == nil {
		return
	}
	if err := record(m.opts.Journal); err != nil {
		m.opts.Logger.Warn(messages.JournalUnavailable, "e", err)
		m.opts.Journal = nil
	}
}

func (m *Materializer) journalError(source string, err error) {
	errType := string(m.failedType())
	var merr *MaterializeError
	if errors.As(err, &merr) {
		errType = string(merr.Type)
	}
	m.journal(func(j Journal) error { return j.RecordError(source, errType, err.Error(), string(m.opts.Mode)) })
}
