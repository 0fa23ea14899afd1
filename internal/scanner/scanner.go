// Package scanner finds camera media files in a source directory tree.
package scanner

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"camsort/internal/logging"
	"camsort/internal/media"
	"camsort/internal/messages"
)

// ScanErrorType represents the type of scanning error.
type ScanErrorType string

const (
	// DirectoryNotFound indicates the directory does not exist.
	DirectoryNotFound ScanErrorType = "DIRECTORY_NOT_FOUND"
	// PermissionDenied indicates insufficient permissions to read the directory.
	PermissionDenied ScanErrorType = "PERMISSION_DENIED"
	// SymlinkError indicates a symlink was encountered with "error" policy.
	SymlinkError ScanErrorType = "SYMLINK_ERROR"
)

// Symlink policy constants
const (
	SymlinkPolicyFollow = "follow"
	SymlinkPolicySkip   = "skip"
	SymlinkPolicyError  = "error"
)

// ScanError represents an error that occurred during directory scanning.
type ScanError struct {
	Type ScanErrorType
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return string(e.Type) + ": " + e.Path
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// ScanOptions configures scanning behavior.
type ScanOptions struct {
	MaxDepth      int            // Maximum depth to scan (0 = immediate only, -1 = unlimited)
	SymlinkPolicy string         // "follow", "skip", or "error"
	Logger        logging.Logger // Receives skipped-folder warnings (default: discard)
}

// DefaultScanOptions returns the default scan options: unlimited recursion, symlinks skipped.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		MaxDepth:      -1,
		SymlinkPolicy: SymlinkPolicySkip,
	}
}

// FileEntry represents a supported media file found during scanning.
type FileEntry struct {
	Name     string     // Filename only
	FullPath string     // Absolute path
	Kind     media.Kind // Image or Video
}

// Scanner walks directory trees on a filesystem.
type Scanner struct {
	fs   afero.Fs
	opts ScanOptions
}

// New creates a Scanner for fs with the given options.
func New(fs afero.Fs, opts ScanOptions) *Scanner {
	if opts.SymlinkPolicy == "" {
		opts.SymlinkPolicy = SymlinkPolicySkip
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Scanner{fs: fs, opts: opts}
}

// Scan enumerates supported media files under directory, recursing into
// subdirectories. Files with unsupported extensions are skipped silently.
// Unreadable subdirectories are logged and skipped; an unreadable root is an
// error. Each directory is visited once, so followed symlink cycles end.
// Order follows the directory listing order of each level.
func (s *Scanner) Scan(directory string) ([]FileEntry, error) {
	root, err := filepath.Abs(directory)
	if err != nil {
		root = directory
	}

	info, err := s.lstat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ScanError{Type: DirectoryNotFound, Path: directory, Err: err}
		}
		if os.IsPermission(err) {
			return nil, &ScanError{Type: PermissionDenied, Path: directory, Err: err}
		}
		return nil, err
	}

	// Handle symlink at root directory level
	if info.Mode()&os.ModeSymlink != 0 {
		switch s.opts.SymlinkPolicy {
		case SymlinkPolicyError:
			return nil, &ScanError{
				Type: SymlinkError,
				Path: directory,
				Err:  errors.New("symlink encountered with error policy"),
			}
		case SymlinkPolicySkip:
			return []FileEntry{}, nil
		case SymlinkPolicyFollow:
			info, err = s.fs.Stat(root)
			if err != nil {
				return nil, err
			}
		}
	}

	if !info.IsDir() {
		return nil, &ScanError{
			Type: DirectoryNotFound,
			Path: directory,
			Err:  errors.New("path is not a directory"),
		}
	}

	files := []FileEntry{}
	if err := s.scanDirectory(root, 0, make(map[string]bool), &files); err != nil {
		return nil, err
	}
	return files, nil
}

// scanDirectory recursively scans a directory up to the configured depth.
// visited holds the resolved paths of directories already scanned.
func (s *Scanner) scanDirectory(directory string, currentDepth int, visited map[string]bool, files *[]FileEntry) error {
	key := s.realPath(directory)
	if visited[key] {
		return nil
	}
	visited[key] = true

	entries, err := afero.ReadDir(s.fs, directory)
	if err != nil {
		if currentDepth > 0 {
			s.opts.Logger.Warn(messages.DirectorySkipped, "folder", directory, "e", err)
			return nil
		}
		if os.IsPermission(err) {
			return &ScanError{Type: PermissionDenied, Path: directory, Err: err}
		}
		return err
	}

	for _, entry := range entries {
		fullPath := filepath.Join(directory, entry.Name())
		info := entry

		if info.Mode()&os.ModeSymlink != 0 {
			switch s.opts.SymlinkPolicy {
			case SymlinkPolicyError:
				return &ScanError{
					Type: SymlinkError,
					Path: fullPath,
					Err:  errors.New("symlink encountered with error policy"),
				}
			case SymlinkPolicySkip:
				continue
			case SymlinkPolicyFollow:
				info, err = s.fs.Stat(fullPath)
				if err != nil {
					continue // Skip broken symlinks
				}
			}
		}

		if info.IsDir() {
			if s.opts.MaxDepth == -1 || currentDepth < s.opts.MaxDepth {
				if err := s.scanDirectory(fullPath, currentDepth+1, visited, files); err != nil {
					return err
				}
			}
			continue
		}

		kind, ok := media.KindOf(entry.Name())
		if !ok {
			continue
		}
		*files = append(*files, FileEntry{
			Name:     entry.Name(),
			FullPath: fullPath,
			Kind:     kind,
		})
	}

	return nil
}

// realPath resolves symlinks on the OS filesystem. Other filesystems have no
// links to resolve.
func (s *Scanner) realPath(path string) string {
	if _, ok := s.fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			return resolved
		}
	}
	return filepath.Clean(path)
}

func (s *Scanner) lstat(path string) (os.FileInfo, error) {
	if l, ok := s.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return s.fs.Stat(path)
}
