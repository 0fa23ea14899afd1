package watcher

import (
	"path/filepath"
	"strings"

	"camsort/internal/media"
)

// DefaultIgnorePatterns returns patterns for files cameras, card readers and
// copy tools leave behind while a transfer is in progress.
func DefaultIgnorePatterns() []string {
	return []string{
		".*",     // Hidden files (.DS_Store, ._IMG_0001.JPG, .~lock)
		"*.tmp",  // Temporary copies
		"*.part", // Partial transfers
		"*~",     // Editor and rsync backups
	}
}

// FileFilter decides which changed paths are relevant to re-analysis.
type FileFilter struct {
	patterns []string
}

// NewFileFilter creates a FileFilter. Nil or empty patterns use the defaults.
func NewFileFilter(patterns []string) *FileFilter {
	if len(patterns) == 0 {
		patterns = DefaultIgnorePatterns()
	}
	return &FileFilter{patterns: patterns}
}

// ShouldIgnore reports whether the base name of path matches an ignore pattern.
// Patterns use filepath.Match glob syntax; a pattern starting with "." and
// containing no "*" also matches as a case-insensitive suffix.
func (f *FileFilter) ShouldIgnore(path string) bool {
	filename := filepath.Base(path)

	for _, pattern := range f.patterns {
		if matched, err := filepath.Match(pattern, filename); err == nil && matched {
			return true
		}
		if strings.HasPrefix(pattern, ".") && !strings.Contains(pattern, "*") {
			if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(pattern)) {
				return true
			}
		}
	}
	return false
}

// IsRelevant reports whether a change to path can alter the analysis: the
// file has a supported media extension and is not ignored.
func (f *FileFilter) IsRelevant(path string) bool {
	return media.IsSupported(path) && !f.ShouldIgnore(path)
}

// GetPatterns returns a copy of the ignore patterns.
func (f *FileFilter) GetPatterns() []string {
	result := make([]string, len(f.patterns))
	copy(result, f.patterns)
	return result
}
