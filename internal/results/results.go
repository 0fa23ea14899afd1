// Package results persists per-file attribute maps between the analyze and classify phases.
package results

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// PathColumn is the column holding each record's absolute path.
const PathColumn = "Path"

// DefaultFileName is the default results file name.
const DefaultFileName = "classify_camera_files_analyze_results.csv"

// Attribute names written by the filesystem-time extractor.
const (
	FileCTime = "FileCTime"
	FileMTime = "FileMTime"
)

// StoreErrorType represents the type of results store error.
type StoreErrorType string

const (
	// ResultsNotFound indicates there is no results file to load.
	ResultsNotFound StoreErrorType = "RESULTS_NOT_FOUND"
	// InvalidResults indicates the results file could not be parsed.
	InvalidResults StoreErrorType = "INVALID_RESULTS"
	// WriteFailed indicates the results file could not be written.
	WriteFailed StoreErrorType = "WRITE_FAILED"
)

// StoreError represents an error that occurred while saving or loading results.
type StoreError struct {
	Type StoreErrorType
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	switch e.Type {
	case ResultsNotFound:
		return fmt.Sprintf("no results to operate on: %s does not exist", e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s (%v)", e.Type, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Type, e.Path)
	}
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Record is the raw extraction result for one file. Attribute values are kept in
// their textual form so every store round-trips them unchanged.
type Record struct {
	Path       string
	Attributes map[string]string
}

// NewRecord creates a Record for path with an empty attribute map.
func NewRecord(path string) Record {
	return Record{Path: path, Attributes: make(map[string]string)}
}

// Get returns the attribute value and whether it is present and non-empty.
func (r Record) Get(name string) (string, bool) {
	v, ok := r.Attributes[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Keys returns the record's attribute names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.Attributes))
	for k := range r.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the record as "{Key: value, ...}" for verbose logging.
func (r Record) String() string {
	parts := make([]string, 0, len(r.Attributes))
	for _, k := range r.Keys() {
		parts = append(parts, fmt.Sprintf("%s: %q", k, r.Attributes[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ResultSet is an ordered sequence of records in scan order.
type ResultSet []Record

// Columns returns PathColumn followed by the sorted union of all attribute names.
func (rs ResultSet) Columns() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range rs {
		for k := range r.Attributes {
			if k == PathColumn || seen[k] {
				continue
			}
			seen[k] = true
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return append([]string{PathColumn}, names...)
}

// Store saves and loads a ResultSet.
type Store interface {
	Save(rs ResultSet) error
	Load() (ResultSet, error)
	Location() string
}

// Open returns the Store for path: SQLite for .db, .sqlite and .sqlite3 files, CSV otherwise.
// SQLite stores always use the operating system filesystem.
func Open(fs afero.Fs, path string) Store {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path)
	default:
		return NewCSVStore(fs, path)
	}
}
