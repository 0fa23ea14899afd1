package results

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// CSVStore keeps results in a delimiter-separated file with a header row.
type CSVStore struct {
	fs   afero.Fs
	path string
}

// NewCSVStore creates a CSVStore for path on fs.
func NewCSVStore(fs afero.Fs, path string) *CSVStore {
	return &CSVStore{fs: fs, path: path}
}

// Location returns the results file path.
func (s *CSVStore) Location() string {
	return s.path
}

// Save writes one row per record. Columns missing from a record are left empty.
func (s *CSVStore) Save(rs ResultSet) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return &StoreError{Type: WriteFailed, Path: s.path, Err: err}
		}
	}

	f, err := s.fs.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return &StoreError{Type: WriteFailed, Path: s.path, Err: err}
	}
	defer f.Close()

	columns := rs.Columns()
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return &StoreError{Type: WriteFailed, Path: s.path, Err: err}
	}

	row := make([]string, len(columns))
	for _, r := range rs {
		row[0] = r.Path
		for i, col := range columns[1:] {
			row[i+1] = r.Attributes[col]
		}
		if err := w.Write(row); err != nil {
			return &StoreError{Type: WriteFailed, Path: s.path, Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return &StoreError{Type: WriteFailed, Path: s.path, Err: err}
	}
	return f.Close()
}

// Load parses the results file. Empty cells are not turned into attributes.
func (s *CSVStore) Load() (ResultSet, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &StoreError{Type: ResultsNotFound, Path: s.path, Err: err}
		}
		return nil, &StoreError{Type: InvalidResults, Path: s.path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return ResultSet{}, nil
		}
		return nil, &StoreError{Type: InvalidResults, Path: s.path, Err: err}
	}

	pathIndex := -1
	for i, col := range header {
		if col == PathColumn {
			pathIndex = i
			break
		}
	}
	if pathIndex < 0 {
		return nil, &StoreError{Type: InvalidResults, Path: s.path, Err: errors.New("missing Path column")}
	}

	rs := ResultSet{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &StoreError{Type: InvalidResults, Path: s.path, Err: err}
		}
		if row[pathIndex] == "" {
			return nil, &StoreError{Type: InvalidResults, Path: s.path, Err: errors.New("row without Path value")}
		}

		record := NewRecord(row[pathIndex])
		for i, value := range row {
			if i == pathIndex || value == "" {
				continue
			}
			record.Attributes[header[i]] = value
		}
		rs = append(rs, record)
	}

	return rs, nil
}
