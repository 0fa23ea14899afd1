package results

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
    position INTEGER PRIMARY KEY,
    path TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS attributes (
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (position, name),
    FOREIGN KEY (position) REFERENCES records(position) ON DELETE CASCADE
);
`

// SQLiteStore keeps results in a SQLite database: one row per record plus one row per attribute.
type SQLiteStore struct {
	path string
}

// NewSQLiteStore creates a SQLiteStore for the database file at path.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Location returns the database file path.
func (s *SQLiteStore) Location() string {
	return s.path
}

func (s *SQLiteStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return db, nil
}

// Save replaces the stored results with rs.
func (s *SQLiteStore) Save(rs ResultSet) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &StoreError{Type: WriteFailed, Path: s.path, Err: err}
		}
	}

	db, err := s.open()
	if err != nil {
		return &StoreError{Type: WriteFailed, Path: s.path, Err: err}
	}
	defer db.Close()

	if err := s.replace(db, rs); err != nil {
		return &StoreError{Type: WriteFailed, Path: s.path, Err: err}
	}
	return nil
}

func (s *SQLiteStore) replace(db *sql.DB, rs ResultSet) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM attributes"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM records"); err != nil {
		return err
	}

	recordStmt, err := tx.Prepare("INSERT INTO records (position, path) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer recordStmt.Close()

	attrStmt, err := tx.Prepare("INSERT INTO attributes (position, name, value) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer attrStmt.Close()

	for i, r := range rs {
		if _, err := recordStmt.Exec(i, r.Path); err != nil {
			return fmt.Errorf("inserting record %s: %w", r.Path, err)
		}
		for _, name := range r.Keys() {
			value := r.Attributes[name]
			if value == "" || name == PathColumn {
				continue
			}
			if _, err := attrStmt.Exec(i, name, value); err != nil {
				return fmt.Errorf("inserting attribute %s of %s: %w", name, r.Path, err)
			}
		}
	}

	return tx.Commit()
}

// Load reads all records in their saved order.
func (s *SQLiteStore) Load() (ResultSet, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &StoreError{Type: ResultsNotFound, Path: s.path, Err: err}
		}
		return nil, &StoreError{Type: InvalidResults, Path: s.path, Err: err}
	}

	db, err := s.open()
	if err != nil {
		return nil, &StoreError{Type: InvalidResults, Path: s.path, Err: err}
	}
	defer db.Close()

	rs, err := s.query(db)
	if err != nil {
		return nil, &StoreError{Type: InvalidResults, Path: s.path, Err: err}
	}
	return rs, nil
}

func (s *SQLiteStore) query(db *sql.DB) (ResultSet, error) {
	rows, err := db.Query("SELECT position, path FROM records ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rs := ResultSet{}
	index := make(map[int64]int)
	for rows.Next() {
		var position int64
		var path string
		if err := rows.Scan(&position, &path); err != nil {
			return nil, err
		}
		index[position] = len(rs)
		rs = append(rs, NewRecord(path))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	attrRows, err := db.Query("SELECT position, name, value FROM attributes")
	if err != nil {
		return nil, err
	}
	defer attrRows.Close()

	for attrRows.Next() {
		var position int64
		var name, value string
		if err := attrRows.Scan(&position, &name, &value); err != nil {
			return nil, err
		}
		i, ok := index[position]
		if !ok {
			return nil, fmt.Errorf("attribute %s references missing record %d", name, position)
		}
		rs[i].Attributes[name] = value
	}
	return rs, attrRows.Err()
}
