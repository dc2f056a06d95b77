// Package catalog stores programs by id in SQLite and resolves ids to
// factories.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("semigrafx.catalog")

// ErrProgramNotFound indicates the requested program doesn't exist.
var ErrProgramNotFound = errors.New("program not found")

// Record is a stored program. Source is the program text given to the
// compile endpoint; Factory is the compiled factory text. Either may be
// empty, but not both.
type Record struct {
	ID      string
	Source  string
	Factory string
	Updated time.Time
}

// Store handles SQLite storage for programs.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens (creating if needed) the catalog database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		factory TEXT NOT NULL DEFAULT '',
		updated INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened catalog %s", dbPath)
	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Save stores a program, replacing any record with the same id.
func (s *Store) Save(r Record) error {
	if r.ID == "" {
		return fmt.Errorf("saving program: empty id")
	}
	if r.Source == "" && r.Factory == "" {
		return fmt.Errorf("saving program %s: no source or factory", r.ID)
	}
	if r.Updated.IsZero() {
		r.Updated = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO programs (id, source, factory, updated) VALUES (?, ?, ?, ?)",
		r.ID, r.Source, r.Factory, r.Updated.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving program %s: %w", r.ID, err)
	}
	return nil
}

// SetFactory records the compiled factory text for an existing program.
func (s *Store) SetFactory(id, factory string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE programs SET factory = ?, updated = ? WHERE id = ?",
		factory, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("updating program %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, id)
	}
	return nil
}

// Load retrieves a program by id.
func (s *Store) Load(id string) (*Record, error) {
	r := &Record{ID: id}
	var updated int64
	err := s.db.QueryRow("SELECT source, factory, updated FROM programs WHERE id = ?", id).
		Scan(&r.Source, &r.Factory, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, id)
		}
		return nil, fmt.Errorf("querying program %s: %w", id, err)
	}
	r.Updated = time.UnixMilli(updated)
	return r, nil
}

// List returns every stored program id in sorted order.
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query("SELECT id FROM programs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("listing programs: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a program.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM programs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting program %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, id)
	}
	return nil
}
