package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"

	"github.com/itohio/govfd/pkg/params"
)

// DefaultBatchSize is the number of snapshots buffered before a flush.
const DefaultBatchSize = 1000

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS samples (
	timestamp INTEGER NOT NULL,
	param     TEXT    NOT NULL,
	value     REAL    NOT NULL
);`
	insertSQL = `INSERT INTO samples (timestamp, param, value) VALUES (?, ?, ?)`
	selectSQL = `SELECT timestamp, value FROM samples WHERE param = ? ORDER BY timestamp`
)

// Point is one recorded value of a parameter.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// SQLite writes snapshots into a SQLite database in batched transactions.
type SQLite struct {
	db        *sql.DB
	path      string
	batchSize int

	mu      sync.Mutex
	pending []Snapshot
}

// DefaultPath returns a unique database file name.
func DefaultPath() string {
	return "govfd_telemetry_" + xid.New().String() + ".sqlite3"
}

// OpenSQLite creates a new database at path. An empty path generates a unique
// name. Existing files are never appended to.
func OpenSQLite(path string, batchSize int) (*SQLite, error) {
	if path == "" {
		path = DefaultPath()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLite{db: db, path: path, batchSize: batchSize}, nil
}

// Path returns the database file name.
func (s *SQLite) Path() string { return s.path }

// Record buffers a snapshot, flushing once a batch is full.
func (s *SQLite) Record(snap Snapshot) error {
	s.mu.Lock()
	s.pending = append(s.pending, snap)
	full := len(s.pending) >= s.batchSize
	s.mu.Unlock()

	if full {
		return s.Flush()
	}
	return nil
}

// Flush writes every buffered snapshot in one transaction.
func (s *SQLite) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, snap := range s.pending {
		ts := snap.Timestamp.UnixMicro()
		for _, e := range snap.Entries {
			if _, err := stmt.Exec(ts, e.ID.String(), float64(e.Value.Float())); err != nil {
				tx.Rollback()
				return fmt.Errorf("insert %s: %w", e.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.pending = s.pending[:0]
	return nil
}

// Query returns the recorded values of id, oldest first. Buffered snapshots
// are not visible before Flush.
func (s *SQLite) Query(id params.ID) ([]Point, error) {
	rows, err := s.db.Query(selectSQL, id.String())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", id, err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var micros int64
		var p Point
		if err := rows.Scan(&micros, &p.Value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", id, err)
		}
		p.Timestamp = time.UnixMicro(micros)
		points = append(points, p)
	}
	return points, rows.Err()
}

// Close flushes pending snapshots and closes the database.
func (s *SQLite) Close() error {
	flushErr := s.Flush()
	if err := s.db.Close(); err != nil {
		return err
	}
	return flushErr
}
