// Package store persists live CO2 readings in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	// SQLite driver using pure Go implementation
	_ "modernc.org/sqlite"

	"github.com/sartorproj/co2trend/timeseries"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
	// ErrNoTimestamp is returned when inserting a reading without a time.
	ErrNoTimestamp = errors.New("store: reading has no timestamp")
)

// Config configures the SQLite store.
type Config struct {
	// Path to the SQLite database file
	Path string

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// BusyTimeout is the timeout for acquiring locks in milliseconds
	BusyTimeout int

	// MaxConnections is the max number of database connections
	MaxConnections int
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Path:           "co2.db",
		JournalMode:    "WAL",
		BusyTimeout:    5000,
		MaxConnections: 4,
	}
}

// Store is a reading store backed by a sensor_data table. It is safe for
// concurrent use.
type Store struct {
	db     *sql.DB
	config Config
	mu     sync.RWMutex
	closed bool
}

// Open opens (creating if needed) the database and its schema.
func Open(config Config) (*Store, error) {
	defaults := DefaultConfig()
	if config.Path == "" {
		config.Path = defaults.Path
	}
	if config.JournalMode == "" {
		config.JournalMode = defaults.JournalMode
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = defaults.BusyTimeout
	}
	if config.MaxConnections <= 0 {
		config.MaxConnections = defaults.MaxConnections
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(%s)",
		config.Path, config.BusyTimeout, config.JournalMode)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxConnections)
	db.SetMaxIdleConns(config.MaxConnections)

	s := &Store{db: db, config: config}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sensor_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL, -- unix milliseconds
			co2_ppm REAL NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sensor_data_timestamp ON sensor_data(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.PingContext(ctx)
}

// Insert stores one reading.
func (s *Store) Insert(ctx context.Context, r timeseries.Reading) error {
	return s.InsertBatch(ctx, []timeseries.Reading{r})
}

// InsertBatch stores readings in a single transaction. Nothing is written
// if any reading lacks a timestamp.
func (s *Store) InsertBatch(ctx context.Context, readings []timeseries.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	for _, r := range readings {
		if r.Time.IsZero() {
			return ErrNoTimestamp
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sensor_data (timestamp, co2_ppm) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		if _, err := stmt.ExecContext(ctx, r.Time.UnixMilli(), r.CO2); err != nil {
			return fmt.Errorf("insert reading: %w", err)
		}
	}
	return tx.Commit()
}

// Latest returns the most recent limit readings in ascending time order.
func (s *Store) Latest(ctx context.Context, limit int) ([]timeseries.Reading, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, co2_ppm FROM sensor_data
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()

	var readings []timeseries.Reading
	for rows.Next() {
		var ms int64
		var r timeseries.Reading
		if err := rows.Scan(&ms, &r.CO2); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Time = time.UnixMilli(ms).UTC()
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}

	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	return readings, nil
}

// Count returns the number of stored readings.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensor_data`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count readings: %w", err)
	}
	return n, nil
}
