// Package storage provides SQLite mission log storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteLog implements MissionLog using a SQLite database file.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteLog struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite mission log at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteLog, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	log := &SqliteLog{db: db}
	if err := log.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return log, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteLog, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	log := &SqliteLog{db: db}
	if err := log.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return log, nil
}

// Close closes the database connection.
func (s *SqliteLog) Close() error {
	return s.db.Close()
}

func (s *SqliteLog) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS missions (
			id TEXT PRIMARY KEY,
			objective TEXT NOT NULL,
			final_result TEXT NOT NULL,
			iterations INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			history TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_missions_finished
		ON missions(finished_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record appends one finished mission, replacing any earlier entry with
// the same ID.
func (s *SqliteLog) Record(ctx context.Context, m Mission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO missions
		(id, objective, final_result, iterations, duration_ms, history, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.Objective,
		m.FinalResult,
		m.Iterations,
		m.Duration.Milliseconds(),
		m.History,
		m.StartedAt.UnixMilli(),
		m.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record mission: %w", err)
	}
	return nil
}

// Get returns a mission by ID.
// Returns nil, nil if not found.
func (s *SqliteLog) Get(ctx context.Context, id string) (*Mission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, objective, final_result, iterations, duration_ms, history, started_at, finished_at
		FROM missions WHERE id = ?`,
		id)

	m, err := scanMission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}
	return &m, nil
}

// Recent returns up to limit missions, most recently finished first.
func (s *SqliteLog) Recent(ctx context.Context, limit int) ([]Mission, error) {
	if limit <= 0 {
		// SQLite treats a negative LIMIT as unlimited.
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, objective, final_result, iterations, duration_ms, history, started_at, finished_at
		FROM missions
		ORDER BY finished_at DESC, id
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query missions: %w", err)
	}
	defer rows.Close()

	missions := []Mission{} // Start with empty slice, not nil
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		missions = append(missions, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missions: %w", err)
	}

	return missions, nil
}

// Delete removes a mission by ID.
func (s *SqliteLog) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM missions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete mission: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMission(row rowScanner) (Mission, error) {
	var (
		m          Mission
		durationMS int64
		startedAt  int64
		finishedAt int64
	)
	err := row.Scan(
		&m.ID,
		&m.Objective,
		&m.FinalResult,
		&m.Iterations,
		&durationMS,
		&m.History,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return Mission{}, err
	}

	m.Duration = time.Duration(durationMS) * time.Millisecond
	m.StartedAt = time.UnixMilli(startedAt).UTC()
	m.FinishedAt = time.UnixMilli(finishedAt).UTC()
	return m, nil
}

// Verify SqliteLog implements MissionLog
var _ MissionLog = (*SqliteLog)(nil)
