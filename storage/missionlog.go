// Package storage provides mission log storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each storage implementation encapsulates its own data structures and protocols

package storage

import (
	"context"
	"time"
)

// Mission is one finished planning run as persisted in the log. History is
// the rendered execution transcript, the same text the reasoning service saw.
type Mission struct {
	ID          string
	Objective   string
	FinalResult string
	Iterations  int
	Duration    time.Duration
	History     string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// MissionLog defines the interface for recording finished missions.
// Implementations can use different backends (memory, database).
type MissionLog interface {
	// Record appends one finished mission. Recording the same ID again
	// replaces the earlier entry.
	Record(ctx context.Context, m Mission) error

	// Get returns a mission by ID.
	// Returns nil, nil if not found; error only for storage failures.
	Get(ctx context.Context, id string) (*Mission, error)

	// Recent returns up to limit missions, most recently finished first.
	// A non-positive limit returns all missions.
	Recent(ctx context.Context, limit int) ([]Mission, error)

	// Delete removes a mission by ID.
	Delete(ctx context.Context, id string) error
}
