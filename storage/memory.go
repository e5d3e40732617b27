// Package storage provides in-memory mission log storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral deployments

package storage

import (
	"context"
	"sort"
	"sync"
)

// InMemoryLog implements MissionLog using an in-memory map.
// Data is lost when process terminates.
type InMemoryLog struct {
	mu       sync.RWMutex
	order    []string
	missions map[string]Mission
}

// NewInMemoryLog creates a new in-memory mission log.
func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{
		missions: make(map[string]Mission),
	}
}

// Record appends one finished mission, replacing any earlier entry with
// the same ID.
func (l *InMemoryLog) Record(ctx context.Context, m Mission) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.missions[m.ID]; !ok {
		l.order = append(l.order, m.ID)
	}
	l.missions[m.ID] = m

	return nil
}

// Get returns a mission by ID.
// Returns nil, nil if not found.
func (l *InMemoryLog) Get(ctx context.Context, id string) (*Mission, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.missions[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// Recent returns up to limit missions, most recently finished first.
func (l *InMemoryLog) Recent(ctx context.Context, limit int) ([]Mission, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Walk in insertion order so equal timestamps stay deterministic.
	missions := make([]Mission, 0, len(l.order))
	for _, id := range l.order {
		missions = append(missions, l.missions[id])
	}
	sort.SliceStable(missions, func(i, j int) bool {
		return missions[i].FinishedAt.After(missions[j].FinishedAt)
	})

	if limit > 0 && len(missions) > limit {
		missions = missions[:limit]
	}
	return missions, nil
}

// Delete removes a mission by ID.
func (l *InMemoryLog) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.missions[id]; !ok {
		return nil
	}
	delete(l.missions, id)
	for i, known := range l.order {
		if known == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return nil
}

// Verify InMemoryLog implements MissionLog
var _ MissionLog = (*InMemoryLog)(nil)
