package storage

import (
	"context"
	"testing"
	"time"
)

func sampleMission(id string, finished time.Time) Mission {
	return Mission{
		ID:          id,
		Objective:   "move forward 50",
		FinalResult: "Objective achieved!",
		Iterations:  2,
		Duration:    1520 * time.Millisecond,
		History:     "=== Iteration 1 ===\nReasoning: scan first\n- measure_distance() -> Distance: 42 cm (5/5 valid readings)\n",
		StartedAt:   finished.Add(-2 * time.Second),
		FinishedAt:  finished,
	}
}

func TestInMemoryLogRecordAndGet(t *testing.T) {
	log := NewInMemoryLog()
	ctx := context.Background()
	want := sampleMission("mission-1", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	if err := log.Record(ctx, want); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := log.Get(ctx, "mission-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected mission, got nil")
	}
	if got.Objective != want.Objective {
		t.Errorf("expected objective '%s', got '%s'", want.Objective, got.Objective)
	}
	if got.FinalResult != want.FinalResult {
		t.Errorf("expected result '%s', got '%s'", want.FinalResult, got.FinalResult)
	}
	if got.Iterations != want.Iterations {
		t.Errorf("expected %d iterations, got %d", want.Iterations, got.Iterations)
	}
	if got.Duration != want.Duration {
		t.Errorf("expected duration %s, got %s", want.Duration, got.Duration)
	}
	if got.History != want.History {
		t.Errorf("expected history '%s', got '%s'", want.History, got.History)
	}
}

func TestInMemoryLogGetNonexistentMission(t *testing.T) {
	log := NewInMemoryLog()
	ctx := context.Background()

	got, err := log.Get(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing mission, got %+v", got)
	}
}

func TestInMemoryLogRecentNewestFirst(t *testing.T) {
	log := NewInMemoryLog()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		if err := log.Record(ctx, sampleMission(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	missions, err := log.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(missions) != 3 {
		t.Fatalf("expected 3 missions, got %d", len(missions))
	}
	if missions[0].ID != "third" || missions[1].ID != "second" || missions[2].ID != "first" {
		t.Errorf("expected newest first, got %s, %s, %s", missions[0].ID, missions[1].ID, missions[2].ID)
	}

	limited, err := log.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 missions with limit, got %d", len(limited))
	}
	if limited[0].ID != "third" || limited[1].ID != "second" {
		t.Errorf("expected two newest, got %s, %s", limited[0].ID, limited[1].ID)
	}
}

func TestInMemoryLogRecordReplacesSameID(t *testing.T) {
	log := NewInMemoryLog()
	ctx := context.Background()
	finished := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	first := sampleMission("mission-1", finished)
	if err := log.Record(ctx, first); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	updated := first
	updated.FinalResult = "Maximum iterations reached"
	if err := log.Record(ctx, updated); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	missions, err := log.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(missions) != 1 {
		t.Fatalf("expected 1 mission after replace, got %d", len(missions))
	}
	if missions[0].FinalResult != "Maximum iterations reached" {
		t.Errorf("expected replaced result, got '%s'", missions[0].FinalResult)
	}
}

func TestInMemoryLogDelete(t *testing.T) {
	log := NewInMemoryLog()
	ctx := context.Background()

	if err := log.Record(ctx, sampleMission("mission-1", time.Now())); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := log.Delete(ctx, "mission-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := log.Get(ctx, "mission-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected mission deleted, got %+v", got)
	}

	// Deleting a missing mission is not an error.
	if err := log.Delete(ctx, "mission-1"); err != nil {
		t.Errorf("Delete of missing mission failed: %v", err)
	}
}
