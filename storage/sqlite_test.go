package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSqliteLogRecordAndGet(t *testing.T) {
	log, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create log: %v", err)
	}
	defer log.Close()

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
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("expected started at %s, got %s", want.StartedAt, got.StartedAt)
	}
	if !got.FinishedAt.Equal(want.FinishedAt) {
		t.Errorf("expected finished at %s, got %s", want.FinishedAt, got.FinishedAt)
	}
}

func TestSqliteLogGetNonexistentMission(t *testing.T) {
	log, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create log: %v", err)
	}
	defer log.Close()

	got, err := log.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing mission, got %+v", got)
	}
}

func TestSqliteLogRecentNewestFirst(t *testing.T) {
	log, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create log: %v", err)
	}
	defer log.Close()

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

	limited, err := log.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 mission with limit, got %d", len(limited))
	}
	if limited[0].ID != "third" {
		t.Errorf("expected newest mission, got %s", limited[0].ID)
	}
}

func TestSqliteLogRecordReplacesSameID(t *testing.T) {
	log, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create log: %v", err)
	}
	defer log.Close()

	ctx := context.Background()
	first := sampleMission("mission-1", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	if err := log.Record(ctx, first); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	updated := first
	updated.FinalResult = "Time limit reached"
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
	if missions[0].FinalResult != "Time limit reached" {
		t.Errorf("expected replaced result, got '%s'", missions[0].FinalResult)
	}
}

func TestSqliteLogDelete(t *testing.T) {
	log, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create log: %v", err)
	}
	defer log.Close()

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
}

func TestOpenSqlitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions", "theseus.db")
	ctx := context.Background()
	want := sampleMission("mission-1", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	log, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite failed: %v", err)
	}
	if err := log.Record(ctx, want); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite after close failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "mission-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected mission to survive reopen, got nil")
	}
	if got.Objective != want.Objective {
		t.Errorf("expected objective '%s', got '%s'", want.Objective, got.Objective)
	}
}
