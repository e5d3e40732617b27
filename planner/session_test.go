package planner

import (
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestNewSessionDefaults(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewSession(fc, "find the nearest obstacle")

	if s.ID == "" {
		t.Error("expected a non-empty session ID")
	}
	if s.Objective != "find the nearest obstacle" {
		t.Errorf("expected objective preserved, got %q", s.Objective)
	}
	if s.CurrentContext != "Objective received; no actions taken yet." {
		t.Errorf("expected initial context, got %q", s.CurrentContext)
	}
	if s.IterationCount != 0 {
		t.Errorf("expected iteration count 0, got %d", s.IterationCount)
	}
	if s.IsComplete {
		t.Error("expected new session incomplete")
	}
	if !s.StartTime.Equal(fc.Now()) {
		t.Errorf("expected start time %v, got %v", fc.Now(), s.StartTime)
	}
}

func TestBeginIterationAdvancesCount(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewSession(fc, "explore")

	fc.Advance(time.Second)
	s.BeginIteration(fc.Now())

	if s.IterationCount != 1 {
		t.Errorf("expected iteration count 1, got %d", s.IterationCount)
	}
	if !s.LastIterationTime.Equal(fc.Now()) {
		t.Errorf("expected last iteration time updated, got %v", s.LastIterationTime)
	}
	if s.Elapsed(fc.Now()) != time.Second {
		t.Errorf("expected 1s elapsed, got %v", s.Elapsed(fc.Now()))
	}
}

func TestCompleteFirstCallWins(t *testing.T) {
	s := NewSession(clockwork.NewFakeClock(), "explore")

	s.Complete("objective achieved")
	s.Complete("overwritten")

	if !s.IsComplete {
		t.Error("expected session complete")
	}
	if s.FinalResult != "objective achieved" {
		t.Errorf("expected first result kept, got %q", s.FinalResult)
	}
}

func TestAdoptContextSuggestion(t *testing.T) {
	s := NewSession(clockwork.NewFakeClock(), "explore")

	s.AdoptContext("approaching the far wall")

	if s.CurrentContext != "approaching the far wall" {
		t.Errorf("expected suggested context adopted, got %q", s.CurrentContext)
	}
}

func TestAdoptContextSynthesizesFallback(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewSession(fc, "explore")
	s.BeginIteration(fc.Now())

	s.AdoptContext("")

	want := "Completed iteration 1. Objective received; no actions taken yet."
	if s.CurrentContext != want {
		t.Errorf("expected %q, got %q", want, s.CurrentContext)
	}
}

func TestIterationRecordBlock(t *testing.T) {
	rec := IterationRecord{
		Iteration: 2,
		Reasoning: "scanning for obstacles",
		Results: []ActionResult{
			{Name: "measure_distance", Confidence: 0.98, Output: "Distance: 11 cm (3/5 valid readings)"},
			{Name: "move", Params: "forward 500", Confidence: 0.85, Skipped: true},
		},
	}

	got := rec.Block()

	want := "=== Iteration 2 ===\n" +
		"Reasoning: scanning for obstacles\n" +
		"- measure_distance() -> Distance: 11 cm (3/5 valid readings)\n" +
		"- move(forward 500) skipped (confidence 0.85)\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestAppendRecordPreservesOrder(t *testing.T) {
	s := NewSession(clockwork.NewFakeClock(), "explore")

	s.AppendRecord(IterationRecord{Iteration: 1, Reasoning: "first"})
	s.AppendRecord(IterationRecord{Iteration: 2, Reasoning: "second"})

	first := strings.Index(s.ExecutionHistory, "=== Iteration 1 ===")
	second := strings.Index(s.ExecutionHistory, "=== Iteration 2 ===")
	if first == -1 || second == -1 || second < first {
		t.Errorf("expected ordered iteration blocks, got %q", s.ExecutionHistory)
	}
}

func TestExecutedOutputsExcludesSkipped(t *testing.T) {
	results := []ActionResult{
		{Name: "measure_distance", Output: "Distance: 15 cm (5/5 valid readings)"},
		{Name: "move", Skipped: true},
		{Name: "notify", Output: "Status update sent: closing in"},
	}

	got := ExecutedOutputs(results)

	want := "Distance: 15 cm (5/5 valid readings)\nStatus update sent: closing in"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSummaryNamesCountElapsedAndResult(t *testing.T) {
	s := NewSession(clockwork.NewFakeClock(), "explore")
	s.IterationCount = 3
	s.Duration = 1520 * time.Millisecond
	s.Complete("Objective achieved!")

	got := s.Summary()

	want := "Planning finished after 3 iteration(s) in 1.52s: Objective achieved!"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
