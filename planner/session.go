// Package planner drives the bounded iterate-act-evaluate cycle that turns a
// natural-language objective into robot actions.
//
// Information Hiding:
// - Session state transitions hidden behind methods
// - Reasoning transport and payload quirks hidden in the gateway
// - Goal heuristics isolated in the evaluator
package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Session is the mutable state threaded through one objective's planning run.
// It is owned by exactly one Loop for its lifetime; nothing else writes it.
type Session struct {
	// ID tags status messages and the mission log entry for this run.
	ID string

	// Objective is immutable once set.
	Objective string

	// CurrentContext summarizes where things stand. Rewritten every
	// iteration, either from the reasoning service's suggestion or a
	// default continuation note.
	CurrentContext string

	// ExecutionHistory is the append-only transcript replayed to the
	// reasoning service. It is the sole source of truth about prior
	// iterations and is never truncated.
	ExecutionHistory string

	// IterationCount starts at 0 and is incremented at the top of each
	// iteration.
	IterationCount int

	// IsComplete flips to true exactly once, when a terminal condition
	// fires.
	IsComplete bool

	// FinalResult explains why the run ended. Set at the moment
	// IsComplete becomes true and never overwritten.
	FinalResult string

	StartTime         time.Time
	LastIterationTime time.Time

	// Duration is the run's wall-clock length, set once by the loop when
	// it hands the finished session back.
	Duration time.Duration
}

// NewSession creates the session for one objective with the clock's notion of
// now as its start time.
func NewSession(clock clockwork.Clock, objective string) *Session {
	now := clock.Now()
	return &Session{
		ID:                uuid.NewString(),
		Objective:         objective,
		CurrentContext:    "Objective received; no actions taken yet.",
		StartTime:         now,
		LastIterationTime: now,
	}
}

// BeginIteration advances the iteration counter and records the timestamp.
func (s *Session) BeginIteration(now time.Time) {
	s.IterationCount++
	s.LastIterationTime = now
}

// Elapsed returns the wall-clock time spent since the session started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartTime)
}

// Complete marks the session finished with the given result. Only the first
// call wins; later calls are ignored so FinalResult is set exactly once.
func (s *Session) Complete(result string) {
	if s.IsComplete {
		return
	}
	s.IsComplete = true
	s.FinalResult = result
}

// Summary renders the terminal one-liner: iteration count, elapsed time and
// final result, whatever the reason for stopping.
func (s *Session) Summary() string {
	return fmt.Sprintf("Planning finished after %d iteration(s) in %s: %s",
		s.IterationCount, s.Duration.Round(time.Millisecond), s.FinalResult)
}

// AdoptContext replaces the current context with the reasoning service's
// suggestion, or synthesizes a continuation note when the suggestion is empty.
func (s *Session) AdoptContext(suggested string) {
	if suggested != "" {
		s.CurrentContext = suggested
		return
	}
	s.CurrentContext = fmt.Sprintf("Completed iteration %d. %s", s.IterationCount, s.CurrentContext)
}

// AppendRecord folds one iteration's reasoning and action results into the
// execution history, in iteration order.
func (s *Session) AppendRecord(rec IterationRecord) {
	s.ExecutionHistory += rec.Block()
}

// IterationRecord is the transcript of a single iteration.
type IterationRecord struct {
	Iteration int
	Reasoning string
	Results   []ActionResult
}

// ActionResult captures the outcome of one proposed action: either the
// executor's textual output or a note that the action was skipped.
type ActionResult struct {
	Name       string
	Params     string
	Confidence float64
	Skipped    bool
	Output     string
}

// Block renders the record as the history fragment replayed to the reasoning
// service.
func (r IterationRecord) Block() string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Iteration %d ===\n", r.Iteration)
	if r.Reasoning != "" {
		fmt.Fprintf(&b, "Reasoning: %s\n", r.Reasoning)
	}
	for _, res := range r.Results {
		if res.Skipped {
			fmt.Fprintf(&b, "- %s(%s) skipped (confidence %.2f)\n", res.Name, res.Params, res.Confidence)
			continue
		}
		fmt.Fprintf(&b, "- %s(%s) -> %s\n", res.Name, res.Params, res.Output)
	}
	return b.String()
}

// ExecutedOutputs joins the outputs of executed (non-skipped) results. This is
// the "latest results" text the goal evaluator inspects.
func ExecutedOutputs(results []ActionResult) string {
	var outputs []string
	for _, r := range results {
		if r.Skipped {
			continue
		}
		outputs = append(outputs, r.Output)
	}
	return strings.Join(outputs, "\n")
}
