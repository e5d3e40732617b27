package planner

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// scriptedSource replays a fixed decision sequence, repeating the last
// decision once the script runs out.
type scriptedSource struct {
	decisions []Decision
	calls     int
}

func (s *scriptedSource) Decide(_ context.Context, _ *Session) Decision {
	i := s.calls
	if i >= len(s.decisions) {
		i = len(s.decisions) - 1
	}
	s.calls++
	return s.decisions[i]
}

// recordingRunner records dispatched action names and replays canned outputs.
type recordingRunner struct {
	calls   []string
	outputs map[string]string
}

func (r *recordingRunner) Execute(_ context.Context, name, _ string) string {
	r.calls = append(r.calls, name)
	if out, ok := r.outputs[name]; ok {
		return out
	}
	return "ok"
}

type runnerFunc func(ctx context.Context, name, params string) string

func (f runnerFunc) Execute(ctx context.Context, name, params string) string {
	return f(ctx, name, params)
}

type statusRecorder struct {
	events []string
}

func (s *statusRecorder) Publish(status string) {
	s.events = append(s.events, status)
}

func (s *statusRecorder) containing(fragment string) bool {
	for _, e := range s.events {
		if strings.Contains(e, fragment) {
			return true
		}
	}
	return false
}

func testLoop(source DecisionSource, runner ActionRunner, status StatusSink) *Loop {
	return NewLoop(LoopConfig{
		Source:          source,
		Runner:          runner,
		Status:          status,
		MaxIterations:   10,
		MaxPlanningTime: time.Minute,
		Log:             zerolog.Nop(),
	})
}

func acceptedAction(name, params string, confidence float64) ProposedAction {
	return ProposedAction{Name: name, Params: params, Confidence: confidence, Accepted: confidence > ConfidenceGate}
}

func TestLoopThreeIterationScenario(t *testing.T) {
	measure := acceptedAction("measure_distance", "", 0.98)
	source := &scriptedSource{decisions: []Decision{
		{Actions: []ProposedAction{measure}, ContinuePlanning: true, Reasoning: "scanning ahead", NextContext: "scanning"},
		{Actions: []ProposedAction{measure}, ContinuePlanning: true, Reasoning: "scanning again", NextContext: "still scanning"},
		{ContinuePlanning: true, ObjectiveComplete: true, Reasoning: "Nearest obstacle found at 42 cm."},
	}}
	runner := &recordingRunner{outputs: map[string]string{
		"measure_distance": "Distance: 42 cm (5/5 valid readings)",
	}}
	loop := testLoop(source, runner, &statusRecorder{})

	sess := loop.RunSession(context.Background(), "find the nearest obstacle")

	if sess.IterationCount != 3 {
		t.Errorf("expected exactly 3 iterations, got %d", sess.IterationCount)
	}
	if !sess.IsComplete {
		t.Error("expected session complete")
	}
	if sess.FinalResult != "Nearest obstacle found at 42 cm." {
		t.Errorf("expected final result to be iteration 3's reasoning, got %q", sess.FinalResult)
	}
	if n := strings.Count(sess.ExecutionHistory, "=== Iteration"); n != 3 {
		t.Errorf("expected 3 iteration blocks in history, got %d:\n%s", n, sess.ExecutionHistory)
	}
	i1 := strings.Index(sess.ExecutionHistory, "=== Iteration 1 ===")
	i2 := strings.Index(sess.ExecutionHistory, "=== Iteration 2 ===")
	i3 := strings.Index(sess.ExecutionHistory, "=== Iteration 3 ===")
	if i1 == -1 || i2 == -1 || i3 == -1 || i1 > i2 || i2 > i3 {
		t.Errorf("expected ordered iteration blocks, got:\n%s", sess.ExecutionHistory)
	}
	// The terminating iteration stops before executing its actions.
	if len(runner.calls) != 2 {
		t.Errorf("expected 2 executed actions, got %v", runner.calls)
	}
}

func TestLoopBoundedAgainstAdversarialSource(t *testing.T) {
	source := &scriptedSource{decisions: []Decision{
		{ContinuePlanning: true, Reasoning: "keep going"},
	}}
	runner := &recordingRunner{}
	loop := NewLoop(LoopConfig{
		Source:          source,
		Runner:          runner,
		MaxIterations:   4,
		MaxPlanningTime: time.Minute,
		Log:             zerolog.Nop(),
	})

	sess := loop.RunSession(context.Background(), "explore forever")

	if sess.IterationCount != 4 {
		t.Errorf("expected the iteration cap to stop the loop at 4, got %d", sess.IterationCount)
	}
	if sess.FinalResult != "Maximum iterations reached" {
		t.Errorf("expected iteration-cap result, got %q", sess.FinalResult)
	}
	if !sess.IsComplete {
		t.Error("expected forced completion")
	}
}

func TestLoopTimeBudget(t *testing.T) {
	source := &scriptedSource{decisions: []Decision{
		{ContinuePlanning: true, Reasoning: "keep going"},
	}}
	loop := NewLoop(LoopConfig{
		Source:          source,
		Runner:          &recordingRunner{},
		MaxIterations:   1000,
		MaxPlanningTime: 5 * time.Millisecond,
		IterationDelay:  2 * time.Millisecond,
		Log:             zerolog.Nop(),
	})

	sess := loop.RunSession(context.Background(), "explore forever")

	if sess.FinalResult != "Time limit reached" {
		t.Errorf("expected time-cap result, got %q", sess.FinalResult)
	}
	if sess.IterationCount >= 1000 {
		t.Errorf("expected the time budget to stop the loop early, ran %d iterations", sess.IterationCount)
	}
}

func TestLoopConfidenceGating(t *testing.T) {
	d, err := ParseDecision(`{"tool_calls": [
		{"tool": "move", "params": "forward 500", "confidence": 0.89},
		{"tool": "measure_distance", "params": "", "confidence": 0.91}
	], "should_continue": true, "reasoning": "trying both", "next_context": "moving"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	source := &scriptedSource{decisions: []Decision{
		d,
		{ContinuePlanning: true, ObjectiveComplete: true, Reasoning: "done"},
	}}
	runner := &recordingRunner{}
	loop := testLoop(source, runner, &statusRecorder{})

	sess := loop.RunSession(context.Background(), "approach the wall")

	if len(runner.calls) != 1 || runner.calls[0] != "measure_distance" {
		t.Errorf("expected only the 0.91 action executed, got %v", runner.calls)
	}
	if !strings.Contains(sess.ExecutionHistory, "move(forward 500) skipped (confidence 0.89)") {
		t.Errorf("expected skip recorded in history, got:\n%s", sess.ExecutionHistory)
	}
	if !strings.Contains(sess.ExecutionHistory, "measure_distance() -> ok") {
		t.Errorf("expected execution recorded in history, got:\n%s", sess.ExecutionHistory)
	}
}

func TestLoopStopDecisionEndsRunImmediately(t *testing.T) {
	source := &scriptedSource{decisions: []Decision{{}}}
	runner := &recordingRunner{}
	loop := testLoop(source, runner, &statusRecorder{})

	sess := loop.RunSession(context.Background(), "explore")

	if sess.IterationCount != 1 {
		t.Errorf("expected termination at iteration 1, got %d", sess.IterationCount)
	}
	if sess.FinalResult != "Reasoning service declined to continue." {
		t.Errorf("expected fallback final result, got %q", sess.FinalResult)
	}
	if len(runner.calls) != 0 {
		t.Errorf("expected no actions executed, got %v", runner.calls)
	}
	if n := strings.Count(sess.ExecutionHistory, "=== Iteration"); n != 1 {
		t.Errorf("expected 1 iteration block, got %d", n)
	}
}

func TestLoopEvaluatorAddsCompletion(t *testing.T) {
	source := &scriptedSource{decisions: []Decision{
		{
			Actions:          []ProposedAction{acceptedAction("measure_distance", "", 0.98)},
			ContinuePlanning: true,
			Reasoning:        "measuring",
			NextContext:      "moving closer",
		},
	}}
	runner := &recordingRunner{outputs: map[string]string{
		"measure_distance": "Distance: 15 cm (5/5 valid readings)",
	}}
	loop := testLoop(source, runner, &statusRecorder{})

	sess := loop.RunSession(context.Background(), "move forward until within 20cm of obstacle")

	if sess.IterationCount != 1 {
		t.Errorf("expected evaluator to stop the loop after 1 iteration, got %d", sess.IterationCount)
	}
	if sess.FinalResult != GoalAchievedResult {
		t.Errorf("expected evaluator result, got %q", sess.FinalResult)
	}
}

func TestLoopAdoptsSuggestedContext(t *testing.T) {
	source := &scriptedSource{decisions: []Decision{
		{ContinuePlanning: true, Reasoning: "first", NextContext: "approaching the wall"},
		{ContinuePlanning: true, ObjectiveComplete: true, Reasoning: "done"},
	}}
	status := &statusRecorder{}
	loop := testLoop(source, &recordingRunner{}, status)

	sess := loop.RunSession(context.Background(), "approach the wall")

	if sess.CurrentContext != "approaching the wall" {
		t.Errorf("expected suggested context adopted, got %q", sess.CurrentContext)
	}
	if !status.containing("Iteration 2: approaching the wall") {
		t.Errorf("expected iteration 2 narrated with the adopted context, got %v", status.events)
	}
}

func TestLoopSynthesizesContextWhenSuggestionEmpty(t *testing.T) {
	source := &scriptedSource{decisions: []Decision{
		{ContinuePlanning: true, Reasoning: "first"},
		{ContinuePlanning: true, ObjectiveComplete: true, Reasoning: "done"},
	}}
	status := &statusRecorder{}
	loop := testLoop(source, &recordingRunner{}, status)

	loop.RunSession(context.Background(), "approach the wall")

	if !status.containing("Iteration 2: Completed iteration 1.") {
		t.Errorf("expected synthesized continuation context, got %v", status.events)
	}
}

func TestLoopStatusNarration(t *testing.T) {
	source := &scriptedSource{decisions: []Decision{
		{
			Actions:          []ProposedAction{acceptedAction("notify", "hello", 0.99)},
			ContinuePlanning: true,
			Reasoning:        "saying hello",
		},
		{ContinuePlanning: true, ObjectiveComplete: true, Reasoning: "done"},
	}}
	status := &statusRecorder{}
	loop := testLoop(source, &recordingRunner{}, status)

	loop.RunSession(context.Background(), "say hello")

	if len(status.events) == 0 {
		t.Fatal("expected status events")
	}
	if status.events[0] != "Planning started: say hello" {
		t.Errorf("expected start narration first, got %q", status.events[0])
	}
	if !status.containing("Executed notify:") {
		t.Errorf("expected execution narration, got %v", status.events)
	}
	if !status.containing("Decision:") {
		t.Errorf("expected decision narration, got %v", status.events)
	}
	last := status.events[len(status.events)-1]
	if !strings.Contains(last, "Planning finished after 2 iteration(s)") {
		t.Errorf("expected terminal summary last, got %q", last)
	}
}

func TestLoopRunReturnsSummary(t *testing.T) {
	source := &scriptedSource{decisions: []Decision{{Reasoning: "nothing to do"}}}
	loop := testLoop(source, &recordingRunner{}, &statusRecorder{})

	got := loop.Run(context.Background(), "idle")

	if !strings.Contains(got, "Planning finished after 1 iteration(s)") ||
		!strings.Contains(got, "nothing to do") {
		t.Errorf("expected summary with count and result, got %q", got)
	}
}

func TestLoopEmptyObjectiveAccepted(t *testing.T) {
	source := &scriptedSource{decisions: []Decision{
		{ContinuePlanning: true, Reasoning: "no useful action"},
	}}
	loop := NewLoop(LoopConfig{
		Source:          source,
		Runner:          &recordingRunner{},
		MaxIterations:   2,
		MaxPlanningTime: time.Minute,
		Log:             zerolog.Nop(),
	})

	got := loop.Run(context.Background(), "")

	if !strings.Contains(got, "Maximum iterations reached") {
		t.Errorf("expected empty objective to run to the budget, got %q", got)
	}
}

func TestLoopSerializesConcurrentRuns(t *testing.T) {
	var active, overlaps, executions int32
	runner := runnerFunc(func(_ context.Context, _, _ string) string {
		if atomic.AddInt32(&active, 1) > 1 {
			atomic.AddInt32(&overlaps, 1)
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&active, -1)
		atomic.AddInt32(&executions, 1)
		return "ok"
	})
	source := &scriptedSource{decisions: []Decision{
		{Actions: []ProposedAction{acceptedAction("move", "forward 100", 0.95)}, ContinuePlanning: true, Reasoning: "go"},
	}}
	loop := NewLoop(LoopConfig{
		Source:          source,
		Runner:          runner,
		MaxIterations:   2,
		MaxPlanningTime: time.Minute,
		Log:             zerolog.Nop(),
	})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.Run(context.Background(), "drive around")
		}()
	}
	wg.Wait()

	if overlaps != 0 {
		t.Errorf("expected no overlapping executions, got %d", overlaps)
	}
	if executions != 4 {
		t.Errorf("expected 4 executions across both runs, got %d", executions)
	}
}
