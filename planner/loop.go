package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"theseus/logger"
)

// DecisionSource produces one planning decision per call. The Gateway is the
// production implementation. A source never returns an error; failure is
// encoded in the decision itself.
type DecisionSource interface {
	Decide(ctx context.Context, s *Session) Decision
}

// ActionRunner dispatches one named action and returns its textual result,
// whatever happens. The robot executor is the production implementation.
type ActionRunner interface {
	Execute(ctx context.Context, name, params string) string
}

// StatusSink receives best-effort progress narration.
type StatusSink interface {
	Publish(status string)
}

type noopSink struct{}

func (noopSink) Publish(string) {}

// Terminal results for policy (budget) terminations, as opposed to semantic
// ones where the final result is the decision's own reasoning.
const (
	maxIterationsResult = "Maximum iterations reached"
	timeLimitResult     = "Time limit reached"
)

// Loop drives the bounded iterate-act-evaluate cycle for one objective at a
// time. It is the sole owner of the stopping decision and of the session it
// creates, and it never returns an error: every outcome, including total
// reasoning-service failure, ends in a summary string.
type Loop struct {
	source    DecisionSource
	runner    ActionRunner
	evaluator *Evaluator
	status    StatusSink
	clock     clockwork.Clock
	log       zerolog.Logger

	maxIterations   int
	maxPlanningTime time.Duration
	iterationDelay  time.Duration
	actionSettle    time.Duration

	// The robot has exactly one physical state, so at most one run may be
	// active. Concurrent callers queue here.
	mu sync.Mutex
}

// LoopConfig wires a Loop. Source and Runner are required; a nil Status is
// replaced with a no-op sink, a nil Evaluator and Clock with real ones.
// Non-positive budgets fall back to their defaults so a run is always
// bounded; the delays are taken as given, with zero meaning no pause.
type LoopConfig struct {
	Source    DecisionSource
	Runner    ActionRunner
	Evaluator *Evaluator
	Status    StatusSink
	Clock     clockwork.Clock

	MaxIterations   int
	MaxPlanningTime time.Duration
	IterationDelay  time.Duration
	ActionSettle    time.Duration

	Log zerolog.Logger
}

// NewLoop creates a planning loop.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Status == nil {
		cfg.Status = noopSink{}
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = NewEvaluator(cfg.Log)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.MaxPlanningTime <= 0 {
		cfg.MaxPlanningTime = 2 * time.Minute
	}

	return &Loop{
		source:          cfg.Source,
		runner:          cfg.Runner,
		evaluator:       cfg.Evaluator,
		status:          cfg.Status,
		clock:           cfg.Clock,
		log:             cfg.Log,
		maxIterations:   cfg.MaxIterations,
		maxPlanningTime: cfg.MaxPlanningTime,
		iterationDelay:  cfg.IterationDelay,
		actionSettle:    cfg.ActionSettle,
	}
}

// Run plans and acts until the objective completes, the reasoning service
// declines to continue, or a budget runs out. It always returns a summary
// naming the iteration count, elapsed time, and final result.
func (l *Loop) Run(ctx context.Context, objective string) string {
	return l.RunSession(ctx, objective).Summary()
}

// RunSession is Run exposing the finished session, for callers that record
// missions or inspect history.
func (l *Loop) RunSession(ctx context.Context, objective string) *Session {
	l.mu.Lock()
	defer l.mu.Unlock()

	sess := NewSession(l.clock, objective)
	l.log.Info().
		Str(logger.MissionField, sess.ID).
		Str("objective", objective).
		Msg("planning started")
	l.status.Publish(fmt.Sprintf("Planning started: %s", objective))

	for !sess.IsComplete &&
		sess.IterationCount < l.maxIterations &&
		sess.Elapsed(l.clock.Now()) < l.maxPlanningTime {

		sess.BeginIteration(l.clock.Now())
		l.status.Publish(fmt.Sprintf("Iteration %d: %s", sess.IterationCount, sess.CurrentContext))

		decision := l.source.Decide(ctx, sess)
		l.status.Publish(decisionSummary(decision))
		l.log.Debug().
			Str(logger.MissionField, sess.ID).
			Int(logger.IterationField, sess.IterationCount).
			Int("actions", len(decision.Actions)).
			Msg("decision received")

		if !decision.ContinuePlanning || decision.ObjectiveComplete {
			// The terminating iteration still leaves its reasoning in
			// the history, even though its actions never run.
			sess.AppendRecord(IterationRecord{
				Iteration: sess.IterationCount,
				Reasoning: decision.Reasoning,
			})
			sess.Complete(terminalReason(decision))
			break
		}

		results := l.executeBatch(ctx, decision.Actions)
		sess.AppendRecord(IterationRecord{
			Iteration: sess.IterationCount,
			Reasoning: decision.Reasoning,
			Results:   results,
		})

		if l.evaluator.Check(sess, ExecutedOutputs(results)) {
			sess.Complete(GoalAchievedResult)
			break
		}

		sess.AdoptContext(decision.NextContext)
		l.clock.Sleep(l.iterationDelay)
	}

	if !sess.IsComplete {
		// Budget exhaustion. Which budget decides the wording.
		if sess.IterationCount >= l.maxIterations {
			sess.Complete(maxIterationsResult)
		} else {
			sess.Complete(timeLimitResult)
		}
	}

	sess.Duration = sess.Elapsed(l.clock.Now())
	l.log.Info().
		Str(logger.MissionField, sess.ID).
		Int(logger.IterationField, sess.IterationCount).
		Dur("elapsed", sess.Duration).
		Str("result", sess.FinalResult).
		Msg("planning finished")
	l.status.Publish(sess.Summary())

	return sess
}

// executeBatch runs one decision's accepted actions in order, with the
// settle delay after each executed action. Skipped actions are recorded, not
// executed, and get no settle delay.
func (l *Loop) executeBatch(ctx context.Context, actions []ProposedAction) []ActionResult {
	results := make([]ActionResult, 0, len(actions))
	for _, a := range actions {
		res := ActionResult{Name: a.Name, Params: a.Params, Confidence: a.Confidence}
		if !a.Accepted {
			res.Skipped = true
			l.status.Publish(fmt.Sprintf("Skipped %s (confidence %.2f)", a.Name, a.Confidence))
			results = append(results, res)
			continue
		}

		res.Output = l.runner.Execute(ctx, a.Name, a.Params)
		l.log.Debug().Str(logger.ActionField, a.Name).Str("output", res.Output).Msg("action executed")
		l.status.Publish(fmt.Sprintf("Executed %s: %s", a.Name, res.Output))
		results = append(results, res)

		l.clock.Sleep(l.actionSettle)
	}
	return results
}

// terminalReason picks the final result for a semantic termination.
func terminalReason(d Decision) string {
	if d.Reasoning != "" {
		return d.Reasoning
	}
	return "Reasoning service declined to continue."
}

func decisionSummary(d Decision) string {
	reasoning := d.Reasoning
	if reasoning == "" {
		reasoning = "(no reasoning given)"
	}
	return fmt.Sprintf("Decision: %d action(s), continue=%t, complete=%t. %s",
		len(d.Actions), d.ContinuePlanning, d.ObjectiveComplete, reasoning)
}
