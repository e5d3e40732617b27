// Goal evaluation.
//
// The evaluator is a local, deterministic backstop that can declare success
// when a goal has a mechanically checkable condition, even if the reasoning
// service does not. It recognizes three phrasings, checked in priority
// order, first match wins:
//
//  1. Threshold: the objective says "within <N> cm"; achieved when the
//     latest results report a distance reading <= N.
//  2. Open-ended: the objective says "until ..." with no threshold phrase;
//     achieved when the latest results themselves mention a "within <N> cm"
//     condition.
//  3. Halt: the objective asks to stop or halt; achieved when the context or
//     the latest results mention a stopped or halted state.
//
// Everything is case-folded before inspection. Matching is textual, not
// semantic, and known-imprecise: it is a backstop for the reasoning
// service's own completion flag, never a replacement. The evaluator can add
// a completion the service missed; it cannot override one.

package planner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// GoalAchievedResult is the fixed final result recorded when the evaluator,
// rather than the reasoning service, declares the objective achieved.
const GoalAchievedResult = "Objective achieved (confirmed by local goal evaluation)."

var (
	// thresholdPattern matches "within 20cm" / "within 20 cm".
	thresholdPattern = regexp.MustCompile(`within\s+(\d+)\s*cm`)

	// readingPattern matches a reported reading such as "distance: 15 cm"
	// or "distance is 15cm".
	readingPattern = regexp.MustCompile(`distance\s*(?:is\s+)?[:=]?\s*(\d+)\s*cm`)
)

// Evaluator checks a session against the heuristic goal grammar.
type Evaluator struct {
	log zerolog.Logger
}

// NewEvaluator creates a goal evaluator.
func NewEvaluator(log zerolog.Logger) *Evaluator {
	return &Evaluator{log: log}
}

// Check reports whether the objective reads as achieved, given the outputs
// of the iteration that just executed. It is a pure function of the
// session's text fields and latestResults.
func (e *Evaluator) Check(s *Session, latestResults string) bool {
	objective := strings.ToLower(s.Objective)
	context := strings.ToLower(s.CurrentContext)
	results := strings.ToLower(latestResults)

	if m := thresholdPattern.FindStringSubmatch(objective); m != nil {
		threshold, err := strconv.Atoi(m[1])
		if err != nil {
			return false
		}
		r := readingPattern.FindStringSubmatch(results)
		if r == nil {
			return false
		}
		reading, err := strconv.Atoi(r[1])
		if err != nil {
			return false
		}
		achieved := reading <= threshold
		if achieved {
			e.log.Info().Int("reading_cm", reading).Int("threshold_cm", threshold).Msg("threshold goal achieved")
		}
		return achieved
	}

	if strings.Contains(objective, "until") {
		achieved := thresholdPattern.MatchString(results)
		if achieved {
			e.log.Info().Msg("open-ended goal achieved")
		}
		return achieved
	}

	if strings.Contains(objective, "stop") || strings.Contains(objective, "halt") {
		achieved := strings.Contains(context, "stopped") || strings.Contains(results, "stopped") ||
			strings.Contains(context, "halted") || strings.Contains(results, "halted")
		if achieved {
			e.log.Info().Msg("halt goal achieved")
		}
		return achieved
	}

	return false
}
