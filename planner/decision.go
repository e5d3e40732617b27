package planner

import (
	"theseus/internal/jsonutil"
)

const (
	// MaxActionsPerDecision caps the action batch from a single reply.
	// Extra actions are silently dropped, never rejected.
	MaxActionsPerDecision = 5

	// ConfidenceGate is the strict threshold an action must exceed to run.
	ConfidenceGate = 0.9
)

// ProposedAction is one capability invocation requested by the reasoning
// service. Params stays an opaque string here; only the executor interprets it.
type ProposedAction struct {
	Name       string  `json:"tool"`
	Params     string  `json:"params"`
	Confidence float64 `json:"confidence"`

	// Accepted is computed locally from Confidence, never trusted from
	// the wire.
	Accepted bool `json:"-"`
}

// Decision is the reasoning service's structured answer for one iteration.
// All fields are optional on the wire; absence decodes to the zero value,
// which reads as "stop planning with nothing to do".
type Decision struct {
	Actions           []ProposedAction `json:"tool_calls"`
	ContinuePlanning  bool             `json:"should_continue"`
	ObjectiveComplete bool             `json:"objective_complete"`
	Reasoning         string           `json:"reasoning"`
	NextContext       string           `json:"next_context"`
}

// ParseDecision extracts the decision JSON from a raw reasoning reply and
// normalizes it: the action list is truncated to MaxActionsPerDecision and
// each action's Accepted flag is derived from its confidence.
func ParseDecision(reply string) (Decision, error) {
	decision, err := jsonutil.Decode[Decision](reply)
	if err != nil {
		return Decision{}, err
	}

	if len(decision.Actions) > MaxActionsPerDecision {
		decision.Actions = decision.Actions[:MaxActionsPerDecision]
	}
	for i := range decision.Actions {
		decision.Actions[i].Accepted = decision.Actions[i].Confidence > ConfidenceGate
	}

	return decision, nil
}

// StopDecision builds the synthetic decision used whenever a reasoning call
// fails: zero actions and no continuation, with the diagnostic as reasoning.
// Encoding failure this way gives the loop a single handling path.
func StopDecision(diagnostic string) Decision {
	return Decision{
		ContinuePlanning: false,
		Reasoning:        diagnostic,
	}
}
