package planner

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

func evalSession(objective, context string) *Session {
	s := NewSession(clockwork.NewFakeClock(), objective)
	if context != "" {
		s.CurrentContext = context
	}
	return s
}

func TestEvaluatorThresholdAchieved(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())
	s := evalSession("move forward until within 20cm of obstacle", "")

	if !e.Check(s, "Distance: 15 cm (5/5 valid readings)") {
		t.Error("expected 15cm reading to satisfy a 20cm threshold")
	}
}

func TestEvaluatorThresholdNotAchieved(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())
	s := evalSession("move forward until within 20cm of obstacle", "")

	if e.Check(s, "Distance: 25 cm (5/5 valid readings)") {
		t.Error("expected 25cm reading to fail a 20cm threshold")
	}
}

func TestEvaluatorThresholdBoundary(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())
	s := evalSession("get within 20 cm of the wall", "")

	if !e.Check(s, "distance: 20 cm") {
		t.Error("expected reading equal to the threshold to count as achieved")
	}
}

func TestEvaluatorThresholdWithoutReading(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())
	s := evalSession("move forward until within 20cm of obstacle", "")

	if e.Check(s, "Moved forward for 1s.") {
		t.Error("expected no completion without a distance reading")
	}
}

func TestEvaluatorThresholdIgnoresOutOfRange(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())
	s := evalSession("move forward until within 20cm of obstacle", "")

	if e.Check(s, "Distance: Out of range (>400cm or no echo)") {
		t.Error("expected out-of-range result not to satisfy the threshold")
	}
}

func TestEvaluatorCaseFolded(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())
	s := evalSession("Move Forward Until WITHIN 20CM Of Obstacle", "")

	if !e.Check(s, "DISTANCE: 12 CM") {
		t.Error("expected case-insensitive matching")
	}
}

func TestEvaluatorOpenEndedCondition(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())
	s := evalSession("drive until you reach the wall", "")

	if !e.Check(s, "Status update sent: Goal achieved! Distance is 15cm, within 20cm target") {
		t.Error("expected results mentioning a within-distance condition to complete an until objective")
	}
	if e.Check(s, "Moved forward for 1s.") {
		t.Error("expected plain movement output not to complete an until objective")
	}
}

func TestEvaluatorHaltCondition(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())

	s := evalSession("stop the car", "")
	if !e.Check(s, "Motors stopped.") {
		t.Error("expected stopped result to complete a stop objective")
	}

	s = evalSession("halt immediately", "the car has halted near the wall")
	if !e.Check(s, "") {
		t.Error("expected halted context to complete a halt objective")
	}

	s = evalSession("stop the car", "")
	if e.Check(s, "Moved forward for 1s.") {
		t.Error("expected stop objective incomplete without a stopped state")
	}
}

func TestEvaluatorNoRecognizedPattern(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())
	s := evalSession("find the nearest obstacle", "")

	if e.Check(s, "Distance: 15 cm (5/5 valid readings)") {
		t.Error("expected no completion for an unrecognized objective phrasing")
	}
}

func TestEvaluatorThresholdTakesPriorityOverHalt(t *testing.T) {
	e := NewEvaluator(zerolog.Nop())
	s := evalSession("move until within 30cm of the wall then stop", "")

	// The threshold phrase wins; a stopped state alone is not enough.
	if e.Check(s, "Motors stopped.") {
		t.Error("expected threshold rule to take priority over the halt rule")
	}
	if !e.Check(s, "Distance: 28 cm (5/5 valid readings)") {
		t.Error("expected threshold comparison to decide the outcome")
	}
}
