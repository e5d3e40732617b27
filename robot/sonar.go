// Sonar capabilities: averaged distance measurement and the extended sensor
// diagnostic.
//
// Both take multiple raw pings and discard out-of-range samples (no echo, or
// beyond the 400cm ceiling) before summarizing, so one bad echo cannot skew a
// reading the planner acts on.

package robot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Sample counts for the two sonar capabilities.
const (
	MeasureSamples  = 5
	DiagnoseSamples = 10
)

// outOfRangeResult is reported when no sample in a batch was usable.
const outOfRangeResult = "Distance: Out of range (>400cm or no echo)"

// MeasureAction reports the averaged sonar distance.
type MeasureAction struct {
	sampler *Sampler
	log     zerolog.Logger
}

// NewMeasureAction creates the "measure_distance" capability.
func NewMeasureAction(sampler *Sampler, log zerolog.Logger) *MeasureAction {
	return &MeasureAction{sampler: sampler, log: log}
}

// Metadata returns the capability metadata.
func (a *MeasureAction) Metadata() Metadata {
	return Metadata{
		Name:        "measure_distance",
		Description: "Measures distance to the nearest obstacle with the ultrasonic sensor, averaged over 5 readings, in centimeters",
	}
}

// Execute takes the sample batch and reports the mean of the valid readings.
func (a *MeasureAction) Execute(ctx context.Context, _ string) string {
	raw := a.sampler.Collect(ctx, MeasureSamples)
	valid := validSamples(raw)

	if len(valid) == 0 {
		return outOfRangeResult
	}

	stats := statsOf(valid)
	a.log.Debug().Int("cm", stats.Average).Int("valid", len(valid)).Msg("distance measured")
	return fmt.Sprintf("Distance: %d cm (%d/%d valid readings)", stats.Average, len(valid), len(raw))
}

// DiagnoseAction runs the extended sonar health check.
type DiagnoseAction struct {
	sampler *Sampler
	log     zerolog.Logger
}

// NewDiagnoseAction creates the "diagnose_sensor" capability.
func NewDiagnoseAction(sampler *Sampler, log zerolog.Logger) *DiagnoseAction {
	return &DiagnoseAction{sampler: sampler, log: log}
}

// Metadata returns the capability metadata.
func (a *DiagnoseAction) Metadata() Metadata {
	return Metadata{
		Name:        "diagnose_sensor",
		Description: "Tests the ultrasonic sensor over 10 readings and reports min/max/average/spread with a health verdict",
	}
}

// Execute collects the diagnostic batch and summarizes sensor health.
func (a *DiagnoseAction) Execute(ctx context.Context, _ string) string {
	raw := a.sampler.Collect(ctx, DiagnoseSamples)
	valid := validSamples(raw)

	var b strings.Builder
	fmt.Fprintf(&b, "Sonar diagnostic: %d/%d valid readings\n", len(valid), len(raw))

	if len(valid) == 0 {
		b.WriteString("Verdict: no echo received; sensor may be disconnected, blocked, or clear beyond 400cm")
		return b.String()
	}

	stats := statsOf(valid)
	fmt.Fprintf(&b, "Min: %d cm, Max: %d cm, Average: %d cm, Spread: %d cm\n", stats.Min, stats.Max, stats.Average, stats.Spread)
	b.WriteString("Verdict: " + diagnosticVerdict(len(valid), len(raw), stats))
	return b.String()
}

// diagnosticVerdict classifies the batch. Thresholds are deliberately coarse:
// the verdict feeds a prompt, not a control decision.
func diagnosticVerdict(valid, total int, stats sampleStats) string {
	switch {
	case valid < total/2:
		return "intermittent readings; check sensor wiring and mounting"
	case stats.Spread > 100:
		return "unstable readings; surroundings may be moving or echo-scattering"
	default:
		return "sensor healthy"
	}
}

// Verify sonar capabilities implement Capability
var (
	_ Capability = (*MeasureAction)(nil)
	_ Capability = (*DiagnoseAction)(nil)
)
