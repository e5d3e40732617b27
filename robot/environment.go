package robot

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Link reports transport connectivity for environment snapshots. The MQTT
// client satisfies it; a disconnected or absent link reads as false.
type Link interface {
	Connected() bool
}

// EnvironmentAction snapshots the robot's surroundings and health: distance,
// link state, uptime, and memory.
type EnvironmentAction struct {
	robotID string
	sampler *Sampler
	link    Link
	clock   clockwork.Clock
	started time.Time
	log     zerolog.Logger
}

// NewEnvironmentAction creates the "gather_environment" capability. A nil
// link is reported as disconnected.
func NewEnvironmentAction(robotID string, sampler *Sampler, link Link, clock clockwork.Clock, log zerolog.Logger) *EnvironmentAction {
	return &EnvironmentAction{
		robotID: robotID,
		sampler: sampler,
		link:    link,
		clock:   clock,
		started: clock.Now(),
		log:     log,
	}
}

// Metadata returns the capability metadata.
func (a *EnvironmentAction) Metadata() Metadata {
	return Metadata{
		Name:        "gather_environment",
		Description: "Gathers an environment snapshot: obstacle distance, link state, uptime and memory",
	}
}

// Execute assembles the snapshot text.
func (a *EnvironmentAction) Execute(ctx context.Context, _ string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Environment report for %s (host %s):\n", a.robotID, hostname())

	raw := a.sampler.Collect(ctx, MeasureSamples)
	valid := validSamples(raw)
	if len(valid) == 0 {
		b.WriteString(outOfRangeResult + "\n")
	} else {
		stats := statsOf(valid)
		fmt.Fprintf(&b, "Distance: %d cm (%d/%d valid readings)\n", stats.Average, len(valid), len(raw))
	}

	if a.link != nil && a.link.Connected() {
		b.WriteString("Link: broker connected\n")
	} else {
		b.WriteString("Link: broker disconnected\n")
	}

	fmt.Fprintf(&b, "Uptime: %s\n", a.clock.Since(a.started).Round(time.Second))

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	fmt.Fprintf(&b, "Memory: %d KB heap in use, %d GC cycles", mem.HeapAlloc/1024, mem.NumGC)

	return b.String()
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

// Verify EnvironmentAction implements Capability
var _ Capability = (*EnvironmentAction)(nil)
