// Capability dispatch.
//
// The executor is the only code path with real-world side effects, and it is
// deliberately crash-proof: unknown names, bad parameters, and even a
// panicking capability all come back as descriptive result text. The device
// must keep running on a bad network day.

package robot

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Executor dispatches named actions to their capability implementations.
type Executor struct {
	registry *Registry
	log      zerolog.Logger
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *Registry, log zerolog.Logger) *Executor {
	return &Executor{registry: registry, log: log}
}

// Registry returns the underlying capability registry.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute looks up the capability by exact name and runs it. Unknown names
// and capability panics return descriptive text; Execute never raises.
func (e *Executor) Execute(ctx context.Context, name, params string) (result string) {
	capability, exists := e.registry.Get(name)
	if !exists {
		return fmt.Sprintf("Action '%s' not found. Available actions: %s", name, strings.Join(e.registry.Names(), ", "))
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("action", name).Interface("panic", r).Msg("capability panicked")
			result = fmt.Sprintf("Action '%s' failed unexpectedly: %v", name, r)
		}
	}()

	e.log.Info().Str("action", name).Str("params", params).Msg("executing action")
	return capability.Execute(ctx, params)
}

// Drivers bundles everything the default capability set actuates or
// observes. Link may be nil when no broker is configured.
type Drivers struct {
	RobotID     string
	Motor       Motor
	Rangefinder Rangefinder
	Status      StatusSink
	Link        Link
	Clock       clockwork.Clock
}

// DefaultRegistry builds the registry with the robot's five capabilities:
// move, measure_distance, diagnose_sensor, gather_environment, and notify.
func DefaultRegistry(d Drivers, log zerolog.Logger) (*Registry, error) {
	sampler := NewSampler(d.Rangefinder, d.Clock)

	registry := NewRegistry()
	capabilities := []Capability{
		NewMoveAction(d.Motor, log),
		NewMeasureAction(sampler, log),
		NewDiagnoseAction(sampler, log),
		NewEnvironmentAction(d.RobotID, sampler, d.Link, d.Clock, log),
		NewNotifyAction(d.Status, log),
	}

	for _, c := range capabilities {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register default capabilities: %w", err)
		}
	}

	return registry, nil
}
