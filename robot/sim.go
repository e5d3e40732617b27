// Simulated drivers.
//
// SimCar models the car as a point in a rectangular room. Forward motion
// closes on the wall ahead at the calibrated ground speed, turns rotate the
// heading at the calibrated pivot rate, and the sonar reads the straight
// line distance to whatever wall the car is facing. The model is
// deterministic so examples and tests behave the same on every run.

package robot

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Calibration measured on the physical car: 2000 ms of forward drive covers
// about 132.7 cm, and a 570 ms pivot is a 90 degree turn.
const (
	simCMPerMS      = 132.7 / 2000.0
	simDegreesPerMS = 90.0 / 570.0
)

// simWallMargin is how close the chassis can get to a wall, in cm.
const simWallMargin = 5.0

// SimCar is an in-memory motor and rangefinder. It satisfies both driver
// interfaces so the rest of the firmware cannot tell it from hardware.
type SimCar struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	width   float64
	depth   float64
	x, y    float64
	heading float64 // degrees clockwise, 0 = facing the far wall
}

var (
	_ Motor       = (*SimCar)(nil)
	_ Rangefinder = (*SimCar)(nil)
)

// NewSimCar places the car at the center of a 500x500 cm room, facing a wall
// 250 cm away.
func NewSimCar(clock clockwork.Clock) *SimCar {
	return &SimCar{
		clock: clock,
		width: 500,
		depth: 500,
		x:     250,
		y:     250,
	}
}

// Place moves the car to (x, y) with the given heading in degrees. Intended
// for tests and examples that need a known starting geometry.
func (s *SimCar) Place(x, y, heading float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.x = clampF(x, simWallMargin, s.width-simWallMargin)
	s.y = clampF(y, simWallMargin, s.depth-simWallMargin)
	s.heading = normalizeDegrees(heading)
}

// Heading returns the current heading in degrees.
func (s *SimCar) Heading() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heading
}

// Position returns the car's coordinates in cm.
func (s *SimCar) Position() (x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.x, s.y
}

// Drive runs the virtual motors for the given duration, then updates the
// car's pose. DirStop releases immediately.
func (s *SimCar) Drive(ctx context.Context, dir Direction, d time.Duration) error {
	if dir == DirStop {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(d):
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ms := float64(d.Milliseconds())
	switch dir {
	case DirForward:
		s.advance(ms * simCMPerMS)
	case DirBackward:
		s.advance(-ms * simCMPerMS)
	case DirLeft:
		s.heading = normalizeDegrees(s.heading - ms*simDegreesPerMS)
	case DirRight:
		s.heading = normalizeDegrees(s.heading + ms*simDegreesPerMS)
	}
	return nil
}

// Sample reads the distance to the wall ahead, in whole cm. The room walls
// are the only obstacles, so a reading can exceed the sonar ceiling; the
// sampler discards those the same way it discards bad echoes on hardware.
func (s *SimCar) Sample(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(math.Round(s.wallDistance())), nil
}

// advance moves the car along its heading, stopping at the walls.
func (s *SimCar) advance(dist float64) {
	rad := s.heading * math.Pi / 180
	s.x = clampF(s.x+dist*math.Sin(rad), simWallMargin, s.width-simWallMargin)
	s.y = clampF(s.y+dist*math.Cos(rad), simWallMargin, s.depth-simWallMargin)
}

// wallDistance casts a ray from the car along its heading and returns the
// distance to the nearest room boundary.
func (s *SimCar) wallDistance() float64 {
	rad := s.heading * math.Pi / 180
	dx, dy := math.Sin(rad), math.Cos(rad)

	best := math.MaxFloat64
	if dx > 1e-9 {
		best = math.Min(best, (s.width-s.x)/dx)
	} else if dx < -1e-9 {
		best = math.Min(best, -s.x/dx)
	}
	if dy > 1e-9 {
		best = math.Min(best, (s.depth-s.y)/dy)
	} else if dy < -1e-9 {
		best = math.Min(best, -s.y/dy)
	}
	return best
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func clampF(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
