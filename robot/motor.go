package robot

import (
	"context"
	"time"
)

// Motor drives the wheel pairs through an L298N-style controller. Drive
// blocks for the whole actuation: it engages the direction, holds it for the
// duration, and releases. DirStop releases immediately regardless of the
// duration.
//
// The robot has exactly one physical drivetrain; callers are expected to
// serialize access (the planning loop runs one action at a time).
type Motor interface {
	Drive(ctx context.Context, dir Direction, d time.Duration) error
}
