package robot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// MoveAction drives the car: forward, backward, left, right, or stop.
type MoveAction struct {
	motor Motor
	log   zerolog.Logger
}

// NewMoveAction creates the "move" capability over the given motor driver.
func NewMoveAction(motor Motor, log zerolog.Logger) *MoveAction {
	return &MoveAction{motor: motor, log: log}
}

// Metadata returns the capability metadata.
func (a *MoveAction) Metadata() Metadata {
	return Metadata{
		Name:        "move",
		Description: "Controls movement: forward/backward/left/right for a duration in ms (turns also accept 90/180/270/360 degrees), or stop",
		Params:      "\"<direction> <magnitude>\", e.g. \"forward 1000\", \"left 90\", \"stop\"",
	}
}

// Execute parses and performs one bounded movement.
func (a *MoveAction) Execute(ctx context.Context, params string) string {
	cmd, err := ParseMoveCommand(params)
	if err != nil {
		return fmt.Sprintf("Invalid move parameters: %v", err)
	}

	a.log.Debug().
		Str("direction", string(cmd.Direction)).
		Dur("duration", cmd.Duration).
		Msg("driving")

	if err := a.motor.Drive(ctx, cmd.Direction, cmd.Duration); err != nil {
		return fmt.Sprintf("Movement failed: %v", err)
	}

	switch {
	case cmd.Direction == DirStop:
		return "Motors stopped."
	case cmd.Degrees != 0:
		return fmt.Sprintf("Turned %s %d degrees (%s).", cmd.Direction, cmd.Degrees, cmd.Duration)
	default:
		return fmt.Sprintf("Moved %s for %s.", cmd.Direction, cmd.Duration)
	}
}

// Verify MoveAction implements Capability
var _ Capability = (*MoveAction)(nil)
