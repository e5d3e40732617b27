// Typed parameter commands, parsed once at the capability boundary.
//
// The planner hands every capability an opaque parameter string. Each
// capability converts that string into its typed command here; nothing below
// this layer sees raw text again.

package robot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Direction is a movement direction the motor driver understands.
type Direction string

const (
	DirForward  Direction = "forward"
	DirBackward Direction = "backward"
	DirLeft     Direction = "left"
	DirRight    Direction = "right"
	DirStop     Direction = "stop"
)

// ParseDirection maps a raw token onto a Direction, case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(s)) {
	case DirForward:
		return DirForward, true
	case DirBackward:
		return DirBackward, true
	case DirLeft:
		return DirLeft, true
	case DirRight:
		return DirRight, true
	case DirStop:
		return DirStop, true
	default:
		return "", false
	}
}

// IsTurn reports whether the direction rotates the car in place.
func (d Direction) IsTurn() bool {
	return d == DirLeft || d == DirRight
}

// Movement calibration. 570ms of turning rotates the car roughly 90 degrees;
// magnitudes at exact quarter-turn values are treated as degrees rather than
// milliseconds.
const (
	QuarterTurnDuration = 570 * time.Millisecond

	// MaxMoveDuration caps one bounded-duration actuation.
	MaxMoveDuration = 10 * time.Second
)

// MoveCommand is the typed form of a "move" parameter string.
type MoveCommand struct {
	Direction Direction
	Duration  time.Duration
	// Degrees is non-zero when a turn magnitude was given in degrees
	// (90, 180, 270 or 360) and converted to a duration.
	Degrees int
}

// ParseMoveCommand parses "<direction> <magnitude>". The magnitude is a
// duration in milliseconds, except for turns at the canonical degree values
// 90/180/270/360 which are converted at 570ms per quarter turn. "stop" takes
// no magnitude.
func ParseMoveCommand(raw string) (MoveCommand, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return MoveCommand{}, fmt.Errorf("missing direction (expected \"<direction> <magnitude>\")")
	}

	dir, ok := ParseDirection(fields[0])
	if !ok {
		return MoveCommand{}, fmt.Errorf("unknown direction %q (expected forward, backward, left, right or stop)", fields[0])
	}

	if dir == DirStop {
		// Brakes immediately; any trailing magnitude is ignored.
		return MoveCommand{Direction: DirStop}, nil
	}

	if len(fields) < 2 {
		return MoveCommand{}, fmt.Errorf("missing magnitude for %q", dir)
	}

	magnitude, err := strconv.Atoi(fields[1])
	if err != nil {
		return MoveCommand{}, fmt.Errorf("magnitude %q is not a whole number", fields[1])
	}
	if magnitude <= 0 {
		return MoveCommand{}, fmt.Errorf("magnitude must be positive, got %d", magnitude)
	}

	cmd := MoveCommand{Direction: dir}
	if dir.IsTurn() && isCanonicalDegrees(magnitude) {
		cmd.Degrees = magnitude
		cmd.Duration = time.Duration(magnitude/90) * QuarterTurnDuration
	} else {
		cmd.Duration = time.Duration(magnitude) * time.Millisecond
	}

	if cmd.Duration > MaxMoveDuration {
		return MoveCommand{}, fmt.Errorf("magnitude %d exceeds the %s movement ceiling", magnitude, MaxMoveDuration)
	}

	return cmd, nil
}

// isCanonicalDegrees reports whether a turn magnitude reads as degrees.
func isCanonicalDegrees(magnitude int) bool {
	switch magnitude {
	case 90, 180, 270, 360:
		return true
	default:
		return false
	}
}

// NotifyCommand is the typed form of a "notify" parameter string.
type NotifyCommand struct {
	Text string
}

// ParseNotifyCommand trims the free-text message.
func ParseNotifyCommand(raw string) NotifyCommand {
	return NotifyCommand{Text: strings.TrimSpace(raw)}
}
