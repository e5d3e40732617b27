package comms

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CommandMessage is the inbound envelope on the command topic. Sender and ID
// are optional origin markers; Content is the instruction itself.
type CommandMessage struct {
	Content string `json:"content"`
	Sender  string `json:"sender,omitempty"`
	ID      string `json:"id,omitempty"`
}

// ParseCommand decodes an inbound command payload. Bare non-JSON payloads
// and envelopes without content are malformed; the caller drops them.
func ParseCommand(payload []byte) (CommandMessage, error) {
	var msg CommandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return CommandMessage{}, fmt.Errorf("malformed command payload: %w", err)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return CommandMessage{}, errors.New("command payload missing content")
	}
	return msg, nil
}

// StatusMessage is the outbound envelope on the status topic. Timestamp is
// unix milliseconds.
type StatusMessage struct {
	RobotID   string `json:"robot_id"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// NewStatusMessage stamps a status line with the robot identity and time.
func NewStatusMessage(robotID, status string, now time.Time) StatusMessage {
	return StatusMessage{
		RobotID:   robotID,
		Status:    status,
		Timestamp: now.UnixMilli(),
	}
}

// WebhookEvent is the JSON body POSTed to the optional webhook endpoint.
type WebhookEvent struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	RobotID   string `json:"robot_id"`
}
