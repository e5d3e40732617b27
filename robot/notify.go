package robot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// StatusSink publishes one free-text status line to whoever is listening
// (MQTT status topic, webhook, console). Publishing is best-effort.
type StatusSink interface {
	Publish(status string)
}

// NotifyAction publishes a status update on the outbound status channel. It
// is how the planner narrates progress to observers mid-mission.
type NotifyAction struct {
	sink StatusSink
	log  zerolog.Logger
}

// NewNotifyAction creates the "notify" capability over the given sink.
func NewNotifyAction(sink StatusSink, log zerolog.Logger) *NotifyAction {
	return &NotifyAction{sink: sink, log: log}
}

// Metadata returns the capability metadata.
func (a *NotifyAction) Metadata() Metadata {
	return Metadata{
		Name:        "notify",
		Description: "Publishes a status update on the outbound status channel",
		Params:      "free text to publish",
	}
}

// Execute publishes the message and reports what was sent.
func (a *NotifyAction) Execute(_ context.Context, params string) string {
	cmd := ParseNotifyCommand(params)
	if cmd.Text == "" {
		return "Nothing to publish: empty message."
	}

	a.sink.Publish(cmd.Text)
	return fmt.Sprintf("Status update sent: %s", cmd.Text)
}

// Verify NotifyAction implements Capability
var _ Capability = (*NotifyAction)(nil)
