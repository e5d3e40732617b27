package comms

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"theseus/logger"
)

// Runner executes one mission to completion and returns its summary. The
// planning loop is the production implementation.
type Runner interface {
	Run(ctx context.Context, objective string) string
}

// Router turns inbound command payloads into serialized mission runs. Handle
// is the broker callback: it parses, drops self-messages, and enqueues.
// Serve drains the queue one mission at a time, because the robot has
// exactly one physical state to act with.
type Router struct {
	robotID string
	queue   chan CommandMessage
	status  Sink
	log     zerolog.Logger
}

// RouterConfig wires a Router.
type RouterConfig struct {
	RobotID string

	// QueueDepth bounds how many commands may wait while a mission runs.
	// A full queue drops new commands with a busy status. Defaults to 8.
	QueueDepth int

	Status Sink
	Log    zerolog.Logger
}

// NewRouter creates a command router.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 8
	}
	if cfg.Status == nil {
		cfg.Status = Fanout{}
	}
	return &Router{
		robotID: cfg.RobotID,
		queue:   make(chan CommandMessage, cfg.QueueDepth),
		status:  cfg.Status,
		log:     cfg.Log,
	}
}

// Handle ingests one raw command payload. Malformed payloads produce an
// error status and are dropped; the robot's own messages are dropped
// silently; a full queue produces a busy status. Handle never blocks and
// never panics, whatever the payload.
func (r *Router) Handle(payload []byte) {
	msg, err := ParseCommand(payload)
	if err != nil {
		r.log.Warn().Err(err).Msg("dropping malformed command")
		r.status.Publish(fmt.Sprintf("Command rejected: %v", err))
		return
	}

	if msg.Sender == r.robotID {
		// Own status echo on a shared topic. Dropping it silently
		// prevents feedback loops.
		r.log.Debug().Msg("ignoring own message")
		return
	}

	select {
	case r.queue <- msg:
		r.log.Info().Str("command", msg.Content).Str("sender", msg.Sender).Msg("command queued")
	default:
		r.log.Warn().Str("command", msg.Content).Msg("command queue full")
		r.status.Publish(fmt.Sprintf("Robot busy: command queue full, dropping %q", truncate(msg.Content, 60)))
	}
}

// Serve runs queued missions one at a time until the context is canceled.
func (r *Router) Serve(ctx context.Context, runner Runner) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-r.queue:
			r.log.Info().Str(logger.MissionField, msg.ID).Str("objective", msg.Content).Msg("mission starting")
			summary := runner.Run(ctx, msg.Content)
			r.log.Info().Str(logger.MissionField, msg.ID).Str("summary", summary).Msg("mission finished")
		}
	}
}

// Pending reports how many commands are waiting.
func (r *Router) Pending() int {
	return len(r.queue)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
