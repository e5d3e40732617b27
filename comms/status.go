package comms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"theseus/logger"
)

// Sink consumes one free-text status line. Publishing is best-effort
// everywhere: a failing sink logs and moves on, it never propagates.
type Sink interface {
	Publish(status string)
}

var (
	_ Sink = Fanout(nil)
	_ Sink = (*StatusPublisher)(nil)
	_ Sink = (*WebhookSink)(nil)
	_ Sink = ConsoleSink{}
)

// Fanout publishes each status to every member sink in order.
type Fanout []Sink

func (f Fanout) Publish(status string) {
	for _, s := range f {
		s.Publish(status)
	}
}

// StatusPublisher sends status envelopes on the MQTT status topic.
type StatusPublisher struct {
	client  *Client
	topic   string
	robotID string
	clock   clockwork.Clock
	log     zerolog.Logger
}

// NewStatusPublisher creates the MQTT status sink.
func NewStatusPublisher(client *Client, topic, robotID string, clock clockwork.Clock, log zerolog.Logger) *StatusPublisher {
	return &StatusPublisher{
		client:  client,
		topic:   topic,
		robotID: robotID,
		clock:   clock,
		log:     log,
	}
}

// Publish stamps and sends one status message.
func (p *StatusPublisher) Publish(status string) {
	payload, err := json.Marshal(NewStatusMessage(p.robotID, status, p.clock.Now()))
	if err != nil {
		p.log.Error().Err(err).Msg("status marshal failed")
		return
	}
	if err := p.client.Publish(p.topic, payload); err != nil {
		p.log.Warn().Err(err).Str(logger.TopicField, p.topic).Msg("status publish failed")
	}
}

// WebhookSink POSTs each status to a fixed HTTP endpoint. The request is
// synchronous with a short timeout, mirroring the status channel's
// best-effort contract: failures are logged and swallowed.
type WebhookSink struct {
	url     string
	robotID string
	client  *http.Client
	clock   clockwork.Clock
	log     zerolog.Logger
}

// NewWebhookSink creates the webhook sink with its own bounded HTTP client.
func NewWebhookSink(url, robotID string, timeout time.Duration, clock clockwork.Clock, log zerolog.Logger) *WebhookSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSink{
		url:     url,
		robotID: robotID,
		client:  &http.Client{Timeout: timeout},
		clock:   clock,
		log:     log,
	}
}

// Publish POSTs one event.
func (w *WebhookSink) Publish(status string) {
	body, err := json.Marshal(WebhookEvent{
		Message:   status,
		Timestamp: w.clock.Now().UnixMilli(),
		RobotID:   w.robotID,
	})
	if err != nil {
		w.log.Error().Err(err).Msg("webhook marshal failed")
		return
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		w.log.Warn().Err(err).Msg("webhook post failed")
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		w.log.Warn().Int("status", resp.StatusCode).Msg("webhook rejected event")
	}
}

// ConsoleSink prints statuses to a writer. Used by the one-shot drive
// command and the examples.
type ConsoleSink struct {
	W io.Writer
}

func (c ConsoleSink) Publish(status string) {
	fmt.Fprintln(c.W, status)
}
