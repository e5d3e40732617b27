// Package comms connects the robot to the outside world: the MQTT command
// and status topics, the optional webhook sink, and the router that turns
// inbound messages into mission runs.
//
// Information Hiding:
// - Broker session management (reconnects, resubscription) hidden in Client
// - Envelope wire formats hidden in this package's message types
// - Mission serialization hidden in the Router's single worker
package comms

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"theseus/logger"
)

// Client wraps the broker session. It reconnects automatically and replays
// subscriptions after a reconnect.
type Client struct {
	mqtt    mqtt.Client
	timeout time.Duration
	log     zerolog.Logger

	mu   sync.Mutex
	subs map[string]func(payload []byte)
}

// ClientConfig wires a Client.
type ClientConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	// ConnectTimeout bounds the initial connect and every subscribe or
	// publish acknowledgement wait. Defaults to 10s.
	ConnectTimeout time.Duration

	Log zerolog.Logger
}

// NewClient builds the broker session without connecting.
func NewClient(cfg ClientConfig) *Client {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	c := &Client{
		timeout: cfg.ConnectTimeout,
		log:     cfg.Log,
		subs:    make(map[string]func(payload []byte)),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetOrderMatters(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.log.Warn().Err(err).Msg("broker connection lost")
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		c.log.Info().Str("broker", cfg.BrokerURL).Msg("broker connected")
		c.resubscribe()
	})

	c.mqtt = mqtt.NewClient(opts)
	return c
}

// Connect establishes the broker session.
func (c *Client) Connect() error {
	token := c.mqtt.Connect()
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("broker connect timed out after %s", c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("broker connect failed: %w", err)
	}
	return nil
}

// Subscribe registers a payload handler for a topic at QoS 1 and remembers
// it for replay after reconnects.
func (c *Client) Subscribe(topic string, handler func(payload []byte)) error {
	c.mu.Lock()
	c.subs[topic] = handler
	c.mu.Unlock()

	token := c.mqtt.Subscribe(topic, 1, func(_ mqtt.Client, m mqtt.Message) {
		handler(m.Payload())
	})
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("subscribe to %q timed out after %s", topic, c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %q failed: %w", topic, err)
	}
	c.log.Info().Str(logger.TopicField, topic).Msg("subscribed")
	return nil
}

// Publish sends one payload at QoS 0. Delivery is best-effort; an error
// means the client could not even hand the message to the session.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.mqtt.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("publish to %q timed out after %s", topic, c.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %q failed: %w", topic, err)
	}
	return nil
}

// Connected reports whether the broker session is currently open. Satisfies
// the robot package's link interface for environment snapshots.
func (c *Client) Connected() bool {
	return c.mqtt.IsConnectionOpen()
}

// Close disconnects, allowing a short quiesce for in-flight messages.
func (c *Client) Close() {
	c.mqtt.Disconnect(250)
}

// resubscribe replays the remembered subscriptions after a reconnect.
func (c *Client) resubscribe() {
	c.mu.Lock()
	subs := make(map[string]func([]byte), len(c.subs))
	for topic, handler := range c.subs {
		subs[topic] = handler
	}
	c.mu.Unlock()

	for topic, handler := range subs {
		h := handler
		token := c.mqtt.Subscribe(topic, 1, func(_ mqtt.Client, m mqtt.Message) {
			h(m.Payload())
		})
		if !token.WaitTimeout(c.timeout) || token.Error() != nil {
			c.log.Warn().Str(logger.TopicField, topic).Msg("resubscribe failed")
		}
	}
}
