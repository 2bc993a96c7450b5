package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
)

// Client is one hub's link to the broker. It is safe for concurrent use
// and re-subscribes everything it tracks after paho reconnects.
type Client struct {
	paho   pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	linked atomic.Bool
	subs   registry

	mu           sync.RWMutex
	log          Logger
	onConnect    func()
	onDisconnect func(err error)
}

// Logger is satisfied by logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler runs on a paho goroutine for each inbound message. A
// returned error is logged, nothing more.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker for device. The first connection must succeed
// within the connect timeout; later drops are retried by paho.
func Connect(cfg config.MQTTConfig, device string) (*Client, error) {
	c := &Client{cfg: cfg, topics: NewTopics(cfg.TopicPrefix, device)}

	opts := buildClientOptions(cfg)
	configureLWT(opts, c.topics)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.connected() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.lost(err) })

	c.paho = pahomqtt.NewClient(opts)
	if err := await(c.paho.Connect(), defaultConnectTimeout, ErrConnectionFailed); err != nil {
		// paho keeps retrying in the background until told otherwise.
		c.paho.Disconnect(0)
		return nil, err
	}

	// The on-connect handler may not have run yet.
	c.linked.Store(true)
	return c, nil
}

// Topics returns the topic set for this client's device.
func (c *Client) Topics() Topics {
	return c.topics
}

func (c *Client) connected() {
	c.linked.Store(true)

	for _, s := range c.subs.all() {
		c.paho.Subscribe(s.topic, s.qos, c.adapt(s.handler))
	}
	c.announce("online", "")

	c.mu.RLock()
	fn := c.onConnect
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) lost(err error) {
	c.linked.Store(false)

	c.mu.RLock()
	log, fn := c.log, c.onDisconnect
	c.mu.RUnlock()

	if log != nil {
		log.Warn("MQTT connection lost", "error", err)
	}
	if fn != nil {
		fn(err)
	}
}

// announce publishes a retained status message.
func (c *Client) announce(state, reason string) pahomqtt.Token {
	return c.paho.Publish(c.topics.Status(), byte(c.cfg.QoS), true,
		buildStatusPayload(c.topics.Device(), state, reason))
}

// Close marks the hub offline on the status topic and disconnects.
func (c *Client) Close() error {
	if c == nil || c.paho == nil {
		return nil
	}
	if c.IsConnected() {
		c.announce("offline", "graceful_shutdown").WaitTimeout(defaultPublishTimeout)
	}
	c.paho.Disconnect(defaultDisconnectQuiesce)
	c.linked.Store(false)
	return nil
}

// HealthCheck returns ErrNotConnected while the broker link is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether the broker link is currently up.
func (c *Client) IsConnected() bool {
	if c == nil || c.paho == nil {
		return false
	}
	return c.linked.Load() && c.paho.IsConnected()
}

// SetOnConnect registers fn to run after every (re)connect.
func (c *Client) SetOnConnect(fn func()) {
	c.mu.Lock()
	c.onConnect = fn
	c.mu.Unlock()
}

// SetOnDisconnect registers fn to run when the link drops.
func (c *Client) SetOnDisconnect(fn func(err error)) {
	c.mu.Lock()
	c.onDisconnect = fn
	c.mu.Unlock()
}

// SetLogger sets where handler failures are reported.
func (c *Client) SetLogger(log Logger) {
	c.mu.Lock()
	c.log = log
	c.mu.Unlock()
}

func (c *Client) logger() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.log
}

func (c *Client) adapt(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		c.deliver(handler, msg.Topic(), msg.Payload())
	}
}

// deliver runs handler, turning a panic into a log line so one bad
// message cannot kill paho's router.
func (c *Client) deliver(handler MessageHandler, topic string, payload []byte) {
	log := c.logger()
	defer func() {
		if r := recover(); r != nil && log != nil {
			log.Error("MQTT handler panic recovered", "topic", topic, "panic", r)
		}
	}()

	if err := handler(topic, payload); err != nil && log != nil {
		log.Warn("MQTT handler returned error", "topic", topic, "error", err)
	}
}

// await waits for token and wraps a timeout or broker error in fail.
func await(token pahomqtt.Token, timeout time.Duration, fail error) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: no response within %v", fail, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", fail, err)
	}
	return nil
}
