package mqtt

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/controller"
	infmqtt "github.com/nerrad567/gray-logic-hub/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-hub/internal/syncproto"
)

// queueSize bounds outbound messages waiting for the broker.
const queueSize = 32

// handleTimeout bounds one inbound control message.
const handleTimeout = 5 * time.Second

// ErrNoClient is returned by Start when the bridge has no broker client.
var ErrNoClient = errors.New("mqtt bridge: no client")

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client is the subset of *infmqtt.Client the bridge needs.
type Client interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler infmqtt.MessageHandler) error
}

// Handler processes one inbound protocol message.
type Handler interface {
	HandleMessage(ctx context.Context, data []byte, source string) []byte
}

type outbound struct {
	topic    string
	payload  []byte
	retained bool
}

// Bridge implements controller.Observer for an MQTT broker.
type Bridge struct {
	client  Client
	topics  infmqtt.Topics
	handler Handler
	qos     byte

	queue   chan outbound
	ctx     context.Context
	ctxMu   sync.RWMutex
	dropped atomic.Int64

	logger Logger
}

var _ controller.Observer = (*Bridge)(nil)

// New creates a bridge publishing under topics.
func New(client Client, topics infmqtt.Topics, handler Handler, qos byte) *Bridge {
	return &Bridge{
		client:  client,
		topics:  topics,
		handler: handler,
		qos:     qos,
		queue:   make(chan outbound, queueSize),
		ctx:     context.Background(),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// Start subscribes to the control topic. Handlers run with ctx as parent.
func (b *Bridge) Start(ctx context.Context) error {
	if b.client == nil {
		return ErrNoClient
	}
	b.ctxMu.Lock()
	b.ctx = ctx
	b.ctxMu.Unlock()

	if err := b.client.Subscribe(b.topics.Control(), b.qos, b.handleControl); err != nil {
		return err
	}
	b.logger.Info("mqtt bridge subscribed", "topic", b.topics.Control())
	return nil
}

// Publish queues a controller broadcast. Message types other than state
// and sensor_data are not mirrored. A full queue drops the message.
func (b *Bridge) Publish(msgType string, data []byte) {
	var out outbound
	switch msgType {
	case syncproto.TypeState:
		out = outbound{topic: b.topics.State(), payload: data, retained: true}
	case syncproto.TypeSensorData:
		out = outbound{topic: b.topics.Sensors(), payload: data}
	default:
		return
	}

	select {
	case b.queue <- out:
	default:
		n := b.dropped.Add(1)
		b.logger.Warn("mqtt outbound queue full, dropping message", "type", msgType, "dropped", n)
	}
}

// Run publishes queued messages until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out := <-b.queue:
			b.send(out)
		}
	}
}

// Dropped returns how many messages were discarded on a full queue.
func (b *Bridge) Dropped() int64 {
	return b.dropped.Load()
}

func (b *Bridge) send(out outbound) {
	if err := b.client.Publish(out.topic, out.payload, b.qos, out.retained); err != nil {
		b.logger.Warn("mqtt publish failed", "topic", out.topic, "error", err)
	}
}

func (b *Bridge) handleControl(_ string, payload []byte) error {
	b.ctxMu.RLock()
	parent := b.ctx
	b.ctxMu.RUnlock()

	ctx, cancel := context.WithTimeout(parent, handleTimeout)
	defer cancel()

	reply := b.handler.HandleMessage(ctx, payload, controller.SourceMQTT)
	if reply == nil {
		return nil
	}
	return b.client.Publish(b.topics.Reply(), reply, b.qos, false)
}
