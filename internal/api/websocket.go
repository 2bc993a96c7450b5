package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/nerrad567/gray-logic-hub/internal/controller"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-hub/internal/syncproto"
)

const (
	// wsSendBufferSize is the per-client outbound buffer.
	wsSendBufferSize = 64

	// Inbound messages per second per client, with burst.
	wsInboundRate  = 20
	wsInboundBurst = 40

	wsHandleTimeout = 5 * time.Second

	defaultPingInterval = 30 * time.Second
	defaultWriteWait    = 10 * time.Second
)

// MessageHandler processes one inbound frame and returns the reply for
// the sender, or nil.
type MessageHandler interface {
	HandleMessage(ctx context.Context, data []byte, source string) []byte
}

// Hub tracks websocket clients and fans out controller broadcasts.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex

	handler   MessageHandler
	ctx       context.Context
	handlerMu sync.RWMutex
}

var _ controller.Observer = (*Hub)(nil)

// WSClient is one connected websocket peer. done closes exactly once,
// when the client leaves the hub.
type WSClient struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	leave   sync.Once
	limiter *rate.Limiter
}

// wsTimings are the keepalive intervals derived from config.
type wsTimings struct {
	ping  time.Duration
	write time.Duration
	read  time.Duration
}

func timingsFrom(cfg config.WebSocketConfig) wsTimings {
	t := wsTimings{
		ping:  time.Duration(cfg.PingInterval) * time.Second,
		write: time.Duration(cfg.PongTimeout) * time.Second,
	}
	if t.ping <= 0 {
		t.ping = defaultPingInterval
	}
	if t.write <= 0 {
		t.write = defaultWriteWait
	}
	t.read = t.ping + t.write
	return t
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origins are enforced by the CORS middleware.
		return true
	},
}

// NewHub creates an empty hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
		ctx:     context.Background(),
	}
}

// SetHandler sets the handler for inbound frames.
func (h *Hub) SetHandler(handler MessageHandler) {
	h.handlerMu.Lock()
	h.handler = handler
	h.handlerMu.Unlock()
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	h.handlerMu.Lock()
	h.ctx = ctx
	h.handlerMu.Unlock()

	<-ctx.Done()
	h.closeAll()
}

// Register adds a client.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client joined", "client_id", client.id, "clients", n)
}

// Unregister removes a client and signals its writer to stop. Safe to
// call more than once.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	delete(h.clients, client)
	n := len(h.clients)
	h.mu.Unlock()

	client.leave.Do(func() { close(client.done) })
	h.logger.Debug("websocket client left", "client_id", client.id, "clients", n)
}

// Publish fans an encoded controller message out to every client.
func (h *Hub) Publish(_ string, data []byte) {
	for _, client := range h.snapshot() {
		client.trySend(data)
	}
}

// ClientCount returns how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []*WSClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		out = append(out, client)
	}
	return out
}

func (h *Hub) closeAll() {
	for _, client := range h.snapshot() {
		h.Unregister(client)
		if client.conn != nil {
			client.conn.Close() //nolint:errcheck // shutting down
		}
	}
}

func (h *Hub) dispatch(client *WSClient, data []byte) {
	h.handlerMu.RLock()
	handler, parent := h.handler, h.ctx
	h.handlerMu.RUnlock()
	if handler == nil {
		return
	}

	ctx, cancel := context.WithTimeout(parent, wsHandleTimeout)
	defer cancel()
	if reply := handler.HandleMessage(ctx, data, controller.SourceWebSocket); reply != nil {
		client.trySend(reply)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		id:      uuid.NewString(),
		hub:     s.hub,
		conn:    conn,
		send:    make(chan []byte, wsSendBufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(wsInboundRate, wsInboundBurst),
	}
	if s.wsCfg.MaxMessageSize > 0 {
		conn.SetReadLimit(int64(s.wsCfg.MaxMessageSize))
	}

	// Queued before Register so the snapshot is the client's first frame.
	if data, err := syncproto.Encode(s.controller.State()); err != nil {
		s.logger.Warn("encoding websocket greeting", "error", err)
	} else {
		client.trySend(data)
	}
	s.hub.Register(client)

	t := timingsFrom(s.wsCfg)
	go client.writeLoop(t)
	go client.readLoop(t)
}

// readLoop feeds frames to the controller until the peer goes away. Each
// frame or pong pushes the read deadline out.
func (c *WSClient) readLoop(t wsTimings) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close() //nolint:errcheck // peer gone
	}()

	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(t.read)) }
	extend("") //nolint:errcheck // a failed deadline surfaces as a read error
	c.conn.SetPongHandler(extend)

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "client_id", c.id, "error", err)
			}
			return
		}
		extend("") //nolint:errcheck // as above

		if !c.limiter.Allow() {
			c.hub.logger.Debug("websocket frame dropped by rate limit", "client_id", c.id)
			continue
		}
		c.hub.dispatch(c, frame)
	}
}

// writeLoop is the only writer on conn. It sends queued messages and
// pings, and says goodbye once the client leaves the hub.
func (c *WSClient) writeLoop(t wsTimings) {
	ping := time.NewTicker(t.ping)
	defer func() {
		ping.Stop()
		c.conn.Close() //nolint:errcheck // peer gone
	}()

	write := func(kind int, data []byte) error {
		c.conn.SetWriteDeadline(time.Now().Add(t.write)) //nolint:errcheck // surfaces on write
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case msg := <-c.send:
			if write(websocket.TextMessage, msg) != nil {
				return
			}
		case <-ping.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		case <-c.done:
			write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "")) //nolint:errcheck // best effort
			return
		}
	}
}

// trySend queues data unless the client is gone or its buffer is full.
func (c *WSClient) trySend(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- data:
	default:
	}
}
