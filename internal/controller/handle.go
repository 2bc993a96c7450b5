package controller

import (
	"context"
	"errors"

	"github.com/nerrad567/gray-logic-hub/internal/automation"
	"github.com/nerrad567/gray-logic-hub/internal/syncproto"
)

// Sources passed to Control, UpdateConfig and the audit trail.
const (
	SourceWebSocket = "websocket"
	SourceMQTT      = "mqtt"
	SourceAPI       = "api"
	SourceConsole   = "console"
)

// HandleMessage decodes and dispatches one inbound frame. It returns the
// reply meant only for the sender, or nil. Malformed and unknown frames
// are dropped without a reply.
func (c *Controller) HandleMessage(ctx context.Context, data []byte, source string) []byte {
	msg, err := syncproto.Decode(data)
	if err != nil {
		c.logger.Debug("dropping inbound message", "source", source, "error", err)
		return nil
	}

	var reply any
	switch m := msg.(type) {
	case syncproto.Control:
		if err := c.Control(m.ID, m.On, m.Value, source); err != nil {
			c.logger.Warn("control failed", "device_id", m.ID, "source", source, "error", err)
		}
	case syncproto.GetState:
		c.PushState()
	case syncproto.GetConfig:
		reply = syncproto.NewConfig(c.ConfigView(c.redact))
	case syncproto.Ping:
		reply = syncproto.NewPong()
	case syncproto.AddRule:
		n, err := c.AddRule(ctx, m.Rule, source)
		switch {
		case err == nil:
			reply = syncproto.NewRuleAdded(n)
		case errors.Is(err, automation.ErrCapacityExceeded):
			reply = syncproto.NewRuleRejected("rule capacity reached")
		default:
			reply = syncproto.NewRuleRejected(err.Error())
		}
	}

	if reply == nil {
		return nil
	}
	out, err := syncproto.Encode(reply)
	if err != nil {
		c.logger.Error("encoding reply", "type", msg.MessageType(), "error", err)
		return nil
	}
	return out
}
