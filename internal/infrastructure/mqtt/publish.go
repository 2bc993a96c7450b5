package mqtt

import "fmt"

// maxPayloadSize is 1MB; hub messages are far smaller.
const maxPayloadSize = 1 << 20

// Publish sends payload and blocks until the broker acknowledges it, or
// the publish timeout passes.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: %d byte payload over the %d byte limit", ErrPublishFailed, len(payload), maxPayloadSize)
	case !c.IsConnected():
		return ErrNotConnected
	}
	return await(c.paho.Publish(topic, qos, retained, payload), defaultPublishTimeout, ErrPublishFailed)
}

// PublishRetained publishes at the default QoS with retain set.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, c.DefaultQoS(), true)
}

// DefaultQoS is the QoS from config.
func (c *Client) DefaultQoS() byte {
	return byte(c.cfg.QoS)
}
