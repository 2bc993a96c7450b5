package mqtt

import (
	"fmt"
	"sync"
)

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// registry remembers active subscriptions by topic filter so they can be
// replayed after a reconnect. The zero value is ready to use.
type registry struct {
	mu      sync.Mutex
	entries map[string]subscription
}

func (r *registry) put(s subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]subscription)
	}
	r.entries[s.topic] = s
}

func (r *registry) drop(topic string) {
	r.mu.Lock()
	delete(r.entries, topic)
	r.mu.Unlock()
}

func (r *registry) all() []subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]subscription, 0, len(r.entries))
	for _, s := range r.entries {
		out = append(out, s)
	}
	return out
}

func (r *registry) lookup(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[topic]
	return ok
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Subscribe routes messages matching filter (wildcards allowed) to
// handler and keeps doing so across reconnects.
func (c *Client) Subscribe(filter string, qos byte, handler MessageHandler) error {
	switch {
	case filter == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case handler == nil:
		return fmt.Errorf("%w: nil handler for %s", ErrSubscribeFailed, filter)
	case !c.IsConnected():
		return ErrNotConnected
	}

	c.subs.put(subscription{topic: filter, qos: qos, handler: handler})
	err := await(c.paho.Subscribe(filter, qos, c.adapt(handler)), defaultPublishTimeout, ErrSubscribeFailed)
	if err != nil {
		c.subs.drop(filter)
	}
	return err
}

// Unsubscribe stops routing filter. A message already queued by paho may
// still arrive.
func (c *Client) Unsubscribe(filter string) error {
	if filter == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.subs.drop(filter)
	return await(c.paho.Unsubscribe(filter), defaultPublishTimeout, ErrUnsubscribeFailed)
}

// SubscriptionCount returns how many filters are tracked.
func (c *Client) SubscriptionCount() int {
	return c.subs.size()
}

// HasSubscription reports whether filter is tracked, compared as a
// literal string.
func (c *Client) HasSubscription(filter string) bool {
	return c.subs.lookup(filter)
}
