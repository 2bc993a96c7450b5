package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "graylogic/hub"

// Topics builds the topic names for one device.
//
//	t := mqtt.NewTopics("graylogic/hub", "hub-kitchen")
//	t.State() // "graylogic/hub/hub-kitchen/state"
type Topics struct {
	prefix string
	device string
}

// NewTopics returns the topic set for device under prefix. Slashes and
// MQTT wildcards in the device name are replaced so a name can never
// widen a subscription.
func NewTopics(prefix, device string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix, device: sanitiseSegment(device)}
}

// State is the retained full state topic.
func (t Topics) State() string { return t.join("state") }

// Sensors carries periodic sensor_data messages.
func (t Topics) Sensors() string { return t.join("sensors") }

// Control receives inbound protocol messages.
func (t Topics) Control() string { return t.join("control") }

// Reply carries direct answers (pong, config, rule results) to
// messages received on Control.
func (t Topics) Reply() string { return t.join("reply") }

// Status carries the retained online/offline payload and the LWT.
func (t Topics) Status() string { return t.join("status") }

// Device returns the sanitised device segment.
func (t Topics) Device() string { return t.device }

func (t Topics) join(leaf string) string {
	return fmt.Sprintf("%s/%s/%s", t.prefix, t.device, leaf)
}

func sanitiseSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "hub"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#':
			return '_'
		}
		return r
	}, s)
}
