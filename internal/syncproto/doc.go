// Package syncproto defines the JSON messages exchanged with remote
// observers over the websocket and MQTT channels.
//
// Outbound messages are built from a device.Snapshot or a settings view and
// serialised with Encode. Inbound frames go through Decode, which returns one
// of Control, GetState, GetConfig, AddRule or Ping. Callers drop frames that
// fail to decode without replying.
//
// Every message carries a "type" discriminator:
//
//	outbound: state, sensor_data, config, rule_added, rule_rejected, pong, ack
//	inbound:  control, get_state, get_config, add_rule, ping
package syncproto
