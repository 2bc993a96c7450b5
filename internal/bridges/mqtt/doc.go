// Package mqtt mirrors the hub's sync protocol onto an MQTT broker.
//
// Outbound state and sensor_data messages are queued by the controller
// and published by a single worker so a slow broker never stalls the
// control loop. Inbound control messages are handed to the same handler
// the websocket uses; any direct reply goes to the reply topic.
//
//	Controller ──Publish──▶ queue ──▶ worker ──▶ <device>/state, <device>/sensors
//	<device>/control ──▶ HandleMessage ──▶ <device>/reply
package mqtt
