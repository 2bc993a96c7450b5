// Package mqtt connects the hub to an MQTT broker.
//
// The client wraps paho.mqtt.golang with auto-reconnect, subscription
// restoration after reconnect, panic-safe handlers, and a retained
// online/offline status message backed by a Last Will.
//
//	hub ── state, sensors, status ──▶ broker ◀── control ── remote tools
//
// Topics are scoped per device:
//
//	<prefix>/<device>/state     full state snapshot (retained)
//	<prefix>/<device>/sensors   sensor_data messages
//	<prefix>/<device>/control   inbound protocol messages
//	<prefix>/<device>/reply     answers to control messages
//	<prefix>/<device>/status    online/offline (retained, LWT)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, "hub-kitchen")
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().Control(), 1, handler)
package mqtt
