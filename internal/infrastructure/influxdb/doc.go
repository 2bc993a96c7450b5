// Package influxdb writes sampled hub state to InfluxDB v2.
//
// Each controller tick produces one point per enabled device:
//
//	sensor_readings  tags: device_id, site, type   fields: value
//	actuator_state   tags: device_id, site, type   fields: on, level (PWM only)
//
// Points are batched by influxdb-client-go and flushed in the background.
// A failed batch is counted and handed to the SetOnError callback; it
// never reaches the caller of WriteSnapshot.
package influxdb
