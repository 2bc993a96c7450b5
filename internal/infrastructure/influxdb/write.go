package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-hub/internal/device"
)

// Measurement names.
const (
	MeasurementSensor   = "sensor_readings"
	MeasurementActuator = "actuator_state"
)

// WriteSnapshot queues one point per device in snap, all stamped at.
func (c *Client) WriteSnapshot(at time.Time, snap device.Snapshot) {
	if !c.active() {
		return
	}
	for _, s := range snap.Sensors {
		c.writeAPI.WritePoint(c.point(MeasurementSensor, s.ID, s.Kind, at).
			AddField("value", s.Value))
	}
	for _, a := range snap.Actuators {
		p := c.point(MeasurementActuator, a.ID, a.Kind, at).AddField("on", a.On)
		if a.Kind.IsPWM() {
			p.AddField("level", a.Level)
		}
		c.writeAPI.WritePoint(p)
	}
}

func (c *Client) point(measurement string, id device.ID, kind device.Kind, at time.Time) *write.Point {
	// Tags in key order, as line protocol prefers.
	p := write.NewPointWithMeasurement(measurement).AddTag("device_id", string(id))
	if c.site != "" {
		p.AddTag("site", c.site)
	}
	return p.AddTag("type", string(kind)).SetTime(at)
}
