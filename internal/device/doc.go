// Package device holds the canonical in-memory state of every actuator and
// sensor on the hub.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────┐
//	│                        Registry                            │
//	│                                                            │
//	│   relay1..4 ─┐                         ┌─ temp1  hum1      │
//	│   led1       ├─ actuators    sensors ──┤  light1           │
//	│   motor1    ─┘   SetState   ReadSensors└─ motion1          │
//	│                     │            │                         │
//	└─────────────────────│────────────│─────────────────────────┘
//	                      ▼            ▼
//	               ┌─────────────────────────┐      ┌──────────────────┐
//	               │  hardware.Port (GPIO)   │      │  state_history   │
//	               └─────────────────────────┘      │  (SQLite, opt.)  │
//	                                                └──────────────────┘
//
// Records exist only for roles whose feature flag is set. Pins are bound
// once by Initialize; changing the layout needs a fresh registry.
//
// SetState is tolerant: an id that is unknown, disabled, or not an
// actuator is logged and ignored, returning nil. Only a hardware write
// failure is reported, and in that case the recorded state is unchanged.
//
// ReadSensors never overwrites a good value with a bad one. A failed or
// not-a-number reading keeps the previous value.
//
// # Usage
//
//	reg := device.NewRegistry(port)
//	reg.SetLogger(log.Component("device"))
//	if err := reg.Initialize(cfg); err != nil {
//	    log.Warn("some pins failed to configure", "error", err)
//	}
//	_ = reg.SetState(device.Relay1, true, device.NoValue)
//	reg.ReadSensors(ctx)
//	snap := reg.Snapshot()
package device
