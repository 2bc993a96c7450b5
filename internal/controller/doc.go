// Package controller owns the running hub: the configuration store, the
// device registry and the automation engine, behind one mutex.
//
// Architecture:
//
//	  websocket ─┐                                  ┌─▶ websocket hub
//	  mqtt ──────┼─▶ HandleMessage ─┐               ├─▶ mqtt bridge
//	  http ──────┤                  ▼               │
//	  console ───┘   ┌───────────────────────────┐  │
//	                 │        Controller          │──┘ Publish(state,
//	  ticker ───────▶│  mu ─ store               │      sensor_data)
//	                 │       registry            │
//	                 │       engine              │──▶ Restarts()
//	                 └───────────────────────────┘
//
// Every handler and every tick runs to completion under mu, so the
// registry and store are never observed mid-update. Publishing to
// observers happens after mu is released.
//
// A tick reads the sensors, evaluates the rules, then publishes
// sensor_data followed by state. A control command publishes state.
//
// Restart is a signal, not an exit: after RestartDelay the controller
// sends on Restarts() and the caller rebuilds the stack from the
// persisted configuration.
package controller
