// Package settings owns the hub's persisted device record.
//
// The record holds the board type and pin layout, WiFi and access point
// credentials, the device name, the remote logging endpoint, per-device
// feature flags and the sampling and logging intervals.
//
// Architecture:
//
//	             ┌────────────────────────────┐
//	 ApplyUpdate │           Store            │ Current
//	────────────►│  mutex · Configuration     ├────────►
//	   Reset     │                            │
//	             └─────────────┬──────────────┘
//	                           │ Encode / Decode
//	                           ▼
//	             ┌────────────────────────────┐
//	             │  Backend (sqlite|file|mem) │
//	             └────────────────────────────┘
//
// The on-disk form is a fixed-layout binary record starting with a 2-byte
// magic and a 1-byte schema version and ending in a CRC-32. Anything that
// does not decode cleanly is treated as "never configured": Load replaces
// it with defaults and writes them back. Nothing about a bad record is
// ever returned to a caller.
//
// Changes to the board type or to any pin only take effect after a
// restart, because the device registry binds pins once at start-up.
// ApplyUpdate reports when that is the case.
package settings
