// Package board maps a board identifier to its default pin layout.
//
// Three board types are known:
//
//	DevKit  ESP32 DevKit style, 0..39
//	S2Mini  ESP32-S2 Mini style, 0..46
//	Custom  DevKit layout as a starting point, every pin overridable
//
// Resolve is pure and total: an unknown type resolves to DevKit. A Profile
// is a value; callers that change pins work on their own copy.
package board
