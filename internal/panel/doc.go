// Package panel serves the hub's browser dashboard.
//
// The dashboard is a single static page embedded with go:embed. It opens
// the websocket, renders state and sensor_data broadcasts, and sends
// control messages. A directory on disk can replace the embedded assets
// while iterating on the page.
package panel
