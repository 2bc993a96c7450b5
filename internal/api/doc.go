// Package api serves the hub's HTTP surface and websocket.
//
//	GET  /config        flat configuration
//	POST /config        whitelist merge, persist, restart
//	GET  /status        state snapshot
//	GET  /restart       restart after acknowledging
//	GET  /reset         factory reset, then restart
//	GET  /health        liveness plus component checks
//	GET  /rules         active automation rules
//	GET  /history/{id}  actuator state history
//	GET  /audit         lifecycle audit trail
//	GET  /ws            sync protocol over websocket
//	GET  /              dashboard
//
// Lifecycle:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
