// Package logging provides structured logging for the hub.
//
// It wraps log/slog so every component logs the same way:
//
//   - JSON output for deployed devices (machine-parsable)
//   - Text output for development at a serial console
//   - service and version attributes on every entry
//   - level filtering (debug, info, warn, error)
//
// Configuration comes from the logging section of the process config:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("automation").Info("rule added", "count", 3)
//
// Never log WiFi or access point passwords.
package logging
