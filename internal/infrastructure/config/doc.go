// Package config handles loading and validating the hub's process configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading an optional .env file
//   - Overriding with GRAYLOGIC_HUB_* environment variables
//   - Validation of required fields
//
// It does not hold the device record (pins, feature flags, WiFi
// credentials). That record is owned and persisted by the settings package
// and can be changed at runtime; this file is read once at startup.
//
// Usage:
//
//	cfg, err := config.Load("configs/hub.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name)
package config
