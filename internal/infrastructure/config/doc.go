// Package config loads and validates the monitoring core configuration.
//
// Values are layered: hardcoded defaults, then the YAML file, then
// MONITORING_* environment variables. Secrets (JWT secret, broker and
// InfluxDB credentials) should come from the environment.
//
// The monitoring.defaults section only seeds the settings row on first
// start. After that the stored row is authoritative and is changed through
// the settings API.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.School.Name)
package config
