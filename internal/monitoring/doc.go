// Package monitoring is the entry point to the monitoring core. Service
// bundles the access engine, the simulation limiter, telemetry ingestion,
// device identity and settings behind one set of operations.
//
// Every operation that depends on settings loads exactly one snapshot at
// the start and uses it throughout. Callers are expected to have checked
// permissions already; see internal/auth and internal/api.
package monitoring
