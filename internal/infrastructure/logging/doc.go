// Package logging provides structured logging for the monitoring core.
//
// It wraps log/slog so every entry carries the service name and build
// version. Components derive child loggers with With("component", ...).
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Device tokens are secrets. Log them only through TokenPrefix.
package logging
