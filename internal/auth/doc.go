// Package auth authorises administrative callers of the monitoring core.
//
// Callers present an HS256 JWT whose claims carry a subject and a role.
// Roles map to permissions through a static table (no database lookup);
// Checker.Require is enforced by the HTTP adapter before any operation runs.
//
// Devices never use this package. They authenticate with their device token
// through device.IdentityManager.Authenticate.
package auth
