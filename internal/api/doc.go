// Package api provides the HTTP REST adapter of the monitoring core.
//
// Devices call the ingestion routes with their X-Device-Token header.
// Administrative callers present an HS256 JWT in the Authorization header;
// each admin route requires one auth.Permission before the monitoring
// service is invoked.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
