// Package database provides SQLite connectivity for the monitoring core.
//
// It manages the connection (WAL mode, busy timeout, foreign keys on),
// embedded schema migrations and a few SQLite helpers shared by the
// repositories: the fixed-width timestamp layout and constraint error
// classification.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: new columns must be nullable or carry a default.
package database
