// Package database provides the hub's SQLite connection and schema migrations.
//
// One file holds everything the hub persists relationally: the device
// settings record (when the sqlite settings backend is selected), the
// automation rule list, actuator state history and the audit trail.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive. Each YYYYMMDD_HHMMSS_name.up.sql may have a
// matching .down.sql used by MigrateDown during development.
package database
