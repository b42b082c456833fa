// Package database handles database connections and table access for the
// fixture builder.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to configure
// SQLite or MySQL connections based on the application's configuration.
//
// # Connect
//
// Connect opens the configured driver and verifies the connection with a ping.
// SQLite connections are limited to a single open connection.
//
// # Store
//
// Store is the persistence side of a fixture build. It lists tables (minus a
// skip list), deletes and scans table rows as column maps, inserts rows and
// models, and resolves the table and primary key of a GORM model so that the
// model can be given a fixture name.
//
// # Schema Inspection
//
// GetTableColumns reads the column definitions of a table (PRAGMA table_info
// for SQLite, SHOW COLUMNS for MySQL). Legacy fixtures use it to drop
// attributes the current schema no longer has.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	store := database.NewStore(db)
//	rows, err := store.Rows(ctx, "users")
package database
