// Package config provides configuration management for the fixture builder.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file (loaded with godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Fixtures: watched files, fixture directory, snapshot file, naming fields, digest
//   - Database: SQLite or MySQL connection details
//   - Storage: S3/MinIO credentials for mirroring fixtures
//   - Server: HTTP status server port and API key
//   - Log: Logging level and format
//
// Defaults come from the `default` struct tags. List values are comma separated,
// e.g. FIXTURES_SKIP_TABLES=schema_migrations,ar_internal_metadata.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Fixtures.Directory)
package config
