// Package server holds the HTTP status server configuration.
//
// The status server is optional: the fixture builder is normally driven from
// the command line, but `fixture-builder start` exposes the staleness status and
// a build trigger over HTTP for long-running development environments.
//
// # Configuration
//
// The Config struct defines the HTTP port and the API key that protects the
// endpoints (no protection when empty).
package server
