// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber web framework used by the status server.
//
// # Correlation
//
// WithBuildID attaches the id of a fixture build to every entry the build logs.
// WithRayID extracts the RayID (request id) from a Fiber context so that all
// logs of one HTTP request can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Fixtures built")
//
//	l := logger.WithBuildID(log, id)
//	l.Error("Build failed", zap.Error(err))
package logger
