// Package staleness decides whether generated fixtures still reflect their
// inputs.
//
// The Cache is a single-writer, last-value store: it keeps the fingerprint
// set of the last successful build in a YAML snapshot and compares it with
// freshly computed fingerprints. There is no TTL or versioning; the only
// staleness signal is a change in the content of a watched file.
//
// # Rebuild Conditions
//
//   - the output directory holds no artifacts
//   - the snapshot file does not exist
//   - the snapshot file cannot be parsed (treated as absent)
//   - the snapshot differs from the current fingerprints
//
// # Usage
//
//	cache := &staleness.Cache{SnapshotPath: "tmp/fixture_builder.yml", OutputDir: "test/fixtures", Pattern: "*.yml"}
//	decision, err := cache.ShouldRebuild(current)
//	if decision.Rebuild {
//	    // regenerate, then
//	    err = cache.Commit(current)
//	}
package staleness
