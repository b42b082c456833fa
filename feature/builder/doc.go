// Package builder regenerates fixture files from a database, but only when
// the files they depend on have changed.
//
// A build fingerprints the watched files (schema files, legacy fixtures and
// seed files) and compares them against the snapshot of the last successful
// build. When nothing changed the build stops without touching any file.
// Otherwise it:
//
//  1. removes the generated fixture files and, when configured, every table row
//  2. loads legacy fixture files, keeping their names
//  3. runs the population routine with a *Context
//  4. names every row of every table and writes one YAML file per table
//  5. commits the new snapshot and runs the after build hooks
//
// Any failure is reported as a *BuildError naming the stage, and the
// snapshot is left uncommitted so the next run rebuilds.
//
// # Usage
//
//	b, err := builder.New(cfg.Fixtures, database.NewStore(db), logger)
//	if err != nil {
//	    return err
//	}
//	result, err := b.Build(ctx, func(ctx context.Context, bc *builder.Context) error {
//	    alice := &Creature{Name: "alice", Species: "mermaid"}
//	    if err := bc.Create(alice); err != nil {
//	        return err
//	    }
//	    return bc.Name("alice_the_mermaid", alice)
//	})
//
// The package also serves GET /fixtures/status and POST /fixtures/build
// through Feature.
package builder
