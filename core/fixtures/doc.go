// Package fixtures reads and writes YAML fixture files.
//
// A fixture directory holds one file per table, named after the table
// (users.yml). Each file is a mapping from fixture name to the record's
// column values:
//
//	alice:
//	  id: 1
//	  name: alice
//
// Write emits a table's named records (or an empty mapping), Read returns a
// file's entries in the order they appear, which keeps legacy fixture loading
// deterministic.
package fixtures
