// Package digest fingerprints the input files that fixtures are generated
// from.
//
// A Set maps each watched path to the digest of its content. Two sets are
// equal only when they hold the same paths with byte-identical digests, so
// the comparison is independent of file modification times.
//
// # Algorithms
//
//   - md5: fast 128-bit digest (default)
//   - sha1: 160-bit digest
//   - blake3: 256-bit digest
//
// # Usage
//
//	algo, err := digest.ParseAlgorithm(cfg.Digest)
//	set, err := digest.Fingerprint([]string{"db/schema.sql"}, algo)
//	if errors.Is(err, digest.ErrInputUnreadable) {
//	    // a watched file is missing
//	}
package digest
