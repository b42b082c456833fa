package digest

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrInputUnreadable is returned when a watched file cannot be read.
var ErrInputUnreadable = errors.New("input unreadable")

// Algorithm names a supported digest function.
type Algorithm string

const (
	// MD5 is the fast 128-bit digest and the default.
	MD5 Algorithm = "md5"
	// SHA1 is the cryptographic 160-bit digest.
	SHA1 Algorithm = "sha1"
	// BLAKE3 is a 256-bit digest.
	BLAKE3 Algorithm = "blake3"
)

// ParseAlgorithm resolves a configured algorithm name. An empty name
// selects MD5.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", MD5:
		return MD5, nil
	case SHA1:
		return SHA1, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unknown digest algorithm: %s", name)
	}
}

// New returns a fresh hash.Hash for the algorithm.
func (a Algorithm) New() hash.Hash {
	switch a {
	case SHA1:
		return sha1.New()
	case BLAKE3:
		return blake3.New()
	default:
		return md5.New()
	}
}

// Digest is the content digest of one file.
type Digest []byte

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d)
}

// ParseDigest decodes a hex encoded digest.
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid digest %q: %w", s, err)
	}
	return Digest(b), nil
}

// Set maps a file path to the digest of its content.
type Set map[string]Digest

// Equal reports whether both sets have the same paths with the same digests.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for path, d := range s {
		o, ok := other[path]
		if !ok || !bytes.Equal(d, o) {
			return false
		}
	}
	return true
}

// Paths returns the set's paths in sorted order.
func (s Set) Paths() []string {
	paths := make([]string, 0, len(s))
	for path := range s {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Fingerprint digests every file in paths with algo. Any file that cannot
// be opened or read aborts the whole computation.
func Fingerprint(paths []string, algo Algorithm) (Set, error) {
	set := make(Set, len(paths))
	for _, path := range paths {
		d, err := File(path, algo)
		if err != nil {
			return nil, err
		}
		set[path] = d
	}
	return set, nil
}

// File digests a single file.
func File(path string, algo Algorithm) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInputUnreadable, path, err)
	}
	defer f.Close()

	h := algo.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInputUnreadable, path, err)
	}
	return Digest(h.Sum(nil)), nil
}
