package staleness

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fixture-builder/core/digest"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoSnapshot is returned by Load when the snapshot file does not exist.
	ErrNoSnapshot = errors.New("snapshot does not exist")
	// ErrCorruptSnapshot is returned by Load when the snapshot cannot be parsed.
	ErrCorruptSnapshot = errors.New("snapshot is corrupt")
	// ErrUnreadableSnapshot is returned by Load when the snapshot exists but cannot be read.
	ErrUnreadableSnapshot = errors.New("snapshot is unreadable")
)

// Reason explains why a rebuild is required.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonNoArtifacts        Reason = "no_artifacts"
	ReasonNoSnapshot         Reason = "no_snapshot"
	ReasonCorruptSnapshot    Reason = "corrupt_snapshot"
	ReasonUnreadableSnapshot Reason = "unreadable_snapshot"
	ReasonInputsChanged      Reason = "inputs_changed"
)

// Decision is the outcome of a staleness check.
type Decision struct {
	Rebuild bool
	Reason  Reason
	// Changes is set when Reason is ReasonInputsChanged.
	Changes []digest.Change
}

// Cache compares the current fingerprints against the snapshot written by
// the last successful build.
type Cache struct {
	// SnapshotPath is where the fingerprint snapshot is persisted.
	SnapshotPath string
	// OutputDir is the directory holding generated artifacts.
	OutputDir string
	// Pattern matches generated artifacts inside OutputDir.
	Pattern string
}

// ShouldRebuild decides whether artifacts must be regenerated for current.
// A missing, corrupt or unreadable snapshot forces a rebuild rather than
// failing.
func (c *Cache) ShouldRebuild(current digest.Set) (Decision, error) {
	matches, err := filepath.Glob(filepath.Join(c.OutputDir, c.Pattern))
	if err != nil {
		return Decision{}, fmt.Errorf("invalid artifact pattern %q: %w", c.Pattern, err)
	}
	if len(matches) == 0 {
		return Decision{Rebuild: true, Reason: ReasonNoArtifacts}, nil
	}

	previous, err := c.Load()
	switch {
	case errors.Is(err, ErrNoSnapshot):
		return Decision{Rebuild: true, Reason: ReasonNoSnapshot}, nil
	case errors.Is(err, ErrCorruptSnapshot):
		return Decision{Rebuild: true, Reason: ReasonCorruptSnapshot}, nil
	case errors.Is(err, ErrUnreadableSnapshot):
		return Decision{Rebuild: true, Reason: ReasonUnreadableSnapshot}, nil
	case err != nil:
		return Decision{}, err
	}

	if !current.Equal(previous) {
		return Decision{
			Rebuild: true,
			Reason:  ReasonInputsChanged,
			Changes: digest.Diff(current, previous),
		}, nil
	}
	return Decision{}, nil
}

// Load reads the persisted snapshot.
func (c *Cache) Load() (digest.Set, error) {
	data, err := os.ReadFile(c.SnapshotPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableSnapshot, c.SnapshotPath, err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptSnapshot, c.SnapshotPath, err)
	}

	set := make(digest.Set, len(raw))
	for path, hexDigest := range raw {
		d, err := digest.ParseDigest(hexDigest)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCorruptSnapshot, c.SnapshotPath, err)
		}
		set[path] = d
	}
	return set, nil
}

// Commit replaces the snapshot with set. The file is written to a
// temporary sibling and renamed into place.
func (c *Cache) Commit(set digest.Set) error {
	raw := make(map[string]string, len(set))
	for path, d := range set {
		raw[path] = d.String()
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(c.SnapshotPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, c.SnapshotPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace snapshot %s: %w", c.SnapshotPath, err)
	}
	return nil
}

// Invalidate removes the snapshot so that an interrupted build is redone
// on the next run.
func (c *Cache) Invalidate() error {
	if err := os.Remove(c.SnapshotPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove snapshot %s: %w", c.SnapshotPath, err)
	}
	return nil
}
