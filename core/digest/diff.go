package digest

import (
	"bytes"
	"fmt"
	"sort"
)

// ChangeKind classifies a difference between two fingerprint sets.
type ChangeKind string

const (
	Added   ChangeKind = "+"
	Removed ChangeKind = "-"
	Changed ChangeKind = "~"
)

// Change describes one path whose fingerprint differs.
type Change struct {
	Kind     ChangeKind
	Path     string
	Current  Digest
	Previous Digest
}

func (c Change) String() string {
	switch c.Kind {
	case Added:
		return fmt.Sprintf("%s %s %s", c.Kind, c.Path, c.Current)
	case Removed:
		return fmt.Sprintf("%s %s %s", c.Kind, c.Path, c.Previous)
	default:
		return fmt.Sprintf("%s %s %s -> %s", c.Kind, c.Path, c.Previous, c.Current)
	}
}

// Diff lists the paths that differ between current and previous, sorted
// by path. Added means present only in current.
func Diff(current, previous Set) []Change {
	var changes []Change
	for path, d := range current {
		p, ok := previous[path]
		switch {
		case !ok:
			changes = append(changes, Change{Kind: Added, Path: path, Current: d})
		case !bytes.Equal(d, p):
			changes = append(changes, Change{Kind: Changed, Path: path, Current: d, Previous: p})
		}
	}
	for path, p := range previous {
		if _, ok := current[path]; !ok {
			changes = append(changes, Change{Kind: Removed, Path: path, Previous: p})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes
}
