package fixtures

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Extension is the file extension of fixture files.
const Extension = ".yml"

// Pattern matches fixture files inside a Dir.
const Pattern = "*" + Extension

// Entry is one named record of a fixture file.
type Entry struct {
	Name   string
	Record map[string]any
}

// Dir is a directory of fixture files, one file per table.
type Dir struct {
	path string
}

// NewDir returns the fixture directory at path.
func NewDir(path string) *Dir {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Dir{path: path}
}

// Path returns the directory path, or the path of name inside it.
func (d *Dir) Path(name ...string) string {
	return filepath.Join(append([]string{d.path}, name...)...)
}

// File returns the fixture file of table.
func (d *Dir) File(table string) string {
	return d.Path(table + Extension)
}

// Files lists the fixture files in the directory, sorted.
func (d *Dir) Files() ([]string, error) {
	files, err := filepath.Glob(d.Path(Pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Clear removes every fixture file and returns how many were removed.
func (d *Dir) Clear() (int, error) {
	files, err := d.Files()
	if err != nil {
		return 0, err
	}
	for i, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return i, fmt.Errorf("failed to remove %s: %w", f, err)
		}
	}
	return len(files), nil
}

// Write stores the named records of table, replacing any existing file.
// An empty map writes an empty fixture file.
func (d *Dir) Write(table string, records map[string]map[string]any) error {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("failed to create fixture directory %s: %w", d.path, err)
	}

	if records == nil {
		records = map[string]map[string]any{}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode fixtures for %s: %w", table, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode fixtures for %s: %w", table, err)
	}

	path := d.File(table)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// TableOf returns the table a fixture file belongs to, taken from its base
// name.
func TableOf(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Read parses a fixture file. Entries are returned in file order.
func Read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("failed to parse %s: fixture file must be a mapping of names to records", path)
	}

	entries := make([]Entry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		record := map[string]any{}
		if err := value.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to parse %s: fixture %q (line %d): %w", path, key.Value, key.Line, err)
		}
		entries = append(entries, Entry{Name: key.Value, Record: record})
	}
	return entries, nil
}
