package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultSchemaFiles are watched when no watch files are configured. Only
// the ones that exist are used.
var DefaultSchemaFiles = []string{
	"db/schema.sql",
	"db/structure.sql",
	"db/test_structure.sql",
	"db/production_structure.sql",
}

// Config holds configuration for fixture generation.
type Config struct {
	// WatchFiles are the files (or glob patterns) whose content decides staleness.
	WatchFiles []string `mapstructure:"watch_files" default:""`
	// SkipTables are never cleaned or written.
	SkipTables []string `mapstructure:"skip_tables" default:"schema_migrations"`
	// NameFields are the record fields tried, in order, when inferring names.
	NameFields []string `mapstructure:"name_fields" default:"unique_name,display_name,name,title,username,login"`
	// Digest is the fingerprint algorithm (md5, sha1, blake3).
	Digest string `mapstructure:"digest" default:"md5"`
	// SnapshotFile is where the fingerprints of the last build are stored.
	SnapshotFile string `mapstructure:"snapshot_file" default:"tmp/fixture_builder.yml"`
	// Directory is the fixture output directory.
	Directory string `mapstructure:"directory" default:"test/fixtures"`
	// WriteEmptyFiles writes an empty fixture file for tables without rows.
	WriteEmptyFiles bool `mapstructure:"write_empty_files" default:"true"`
	// CleanTables deletes every row of every table before populating.
	CleanTables bool `mapstructure:"clean_tables" default:"true"`
	// LegacyFixtures are hand written fixture files loaded before population.
	LegacyFixtures []string `mapstructure:"legacy_fixtures" default:""`
	// SeedFiles are SQL files executed by the seed population routine.
	SeedFiles []string `mapstructure:"seed_files" default:""`
}

// WatchList returns every file whose content decides staleness: the
// configured watch files (the existing default schema files when none are
// configured), the legacy fixtures and the seed files.
func (c Config) WatchList() ([]string, error) {
	var watch []string
	if len(c.WatchFiles) == 0 {
		for _, f := range DefaultSchemaFiles {
			if _, err := os.Stat(f); err == nil {
				watch = append(watch, f)
			}
		}
	} else {
		files, err := expand(c.WatchFiles)
		if err != nil {
			return nil, err
		}
		watch = files
	}

	legacy, err := c.LegacyPaths()
	if err != nil {
		return nil, err
	}
	seeds, err := c.SeedPaths()
	if err != nil {
		return nil, err
	}

	return dedupe(append(append(watch, legacy...), seeds...)), nil
}

// LegacyPaths expands the legacy fixture patterns.
func (c Config) LegacyPaths() ([]string, error) {
	return expand(c.LegacyFixtures)
}

// SeedPaths expands the seed file patterns.
func (c Config) SeedPaths() ([]string, error) {
	return expand(c.SeedFiles)
}

// expand resolves glob patterns, sorted per pattern. Plain paths are kept
// as given so that a missing file fails fingerprinting.
func expand(patterns []string) ([]string, error) {
	var files []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.ContainsAny(p, "*?[") {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", p, err)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	return files, nil
}

func dedupe(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	result := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		result = append(result, f)
	}
	return result
}
