package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "test/fixtures", cfg.Fixtures.Directory)
	assert.Equal(t, "tmp/fixture_builder.yml", cfg.Fixtures.SnapshotFile)
	assert.Equal(t, "md5", cfg.Fixtures.Digest)
	assert.Equal(t, []string{"schema_migrations"}, cfg.Fixtures.SkipTables)
	assert.Equal(t, []string{"unique_name", "display_name", "name", "title", "username", "login"}, cfg.Fixtures.NameFields)
	assert.Empty(t, cfg.Fixtures.WatchFiles)
	assert.True(t, cfg.Fixtures.WriteEmptyFiles)
	assert.True(t, cfg.Fixtures.CleanTables)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "fixtures", cfg.Storage.Prefix)
	assert.False(t, cfg.Storage.PublishAfterBuild)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("FIXTURES_DIRECTORY", "testdata/fixtures")
	t.Setenv("FIXTURES_DIGEST", "sha1")
	t.Setenv("FIXTURES_WATCH_FILES", "db/schema.sql,db/seeds/*.sql")
	t.Setenv("FIXTURES_WRITE_EMPTY_FILES", "false")
	t.Setenv("DATABASE_PORT", "3307")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "testdata/fixtures", cfg.Fixtures.Directory)
	assert.Equal(t, "sha1", cfg.Fixtures.Digest)
	assert.Equal(t, []string{"db/schema.sql", "db/seeds/*.sql"}, cfg.Fixtures.WatchFiles)
	assert.False(t, cfg.Fixtures.WriteEmptyFiles)
	assert.Equal(t, 3307, cfg.Database.Port)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FIXTURES_SNAPSHOT_FILE=build/snapshot.yml\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("FIXTURES_SNAPSHOT_FILE") })

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "build/snapshot.yml", cfg.Fixtures.SnapshotFile)
}
