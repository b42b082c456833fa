package builder

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"fixture-builder/core/database"
	"fixture-builder/core/fixtures"
	"fixture-builder/core/namer"
	"fixture-builder/core/staleness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type creature struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"column:name"`
	Species string `gorm:"column:species"`
}

func (creature) TableName() string {
	return "magical_creatures"
}

type harness struct {
	t      *testing.T
	root   string
	schema string
	cfg    Config
	store  *database.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()

	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   filepath.Join(root, "fixtures.db"),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&creature{}))
	require.NoError(t, db.Exec("CREATE TABLE schema_migrations (version TEXT)").Error)
	require.NoError(t, db.Exec("CREATE TABLE creature_relationships (one_id INTEGER, other_id INTEGER)").Error)

	h := &harness{t: t, root: root, store: database.NewStore(db)}
	h.schema = h.write("db/schema.sql", "CREATE TABLE magical_creatures (id INTEGER PRIMARY KEY, name TEXT, species TEXT);\n")
	h.cfg = Config{
		WatchFiles:      []string{h.schema},
		SkipTables:      []string{"schema_migrations"},
		NameFields:      namer.DefaultNameFields,
		Digest:          "md5",
		SnapshotFile:    filepath.Join(root, "tmp", "fixture_builder.yml"),
		Directory:       filepath.Join(root, "test", "fixtures"),
		WriteEmptyFiles: true,
		CleanTables:     true,
	}
	return h
}

func (h *harness) write(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.root, name)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *harness) builder(opts ...Option) *Builder {
	h.t.Helper()
	b, err := New(h.cfg, h.store, zap.NewNop(), opts...)
	require.NoError(h.t, err)
	return b
}

func (h *harness) fixtures(table string) map[string]map[string]any {
	h.t.Helper()
	entries, err := fixtures.Read(filepath.Join(h.cfg.Directory, table+fixtures.Extension))
	require.NoError(h.t, err)
	result := make(map[string]map[string]any, len(entries))
	for _, e := range entries {
		result[e.Name] = e.Record
	}
	return result
}

func populateCreatures(ctx context.Context, bc *Context) error {
	alice := &creature{ID: 1, Name: "alice", Species: "mermaid"}
	if err := bc.Create(alice); err != nil {
		return err
	}
	if err := bc.Name("alice_the_mermaid", alice); err != nil {
		return err
	}
	if err := bc.Create(&creature{ID: 2, Name: "Frank", Species: "unicorn"}); err != nil {
		return err
	}
	return bc.Create(&creature{ID: 3, Species: "yeti"})
}

func TestNew_InvalidDigest(t *testing.T) {
	h := newHarness(t)
	h.cfg.Digest = "crc32"

	_, err := New(h.cfg, h.store, nil)
	assert.Error(t, err)
}

func TestBuild_FirstRun(t *testing.T) {
	h := newHarness(t)
	b := h.builder()

	result, err := b.Build(context.Background(), populateCreatures)
	require.NoError(t, err)

	assert.Equal(t, Committed, result.State)
	assert.Equal(t, staleness.ReasonNoArtifacts, result.Decision.Reason)
	assert.NotEmpty(t, result.BuildID)
	assert.Equal(t, map[string]int{"creature_relationships": 0, "magical_creatures": 3}, result.Tables)
	assert.Len(t, result.Files, 2)

	creatures := h.fixtures("magical_creatures")
	require.Len(t, creatures, 3)
	assert.Equal(t, "mermaid", creatures["alice_the_mermaid"]["species"])
	assert.Equal(t, "unicorn", creatures["frank"]["species"])
	assert.Equal(t, "yeti", creatures["magical_creatures_001"]["species"])

	assert.Empty(t, h.fixtures("creature_relationships"))
	assert.NoFileExists(t, filepath.Join(h.cfg.Directory, "schema_migrations.yml"))
	assert.FileExists(t, h.cfg.SnapshotFile)
}

func TestBuild_SkipsWhenUnchanged(t *testing.T) {
	h := newHarness(t)
	b := h.builder()
	ctx := context.Background()

	_, err := b.Build(ctx, populateCreatures)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(h.cfg.Directory, "magical_creatures.yml"))
	require.NoError(t, err)

	calls := 0
	result, err := b.Build(ctx, func(ctx context.Context, bc *Context) error {
		calls++
		return errors.New("must not run")
	})
	require.NoError(t, err)

	assert.Equal(t, Skip, result.State)
	assert.False(t, result.Decision.Rebuild)
	assert.Zero(t, calls)
	assert.Empty(t, result.Files)

	after, err := os.ReadFile(filepath.Join(h.cfg.Directory, "magical_creatures.yml"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBuild_RebuildsWhenInputChanges(t *testing.T) {
	h := newHarness(t)
	b := h.builder()
	ctx := context.Background()

	_, err := b.Build(ctx, populateCreatures)
	require.NoError(t, err)

	h.write("db/schema.sql", "CREATE TABLE magical_creatures (id INTEGER PRIMARY KEY, name TEXT, species TEXT, age INTEGER);\n")

	result, err := b.Build(ctx, populateCreatures)
	require.NoError(t, err)
	assert.Equal(t, Committed, result.State)
	assert.Equal(t, staleness.ReasonInputsChanged, result.Decision.Reason)
	require.Len(t, result.Decision.Changes, 1)
	assert.Equal(t, h.schema, result.Decision.Changes[0].Path)

	// Rows of the previous build were cleaned, so no id collides.
	assert.Len(t, h.fixtures("magical_creatures"), 3)
}

func TestRebuild_IgnoresSnapshot(t *testing.T) {
	h := newHarness(t)
	b := h.builder()
	ctx := context.Background()

	_, err := b.Build(ctx, populateCreatures)
	require.NoError(t, err)

	result, err := b.Rebuild(ctx, populateCreatures)
	require.NoError(t, err)
	assert.Equal(t, Committed, result.State)
	assert.Equal(t, ReasonForced, result.Decision.Reason)
}

func TestBuild_MissingArtifactsForceRebuild(t *testing.T) {
	h := newHarness(t)
	b := h.builder()
	ctx := context.Background()

	_, err := b.Build(ctx, populateCreatures)
	require.NoError(t, err)
	removed, err := b.Dir().Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	result, err := b.Build(ctx, populateCreatures)
	require.NoError(t, err)
	assert.Equal(t, staleness.ReasonNoArtifacts, result.Decision.Reason)
	assert.Equal(t, Committed, result.State)
}

func TestBuild_UnreadableInput(t *testing.T) {
	h := newHarness(t)
	h.cfg.WatchFiles = append(h.cfg.WatchFiles, filepath.Join(h.root, "db", "missing.sql"))
	b := h.builder()

	result, err := b.Build(context.Background(), populateCreatures)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInputUnreadable)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, CheckStale, result.State)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, StageFingerprint, buildErr.Stage)
	assert.NoDirExists(t, h.cfg.Directory)
	assert.NoFileExists(t, h.cfg.SnapshotFile)
}

func TestBuild_PopulationFailureLeavesSnapshotUncommitted(t *testing.T) {
	h := newHarness(t)
	b := h.builder()
	ctx := context.Background()

	_, err := b.Build(ctx, populateCreatures)
	require.NoError(t, err)
	h.write("db/schema.sql", "-- changed\n")

	boom := errors.New("boom")
	result, err := b.Build(ctx, func(ctx context.Context, bc *Context) error {
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPopulation)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Rebuilding, result.State)
	assert.NoFileExists(t, h.cfg.SnapshotFile)

	decision, err := b.Status(ctx)
	require.NoError(t, err)
	assert.True(t, decision.Rebuild)
}

func TestBuild_NamingConflict(t *testing.T) {
	h := newHarness(t)
	b := h.builder()

	_, err := b.Build(context.Background(), func(ctx context.Context, bc *Context) error {
		alice := &creature{ID: 1, Name: "alice"}
		if err := bc.Create(alice); err != nil {
			return err
		}
		if err := bc.Name("alice", alice); err != nil {
			return err
		}
		return bc.Name("not_alice", alice)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPopulation)
	assert.ErrorIs(t, err, namer.ErrDuplicateName)
	assert.ErrorIs(t, err, namer.ErrNamingConflict)
}

func TestBuild_NamingUnsavedModel(t *testing.T) {
	h := newHarness(t)
	b := h.builder()

	_, err := b.Build(context.Background(), func(ctx context.Context, bc *Context) error {
		return bc.Name("ghost", &creature{Name: "ghost"})
	})
	assert.ErrorIs(t, err, namer.ErrEmptyObject)
	assert.ErrorIs(t, err, namer.ErrInvalidName)
}

func TestBuild_NameFunc(t *testing.T) {
	h := newHarness(t)
	b := h.builder(WithNameFunc("magical_creatures", func(record map[string]any, index int) string {
		return "creature_" + namer.FormatIndex(index)
	}))

	_, err := b.Build(context.Background(), populateCreatures)
	require.NoError(t, err)

	creatures := h.fixtures("magical_creatures")
	assert.Contains(t, creatures, "creature_001")
	assert.Contains(t, creatures, "creature_002")
	assert.Contains(t, creatures, "creature_003")
	assert.NotContains(t, creatures, "alice_the_mermaid")
}

func TestBuild_LegacyFixtures(t *testing.T) {
	h := newHarness(t)
	legacy := h.write("legacy/magical_creatures.yml", `alice_the_mermaid:
  id: 1
  name: alice
  species: mermaid
  retired_column: gone
`)
	h.cfg.LegacyFixtures = []string{filepath.Join(h.root, "legacy", "*.yml")}
	b := h.builder()
	ctx := context.Background()

	result, err := b.Build(ctx, func(ctx context.Context, bc *Context) error {
		return bc.Create(&creature{ID: 2, Name: "Bob", Species: "selkie"})
	})
	require.NoError(t, err)
	assert.Contains(t, result.Fingerprints, legacy)

	creatures := h.fixtures("magical_creatures")
	require.Len(t, creatures, 2)
	assert.Equal(t, "mermaid", creatures["alice_the_mermaid"]["species"])
	assert.NotContains(t, creatures["alice_the_mermaid"], "retired_column")
	assert.Equal(t, "selkie", creatures["bob"]["species"])

	// Editing a legacy file makes the fixtures stale.
	h.write("legacy/magical_creatures.yml", "{}\n")
	decision, err := b.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, staleness.ReasonInputsChanged, decision.Reason)
}

func TestBuild_LegacyFixtureForUnknownTable(t *testing.T) {
	h := newHarness(t)
	h.write("legacy/dragons.yml", "smaug:\n  id: 1\n")
	h.cfg.LegacyFixtures = []string{filepath.Join(h.root, "legacy", "dragons.yml")}
	b := h.builder()

	_, err := b.Build(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLegacyLoad)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "dragons", buildErr.Table)
}

func TestBuild_WriteEmptyFilesDisabled(t *testing.T) {
	h := newHarness(t)
	h.cfg.WriteEmptyFiles = false
	b := h.builder()

	result, err := b.Build(context.Background(), populateCreatures)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"magical_creatures": 3}, result.Tables)
	assert.NoFileExists(t, filepath.Join(h.cfg.Directory, "creature_relationships.yml"))
}

func TestBuild_CleanTables(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.Insert(ctx, "magical_creatures", map[string]any{"id": 9, "name": "stale"}))
	require.NoError(t, h.store.Insert(ctx, "schema_migrations", map[string]any{"version": "20240101"}))

	_, err := h.builder().Build(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, h.fixtures("magical_creatures"))

	rows, err := h.store.Rows(ctx, "schema_migrations")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "skipped tables are not cleaned")
}

func TestBuild_KeepTables(t *testing.T) {
	h := newHarness(t)
	h.cfg.CleanTables = false
	ctx := context.Background()
	require.NoError(t, h.store.Insert(ctx, "magical_creatures", map[string]any{"id": 9, "name": "kept"}))

	_, err := h.builder().Build(ctx, nil)
	require.NoError(t, err)
	assert.Contains(t, h.fixtures("magical_creatures"), "kept")
}

func TestBuild_AfterBuild(t *testing.T) {
	h := newHarness(t)
	var seen *Result
	b := h.builder(WithAfterBuild(func(ctx context.Context, result *Result) error {
		seen = result
		return nil
	}))
	ctx := context.Background()

	result, err := b.Build(ctx, populateCreatures)
	require.NoError(t, err)
	assert.Same(t, result, seen)

	// Not run for skipped builds.
	seen = nil
	_, err = b.Build(ctx, populateCreatures)
	require.NoError(t, err)
	assert.Nil(t, seen)
}

func TestBuild_AfterBuildFailureKeepsSnapshot(t *testing.T) {
	h := newHarness(t)
	b := h.builder(WithAfterBuild(func(ctx context.Context, result *Result) error {
		return assert.AnError
	}))

	result, err := b.Build(context.Background(), populateCreatures)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAfterBuild)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, Committed, result.State)
	assert.FileExists(t, h.cfg.SnapshotFile)
}

func TestBuild_InProgress(t *testing.T) {
	h := newHarness(t)
	b := h.builder()
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := b.Rebuild(ctx, func(ctx context.Context, bc *Context) error {
			close(started)
			<-release
			return nil
		})
		done <- err
	}()

	<-started
	assert.True(t, b.Running())
	_, err := b.Build(ctx, populateCreatures)
	assert.ErrorIs(t, err, ErrBuildInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, b.Running())
}

func TestStatus(t *testing.T) {
	h := newHarness(t)
	b := h.builder()
	ctx := context.Background()

	decision, err := b.Status(ctx)
	require.NoError(t, err)
	assert.True(t, decision.Rebuild)
	assert.Equal(t, staleness.ReasonNoArtifacts, decision.Reason)

	_, err = b.Build(ctx, populateCreatures)
	require.NoError(t, err)

	decision, err = b.Status(ctx)
	require.NoError(t, err)
	assert.False(t, decision.Rebuild)
}

func TestBuildError(t *testing.T) {
	err := &BuildError{Stage: StageEmit, Table: "users", Err: assert.AnError}

	assert.ErrorIs(t, err, ErrEmit)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, ErrCommit)
	assert.Contains(t, err.Error(), "emit failed for table users")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "check_stale", CheckStale.String())
	assert.Equal(t, "skip", Skip.String())
	assert.Equal(t, "rebuilding", Rebuilding.String())
	assert.Equal(t, "committed", Committed.String())
	assert.Equal(t, "state(9)", State(9).String())
}

func TestBuild_DuplicateFixtureName(t *testing.T) {
	h := newHarness(t)
	b := h.builder()

	// "foo" counts the earlier "foo_1" as a collision and is named "foo_1" too.
	_, err := b.Build(context.Background(), func(ctx context.Context, bc *Context) error {
		if err := bc.Create(&creature{ID: 1, Name: "foo_1"}); err != nil {
			return err
		}
		return bc.Create(&creature{ID: 2, Name: "foo"})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmit)
	assert.Contains(t, err.Error(), `duplicate fixture name "foo_1"`)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "magical_creatures", buildErr.Table)
	assert.NoFileExists(t, h.cfg.SnapshotFile)
}

func TestBuild_CustomNameMatchingInferredName(t *testing.T) {
	h := newHarness(t)
	b := h.builder()

	_, err := b.Build(context.Background(), func(ctx context.Context, bc *Context) error {
		if err := bc.Create(&creature{ID: 1, Name: "frank"}); err != nil {
			return err
		}
		frank := &creature{ID: 2, Species: "unicorn"}
		if err := bc.Create(frank); err != nil {
			return err
		}
		return bc.Name("frank", frank)
	})
	assert.ErrorIs(t, err, ErrEmit)
}

func TestBuild_UnreadableSnapshotRebuilds(t *testing.T) {
	h := newHarness(t)
	b := h.builder()
	ctx := context.Background()

	_, err := b.Build(ctx, populateCreatures)
	require.NoError(t, err)
	require.NoError(t, os.Remove(h.cfg.SnapshotFile))
	require.NoError(t, os.MkdirAll(h.cfg.SnapshotFile, 0o755))

	result, err := b.Build(ctx, populateCreatures)
	require.NoError(t, err)
	assert.Equal(t, staleness.ReasonUnreadableSnapshot, result.Decision.Reason)
	assert.Equal(t, Committed, result.State)

	decision, err := b.Status(ctx)
	require.NoError(t, err)
	assert.False(t, decision.Rebuild)
}

func TestRunning_DoesNotBlockBuilds(t *testing.T) {
	h := newHarness(t)
	b := h.builder()
	ctx := context.Background()

	stop := make(chan struct{})
	polled := make(chan struct{})
	go func() {
		defer close(polled)
		for {
			select {
			case <-stop:
				return
			default:
				b.Running()
			}
		}
	}()

	for i := 0; i < 5; i++ {
		_, err := b.Rebuild(ctx, populateCreatures)
		require.NoError(t, err)
	}
	close(stop)
	<-polled
	assert.False(t, b.Running())
}
