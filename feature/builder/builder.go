package builder

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"fixture-builder/core/digest"
	"fixture-builder/core/fixtures"
	"fixture-builder/core/logger"
	"fixture-builder/core/namer"
	"fixture-builder/core/staleness"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReasonForced is reported when a rebuild skipped the staleness check.
const ReasonForced staleness.Reason = "forced"

// Store is the persistence the builder reads and writes rows through.
// *database.Store implements it.
type Store interface {
	DB() *gorm.DB
	Tables(ctx context.Context, skip []string) ([]string, error)
	Columns(ctx context.Context, table string) ([]string, error)
	DeleteAll(ctx context.Context, table string) error
	Rows(ctx context.Context, table string) ([]map[string]any, error)
	Insert(ctx context.Context, table string, row map[string]any) error
	Create(ctx context.Context, model any) error
	Exec(ctx context.Context, statement string) error
	Identify(model any) (string, any, error)
}

// State is a step of the build lifecycle.
type State int

const (
	Idle State = iota
	CheckStale
	Skip
	Rebuilding
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CheckStale:
		return "check_stale"
	case Skip:
		return "skip"
	case Rebuilding:
		return "rebuilding"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PopulateFunc fills the database with the records to turn into fixtures.
type PopulateFunc func(ctx context.Context, bc *Context) error

// AfterBuildFunc runs after a build has been committed.
type AfterBuildFunc func(ctx context.Context, result *Result) error

// Result describes a finished build.
type Result struct {
	BuildID      string
	State        State
	Decision     staleness.Decision
	Fingerprints digest.Set
	// Tables maps every written table to its row count.
	Tables map[string]int
	// Files are the fixture files written, sorted.
	Files []string
}

// Option configures a Builder.
type Option func(*Builder)

// WithNameFunc names every record of table with fn.
func WithNameFunc(table string, fn namer.NameFunc) Option {
	return func(b *Builder) {
		b.nameFuncs[table] = fn
	}
}

// WithAfterBuild adds a hook run after every committed build.
func WithAfterBuild(fn AfterBuildFunc) Option {
	return func(b *Builder) {
		b.afterBuild = append(b.afterBuild, fn)
	}
}

// Builder regenerates fixture files when their inputs change.
type Builder struct {
	cfg    Config
	store  Store
	logger *zap.Logger
	algo   digest.Algorithm
	dir    *fixtures.Dir
	cache  *staleness.Cache

	nameFuncs  map[string]namer.NameFunc
	afterBuild []AfterBuildFunc

	running atomic.Bool
}

// New creates a Builder writing fixtures of store into cfg.Directory.
func New(cfg Config, store Store, logger *zap.Logger, opts ...Option) (*Builder, error) {
	algo, err := digest.ParseAlgorithm(cfg.Digest)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := fixtures.NewDir(cfg.Directory)
	b := &Builder{
		cfg:    cfg,
		store:  store,
		logger: logger,
		algo:   algo,
		dir:    dir,
		cache: &staleness.Cache{
			SnapshotPath: cfg.SnapshotFile,
			OutputDir:    dir.Path(),
			Pattern:      fixtures.Pattern,
		},
		nameFuncs: make(map[string]namer.NameFunc),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Dir returns the fixture directory.
func (b *Builder) Dir() *fixtures.Dir {
	return b.dir
}

// Running reports whether a build is in progress.
func (b *Builder) Running() bool {
	return b.running.Load()
}

// Status fingerprints the watched files and reports whether a build would
// regenerate the fixtures.
func (b *Builder) Status(ctx context.Context) (staleness.Decision, error) {
	current, err := b.fingerprint()
	if err != nil {
		return staleness.Decision{}, err
	}
	decision, err := b.cache.ShouldRebuild(current)
	if err != nil {
		return staleness.Decision{}, &BuildError{Stage: StageCheck, Err: err}
	}
	return decision, nil
}

// Build regenerates the fixtures when they are stale.
func (b *Builder) Build(ctx context.Context, populate PopulateFunc) (*Result, error) {
	return b.run(ctx, populate, false)
}

// Rebuild regenerates the fixtures without checking staleness.
func (b *Builder) Rebuild(ctx context.Context, populate PopulateFunc) (*Result, error) {
	return b.run(ctx, populate, true)
}

func (b *Builder) run(ctx context.Context, populate PopulateFunc, force bool) (*Result, error) {
	if !b.running.CompareAndSwap(false, true) {
		return nil, ErrBuildInProgress
	}
	defer b.running.Store(false)

	result := &Result{
		BuildID: uuid.NewString(),
		State:   Idle,
		Tables:  make(map[string]int),
	}
	l := logger.WithBuildID(b.logger, result.BuildID)

	result.State = CheckStale
	current, err := b.fingerprint()
	if err != nil {
		return result, err
	}
	result.Fingerprints = current

	if force {
		result.Decision = staleness.Decision{Rebuild: true, Reason: ReasonForced}
	} else {
		decision, err := b.cache.ShouldRebuild(current)
		if err != nil {
			return result, &BuildError{Stage: StageCheck, Err: err}
		}
		result.Decision = decision
	}

	if !result.Decision.Rebuild {
		result.State = Skip
		l.Info("Fixtures are up to date", zap.Int("watched", len(current)))
		return result, nil
	}

	result.State = Rebuilding
	l.Info("Rebuilding fixtures",
		zap.String("reason", string(result.Decision.Reason)),
		zap.String("directory", b.dir.Path()))
	for _, change := range result.Decision.Changes {
		l.Info("Fixture input changed", zap.Stringer("change", change))
	}

	if err := b.cache.Invalidate(); err != nil {
		return result, &BuildError{Stage: StageClean, Err: err}
	}

	names := namer.New(b.cfg.NameFields)
	for table, fn := range b.nameFuncs {
		names.NameWith(table, fn)
	}

	if err := b.clean(ctx, l); err != nil {
		return result, err
	}
	if err := b.loadLegacy(ctx, l, names); err != nil {
		return result, err
	}

	if populate != nil {
		bc := newContext(ctx, b.store, names)
		if err := populate(ctx, bc); err != nil {
			return result, &BuildError{Stage: StagePopulate, Err: err}
		}
	}

	if err := b.emit(ctx, l, names, result); err != nil {
		return result, err
	}

	if err := b.cache.Commit(current); err != nil {
		return result, &BuildError{Stage: StageCommit, Err: err}
	}
	result.State = Committed
	l.Info("Fixtures built",
		zap.Int("tables", len(result.Tables)),
		zap.Int("files", len(result.Files)))

	for _, hook := range b.afterBuild {
		if err := hook(ctx, result); err != nil {
			return result, &BuildError{Stage: StageAfterBuild, Err: err}
		}
	}
	return result, nil
}

func (b *Builder) fingerprint() (digest.Set, error) {
	watch, err := b.cfg.WatchList()
	if err != nil {
		return nil, &BuildError{Stage: StageFingerprint, Err: err}
	}
	set, err := digest.Fingerprint(watch, b.algo)
	if err != nil {
		return nil, &BuildError{Stage: StageFingerprint, Err: err}
	}
	return set, nil
}

func (b *Builder) clean(ctx context.Context, l *zap.Logger) error {
	removed, err := b.dir.Clear()
	if err != nil {
		return &BuildError{Stage: StageClean, Err: err}
	}
	l.Debug("Removed previous fixtures", zap.Int("files", removed))

	if !b.cfg.CleanTables {
		return nil
	}
	tables, err := b.store.Tables(ctx, b.cfg.SkipTables)
	if err != nil {
		return &BuildError{Stage: StageClean, Err: err}
	}
	for _, table := range tables {
		if err := b.store.DeleteAll(ctx, table); err != nil {
			return &BuildError{Stage: StageClean, Table: table, Err: err}
		}
	}
	l.Debug("Deleted table rows", zap.Strings("tables", tables))
	return nil
}

// loadLegacy inserts the rows of every legacy fixture file into the table
// named after the file and keeps their fixture names.
func (b *Builder) loadLegacy(ctx context.Context, l *zap.Logger, names *namer.Namer) error {
	paths, err := b.cfg.LegacyPaths()
	if err != nil {
		return &BuildError{Stage: StageLegacy, Err: err}
	}

	for _, path := range paths {
		table := fixtures.TableOf(path)
		entries, err := fixtures.Read(path)
		if err != nil {
			return &BuildError{Stage: StageLegacy, Table: table, Err: err}
		}

		columns, err := b.store.Columns(ctx, table)
		if err != nil {
			return &BuildError{Stage: StageLegacy, Table: table, Err: err}
		}
		if len(columns) == 0 {
			return &BuildError{Stage: StageLegacy, Table: table, Err: fmt.Errorf("table %s does not exist", table)}
		}
		known := make(map[string]struct{}, len(columns))
		for _, c := range columns {
			known[c] = struct{}{}
		}

		for _, entry := range entries {
			row := make(map[string]any, len(entry.Record))
			for k, v := range entry.Record {
				if _, ok := known[strings.ToLower(k)]; ok {
					row[k] = v
				}
			}
			if err := b.store.Insert(ctx, table, row); err != nil {
				return &BuildError{Stage: StageLegacy, Table: table, Err: fmt.Errorf("fixture %s: %w", entry.Name, err)}
			}
			if id, ok := entry.Record[namer.IDField]; ok {
				if err := names.Name(entry.Name, namer.NewRef(table, id)); err != nil {
					return &BuildError{Stage: StageLegacy, Table: table, Err: err}
				}
			}
		}
		l.Debug("Loaded legacy fixtures",
			zap.String("file", filepath.Base(path)),
			zap.Int("rows", len(entries)))
	}
	return nil
}

func (b *Builder) emit(ctx context.Context, l *zap.Logger, names *namer.Namer, result *Result) error {
	tables, err := b.store.Tables(ctx, b.cfg.SkipTables)
	if err != nil {
		return &BuildError{Stage: StageEmit, Err: err}
	}

	for _, table := range tables {
		rows, err := b.store.Rows(ctx, table)
		if err != nil {
			return &BuildError{Stage: StageEmit, Table: table, Err: err}
		}
		if len(rows) == 0 && !b.cfg.WriteEmptyFiles {
			continue
		}

		scope := names.Table(table)
		records := make(map[string]map[string]any, len(rows))
		for _, row := range rows {
			name := scope.Name(row)
			if _, dup := records[name]; dup {
				return &BuildError{Stage: StageEmit, Table: table, Err: fmt.Errorf("duplicate fixture name %q for %s", name, namer.NewRef(table, row[namer.IDField]))}
			}
			records[name] = row
		}

		if err := b.dir.Write(table, records); err != nil {
			return &BuildError{Stage: StageEmit, Table: table, Err: err}
		}
		result.Tables[table] = len(rows)
		result.Files = append(result.Files, b.dir.File(table))
		l.Debug("Wrote fixtures", zap.String("table", table), zap.Int("rows", len(rows)))
	}
	sort.Strings(result.Files)
	return nil
}
