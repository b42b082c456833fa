package cmd

import (
	"fmt"

	"fixture-builder/core/config"
	"fixture-builder/core/database"
	"fixture-builder/core/logger"
	"fixture-builder/core/storage"
	"fixture-builder/feature/builder"
	"fixture-builder/feature/publish"

	"go.uber.org/zap"
)

// env bundles what every command needs.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	builder  *builder.Builder
	populate builder.PopulateFunc
}

// setup loads the configuration, connects to the database and creates the
// builder. The seed files are the population routine.
func setup() (*env, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}

	var opts []builder.Option
	if cfg.Storage.PublishAfterBuild {
		pub, err := newPublisher(cfg, logg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, builder.WithAfterBuild(pub.AfterBuild))
	}

	b, err := builder.New(cfg.Fixtures, database.NewStore(db), logg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create builder: %w", err)
	}

	seeds, err := cfg.Fixtures.SeedPaths()
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:      cfg,
		logger:   logg,
		builder:  b,
		populate: builder.SeedFiles(seeds...),
	}, nil
}

func newPublisher(cfg *config.Config, logg *zap.Logger) (*publish.Publisher, error) {
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return publish.NewPublisher(client, cfg.Storage, logg), nil
}
