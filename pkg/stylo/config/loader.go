package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cognicore/stylo/pkg/stylo/classify"
	"github.com/cognicore/stylo/pkg/stylo/ingest"
	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/likelihood"
	"github.com/cognicore/stylo/pkg/stylo/store"
	"github.com/cognicore/stylo/pkg/stylo/store/filestore"
	"github.com/cognicore/stylo/pkg/stylo/store/memstore"
	"github.com/cognicore/stylo/pkg/stylo/store/postgres"
	"github.com/cognicore/stylo/pkg/stylo/store/sqlite"
)

// Loader reads a configuration file and constructs components
type Loader struct {
	// Path of the YAML file. Empty means defaults plus environment.
	Path   string
	Logger *slog.Logger
}

// Components holds everything an engine needs.
type Components struct {
	Config     *Config
	Store      store.Store
	Pipeline   *ingest.Pipeline
	Classifier *classify.Classifier
}

// Load reads the configuration and returns initialized components. The
// caller owns Components.Store and must close it.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg, err := Load(l.Path)
	if err != nil {
		return nil, err
	}
	return Build(ctx, cfg, l.Logger)
}

// Build constructs components from an already loaded configuration.
func Build(ctx context.Context, cfg *Config, logger *slog.Logger) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	weights := cfg.Weights.ToWeights()
	return &Components{
		Config:   cfg,
		Store:    st,
		Pipeline: ingest.NewPipeline(nil),
		Classifier: classify.New(classify.Options{
			Calculator: likelihood.NewCalculator(cfg.Likelihood),
			Weights:    &weights,
		}),
	}, nil
}

// OpenStore opens the store selected by sc.Driver.
func OpenStore(ctx context.Context, sc StoreConfig, logger *slog.Logger) (store.Store, error) {
	switch sc.Driver {
	case DriverFile:
		st, err := filestore.Open(sc.Path, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverSQLite:
		st, err := sqlite.OpenSQLite(ctx, sc.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverPostgres:
		st, err := postgres.Open(ctx, sc.DSN, postgres.Options{
			MaxOpenConns:    sc.MaxOpenConns,
			MaxIdleConns:    sc.MaxIdleConns,
			ConnMaxLifetime: sc.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("open store: unknown driver %q: %w", sc.Driver, internalerr.ErrInvalidConfig)
	}
}
