// Package app wires configuration into the long-lived components shared
// by the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/dedup"
	"github.com/joseph-ayodele/fiscal-extract/internal/pipeline"
	"github.com/joseph-ayodele/fiscal-extract/internal/repository"
	"github.com/joseph-ayodele/fiscal-extract/internal/segment"
	"github.com/joseph-ayodele/fiscal-extract/internal/textextract"
	"github.com/joseph-ayodele/fiscal-extract/internal/upstream"
)

type App struct {
	DB        *repository.DB
	Jobs      repository.ImportJobRepository
	Items     repository.OrderItemRepository
	Converter *pipeline.Converter
	Decoder   *upstream.Decoder
	Source    pipeline.DocumentSource
	Processor *pipeline.Processor
	logger    *slog.Logger
}

type Options struct {
	// Persist opens the database and stores imports.
	Persist   bool
	Reprocess bool
}

// NewConverter builds the conversion core from the pipeline settings.
func NewConverter(cfg common.PipelineConfig, logger *slog.Logger) (*pipeline.Converter, error) {
	opts := []pipeline.ConverterOption{pipeline.WithParallelSections(cfg.ParallelSections)}
	if cfg.MarkersFile != "" {
		m, err := segment.LoadMarkersFile(cfg.MarkersFile)
		if err != nil {
			return nil, fmt.Errorf("load markers: %w", err)
		}
		opts = append(opts, pipeline.WithMarkers(m))
	}
	if cfg.DedupIncludePeriod {
		opts = append(opts, pipeline.WithDedupKey(dedup.ByCodeSectionAndPeriod))
	}
	return pipeline.NewConverter(logger, opts...)
}

// NewSource returns the extraction service client when a URL is
// configured and the local reader otherwise.
func NewSource(cfg common.ExtractionConfig, logger *slog.Logger) (pipeline.DocumentSource, error) {
	if cfg.ServiceURL != "" {
		c, err := upstream.New(cfg.ServiceURL, cfg.Timeout, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	r, err := textextract.New(logger)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func Build(ctx context.Context, cfg *common.Config, opts Options, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{logger: logger}

	var err error
	if a.Converter, err = NewConverter(cfg.Pipeline, logger); err != nil {
		return nil, err
	}
	if a.Decoder, err = upstream.NewDecoder(logger); err != nil {
		return nil, err
	}
	if a.Source, err = NewSource(cfg.Extraction, logger); err != nil {
		return nil, err
	}

	procOpts := []pipeline.ProcessorOption{pipeline.WithReprocess(opts.Reprocess)}
	if opts.Persist {
		a.DB, err = repository.Open(ctx, repository.Config{
			Driver:           cfg.Database.Driver,
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := a.DB.Migrate(ctx); err != nil {
			repository.Close(a.DB, logger)
			return nil, err
		}
		a.Jobs = repository.NewImportJobRepository(a.DB, logger)
		a.Items = repository.NewOrderItemRepository(a.DB, logger)
		procOpts = append(procOpts, pipeline.WithPersistence(a.Jobs, a.Items))
	}
	a.Processor = pipeline.NewProcessor(logger, a.Source, a.Converter, procOpts...)
	return a, nil
}

func (a *App) Close() {
	if a.DB != nil {
		repository.Close(a.DB, a.logger)
	}
}
