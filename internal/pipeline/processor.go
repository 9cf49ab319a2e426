package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/ingest"
	"github.com/joseph-ayodele/fiscal-extract/internal/repository"
)

// DocumentSource turns a file into a Document: the external extraction
// service or the local page-text reader.
type DocumentSource interface {
	Fetch(ctx context.Context, path string, family constants.DocumentFamily) (entity.Document, error)
}

// Processor imports one file: hash, dedupe by content, fetch, convert,
// persist. Without repositories it only converts.
type Processor struct {
	logger    *slog.Logger
	source    DocumentSource
	converter *Converter
	jobs      repository.ImportJobRepository
	items     repository.OrderItemRepository
	reprocess bool
}

type ProcessorOption func(*Processor)

// WithPersistence stores jobs and items. Both repositories are required.
func WithPersistence(jobs repository.ImportJobRepository, items repository.OrderItemRepository) ProcessorOption {
	return func(p *Processor) {
		p.jobs = jobs
		p.items = items
	}
}

// WithReprocess imports files whose content already imported successfully.
func WithReprocess(on bool) ProcessorOption {
	return func(p *Processor) { p.reprocess = on }
}

func NewProcessor(logger *slog.Logger, source DocumentSource, converter *Converter, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{logger: logger, source: source, converter: converter}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Outcome is the result of one ProcessFile call.
type Outcome struct {
	Job   *entity.ImportJob
	Items []entity.CanonicalItem
	// Duplicate is set when an earlier successful import was reused.
	Duplicate bool
}

// ProcessFile imports path as a document of family. The returned Outcome
// carries the job even when err is non-nil so callers can report it.
func (p *Processor) ProcessFile(ctx context.Context, path string, family constants.DocumentFamily) (*Outcome, error) {
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return nil, common.NewAppError("INVALID_INPUT", "unsupported format: "+filepath.Ext(path), common.ErrInvalidInput)
	}
	hash, err := ingest.HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("hash file: %w", err)
	}

	if p.persistent() && !p.reprocess {
		prev, err := p.jobs.FindSucceededByHash(ctx, hash)
		switch {
		case err == nil:
			items, err := p.items.ListByImport(ctx, prev.ID)
			if err != nil {
				return nil, err
			}
			p.logger.Info("processor.import.duplicate", "path", path, "import_id", prev.ID, "items", len(items))
			return &Outcome{Job: prev, Items: items, Duplicate: true}, nil
		case !errors.Is(err, common.ErrNotFound):
			return nil, err
		}
	}

	job := &entity.ImportJob{
		ID:          uuid.New(),
		SourcePath:  path,
		Family:      string(family),
		Format:      format,
		ContentHash: hash,
		Status:      string(constants.ImportStatusRunning),
		StartedAt:   time.Now().UTC(),
	}
	if p.persistent() {
		if err := p.jobs.Start(ctx, job); err != nil {
			return nil, err
		}
	}
	ctx = common.WithImportID(ctx, job.ID.String())
	out := &Outcome{Job: job}

	doc, err := p.source.Fetch(ctx, path, family)
	if err != nil {
		p.logger.Error("processor.fetch.failed", "path", path, "import_id", job.ID, "err", err)
		return out, p.fail(ctx, job, constants.ImportStatusFailed, err)
	}
	if doc.Family == "" {
		doc.Family = family
	}
	if doc.Source == "" {
		doc.Source = path
	}

	items, err := p.converter.Convert(ctx, doc)
	if err != nil {
		status := constants.ImportStatusFailed
		if errors.Is(err, common.ErrNothingExtracted) {
			status = constants.ImportStatusNothingExtracted
		}
		p.logger.Error("processor.import.failed", "path", path, "import_id", job.ID, "status", status, "err", err)
		return out, p.fail(ctx, job, status, err)
	}

	if p.persistent() {
		if err := p.items.SaveAll(ctx, job.ID, items); err != nil {
			return out, p.fail(ctx, job, constants.ImportStatusFailed, err)
		}
		if err := p.jobs.Finish(ctx, job.ID, constants.ImportStatusSucceeded, len(items), ""); err != nil {
			return out, err
		}
	}
	finished := time.Now().UTC()
	job.Status = string(constants.ImportStatusSucceeded)
	job.ItemCount = len(items)
	job.FinishedAt = &finished
	out.Items = items

	p.logger.Info("processor.import.ok", "path", path, "import_id", job.ID, "items", len(items))
	return out, nil
}

// fail records the terminal status and returns cause.
func (p *Processor) fail(ctx context.Context, job *entity.ImportJob, status constants.ImportStatus, cause error) error {
	finished := time.Now().UTC()
	job.Status = string(status)
	job.FinishedAt = &finished
	msg := cause.Error()
	job.ErrorMessage = &msg
	if p.persistent() {
		if err := p.jobs.Finish(context.WithoutCancel(ctx), job.ID, status, 0, msg); err != nil {
			p.logger.Error("processor.finish.failed", "import_id", job.ID, "err", err)
		}
	}
	return cause
}

func (p *Processor) persistent() bool {
	return p.jobs != nil && p.items != nil
}
