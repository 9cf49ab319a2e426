package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/fiscal-extract/internal/builder"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/dedup"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/mapper"
	"github.com/joseph-ayodele/fiscal-extract/internal/resolve"
	"github.com/joseph-ayodele/fiscal-extract/internal/segment"
)

// Converter runs segmenter, builder, resolver, deduplicator and mapper
// over one document. It holds no per-document state; one Converter can
// serve many documents concurrently.
type Converter struct {
	logger    *slog.Logger
	segmenter *segment.Segmenter
	builder   *builder.Builder
	resolver  *resolve.Resolver
	dedup     *dedup.Deduplicator
	mapper    *mapper.Mapper
	parallel  bool
}

type ConverterOption func(*converterConfig)

type converterConfig struct {
	markers  *segment.Markers
	parallel bool
	dedupKey dedup.KeyFunc
	resolver []resolve.Option
	mapper   []mapper.Option
}

// WithMarkers replaces the embedded marker table.
func WithMarkers(m *segment.Markers) ConverterOption {
	return func(c *converterConfig) { c.markers = m }
}

// WithParallelSections builds the sections of a document concurrently.
func WithParallelSections(on bool) ConverterOption {
	return func(c *converterConfig) { c.parallel = on }
}

func WithDedupKey(key dedup.KeyFunc) ConverterOption {
	return func(c *converterConfig) { c.dedupKey = key }
}

func WithResolverOptions(opts ...resolve.Option) ConverterOption {
	return func(c *converterConfig) { c.resolver = append(c.resolver, opts...) }
}

func WithMapperOptions(opts ...mapper.Option) ConverterOption {
	return func(c *converterConfig) { c.mapper = append(c.mapper, opts...) }
}

func NewConverter(logger *slog.Logger, opts ...ConverterOption) (*Converter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := converterConfig{parallel: true}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.markers == nil {
		m, err := segment.DefaultMarkers()
		if err != nil {
			return nil, fmt.Errorf("load markers: %w", err)
		}
		cfg.markers = m
	}
	return &Converter{
		logger:    logger,
		segmenter: segment.New(cfg.markers, logger),
		builder:   builder.New(logger),
		resolver:  resolve.New(logger, cfg.resolver...),
		dedup:     dedup.New(cfg.dedupKey, logger),
		mapper:    mapper.New(logger, cfg.mapper...),
		parallel:  cfg.parallel,
	}, nil
}

// Convert returns the canonical items of doc. A document with no text that
// was never tabulated is invalid input; one that yields no item, including
// an extraction answer with only empty sections, returns
// common.ErrNothingExtracted.
func (c *Converter) Convert(ctx context.Context, doc entity.Document) ([]entity.CanonicalItem, error) {
	if doc.Empty() {
		return nil, common.NewAppError("INVALID_INPUT", "document has no text and no rows", common.ErrInvalidInput)
	}
	result, docCtx, err := c.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	resolved := c.resolver.Resolve(result.Ordered(), docCtx)
	unique := c.dedup.Dedup(resolved)
	items := c.mapper.Map(unique)

	c.logger.Info("pipeline.convert.done",
		"source", doc.Source,
		"family", doc.Family,
		"records", len(resolved),
		"duplicates", len(resolved)-len(unique),
		"items", len(items),
	)
	if len(items) == 0 {
		return nil, common.ErrNothingExtracted
	}
	for i, it := range items {
		v := common.NewValidator().
			Field("code", it.Code, common.Required).
			Field("tax_type", string(it.TaxType), common.Required)
		if err := v.Error(); err != nil {
			return nil, common.NewAppError("INTERNAL", fmt.Sprintf("item %d", i), err)
		}
	}
	return items, nil
}

// Extract produces the per-section raw records of doc. Sections supplied
// as non-empty rows replace whatever the text path found for them.
func (c *Converter) Extract(ctx context.Context, doc entity.Document) (entity.ExtractionResult, entity.DocumentContext, error) {
	docCtx := entity.DocumentContext{CNPJ: doc.CNPJ}
	result := entity.ExtractionResult{}

	if len(doc.Pages) > 0 {
		seg := c.segmenter.Segment(doc.Pages, doc.Family.FallbackSection())
		if docCtx.CNPJ == "" {
			docCtx.CNPJ = seg.CNPJ
		}

		var sections []entity.Section
		for _, sec := range seg.Sections {
			if !doc.Family.Includes(sec.Kind) {
				c.logger.Debug("pipeline.section.skipped", "section", sec.Kind, "family", doc.Family)
				continue
			}
			if len(doc.Rows[sec.Kind]) > 0 {
				continue
			}
			sections = append(sections, sec)
		}

		built, err := c.buildSections(ctx, sections, docCtx)
		if err != nil {
			return nil, docCtx, err
		}
		for i, sec := range sections {
			result[sec.Kind] = append(result[sec.Kind], built[i]...)
		}
	}

	for kind, rows := range doc.Rows {
		if len(rows) == 0 || !doc.Family.Includes(kind) {
			continue
		}
		recs := make([]entity.RawRecord, 0, len(rows))
		for _, r := range rows {
			r = r.Clone()
			r.Section = kind
			recs = append(recs, r)
		}
		result[kind] = recs
	}
	return result, docCtx, nil
}

// buildSections returns records indexed like sections so output order
// does not depend on scheduling.
func (c *Converter) buildSections(ctx context.Context, sections []entity.Section, docCtx entity.DocumentContext) ([][]entity.RawRecord, error) {
	out := make([][]entity.RawRecord, len(sections))
	if !c.parallel {
		for i, sec := range sections {
			recs, err := c.builder.BuildSection(sec, docCtx)
			if err != nil {
				return nil, fmt.Errorf("build section %s: %w", sec.Kind, err)
			}
			out[i] = recs
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, sec := range sections {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs, err := c.builder.BuildSection(sec, docCtx)
			if err != nil {
				return fmt.Errorf("build section %s: %w", sec.Kind, err)
			}
			out[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
