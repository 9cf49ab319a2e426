package builder

import (
	"log/slog"

	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
)

// Builder runs one fresh Machine per section. It holds no per-call state.
type Builder struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// BuildSection turns one section's lines into complete raw records.
func (b *Builder) BuildSection(sec entity.Section, doc entity.DocumentContext) ([]entity.RawRecord, error) {
	m, err := NewMachine(sec.Kind, doc, b.logger)
	if err != nil {
		return nil, err
	}
	m.Feed(sec.Lines)
	recs := m.Finish()
	b.logger.Debug("builder.section.done",
		"section", sec.Kind,
		"lines", len(sec.Lines),
		"records", len(recs),
		"dropped", m.Dropped(),
	)
	return recs, nil
}
