// Package dedup collapses raw records picked up more than once.
package dedup

import (
	"log/slog"

	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
)

// KeyFunc groups records; records with equal keys are duplicates.
type KeyFunc func(entity.RawRecord) string

// ByCodeAndSection is the default grouping.
func ByCodeAndSection(rec entity.RawRecord) string {
	return string(rec.Section) + "\x00" + rec.Get(entity.KeyCode)
}

// ByCodeSectionAndPeriod also separates the same revenue code across periods.
func ByCodeSectionAndPeriod(rec entity.RawRecord) string {
	return ByCodeAndSection(rec) + "\x00" + rec.Get(entity.KeyPeriod)
}

type Deduplicator struct {
	key    KeyFunc
	logger *slog.Logger
}

func New(key KeyFunc, logger *slog.Logger) *Deduplicator {
	if key == nil {
		key = ByCodeAndSection
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{key: key, logger: logger}
}

// Dedup keeps, per key, the record with the strictly larger balance; ties
// keep the first seen. Output order follows first occurrence of each key.
func (d *Deduplicator) Dedup(recs []entity.RawRecord) []entity.RawRecord {
	index := make(map[string]int, len(recs))
	out := make([]entity.RawRecord, 0, len(recs))
	for _, rec := range recs {
		k := d.key(rec)
		i, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, rec)
			continue
		}
		if rec.Balance().GreaterThan(out[i].Balance()) {
			d.logger.Debug("dedup.replaced", "section", rec.Section, "code", rec.Get(entity.KeyCode),
				"kept", rec.Balance().String(), "discarded", out[i].Balance().String())
			out[i] = rec
		} else {
			d.logger.Debug("dedup.discarded", "section", rec.Section, "code", rec.Get(entity.KeyCode),
				"balance", rec.Balance().String())
		}
	}
	return out
}
