// Package mapper turns resolved raw records into canonical order items.
package mapper

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/classify"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

type Mapper struct {
	logger *slog.Logger
	norm   *normalize.Normalizer
	now    func() time.Time
	newID  func() uuid.UUID
}

type Option func(*Mapper)

func WithClock(now func() time.Time) Option {
	return func(m *Mapper) {
		if now != nil {
			m.now = now
		}
	}
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(m *Mapper) {
		if newID != nil {
			m.newID = newID
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mapper{
		logger: logger,
		norm:   normalize.New(logger),
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Map converts records in order. All items of one call share a timestamp.
func (m *Mapper) Map(recs []entity.RawRecord) []entity.CanonicalItem {
	now := m.now().UTC()
	items := make([]entity.CanonicalItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, m.mapOne(rec, now))
	}
	return items
}

func (m *Mapper) mapOne(rec entity.RawRecord, now time.Time) entity.CanonicalItem {
	r, ok := rules[rec.Section]
	if !ok {
		r = fallbackRule(rec.Section)
	}

	id := m.newID()
	code := rec.Get(entity.KeyCode)
	if code == "" {
		code = constants.DefaultsFor(rec.Section).CodePrefix + "-" + id.String()[:8]
		m.logger.Warn("mapper.code.missing", "section", rec.Section, "code", code)
	}

	item := entity.CanonicalItem{
		ID:                  id,
		Code:                code,
		TaxType:             TaxTypeOf(rec),
		Section:             rec.Section,
		StartPeriod:         r.start.value(rec, m.norm),
		EndPeriod:           r.end.value(rec, m.norm),
		DueDate:             r.due.value(rec, m.norm),
		OriginalValue:       amount(rec, r.amounts.original),
		CurrentBalance:      amount(rec, r.amounts.current),
		Fine:                amount(rec, r.amounts.fine),
		Interest:            amount(rec, r.amounts.interest),
		ConsolidatedBalance: amount(rec, r.amounts.consolidated),
		Status:              r.status.value(rec, m.norm),
		CNO:                 rec.Get(entity.KeyCNO),
		CNPJ:                rec.Get(entity.KeyCNPJ),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, k := range r.details {
		if rec.Has(k) {
			if item.Details == nil {
				item.Details = make(map[string]string, len(r.details))
			}
			item.Details[k] = rec.Get(k)
		}
	}
	return item
}

// TaxTypeOf is the section discriminator, with pending debits whose
// revenue text names the Simples Nacional regime retagged.
func TaxTypeOf(rec entity.RawRecord) constants.TaxType {
	if rec.Section == constants.PendingDebit && classify.IsSimplesNacional(rec.Get(entity.KeyRevenueText)) {
		return constants.TaxTypeSimplesNacional
	}
	if t, ok := constants.SectionTaxType[rec.Section]; ok {
		return t
	}
	return constants.TaxType(rec.Section)
}

func amount(rec entity.RawRecord, key string) decimal.Decimal {
	if key == "" {
		return decimal.Zero
	}
	return rec.Amount(key)
}
