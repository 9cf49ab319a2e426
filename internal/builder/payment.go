package builder

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/classify"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

var (
	rePaymentCode   = regexp.MustCompile(`^(\d{4})$`)
	rePaymentInline = regexp.MustCompile(`^(\d{4})\s+(.+?)\s+([\d.,]+)\s+([\d.,]+)\s+([\d.,]+)\s+([\d.,]+)$`)
	rePaymentPeriod = regexp.MustCompile(`(?i)\bPA\s+(\d{2}/\d{2}/\d{4}|\d{2}/\d{4}|[1-4]\s*(?:º|°|ª|o)?\s*TRI(?:M)?/\d{4})`)
	rePaymentDue    = regexp.MustCompile(`(?i)\bVencimento\s+(\d{2}/\d{2}/\d{4})`)
)

// paymentDraft is one row of a DARF composition table.
type paymentDraft struct {
	rec    entity.RawRecord
	norm   *normalize.Normalizer
	values []decimal.Decimal
}

func openPayment(c *cursor, kind constants.SectionKind, _ draft, n *normalize.Normalizer) (draft, int, bool) {
	line := c.at(0)
	if m := rePaymentInline.FindStringSubmatch(line); m != nil {
		d := &paymentDraft{rec: entity.NewRawRecord(kind), norm: n}
		d.rec.Set(entity.KeyRevenueCode, m[1])
		d.rec.Set(entity.KeyDenomination, m[2])
		for _, v := range m[3:7] {
			d.values = append(d.values, n.Number(v))
		}
		return d, 1, true
	}
	if m := rePaymentCode.FindStringSubmatch(line); m != nil {
		d := &paymentDraft{rec: entity.NewRawRecord(kind), norm: n}
		d.rec.Set(entity.KeyRevenueCode, m[1])
		return d, 1, true
	}
	return nil, 0, false
}

func (d *paymentDraft) raw() *entity.RawRecord { return &d.rec }

func (d *paymentDraft) feed(c *cursor) int {
	line := strings.TrimSpace(c.at(0))
	period := rePaymentPeriod.FindStringSubmatch(line)
	due := rePaymentDue.FindStringSubmatch(line)
	switch {
	case period != nil || due != nil:
		if period != nil {
			d.rec.Set(entity.KeyPeriod, period[1])
		}
		if due != nil {
			d.rec.Set(entity.KeyDueDate, due[1])
		}
	case classify.IsValueLine(line):
		if len(d.values) < len(entity.PaymentAmountOrder) {
			d.values = append(d.values, d.norm.Number(line))
		}
	case classify.IsDateLine(line):
		if !d.rec.Has(entity.KeyPeriod) {
			d.rec.Set(entity.KeyPeriod, line)
		} else if !d.rec.Has(entity.KeyDueDate) {
			d.rec.Set(entity.KeyDueDate, line)
		}
	case !d.rec.Has(entity.KeyDenomination):
		d.rec.Set(entity.KeyDenomination, line)
	case !d.rec.Has(entity.KeyDescription):
		d.rec.Set(entity.KeyDescription, line)
	}
	return 1
}

func (d *paymentDraft) complete() bool {
	return d.rec.Has(entity.KeyRevenueCode) &&
		d.rec.Has(entity.KeyDenomination) &&
		d.rec.Has(entity.KeyPeriod) &&
		d.rec.Has(entity.KeyDueDate)
}

func (d *paymentDraft) record() entity.RawRecord {
	rec := d.rec.Clone()
	for i, key := range entity.PaymentAmountOrder {
		if i < len(d.values) {
			rec.SetAmount(key, d.values[i])
		} else {
			rec.SetAmount(key, decimal.Zero)
		}
	}
	return rec
}
