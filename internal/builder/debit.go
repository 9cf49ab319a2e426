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
	reLeadingCode  = regexp.MustCompile(`^\d{4}[ -]`)
	reSimplesRow   = regexp.MustCompile(`(?i)^(SIMPLES\s+NAC(?:IONAL|\.)?)(.*)$`)
	reSplitQuarter = regexp.MustCompile(`(?i)\b([1-4])\s*(º|°|ª|o)?\s+(TRI)`)
)

// debitDraft serves both PENDING_DEBIT and DEBIT_SUSPENDED rows.
type debitDraft struct {
	rec    entity.RawRecord
	norm   *normalize.Normalizer
	dates  int
	values []decimal.Decimal
}

func newDebitDraft(kind constants.SectionKind, n *normalize.Normalizer) *debitDraft {
	return &debitDraft{rec: entity.NewRawRecord(kind), norm: n}
}

func openDebit(c *cursor, kind constants.SectionKind, cur draft, n *normalize.Normalizer) (draft, int, bool) {
	line := c.at(0)

	if reLeadingCode.MatchString(line) {
		cl, tail, ok := splitCodeLine(line)
		if !ok {
			return nil, 0, false
		}
		d := newDebitDraft(kind, n)
		d.rec.Set(entity.KeyRevenueCode, cl.Code)
		d.rec.Set(entity.KeyRevenueText, cl.Revenue)
		d.rec.Set(entity.KeyTaxName, cl.TaxName)
		consumed := 1
		if tail != "" {
			d.absorb(tail)
		} else if cl.TaxName == "" && classify.IsKnownTaxType(c.at(1)) {
			d.setTaxName(strings.ToUpper(strings.TrimSpace(c.at(1))))
			consumed = 2
		}
		return d, consumed, true
	}

	if m := reSimplesRow.FindStringSubmatch(normalize.Fold(line)); m != nil {
		// a bare SIMPLES NAC. right after a code line is that record's tax name
		if dd, ok := cur.(*debitDraft); ok && !dd.rec.Has(entity.KeyTaxName) && dd.dates == 0 {
			return nil, 0, false
		}
		d := newDebitDraft(kind, n)
		label := strings.ToUpper(strings.TrimSpace(m[1]))
		d.rec.Set(entity.KeyRevenueText, label)
		d.rec.Set(entity.KeyTaxName, label)
		if tail := strings.TrimSpace(m[2]); tail != "" {
			d.absorb(tail)
		}
		return d, 1, true
	}
	return nil, 0, false
}

// splitCodeLine finds the longest leading run of words that parses as a
// code line; the rest is row data printed on the same line.
func splitCodeLine(line string) (classify.CodeLine, string, bool) {
	fields := strings.Fields(line)
	for i := len(fields); i >= 1; i-- {
		head := strings.Join(fields[:i], " ")
		if cl, ok := classify.ParseCode(head); ok {
			if i == len(fields) {
				cl.Revenue = strings.TrimSpace(line)
			}
			return cl, strings.Join(fields[i:], " "), true
		}
	}
	return classify.CodeLine{}, "", false
}

func (d *debitDraft) raw() *entity.RawRecord { return &d.rec }

func (d *debitDraft) feed(c *cursor) int {
	d.absorb(c.at(0))
	return 1
}

// absorb handles one line, or a whole row printed on one line.
func (d *debitDraft) absorb(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	switch classify.Classify(line) {
	case classify.Date:
		d.date(line)
	case classify.Value:
		d.values = append(d.values, d.norm.Number(line))
	case classify.Status:
		d.rec.Set(entity.KeyStatus, normalize.FoldUpper(line))
	case classify.TaxType:
		if tokens := explodeRow(line); tokens != nil {
			for _, tok := range tokens {
				d.absorb(tok)
			}
			return
		}
		if !d.rec.Has(entity.KeyTaxName) {
			d.setTaxName(line)
		}
	default:
		if tokens := explodeRow(line); tokens != nil {
			for _, tok := range tokens {
				d.absorb(tok)
			}
		}
	}
}

// setTaxName records a tax name printed apart from its code line and
// appends it to the revenue text, which the Simples heuristic reads.
func (d *debitDraft) setTaxName(name string) {
	d.rec.Set(entity.KeyTaxName, name)
	revenue := d.rec.Get(entity.KeyRevenueText)
	switch {
	case revenue == "":
		d.rec.Set(entity.KeyRevenueText, name)
	case !normalize.ContainsFold(revenue, name):
		d.rec.Set(entity.KeyRevenueText, revenue+" - "+name)
	}
}

// date fills the period first, then the due date; later dates are ignored.
func (d *debitDraft) date(line string) {
	switch d.dates {
	case 0:
		d.rec.Set(entity.KeyPeriod, line)
	case 1:
		d.rec.Set(entity.KeyDueDate, line)
	}
	d.dates++
}

func (d *debitDraft) complete() bool {
	return (d.rec.Has(entity.KeyRevenueCode) || d.rec.Has(entity.KeyRevenueText)) &&
		d.rec.Has(entity.KeyTaxName) &&
		d.rec.Has(entity.KeyPeriod) &&
		d.rec.Has(entity.KeyDueDate) &&
		len(d.values) >= 2 &&
		d.rec.Has(entity.KeyStatus)
}

func (d *debitDraft) record() entity.RawRecord {
	rec := d.rec.Clone()
	for i, key := range entity.DebitAmountOrder {
		if i < len(d.values) {
			rec.SetAmount(key, d.values[i])
		} else {
			rec.SetAmount(key, decimal.Zero)
		}
	}
	return rec
}

// explodeRow splits a tabular row printed on one line into tokens. Leading
// words before the first date or value stay together as one label. Returns
// nil unless at least two tokens are dates or values.
func explodeRow(line string) []string {
	line = reSplitQuarter.ReplaceAllString(line, "${1}${2}${3}")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil
	}

	var (
		out   []string
		label []string
		data  int
	)
	for _, f := range fields {
		k := classify.Classify(f)
		if k == classify.Date || k == classify.Value {
			data++
		}
		if data == 0 {
			label = append(label, f)
			continue
		}
		out = append(out, f)
	}
	if data < 2 {
		return nil
	}
	if len(label) > 0 {
		out = append([]string{strings.Join(label, " ")}, out...)
	}
	return out
}
