package builder

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

var (
	reInstallment    = regexp.MustCompile(`(?i)^parcelamento\s*:?\s*(\d+)\b(.*)$`)
	reSuspendedValue = regexp.MustCompile(`(?i)valor\s+suspenso\s*:?\s*([\d.,]+)`)
	reModality       = regexp.MustCompile(`(?i)^modalidade\s*:?\s*(.*)$`)
	reAccount        = regexp.MustCompile(`(?i)^(?:conta\s*:?\s*)?(\d{3,})$`)
)

// siefparDraft: "Parcelamento: n", "Valor Suspenso: v", then the modality.
type siefparDraft struct {
	rec  entity.RawRecord
	norm *normalize.Normalizer
}

func openSiefpar(c *cursor, kind constants.SectionKind, _ draft, n *normalize.Normalizer) (draft, int, bool) {
	m := reInstallment.FindStringSubmatch(c.at(0))
	if m == nil {
		return nil, 0, false
	}
	d := &siefparDraft{rec: entity.NewRawRecord(kind), norm: n}
	d.rec.Set(entity.KeyInstallmentNumber, m[1])
	if rest := strings.TrimSpace(m[2]); rest != "" {
		d.absorb(rest)
	}
	return d, 1, true
}

func (d *siefparDraft) raw() *entity.RawRecord { return &d.rec }

func (d *siefparDraft) feed(c *cursor) int {
	d.absorb(c.at(0))
	return 1
}

func (d *siefparDraft) absorb(line string) {
	if m := reSuspendedValue.FindStringSubmatch(line); m != nil {
		d.rec.SetAmount(entity.AmountSuspendedValue, d.norm.Number(m[1]))
		return
	}
	if m := reModality.FindStringSubmatch(line); m != nil {
		d.rec.Set(entity.KeyModality, m[1])
		return
	}
	if d.rec.HasAmount(entity.AmountSuspendedValue) && !d.rec.Has(entity.KeyModality) {
		d.rec.Set(entity.KeyModality, line)
	}
}

func (d *siefparDraft) complete() bool {
	return d.rec.Has(entity.KeyInstallmentNumber) && d.rec.HasAmount(entity.AmountSuspendedValue)
}

func (d *siefparDraft) record() entity.RawRecord { return d.rec.Clone() }

// sisparDraft: account number, description, "Modalidade: ...".
type sisparDraft struct {
	rec entity.RawRecord
}

func openSispar(c *cursor, kind constants.SectionKind, _ draft, _ *normalize.Normalizer) (draft, int, bool) {
	m := reAccount.FindStringSubmatch(c.at(0))
	if m == nil {
		return nil, 0, false
	}
	d := &sisparDraft{rec: entity.NewRawRecord(kind)}
	d.rec.Set(entity.KeyAccountNumber, m[1])
	return d, 1, true
}

func (d *sisparDraft) raw() *entity.RawRecord { return &d.rec }

func (d *sisparDraft) feed(c *cursor) int {
	line := c.at(0)
	if m := reModality.FindStringSubmatch(line); m != nil {
		d.rec.Set(entity.KeyModality, m[1])
		return 1
	}
	if !d.rec.Has(entity.KeyDescription) {
		d.rec.Set(entity.KeyDescription, line)
	}
	return 1
}

func (d *sisparDraft) complete() bool {
	return d.rec.Has(entity.KeyAccountNumber) &&
		(d.rec.Has(entity.KeyModality) || d.rec.Has(entity.KeyDescription))
}

func (d *sisparDraft) record() entity.RawRecord { return d.rec.Clone() }
