package builder

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/classify"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

var (
	reProcessNumber = regexp.MustCompile(`(?i)^(?:processo\s*:?\s*)?(\d{5}[.-]?\d{3}\.?\d{3}/\d{4}-\d{2})\s*(.*)$`)
	reLocationLabel = regexp.MustCompile(`(?i)^localiza[cç][aã]o\s*:\s*(.*)$`)
	reSicobNumber   = regexp.MustCompile(`(?i)^(?:parcelamento|processo|d[eé]bito)\s*:?\s*([\d./-]{4,})\s*(.*)$`)
	reKindLabel     = regexp.MustCompile(`(?i)^tipo\s*:\s*(.*)$`)
)

// processDraft is a fiscal process with its situation and location.
type processDraft struct {
	rec entity.RawRecord
}

func openProcess(c *cursor, kind constants.SectionKind, _ draft, _ *normalize.Normalizer) (draft, int, bool) {
	m := reProcessNumber.FindStringSubmatch(c.at(0))
	if m == nil {
		return nil, 0, false
	}
	d := &processDraft{rec: entity.NewRawRecord(kind)}
	d.rec.Set(entity.KeyProcessNumber, m[1])
	d.rec.Set(entity.KeySituation, m[2])
	return d, 1, true
}

func (d *processDraft) raw() *entity.RawRecord { return &d.rec }

func (d *processDraft) feed(c *cursor) int {
	line := c.at(0)
	switch {
	case reSituationLabel.MatchString(line):
		d.rec.Set(entity.KeySituation, reSituationLabel.FindStringSubmatch(line)[1])
	case reLocationLabel.MatchString(line):
		d.rec.Set(entity.KeyLocation, reLocationLabel.FindStringSubmatch(line)[1])
	case !d.rec.Has(entity.KeySituation) && classify.IsTaxTypeCandidate(line):
		d.rec.Set(entity.KeySituation, line)
	case !d.rec.Has(entity.KeyLocation) && classify.IsTaxTypeCandidate(line):
		d.rec.Set(entity.KeyLocation, line)
	}
	return 1
}

func (d *processDraft) complete() bool {
	return d.rec.Has(entity.KeyProcessNumber)
}

func (d *processDraft) record() entity.RawRecord { return d.rec.Clone() }

// sicobDraft is a SICOB collection entry.
type sicobDraft struct {
	rec entity.RawRecord
}

func openSicob(c *cursor, kind constants.SectionKind, _ draft, _ *normalize.Normalizer) (draft, int, bool) {
	m := reSicobNumber.FindStringSubmatch(c.at(0))
	if m == nil {
		return nil, 0, false
	}
	d := &sicobDraft{rec: entity.NewRawRecord(kind)}
	d.rec.Set(entity.KeyInstallmentNumber, m[1])
	d.rec.Set(entity.KeySituation, m[2])
	return d, 1, true
}

func (d *sicobDraft) raw() *entity.RawRecord { return &d.rec }

func (d *sicobDraft) feed(c *cursor) int {
	line := strings.TrimSpace(c.at(0))
	switch {
	case reSituationLabel.MatchString(line):
		d.rec.Set(entity.KeySituation, reSituationLabel.FindStringSubmatch(line)[1])
	case reKindLabel.MatchString(line):
		d.rec.Set(entity.KeyKind, reKindLabel.FindStringSubmatch(line)[1])
	case classify.IsStatusLine(line):
		d.rec.Set(entity.KeySituation, normalize.FoldUpper(line))
	}
	return 1
}

func (d *sicobDraft) complete() bool {
	return d.rec.Has(entity.KeyInstallmentNumber)
}

func (d *sicobDraft) record() entity.RawRecord { return d.rec.Clone() }
