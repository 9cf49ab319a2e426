package builder

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

var (
	reRegistration    = regexp.MustCompile(`^(\d{2}\.\d\.\d{2}\.\d{6}-\d{2})\b\s*(.*)$`)
	reRevenue         = regexp.MustCompile(`^\d{4}-\S`)
	reFullDate        = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	reProcessLike     = regexp.MustCompile(`^[0-9][0-9./-]+$`)
	reSituationLabel  = regexp.MustCompile(`(?i)^situa[cç][aã]o\s*:\s*(.*)$`)
	rePrincipalLabel  = regexp.MustCompile(`(?i)^devedor\s+principal\s*:\s*(.*)$`)
	reDebtorType      = regexp.MustCompile(`(?i)\b(DEVEDOR\s+PRINCIPAL|CO-?RESPONSAVEL)\s*$`)
	reRegistrationRow = regexp.MustCompile(`^(\d{4}-.+?)\s+(\d{2}/\d{2}/\d{4})(?:\s+(\d{2}/\d{2}/\d{4}|-))?(?:\s+(.*))?$`)
)

// registrationDraft is one SIDA inscription.
type registrationDraft struct {
	rec           entity.RawRecord
	litigatedSeen bool
}

func openRegistration(c *cursor, kind constants.SectionKind, _ draft, _ *normalize.Normalizer) (draft, int, bool) {
	m := reRegistration.FindStringSubmatch(c.at(0))
	if m == nil {
		return nil, 0, false
	}
	d := &registrationDraft{rec: entity.NewRawRecord(kind)}
	d.rec.Set(entity.KeyRegistrationNumber, m[1])
	if rest := strings.TrimSpace(m[2]); rest != "" {
		d.absorb(rest)
	}
	return d, 1, true
}

func (d *registrationDraft) raw() *entity.RawRecord { return &d.rec }

func (d *registrationDraft) feed(c *cursor) int {
	d.absorb(c.at(0))
	return 1
}

func (d *registrationDraft) absorb(line string) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
	case reSituationLabel.MatchString(line):
		d.rec.Set(entity.KeySituation, reSituationLabel.FindStringSubmatch(line)[1])
	case rePrincipalLabel.MatchString(line):
		d.rec.Set(entity.KeyPrincipalDebtor, rePrincipalLabel.FindStringSubmatch(line)[1])
	case !d.rec.Has(entity.KeyRevenueText) && reRegistrationRow.MatchString(line):
		m := reRegistrationRow.FindStringSubmatch(line)
		d.rec.Set(entity.KeyRevenueText, m[1])
		d.date(m[2])
		if m[3] != "" {
			d.date(m[3])
		}
		if m[4] != "" {
			d.absorb(m[4])
		}
	case !d.rec.Has(entity.KeyRevenueText) && reRevenue.MatchString(line):
		d.rec.Set(entity.KeyRevenueText, line)
	case reFullDate.MatchString(line) && len(line) == 10:
		d.date(line)
	case line == "-":
		d.date(line)
	case reDebtorType.MatchString(normalize.Fold(line)):
		d.rec.Set(entity.KeyDebtorType, line)
	case reProcessLike.MatchString(line) && !d.rec.Has(entity.KeyProcessNumber):
		d.rec.Set(entity.KeyProcessNumber, line)
	}
}

// date fills registered-on, then litigated-on ("-" means not litigated).
func (d *registrationDraft) date(s string) {
	switch {
	case !d.rec.Has(entity.KeyRegisteredOn) && s != "-":
		d.rec.Set(entity.KeyRegisteredOn, s)
	case !d.litigatedSeen:
		d.litigatedSeen = true
		if s != "-" {
			d.rec.Set(entity.KeyLitigatedOn, s)
		}
	}
}

func (d *registrationDraft) complete() bool {
	return d.rec.Has(entity.KeyRegistrationNumber) &&
		d.rec.Has(entity.KeyRevenueText) &&
		d.rec.Has(entity.KeyRegisteredOn)
}

func (d *registrationDraft) record() entity.RawRecord {
	rec := d.rec.Clone()
	if code := strings.SplitN(rec.Get(entity.KeyRevenueText), " ", 2)[0]; code != "" {
		rec.Set(entity.KeyRevenueCode, code)
	}
	return rec
}
