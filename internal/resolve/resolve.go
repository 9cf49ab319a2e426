// Package resolve guarantees every raw record a usable code and fills
// missing periods, due dates and statuses with sentinels.
package resolve

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/classify"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

// codeKeys names the raw field holding each section's natural identifier.
var codeKeys = map[constants.SectionKind]string{
	constants.PendingDebit:        entity.KeyRevenueCode,
	constants.DebitSuspended:      entity.KeyRevenueCode,
	constants.InstallmentSiefpar:  entity.KeyInstallmentNumber,
	constants.RegistrationPending: entity.KeyRegistrationNumber,
	constants.InstallmentPending:  entity.KeyAccountNumber,
	constants.FiscalProcess:       entity.KeyProcessNumber,
	constants.DebitSicob:          entity.KeyInstallmentNumber,
	constants.PaymentDocument:     entity.KeyRevenueCode,
}

var placeholderCodes = []string{"SEM CODIGO", "SEM-CODIGO", "N/A", "-"}

var rePeriodSeparators = regexp.MustCompile(`[/\s]+`)

// Resolver is safe for concurrent use.
type Resolver struct {
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Resolver)

// WithClock replaces time.Now for the last-resort code.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{logger: logger, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns copies of recs with KeyCode always set, the document
// CNPJ backfilled and sentinel defaults applied.
func (r *Resolver) Resolve(recs []entity.RawRecord, doc entity.DocumentContext) []entity.RawRecord {
	out := make([]entity.RawRecord, len(recs))
	for i, rec := range recs {
		rec = rec.Clone()
		if !rec.Has(entity.KeyCNPJ) {
			rec.Set(entity.KeyCNPJ, doc.CNPJ)
		}
		rec.Set(entity.KeyCode, r.code(rec, i))
		r.fillDefaults(&rec)
		out[i] = rec
	}
	return out
}

func (r *Resolver) code(rec entity.RawRecord, index int) string {
	if code := strings.TrimSpace(rec.Get(codeKeys[rec.Section])); usable(code) {
		return code
	}
	if code := strings.TrimSpace(rec.Get(entity.KeyCode)); usable(code) {
		return code
	}

	defaults := constants.DefaultsFor(rec.Section)
	var code string
	switch {
	case isSimples(rec):
		code = constants.SimplesNacionalCode
	case rec.Has(entity.KeyPeriod):
		code = defaults.CodePrefix + "-" + rePeriodSeparators.ReplaceAllString(rec.Get(entity.KeyPeriod), "-")
	case rec.Has(entity.KeyCNPJ) && len(normalize.Digits(rec.Get(entity.KeyCNPJ))) >= 6:
		digits := normalize.Digits(rec.Get(entity.KeyCNPJ))
		code = defaults.CodePrefix + "-" + digits[len(digits)-6:]
	default:
		code = fmt.Sprintf("%s-%d-%d", defaults.CodePrefix, r.now().UnixNano(), index)
	}
	r.logger.Debug("resolve.code.derived", "section", rec.Section, "code", code, "line", rec.Line)
	return code
}

// fillDefaults applies sentinels to the fields a section carries itself.
// Sections without periods get theirs from the mapper table.
func (r *Resolver) fillDefaults(rec *entity.RawRecord) {
	defaults := constants.DefaultsFor(rec.Section)
	switch rec.Section {
	case constants.PendingDebit, constants.DebitSuspended:
		period, due := defaults.Period, defaults.DueDate
		if isSimples(*rec) {
			period, due = constants.SentinelSimplesPeriod, constants.SentinelToBeDefined
		}
		setDefault(rec, entity.KeyPeriod, period)
		setDefault(rec, entity.KeyDueDate, due)
		setDefault(rec, entity.KeyStatus, defaults.Status)
	case constants.PaymentDocument:
		setDefault(rec, entity.KeyPeriod, rec.Get(entity.KeyDueDate))
		setDefault(rec, entity.KeyPeriod, defaults.Period)
		setDefault(rec, entity.KeyDueDate, defaults.DueDate)
	}
}

func setDefault(rec *entity.RawRecord, key, value string) {
	if !rec.Has(key) {
		rec.Set(key, value)
	}
}

func usable(code string) bool {
	if code == "" {
		return false
	}
	folded := normalize.FoldUpper(code)
	for _, p := range placeholderCodes {
		if folded == p {
			return false
		}
	}
	return true
}

// isSimples applies the Simples Nacional heuristic to debit records.
func isSimples(rec entity.RawRecord) bool {
	if rec.Section != constants.PendingDebit && rec.Section != constants.DebitSuspended {
		return false
	}
	revenue := rec.Get(entity.KeyRevenueText)
	return classify.IsSimplesNacional(revenue) || classify.IsSimplesRevenueCode(revenue)
}
