package mapper

import (
	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

// source picks the first present raw field, optionally normalised as a
// date, and falls back to a sentinel.
type source struct {
	keys     []string
	date     bool
	fallback string
}

func from(fallback string, keys ...string) source {
	return source{keys: keys, fallback: fallback}
}

func dateFrom(fallback string, keys ...string) source {
	return source{keys: keys, date: true, fallback: fallback}
}

func fixed(value string) source {
	return source{fallback: value}
}

func (s source) value(rec entity.RawRecord, n *normalize.Normalizer) string {
	for _, k := range s.keys {
		if !rec.Has(k) {
			continue
		}
		if s.date {
			return n.Date(rec.Get(k))
		}
		return rec.Get(k)
	}
	return s.fallback
}

// amounts names the raw amount feeding each canonical slot; "" means zero.
type amounts struct {
	original, current, fine, interest, consolidated string
}

var debitAmounts = amounts{
	original:     entity.AmountOriginalValue,
	current:      entity.AmountCurrentBalance,
	fine:         entity.AmountFine,
	interest:     entity.AmountInterest,
	consolidated: entity.AmountConsolidatedBalance,
}

type rule struct {
	start, end, due, status source
	amounts                 amounts
	details                 []string
}

var rules = map[constants.SectionKind]rule{
	constants.PendingDebit: {
		start:   from(constants.SentinelNotAvailable, entity.KeyPeriod),
		end:     from(constants.SentinelNotAvailable, entity.KeyPeriod),
		due:     from(constants.SentinelNotAvailable, entity.KeyDueDate),
		status:  from("DEVEDOR", entity.KeyStatus),
		amounts: debitAmounts,
		details: []string{entity.KeyRevenueCode, entity.KeyRevenueText, entity.KeyTaxName},
	},
	constants.DebitSuspended: {
		start:   from(constants.SentinelNotAvailable, entity.KeyPeriod),
		end:     from(constants.SentinelNotAvailable, entity.KeyPeriod),
		due:     from(constants.SentinelNotAvailable, entity.KeyDueDate),
		status:  from(constants.SentinelSuspended, entity.KeyStatus),
		amounts: debitAmounts,
		details: []string{entity.KeyRevenueCode, entity.KeyRevenueText, entity.KeyTaxName},
	},
	constants.InstallmentSiefpar: {
		start:  fixed(constants.SentinelInstallment),
		end:    fixed(constants.SentinelInstallment),
		due:    fixed(constants.SentinelSuspended),
		status: from("ATIVO", entity.KeyModality),
		amounts: amounts{
			original: entity.AmountSuspendedValue,
			current:  entity.AmountSuspendedValue,
		},
		details: []string{entity.KeyInstallmentNumber, entity.KeyModality},
	},
	constants.RegistrationPending: {
		start:  dateFrom(constants.SentinelRegistration, entity.KeyRegisteredOn),
		end:    dateFrom(constants.SentinelRegistration, entity.KeyRegisteredOn),
		due:    dateFrom(constants.SentinelNotLitigated, entity.KeyLitigatedOn),
		status: from("ATIVA", entity.KeySituation),
		details: []string{
			entity.KeyRegistrationNumber, entity.KeyRevenueCode, entity.KeyRevenueText,
			entity.KeyRegisteredOn, entity.KeyLitigatedOn, entity.KeyProcessNumber,
			entity.KeyDebtorType, entity.KeyPrincipalDebtor, entity.KeySituation,
		},
	},
	constants.InstallmentPending: {
		start:   fixed(constants.SentinelInstallment),
		end:     fixed(constants.SentinelInstallment),
		due:     fixed(constants.SentinelNegotiated),
		status:  from("ATIVO", entity.KeyModality, entity.KeyDescription),
		amounts: debitAmounts,
		details: []string{entity.KeyAccountNumber, entity.KeyModality, entity.KeyDescription},
	},
	constants.FiscalProcess: {
		start:   fixed(constants.SentinelProcess),
		end:     fixed(constants.SentinelProcess),
		due:     fixed(constants.SentinelNotAvailable),
		status:  from("ATIVO", entity.KeySituation),
		details: []string{entity.KeyProcessNumber, entity.KeyLocation, entity.KeySituation},
	},
	constants.DebitSicob: {
		start:   fixed(constants.SentinelInstallment),
		end:     fixed(constants.SentinelInstallment),
		due:     fixed(constants.SentinelNotAvailable),
		status:  from("ATIVO", entity.KeySituation),
		amounts: debitAmounts,
		details: []string{entity.KeyInstallmentNumber, entity.KeyKind, entity.KeySituation},
	},
	constants.PaymentDocument: {
		start:  dateFrom(constants.FallbackDate, entity.KeyPeriod),
		end:    dateFrom(constants.FallbackDate, entity.KeyPeriod),
		due:    dateFrom(constants.FallbackDate, entity.KeyDueDate),
		status: fixed("PENDING"),
		amounts: amounts{
			original:     entity.AmountPrincipal,
			current:      entity.AmountTotal,
			fine:         entity.AmountFine,
			interest:     entity.AmountInterest,
			consolidated: entity.AmountTotal,
		},
		details: []string{entity.KeyRevenueCode, entity.KeyDenomination, entity.KeyDescription},
	},
}

// fallbackRule covers sections added to the enum before the table.
func fallbackRule(s constants.SectionKind) rule {
	d := constants.DefaultsFor(s)
	return rule{
		start:   from(d.Period, entity.KeyPeriod),
		end:     from(d.Period, entity.KeyPeriod),
		due:     from(d.DueDate, entity.KeyDueDate),
		status:  from(d.Status, entity.KeyStatus),
		amounts: debitAmounts,
	}
}
