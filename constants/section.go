package constants

import "strings"

// SectionKind names a table of the tax-status report (or the DARF
// composition table). The Segmenter tags every line with one.
type SectionKind string

const (
	PendingDebit        SectionKind = "PENDING_DEBIT"
	DebitSuspended      SectionKind = "DEBIT_SUSPENDED"
	InstallmentSiefpar  SectionKind = "INSTALLMENT_SIEFPAR"
	RegistrationPending SectionKind = "REGISTRATION_PENDING"
	InstallmentPending  SectionKind = "INSTALLMENT_PENDING"
	FiscalProcess       SectionKind = "FISCAL_PROCESS"
	DebitSicob          SectionKind = "DEBIT_SICOB"
	PaymentDocument     SectionKind = "PAYMENT_DOCUMENT"
)

// allSections is also the output order of canonical items.
var allSections = []SectionKind{
	PendingDebit,
	DebitSuspended,
	InstallmentSiefpar,
	RegistrationPending,
	InstallmentPending,
	FiscalProcess,
	DebitSicob,
	PaymentDocument,
}

func Sections() []SectionKind {
	out := make([]SectionKind, len(allSections))
	copy(out, allSections)
	return out
}

// Order returns the position of s in the canonical output order, or -1.
func (s SectionKind) Order() int {
	for i, k := range allSections {
		if k == s {
			return i
		}
	}
	return -1
}

func (s SectionKind) Valid() bool { return s.Order() >= 0 }

// ParseSectionKind accepts the enum value or the row keys used by the
// upstream extraction service.
func ParseSectionKind(input string) (SectionKind, bool) {
	normalized := strings.TrimSpace(input)
	if normalized == "" {
		return "", false
	}

	if k, ok := rowKeys[normalized]; ok {
		return k, true
	}
	upper := strings.ToUpper(normalized)
	for _, k := range allSections {
		if upper == string(k) {
			return k, true
		}
	}
	return "", false
}

var rowKeys = map[string]SectionKind{
	"pendenciasDebito":             PendingDebit,
	"debitosExigSuspensaSief":      DebitSuspended,
	"parcelamentosSiefpar":         InstallmentSiefpar,
	"pendenciasInscricao":          RegistrationPending,
	"pendenciasParcelamentoSispar": InstallmentPending,
	"processosFiscais":             FiscalProcess,
	"debitosSicob":                 DebitSicob,
	"darf":                         PaymentDocument,
}

// RowKey is the upstream JSON key holding rows of section s.
func (s SectionKind) RowKey() string {
	for k, v := range rowKeys {
		if v == s {
			return k
		}
	}
	return ""
}
