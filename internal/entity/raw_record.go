package entity

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/fiscal-extract/constants"
)

// Text keys of a RawRecord. Which ones are present depends on the section.
const (
	// KeyCode is the resolved identifier written by the resolver.
	KeyCode               = "code"
	KeyRevenueCode        = "revenue_code"
	KeyRevenueText        = "revenue_text"
	KeyTaxName            = "tax_name"
	KeyPeriod             = "assessment_period"
	KeyDueDate            = "due_date"
	KeyStatus             = "status"
	KeyCNPJ               = "cnpj"
	KeyCNO                = "cno"
	KeyInstallmentNumber  = "installment_number"
	KeyModality           = "modality"
	KeyRegistrationNumber = "registration_number"
	KeyRegisteredOn       = "registered_on"
	KeyLitigatedOn        = "litigated_on"
	KeyProcessNumber      = "process_number"
	KeyDebtorType         = "debtor_type"
	KeyPrincipalDebtor    = "principal_debtor"
	KeySituation          = "situation"
	KeyAccountNumber      = "account_number"
	KeyDescription        = "description"
	KeyLocation           = "location"
	KeyKind               = "kind"
	KeyDenomination       = "denomination"
)

// Amount keys of a RawRecord.
const (
	AmountOriginalValue       = "original_value"
	AmountCurrentBalance      = "current_balance"
	AmountFine                = "fine"
	AmountInterest            = "interest"
	AmountConsolidatedBalance = "consolidated_balance"
	AmountSuspendedValue      = "suspended_value"
	AmountPrincipal           = "principal"
	AmountTotal               = "total"
)

// DebitAmountOrder is the positional order of values in a debit row.
var DebitAmountOrder = []string{
	AmountOriginalValue,
	AmountCurrentBalance,
	AmountFine,
	AmountInterest,
	AmountConsolidatedBalance,
}

// PaymentAmountOrder is the positional order of values in a DARF row.
var PaymentAmountOrder = []string{
	AmountPrincipal,
	AmountFine,
	AmountInterest,
	AmountTotal,
}

// RawRecord is the section-specific key/value bag produced by the builder
// or decoded from upstream rows.
type RawRecord struct {
	Section constants.SectionKind      `json:"section"`
	Fields  map[string]string          `json:"fields"`
	Amounts map[string]decimal.Decimal `json:"amounts"`
	// Line is the source line number that opened the record, 0 for rows.
	Line int `json:"line,omitempty"`
}

func NewRawRecord(section constants.SectionKind) RawRecord {
	return RawRecord{
		Section: section,
		Fields:  map[string]string{},
		Amounts: map[string]decimal.Decimal{},
	}
}

// Get returns "" for absent keys.
func (r RawRecord) Get(key string) string {
	return r.Fields[key]
}

func (r RawRecord) Has(key string) bool {
	return strings.TrimSpace(r.Fields[key]) != ""
}

// Set stores a trimmed value; empty values are ignored.
func (r *RawRecord) Set(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if r.Fields == nil {
		r.Fields = map[string]string{}
	}
	r.Fields[key] = value
}

// Amount returns zero for absent keys.
func (r RawRecord) Amount(key string) decimal.Decimal {
	if d, ok := r.Amounts[key]; ok {
		return d
	}
	return decimal.Zero
}

func (r RawRecord) HasAmount(key string) bool {
	_, ok := r.Amounts[key]
	return ok
}

func (r *RawRecord) SetAmount(key string, d decimal.Decimal) {
	if r.Amounts == nil {
		r.Amounts = map[string]decimal.Decimal{}
	}
	r.Amounts[key] = d
}

// Clone returns a deep copy so later stages never alias builder state.
func (r RawRecord) Clone() RawRecord {
	out := RawRecord{
		Section: r.Section,
		Fields:  make(map[string]string, len(r.Fields)),
		Amounts: make(map[string]decimal.Decimal, len(r.Amounts)),
		Line:    r.Line,
	}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	for k, v := range r.Amounts {
		out.Amounts[k] = v
	}
	return out
}

// Balance is the figure the deduplicator compares.
func (r RawRecord) Balance() decimal.Decimal {
	switch r.Section {
	case constants.InstallmentSiefpar:
		return r.Amount(AmountSuspendedValue)
	case constants.PaymentDocument:
		return r.Amount(AmountTotal)
	}
	return r.Amount(AmountCurrentBalance)
}
