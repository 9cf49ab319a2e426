package constants

// TaxType is the discriminator stored on every canonical item.
type TaxType string

const (
	TaxTypeDebit           TaxType = "DEBITO"
	TaxTypeSimplesNacional TaxType = "SIMPLES_NACIONAL"
	TaxTypeDebitSuspended  TaxType = "DEBITO_EXIG_SUSPENSA_SIEF"
	TaxTypeSiefpar         TaxType = "PARCELAMENTO_SIEFPAR"
	TaxTypeSida            TaxType = "PENDENCIA_INSCRICAO_SIDA"
	TaxTypeSispar          TaxType = "PENDENCIA_PARCELAMENTO_SISPAR"
	TaxTypeFiscalProcess   TaxType = "PROCESSO_FISCAL"
	TaxTypeSicob           TaxType = "DEBITO_SICOB"
	TaxTypeDARF            TaxType = "DARF"
)

// Tax names that show up as the tax type of a pending debit and are
// accounted for as plain debits downstream.
var DebitTaxNames = []TaxType{"PIS", "COFINS", "IRPJ", "CSLL", "CP-TERCEIROS", "CP-PATRONAL", "IRRF"}

// SectionTaxType is the fixed discriminator for records of a section.
var SectionTaxType = map[SectionKind]TaxType{
	PendingDebit:        TaxTypeDebit,
	DebitSuspended:      TaxTypeDebitSuspended,
	InstallmentSiefpar:  TaxTypeSiefpar,
	RegistrationPending: TaxTypeSida,
	InstallmentPending:  TaxTypeSispar,
	FiscalProcess:       TaxTypeFiscalProcess,
	DebitSicob:          TaxTypeSicob,
	PaymentDocument:     TaxTypeDARF,
}

// Sentinel literals used instead of empty date/period fields.
const (
	SentinelNotAvailable  = "N/A"
	SentinelSimplesPeriod = "SIMPLES NAC."
	SentinelToBeDefined   = "A DEFINIR"
	SentinelInstallment   = "PARCELAMENTO"
	SentinelSuspended     = "SUSPENSO"
	SentinelNegotiated    = "NEGOCIADO"
	SentinelRegistration  = "INSCRICAO"
	SentinelNotLitigated  = "NAO AJUIZADO"
	SentinelProcess       = "PROCESSO"

	// SimplesNacionalCode labels records of the Simples Nacional regime
	// that carry no revenue code of their own.
	SimplesNacionalCode = "SIMPLES_NACIONAL"

	// FallbackDate is what the date normalizer returns for unparseable text.
	FallbackDate = "2024-01-01"
)

// SimplesRevenueCodes are revenue codes collected under the Simples Nacional regime.
var SimplesRevenueCodes = []string{"1507", "0507"}

// Defaults holds the per-section fallbacks applied by the resolver and mapper.
type Defaults struct {
	CodePrefix string
	Period     string
	DueDate    string
	Status     string
}

var SectionDefaults = map[SectionKind]Defaults{
	PendingDebit:        {CodePrefix: "ITEM", Period: SentinelNotAvailable, DueDate: SentinelNotAvailable, Status: "DEVEDOR"},
	DebitSuspended:      {CodePrefix: "EXIG-SUSPENSA", Period: SentinelNotAvailable, DueDate: SentinelNotAvailable, Status: SentinelSuspended},
	InstallmentSiefpar:  {CodePrefix: "PARCELAMENTO", Period: SentinelInstallment, DueDate: SentinelSuspended, Status: "ATIVO"},
	RegistrationPending: {CodePrefix: "INSCRICAO", Period: SentinelRegistration, DueDate: SentinelNotLitigated, Status: "ATIVA"},
	InstallmentPending:  {CodePrefix: "SISPAR", Period: SentinelInstallment, DueDate: SentinelNegotiated, Status: "ATIVO"},
	FiscalProcess:       {CodePrefix: "PROCESSO", Period: SentinelProcess, DueDate: SentinelNotAvailable, Status: "ATIVO"},
	DebitSicob:          {CodePrefix: "SICOB", Period: SentinelInstallment, DueDate: SentinelNotAvailable, Status: "ATIVO"},
	PaymentDocument:     {CodePrefix: "ITEM", Period: FallbackDate, DueDate: FallbackDate, Status: "PENDING"},
}

// DefaultsFor never returns an empty struct for a known section.
func DefaultsFor(s SectionKind) Defaults {
	if d, ok := SectionDefaults[s]; ok {
		return d
	}
	return Defaults{CodePrefix: "ITEM", Period: SentinelNotAvailable, DueDate: SentinelNotAvailable, Status: SentinelNotAvailable}
}
