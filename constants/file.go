package constants

import "strings"

// DocumentFamily selects which report layout a file holds.
type DocumentFamily string

const (
	FamilyTaxStatus       DocumentFamily = "TAX_STATUS"
	FamilyPaymentDocument DocumentFamily = "PAYMENT_DOCUMENT"
)

// ParseFamily accepts the enum value and the short CLI spellings.
func ParseFamily(input string) (DocumentFamily, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "tax-status", "tax_status", "situacao-fiscal", "relatorio":
		return FamilyTaxStatus, true
	case "darf", "payment-document", "payment_document":
		return FamilyPaymentDocument, true
	}
	return "", false
}

// FileFormats holds the allowed values for the format column of import_jobs.
var FileFormats = []string{"PDF", "TXT", "JSON"}

// AllowedExtensions holds the default file extensions for batch imports.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"txt":  {},
	"json": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return "PDF"
	case "txt":
		return "TXT"
	case "json":
		return "JSON"
	}
	return ""
}

// FallbackSection receives the lines of a document with no recognised heading.
func (f DocumentFamily) FallbackSection() SectionKind {
	switch f {
	case FamilyTaxStatus:
		return PendingDebit
	case FamilyPaymentDocument:
		return PaymentDocument
	}
	return ""
}

// Includes reports whether sections of kind belong to the family. An
// empty family accepts every section.
func (f DocumentFamily) Includes(kind SectionKind) bool {
	switch f {
	case FamilyTaxStatus:
		return kind != PaymentDocument
	case FamilyPaymentDocument:
		return kind == PaymentDocument
	}
	return true
}
