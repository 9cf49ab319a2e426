// Package classify tags single report lines by what they carry.
package classify

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/normalize"
)

// Kind is the classification of one line.
type Kind int

const (
	Other Kind = iota
	Code
	Date
	Value
	Status
	TaxType
)

func (k Kind) String() string {
	switch k {
	case Code:
		return "code"
	case Date:
		return "date"
	case Value:
		return "value"
	case Status:
		return "status"
	case TaxType:
		return "tax-type"
	}
	return "other"
}

const taxName = `[A-ZÀÁÂÃÇÉÊÍÓÔÕÚ][A-ZÀÁÂÃÇÉÊÍÓÔÕÚ .()/\-]*`

var (
	// 3373-01, 3373 01, 3373-01 - IRPJ
	reCodeSub = regexp.MustCompile(`^(\d{4})[ -]+(\d{2})(?:\s*(?:-\s*)?(` + taxName + `))?$`)
	// 1507-SIMPLES NAC.
	reCodeName  = regexp.MustCompile(`^(\d{4})\s*-\s*(` + taxName + `)$`)
	reDateLine  = regexp.MustCompile(`^\d{2}/(?:\d{2}/)?\d{4}$`)
	reCNO       = regexp.MustCompile(`(?i)^CNO\s*:\s*([\d./-]+)`)
	reCNPJLabel = regexp.MustCompile(`(?i)^CNPJ\s*:\s*(\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2})`)
)

// KnownTaxTypes are bare tax names that may follow a code line on their own.
var KnownTaxTypes = []string{
	"IRPJ", "CSLL", "PIS", "COFINS", "IRRF", "IPI", "IOF", "ITR", "CIDE", "CPRB",
	"CP-PATRONAL", "CP-TERCEIROS", "CP-SEGURADOS", "CP-DESCONTADA", "CP-SEGUR.",
}

// CodeLine is what a code line encodes.
type CodeLine struct {
	Code    string
	TaxName string
	Revenue string
}

// ParseCode extracts the revenue code and optional tax name of a code line.
func ParseCode(line string) (CodeLine, bool) {
	line = strings.TrimSpace(line)
	if m := reCodeSub.FindStringSubmatch(line); m != nil {
		return CodeLine{
			Code:    m[1] + "-" + m[2],
			TaxName: strings.TrimSpace(m[3]),
			Revenue: line,
		}, true
	}
	if m := reCodeName.FindStringSubmatch(line); m != nil {
		return CodeLine{
			Code:    m[1],
			TaxName: strings.TrimSpace(m[2]),
			Revenue: line,
		}, true
	}
	return CodeLine{}, false
}

func IsCodeLine(line string) bool {
	_, ok := ParseCode(line)
	return ok
}

// IsDateLine accepts DD/MM/YYYY, MM/YYYY and quarter codes.
func IsDateLine(line string) bool {
	line = strings.TrimSpace(line)
	return reDateLine.MatchString(line) || normalize.IsQuarter(line)
}

func IsValueLine(line string) bool {
	return normalize.IsLocalizedNumber(line)
}

func IsStatusLine(line string) bool {
	return slices.Contains(constants.DebtStatuses, normalize.FoldUpper(line))
}

// IsAnnotation reports CNO and CNPJ label lines.
func IsAnnotation(line string) bool {
	up := strings.ToUpper(strings.TrimSpace(line))
	return strings.HasPrefix(up, "CNO") || strings.HasPrefix(up, "CNPJ")
}

// IsTaxTypeCandidate is the catch-all for labels: starts upper-case and
// is not an annotation.
func IsTaxTypeCandidate(line string) bool {
	line = strings.TrimSpace(line)
	r, _ := utf8.DecodeRuneInString(line)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return false
	}
	return !IsAnnotation(line)
}

// IsKnownTaxType matches the bare tax names of KnownTaxTypes.
func IsKnownTaxType(line string) bool {
	return slices.Contains(KnownTaxTypes, normalize.FoldUpper(line))
}

// Classify applies the predicates in precedence order.
func Classify(line string) Kind {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Other
	case IsCodeLine(line):
		return Code
	case IsDateLine(line):
		return Date
	case IsValueLine(line):
		return Value
	case IsStatusLine(line):
		return Status
	case IsTaxTypeCandidate(line):
		return TaxType
	}
	return Other
}

// CNO returns the construction-works number of a "CNO: ..." line.
func CNO(line string) (string, bool) {
	m := reCNO.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LabeledCNPJ returns the CNPJ of a "CNPJ: ..." line.
func LabeledCNPJ(line string) (string, bool) {
	m := reCNPJLabel.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsSimplesNacional reports whether revenue text names the Simples Nacional regime.
func IsSimplesNacional(revenue string) bool {
	return normalize.ContainsFold(revenue, "SIMPLES")
}

// IsSimplesRevenueCode reports whether text starts with a Simples Nacional revenue code.
func IsSimplesRevenueCode(text string) bool {
	text = strings.TrimSpace(text)
	for _, code := range constants.SimplesRevenueCodes {
		if strings.HasPrefix(text, code) {
			return true
		}
	}
	return false
}
