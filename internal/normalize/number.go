package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reLocalizedNumber = regexp.MustCompile(`^-?\d+(?:\.\d+)*,\d+$`)
	reInteger         = regexp.MustCompile(`^-?\d+$`)
	// Document and process numbers: digits joined by . / - without a decimal comma.
	reDocumentNumber = regexp.MustCompile(`^\d+(?:[./-]\d+)+$`)
)

// IsLocalizedNumber reports whether text is written as 1.234,56.
func IsLocalizedNumber(text string) bool {
	return reLocalizedNumber.MatchString(strings.TrimSpace(text))
}

// ParseLocalizedNumber parses "18.208,05" as 18208.05 and returns zero for
// empty, unparseable or document-number-like input.
func ParseLocalizedNumber(text string) decimal.Decimal {
	return std.Number(text)
}

func (n *Normalizer) Number(text string) decimal.Decimal {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" || s == "-" {
		return decimal.Zero
	}

	switch {
	case reLocalizedNumber.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case reInteger.MatchString(s):
	case reDocumentNumber.MatchString(s):
		n.log().Debug("normalize.number.document_like", "text", text)
		return decimal.Zero
	default:
		n.log().Warn("normalize.number.fallback", "text", text)
		return decimal.Zero
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		n.log().Warn("normalize.number.fallback", "text", text, "error", err)
		return decimal.Zero
	}
	return d
}
