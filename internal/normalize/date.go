package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/fiscal-extract/constants"
)

var (
	reDayMonthYear = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	reQuarter      = regexp.MustCompile(`(?i)^([1-4])\s*(?:º|°|ª|o)?\s*TRI(?:M|MESTRE)?\.?\s*/\s*(\d{4})$`)
	reMonthYear    = regexp.MustCompile(`^(\d{2})/(\d{4})$`)
	reISODate      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// IsQuarter reports whether text is a quarterly period code like "2 TRI/2023".
func IsQuarter(text string) bool {
	return reQuarter.MatchString(strings.TrimSpace(text))
}

// ParseDate converts DD/MM/YYYY, quarter codes, MM/YYYY and ISO dates to
// YYYY-MM-DD. Anything else yields constants.FallbackDate.
func ParseDate(text string) string {
	return std.Date(text)
}

func (n *Normalizer) Date(text string) string {
	s := strings.TrimSpace(text)
	iso, ok := parseDate(s)
	if !ok {
		n.log().Warn("normalize.date.fallback", "text", text, "fallback", constants.FallbackDate)
		return constants.FallbackDate
	}
	return iso
}

func parseDate(s string) (string, bool) {
	var iso string
	switch {
	case reDayMonthYear.MatchString(s):
		m := reDayMonthYear.FindStringSubmatch(s)
		iso = fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1])
	case reQuarter.MatchString(s):
		m := reQuarter.FindStringSubmatch(s)
		q, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		// day 0 of the following month is the last day of the quarter
		last := time.Date(year, time.Month(q*3+1), 0, 0, 0, 0, 0, time.UTC)
		return last.Format(time.DateOnly), true
	case reMonthYear.MatchString(s):
		m := reMonthYear.FindStringSubmatch(s)
		iso = fmt.Sprintf("%s-%s-01", m[2], m[1])
	case reISODate.MatchString(s):
		iso = s
	default:
		return "", false
	}
	if _, err := time.Parse(time.DateOnly, iso); err != nil {
		return "", false
	}
	return iso, true
}
