// Package slots normalizes free-form utterances into typed slot values.
// Validation is deterministic-first; the language collaborator is consulted
// only when a rule cannot parse conversational phrasing, and its output is
// re-validated by the same rule before being accepted.
package slots

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	numberRe    = regexp.MustCompile(`(-?\d+(?:\.\d+)?)`)
	currencyRe  = regexp.MustCompile(`\b(rs\.?|inr)\b`)
	lakhRe      = regexp.MustCompile(`\b(lakh|lakhs|lac|lacs|l)\b`)
	croreRe     = regexp.MustCompile(`\b(crore|crores|cr)\b`)
	thousandRe  = regexp.MustCompile(`\d\s*k\b`)
	bareValueRe = regexp.MustCompile(`^\s*[\d.,\s]+\s*(%|lakh|lakhs|lac|lacs|cr|crore|crores|k|years?|yrs?|months?|mos?)?\s*$`)
	yearUnitRe  = regexp.MustCompile(`\b(years?|yrs?)\b`)
	monthUnitRe = regexp.MustCompile(`\b(months?|mos?)\b`)
)

// ParseAmount extracts a numeric amount from an utterance, honoring Indian
// shorthand multipliers (lakh, crore, k) and currency decoration
// ("Rs 20,00,000", "50 lakhs", "1.2 cr").
func ParseAmount(text string) (decimal.Decimal, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "₹", "")
	s = currencyRe.ReplaceAllString(s, "")

	m := numberRe.FindString(s)
	if m == "" {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, false
	}

	switch {
	case lakhRe.MatchString(s):
		value = value.Mul(decimal.NewFromInt(100_000))
	case croreRe.MatchString(s):
		value = value.Mul(decimal.NewFromInt(10_000_000))
	case thousandRe.MatchString(s):
		value = value.Mul(decimal.NewFromInt(1000))
	}
	return value, true
}

// ParseTenureMonths extracts a loan tenure, normalized to months. Explicit
// units win; a bare small number is read as years ("20" means 20 years, the
// way borrowers phrase it), larger bare numbers as months ("240").
func ParseTenureMonths(text string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	m := numberRe.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0, false
	}
	value, err := decimal.NewFromString(m)
	if err != nil {
		return 0, false
	}

	switch {
	case yearUnitRe.MatchString(s):
		return int(value.Mul(decimal.NewFromInt(12)).IntPart()), true
	case monthUnitRe.MatchString(s):
		if !value.IsInteger() {
			return 0, false
		}
		return int(value.IntPart()), true
	default:
		if !value.IsInteger() {
			return 0, false
		}
		n := int(value.IntPart())
		if n > 0 && n <= 30 {
			return n * 12, true
		}
		return n, true
	}
}

// LooksLikeBareValue reports whether an utterance is plainly just a value
// (digits with optional unit decoration). Anything else is conversational
// phrasing worth a collaborator extraction attempt.
func LooksLikeBareValue(text string) bool {
	return bareValueRe.MatchString(strings.ToLower(text))
}
