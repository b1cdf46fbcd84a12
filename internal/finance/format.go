package finance

import "github.com/shopspring/decimal"

// FormatIndian renders a whole-rupee amount with Indian digit grouping:
// the last three digits form one group, every two digits after that
// (12,34,567).
func FormatIndian(d decimal.Decimal) string {
	s := d.Round(0).String()
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) > 3 {
		out := s[len(s)-3:]
		rest := s[:len(s)-3]
		for len(rest) > 2 {
			out = rest[len(rest)-2:] + "," + out
			rest = rest[:len(rest)-2]
		}
		s = rest + "," + out
	}
	if neg {
		s = "-" + s
	}
	return s
}
