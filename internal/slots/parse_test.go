package slots_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivaan/loanpilot/internal/slots"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"5000000", 5_000_000},
		{"50 lakhs", 5_000_000},
		{"50 lakh", 5_000_000},
		{"2.5 lakhs", 250_000},
		{"1.2 cr", 12_000_000},
		{"2 crore", 20_000_000},
		{"Rs 20,00,000", 2_000_000},
		{"₹20,00,000", 2_000_000},
		{"INR 75000", 75_000},
		{"500k", 500_000},
		{"80 k", 80_000},
	}
	for _, tc := range cases {
		got, ok := slots.ParseAmount(tc.in)
		require.True(t, ok, "input %q", tc.in)
		assert.True(t, got.Equal(got.Truncate(0)), "input %q", tc.in)
		assert.EqualValues(t, tc.want, got.IntPart(), "input %q", tc.in)
	}
}

func TestParseAmountRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{"", "a lot", "plenty", "lakhs"} {
		_, ok := slots.ParseAmount(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParseTenureMonths(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"240 months", 240},
		{"240", 240},
		{"20 years", 240},
		{"20 yrs", 240},
		{"2.5 years", 30},
		{"20", 240},   // bare small number reads as years
		{"30", 360},   // still years at the boundary
		{"31", 31},    // past 30 it must be months
		{"12 months", 12},
	}
	for _, tc := range cases {
		got, ok := slots.ParseTenureMonths(tc.in)
		require.True(t, ok, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseTenureMonthsRejects(t *testing.T) {
	for _, in := range []string{"", "forever", "a while", "12.5 months"} {
		_, ok := slots.ParseTenureMonths(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestLooksLikeBareValue(t *testing.T) {
	for _, in := range []string{"240", "50 lakhs", "1.2 cr", "20 years", "12 months", "8.5 %"} {
		assert.True(t, slots.LooksLikeBareValue(in), "input %q", in)
	}
	for _, in := range []string{"around 50 lakhs I think", "what is an EMI?", "my salary is 50000"} {
		assert.False(t, slots.LooksLikeBareValue(in), "input %q", in)
	}
}
