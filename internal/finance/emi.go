// Package finance holds the deterministic loan calculators: EMI with a full
// amortization schedule, and the FOIR-based eligibility evaluator.
package finance

import (
	"fmt"

	"github.com/nivaan/loanpilot/internal/config"
	"github.com/nivaan/loanpilot/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// monthlyRate converts an annual percentage rate to a monthly fraction.
func monthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.Div(hundred).Div(twelve)
}

// ComputeEMI computes the equated monthly installment and amortization
// schedule for the given principal, annual percentage rate and tenure in
// months. Inputs are assumed validated; violations return plain errors the
// engine treats as invariant violations, never as user-facing results.
//
// The last month's principal component absorbs accumulated rounding drift so
// the schedule always closes at a zero balance and principal components sum
// to the original principal exactly.
func ComputeEMI(principal, annualRate decimal.Decimal, tenureMonths int) (*domain.EMIResult, error) {
	if !principal.IsPositive() {
		return nil, domain.ErrInvalidPrincipal
	}
	if tenureMonths <= 0 {
		return nil, domain.ErrInvalidTenure
	}
	if annualRate.IsNegative() {
		return nil, domain.ErrInvalidRate
	}

	n := int64(tenureMonths)
	i := monthlyRate(annualRate)

	var emi decimal.Decimal
	if i.IsZero() {
		emi = principal.DivRound(decimal.NewFromInt(n), config.CurrencyPrecision)
	} else {
		pow, err := one.Add(i).PowInt32(int32(tenureMonths))
		if err != nil {
			return nil, fmt.Errorf("compound factor: %w", err)
		}
		// E = P*i*(1+i)^n / ((1+i)^n - 1)
		emi = principal.Mul(i).Mul(pow).DivRound(pow.Sub(one), config.CurrencyPrecision)
	}

	schedule := make([]domain.AmortizationMonth, 0, tenureMonths)
	remaining := principal
	totalInterest := decimal.Zero
	totalPayment := decimal.Zero

	for m := 1; m <= tenureMonths; m++ {
		opening := remaining
		interest := opening.Mul(i).Round(config.CurrencyPrecision)
		principalComp := emi.Sub(interest)
		if m == tenureMonths {
			// Absorb rounding drift: the final installment pays off exactly
			// what is left, and the correction lands in the principal
			// component rather than being dropped.
			principalComp = opening
		}
		remaining = opening.Sub(principalComp)

		totalInterest = totalInterest.Add(interest)
		totalPayment = totalPayment.Add(principalComp.Add(interest))

		schedule = append(schedule, domain.AmortizationMonth{
			Month:          m,
			OpeningBalance: opening,
			Interest:       interest,
			Principal:      principalComp,
			ClosingBalance: remaining,
		})
	}

	return &domain.EMIResult{
		Principal:     principal,
		TenureMonths:  tenureMonths,
		AnnualRate:    annualRate,
		Monthly:       emi,
		TotalInterest: totalInterest,
		TotalPayment:  totalPayment,
		Schedule:      schedule,
	}, nil
}

// MaxPrincipalForEMI inverts the EMI formula: given the largest affordable
// installment, the rate and the tenure, it returns the largest principal
// that installment can amortize.
func MaxPrincipalForEMI(emi, annualRate decimal.Decimal, tenureMonths int) (decimal.Decimal, error) {
	if tenureMonths <= 0 {
		return decimal.Zero, domain.ErrInvalidTenure
	}
	i := monthlyRate(annualRate)
	if i.IsZero() {
		return emi.Mul(decimal.NewFromInt(int64(tenureMonths))), nil
	}
	pow, err := one.Add(i).PowInt32(int32(tenureMonths))
	if err != nil {
		return decimal.Zero, fmt.Errorf("compound factor: %w", err)
	}
	// P = E*((1+i)^n - 1) / (i*(1+i)^n)
	return emi.Mul(pow.Sub(one)).DivRound(i.Mul(pow), config.CurrencyPrecision), nil
}
