package finance

import (
	"fmt"
	"time"

	"github.com/nivaan/loanpilot/internal/config"
	"github.com/nivaan/loanpilot/internal/domain"
	"github.com/shopspring/decimal"
)

// FOIRThreshold returns the Fixed Obligation to Income Ratio cap for an
// employment type. Unknown types get the conservative self-employed cap.
func FOIRThreshold(employment string) decimal.Decimal {
	if employment == "salaried" {
		return decimal.NewFromFloat(config.FOIRSalaried)
	}
	return decimal.NewFromFloat(config.FOIRSelfEmployed)
}

// AgeAt returns completed years between dob and now.
func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		age--
	}
	return age
}

// Evaluate produces a soft-sanction eligibility decision. It is pure: the
// same inputs and reference time always yield the same result.
//
// The affordable installment is income x FOIR threshold minus existing
// obligations; the permissible tenure is the requested tenure capped by the
// retirement-age ceiling and the product maximum; reverse-EMI at the
// reference rate converts the installment into a maximum principal. The
// decision is eligible iff that principal clears the minimum sanction floor.
func Evaluate(income, expense decimal.Decimal, employment string, dob time.Time, tenureMonths int, now time.Time) (*domain.EligibilityResult, error) {
	if !income.IsPositive() {
		return nil, fmt.Errorf("income must be positive: %w", domain.ErrInvalidPrincipal)
	}
	if expense.IsNegative() {
		return nil, fmt.Errorf("expense must be non-negative: %w", domain.ErrInvalidPrincipal)
	}
	if tenureMonths <= 0 {
		return nil, domain.ErrInvalidTenure
	}

	foir := FOIRThreshold(employment)
	inputs := domain.EligibilityInputs{
		Income:       income,
		Expense:      expense,
		Employment:   employment,
		DateOfBirth:  dob,
		TenureMonths: tenureMonths,
		FOIR:         foir,
	}

	// The inputs snapshot keeps the requested tenure; the decision is
	// computed over the capped one.
	age := AgeAt(dob, now)
	maxByAge := (config.RetirementAge - age) * 12
	n := tenureMonths
	if maxByAge < n {
		n = maxByAge
	}
	if max := config.MaxTenureYears * 12; n > max {
		n = max
	}

	if n < config.MinTenureMonths {
		return &domain.EligibilityResult{
			Eligible:     false,
			MaxPrincipal: decimal.Zero,
			Binding:      domain.ConstraintAge,
			Reason: fmt.Sprintf(
				"at age %d the permissible tenure before retirement age %d falls below the %d-month product minimum",
				age, config.RetirementAge, config.MinTenureMonths),
			Inputs:                inputs,
			EffectiveTenureMonths: n,
		}, nil
	}

	// FOIR gate: the proposed EMI may occupy at most income x threshold,
	// less what existing obligations already consume.
	affordable := income.Mul(foir).Sub(expense)
	if !affordable.IsPositive() {
		return &domain.EligibilityResult{
			Eligible:     false,
			MaxPrincipal: decimal.Zero,
			Binding:      domain.ConstraintFOIR,
			Reason: fmt.Sprintf(
				"existing obligations of %s against income %s exceed the %s%% FOIR cap for %s applicants",
				expense.StringFixed(0), income.StringFixed(0),
				foir.Mul(hundred).StringFixed(0), employment),
			Inputs:                inputs,
			EffectiveTenureMonths: n,
		}, nil
	}

	maxPrincipal, err := MaxPrincipalForEMI(affordable, decimal.NewFromFloat(config.ReferenceRate), n)
	if err != nil {
		return nil, fmt.Errorf("reverse emi: %w", err)
	}

	floor := decimal.NewFromInt(config.MinSanctionAmount)
	if maxPrincipal.LessThan(floor) {
		return &domain.EligibilityResult{
			Eligible:     false,
			MaxPrincipal: maxPrincipal,
			Binding:      domain.ConstraintSanction,
			Reason: fmt.Sprintf(
				"FOIR capacity supports only Rs %s, below the Rs %s minimum sanction",
				FormatIndian(maxPrincipal), FormatIndian(floor)),
			Inputs:                inputs,
			EffectiveTenureMonths: n,
		}, nil
	}

	return &domain.EligibilityResult{
		Eligible:     true,
		MaxPrincipal: maxPrincipal,
		Binding:      domain.ConstraintNone,
		Reason: fmt.Sprintf(
			"FOIR capacity of %s per month supports a sanction of up to Rs %s over %d months",
			affordable.StringFixed(0), FormatIndian(maxPrincipal), n),
		Inputs:                inputs,
		EffectiveTenureMonths: n,
	}, nil
}
