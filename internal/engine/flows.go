package engine

import (
	"github.com/nivaan/loanpilot/internal/config"
	"github.com/nivaan/loanpilot/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func decf(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// Slot sequences are fixed per flow; the controller never skips a required
// slot except through an explicit restart.

var emiSlots = []domain.SlotDef{
	{
		Name:   "principal",
		Type:   domain.SlotDecimal,
		Prompt: "Great! To calculate your EMI, please provide the *Principal Loan Amount*.",
		Min:    dec(1),
		Max:    dec(1_000_000_000),
		Hint:   "a positive amount, e.g. 50 lakhs or 5000000",
	},
	{
		Name:   "tenure_months",
		Type:   domain.SlotInteger,
		Unit:   "months",
		Prompt: "Got it. What is the *Loan Tenure*? (months, or e.g. \"20 years\")",
		Min:    dec(config.MinTenureMonths),
		Max:    dec(config.MaxTenureMonths),
		Hint:   "between 12 and 360 months",
	},
	{
		Name:   "rate",
		Type:   domain.SlotDecimal,
		Prompt: "Great. What is the *Rate of Interest* (% per annum)?",
		Min:    dec(0),
		Max:    decf(config.MaxAnnualRate),
		Hint:   "an annual percentage between 0 and 30",
	},
}

var eligibilitySlots = []domain.SlotDef{
	{
		Name:   "income",
		Type:   domain.SlotDecimal,
		Prompt: "Sure! To check eligibility, please provide your *Monthly Income*.",
		Min:    dec(1),
		Max:    dec(100_000_000),
		Hint:   "a positive monthly amount",
	},
	{
		Name:      "expense",
		Type:      domain.SlotDecimal,
		Prompt:    "Thanks. What are your *Monthly Expenses* (EMIs and other fixed obligations)?",
		Min:       dec(0),
		Max:       dec(100_000_000),
		ZeroWords: []string{"none", "no expenses", "nil", "zero", "nothing"},
		Hint:      "a non-negative monthly amount (or \"none\")",
	},
	{
		Name:   "employment_type",
		Type:   domain.SlotEnum,
		Prompt: "Got it. Are you *Salaried* or *Self-Employed*?",
		Enum:   config.EmploymentTypes,
		Hint:   "either Salaried or Self-Employed",
	},
	{
		Name:   "dob",
		Type:   domain.SlotDate,
		Prompt: "What is your *Date of Birth*? (YYYY-MM-DD)",
		MinAge: config.MinAdultAge,
		MaxAge: config.MaxAdultAge,
		Hint:   "a date in YYYY-MM-DD format for an applicant aged 18 to 70",
	},
	{
		Name:   "tenure_months",
		Type:   domain.SlotInteger,
		Unit:   "months",
		Prompt: "What *Loan Tenure* are you looking for? (months, or e.g. \"20 years\")",
		Min:    dec(config.MinTenureMonths),
		Max:    dec(config.MaxTenureMonths),
		Hint:   "between 12 and 360 months",
	},
	{
		Name:    "pincode",
		Type:    domain.SlotPattern,
		Prompt:  "Thanks. What is your *Pincode*?",
		Pattern: `^\d{6}$`,
		Hint:    "a 6-digit pincode",
	},
	{
		Name:   "loan_type",
		Type:   domain.SlotEnum,
		Prompt: "Is this for a *Fresh Loan* or a *Balance Transfer*?",
		Enum:   config.LoanTypes,
		Hint:   "either Fresh Loan or Balance Transfer",
	},
	{
		Name:    "name",
		Type:    domain.SlotPattern,
		Prompt:  "Great! Before we continue, may I know your *Full Name*? (e.g., Rohan Sharma)",
		Pattern: `^[A-Za-z]+ [A-Za-z]+$`,
		Hint:    "your first and last name, e.g. Rohan Sharma",
	},
	{
		Name:    "phone",
		Type:    domain.SlotPattern,
		Prompt:  "Thank you! Please provide your *10-digit mobile number*.",
		Pattern: `^\d{10}$`,
		Hint:    "a 10-digit mobile number",
	},
	{
		Name:    "email",
		Type:    domain.SlotPattern,
		Prompt:  "Thanks! Now your *Email Address*, please.",
		Pattern: `.`,
		Hint:    "a valid email address",
	},
}

var contactSlots = []domain.SlotDef{
	{
		Name:    "name",
		Type:    domain.SlotPattern,
		Prompt:  "Great! May I know your *Full Name*? (e.g., Neha Sharma)",
		Pattern: `^[A-Za-z]+ [A-Za-z]+$`,
		Hint:    "your first and last name, e.g. Neha Sharma",
	},
	{
		Name:    "phone",
		Type:    domain.SlotPattern,
		Prompt:  "Thank you! Please provide your *10-digit mobile number*.",
		Pattern: `^\d{10}$`,
		Hint:    "a 10-digit mobile number",
	},
	{
		Name:    "email",
		Type:    domain.SlotPattern,
		Prompt:  "Thanks! Now please share your *email address*.",
		Pattern: `.`,
		Hint:    "a valid email address",
	},
}

// FlowSlots returns the fixed ordered slot sequence for a flow.
func FlowSlots(flow domain.FlowTag) []domain.SlotDef {
	switch flow {
	case domain.FlowEMI:
		return emiSlots
	case domain.FlowEligibility:
		return eligibilitySlots
	case domain.FlowContact:
		return contactSlots
	}
	return nil
}
