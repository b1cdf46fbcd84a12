package config

import "time"

const (
	// Slot bounds
	MinTenureMonths = 12
	MaxTenureMonths = 360
	MaxAnnualRate   = 30.0
	MinAdultAge     = 18
	MaxAdultAge     = 70

	// Eligibility policy (bank product constants)
	RetirementAge     = 60
	MaxTenureYears    = 30
	ReferenceRate     = 8.5
	MinSanctionAmount = 500_000
	FOIRSalaried      = 0.50
	FOIRSelfEmployed  = 0.40

	// OTP
	OTPLength      = 6
	OTPMaxAttempts = 3

	// Collaborator retry budget
	LLMRetries = 1

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Turn resolution ceiling; a turn never blocks past this.
	TurnTimeout = 30 * time.Second

	// Currency rounding for EMI math
	CurrencyPrecision = 2
)

// EmploymentTypes are the canonical enum values for the employment slot.
var EmploymentTypes = []string{"salaried", "self-employed"}

// LoanTypes are the canonical enum values for the loan-type slot.
var LoanTypes = []string{"fresh", "balance transfer"}
