package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationMonth is one row of an EMI schedule.
type AmortizationMonth struct {
	Month          int             `json:"month"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Interest       decimal.Decimal `json:"interest"`
	Principal      decimal.Decimal `json:"principal"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// EMIResult is the complete output of the EMI calculator. Principal
// components across Schedule sum to Principal and the final closing balance
// is exactly zero; rounding drift is absorbed into the last month.
type EMIResult struct {
	Principal     decimal.Decimal     `json:"principal"`
	TenureMonths  int                 `json:"tenure_months"`
	AnnualRate    decimal.Decimal     `json:"annual_rate"`
	Monthly       decimal.Decimal     `json:"monthly_emi"`
	TotalInterest decimal.Decimal     `json:"total_interest"`
	TotalPayment  decimal.Decimal     `json:"total_payment"`
	Schedule      []AmortizationMonth `json:"schedule"`
}

// EligibilityConstraint names the constraint that bounded an eligibility
// decision, so the reason string can point at it.
type EligibilityConstraint string

const (
	ConstraintFOIR     EligibilityConstraint = "foir"
	ConstraintAge      EligibilityConstraint = "age"
	ConstraintSanction EligibilityConstraint = "sanction_floor"
	ConstraintNone     EligibilityConstraint = "none"
)

// EligibilityInputs is the immutable snapshot the decision was computed from.
type EligibilityInputs struct {
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Employment   string          `json:"employment_type"`
	DateOfBirth  time.Time       `json:"dob"`
	TenureMonths int             `json:"tenure_months"`
	FOIR         decimal.Decimal `json:"foir"`
}

// EligibilityResult is computed once per completed eligibility flow and
// never mutated afterwards; a restart discards it entirely.
type EligibilityResult struct {
	Eligible     bool                  `json:"eligible"`
	MaxPrincipal decimal.Decimal       `json:"max_principal"`
	Reason       string                `json:"reason"`
	Binding      EligibilityConstraint `json:"binding_constraint"`
	Inputs       EligibilityInputs     `json:"inputs"`

	// EffectiveTenureMonths is the tenure the decision was computed over:
	// the requested tenure capped by the retirement-age ceiling and the
	// product maximum. Inputs keeps what the user asked for.
	EffectiveTenureMonths int `json:"effective_tenure_months"`
}

// ContactRecord holds validated contact details collected by the contact or
// eligibility flow, owned by the session until handed to persistence.
type ContactRecord struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// ExtractedFields is the upsert payload for the persistence collaborator's
// extracted-data record. Later upserts for the same session replace earlier
// ones.
type ExtractedFields struct {
	SessionID string            `json:"session_id"`
	Contact   ContactRecord     `json:"contact"`
	Fields    map[string]string `json:"fields"`
}

// SegmentKind distinguishes the structured reply segments a turn produces.
type SegmentKind string

const (
	SegmentPrompt  SegmentKind = "prompt"
	SegmentAnswer  SegmentKind = "answer"
	SegmentResult  SegmentKind = "result"
	SegmentError   SegmentKind = "error"
	SegmentWarning SegmentKind = "warning"
)

// Segment is one front-end reply unit. Payload carries the typed result for
// result segments; Code is the machine-readable reason for error segments.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Text    string      `json:"text"`
	Code    string      `json:"code,omitempty"`
	Payload any         `json:"payload,omitempty"`
}
