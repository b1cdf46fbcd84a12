package domain

import "errors"

var (
	ErrCollaboratorTimeout     = errors.New("collaborator timed out")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrCannotClassify          = errors.New("collaborator cannot classify input")
	ErrInvalidPrincipal        = errors.New("principal must be positive")
	ErrInvalidTenure           = errors.New("tenure must be positive")
	ErrInvalidRate             = errors.New("rate must be non-negative")
)

// ValidationKind identifies which deterministic rule rejected an utterance.
type ValidationKind string

const (
	ValidationNotANumber    ValidationKind = "not_a_number"
	ValidationOutOfRange    ValidationKind = "out_of_range"
	ValidationBadDate       ValidationKind = "bad_date"
	ValidationBadEnum       ValidationKind = "bad_enum"
	ValidationBadPattern    ValidationKind = "bad_pattern"
	ValidationNotUnderstood ValidationKind = "not_understood"
)

// ValidationError is a recoverable, single-field rejection of user input.
// Reason is user-facing and names the field and its bounds.
type ValidationError struct {
	Slot   string
	Kind   ValidationKind
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed for " + e.Slot + ": " + e.Reason
}

// CalculationDomainError marks an internal-invariant violation: invalid
// inputs reached a calculator despite slot validation. The turn is aborted
// and logged; it must never be converted into a financial result.
type CalculationDomainError struct {
	Calc string
	Err  error
}

func (e *CalculationDomainError) Error() string {
	return e.Calc + " invariant violation: " + e.Err.Error()
}

func (e *CalculationDomainError) Unwrap() error { return e.Err }
