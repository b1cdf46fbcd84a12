package slots

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nivaan/loanpilot/internal/domain"
	"github.com/nivaan/loanpilot/internal/finance"
	"github.com/shopspring/decimal"
)

var (
	digitsOnlyRe = regexp.MustCompile(`\D`)
	emailRe      = regexp.MustCompile(`^[\w.+-]+@[\w.-]+\.\w+$`)
)

// Validator normalizes a raw utterance into a typed slot value. The
// deterministic rule always runs first; the language collaborator is only
// asked when conversational phrasing defeats it, and whatever the
// collaborator returns is pushed back through the same deterministic rule.
type Validator struct {
	llm     domain.LanguageService
	timeout time.Duration
}

// New builds a Validator. llm may be nil, in which case only the
// deterministic path runs.
func New(llm domain.LanguageService, timeout time.Duration) *Validator {
	return &Validator{llm: llm, timeout: timeout}
}

// Validate returns the normalized value or a *domain.ValidationError whose
// reason names the offending field and its bounds.
func (v *Validator) Validate(ctx context.Context, def domain.SlotDef, utterance string) (domain.SlotValue, error) {
	val, verr := Deterministic(def, utterance)
	if verr == nil {
		return val, nil
	}

	// A parsed-but-out-of-bounds value is understood and final; only
	// unparseable conversational phrasing earns a collaborator attempt.
	if verr.Kind == domain.ValidationOutOfRange || v.llm == nil || LooksLikeBareValue(utterance) {
		return domain.SlotValue{}, verr
	}

	extracted, err := v.extract(ctx, def, utterance)
	if err != nil {
		slog.Warn("slot extraction fell back to deterministic re-prompt",
			"slot", def.Name, "error", err)
		return domain.SlotValue{}, verr
	}

	val, verr2 := Deterministic(def, extracted)
	if verr2 != nil {
		return domain.SlotValue{}, verr
	}
	return val, nil
}

func (v *Validator) extract(ctx context.Context, def domain.SlotDef, utterance string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	raw, err := v.llm.ExtractSlot(ctx, utterance, def)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", def.Name, err)
	}
	return raw, nil
}

// Deterministic applies the slot's own rule with no collaborator involved.
func Deterministic(def domain.SlotDef, utterance string) (domain.SlotValue, *domain.ValidationError) {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return domain.SlotValue{}, fail(def, domain.ValidationNotUnderstood)
	}

	switch def.Type {
	case domain.SlotInteger:
		return validateInteger(def, text)
	case domain.SlotDecimal:
		return validateDecimal(def, text)
	case domain.SlotDate:
		return validateDate(def, text)
	case domain.SlotEnum:
		return validateEnum(def, text)
	case domain.SlotPattern:
		return validatePattern(def, text)
	}
	return domain.SlotValue{}, fail(def, domain.ValidationNotUnderstood)
}

func validateInteger(def domain.SlotDef, text string) (domain.SlotValue, *domain.ValidationError) {
	if def.Unit == "months" {
		n, ok := ParseTenureMonths(text)
		if !ok {
			return domain.SlotValue{}, fail(def, domain.ValidationNotANumber)
		}
		if outOfBounds(decimal.NewFromInt(int64(n)), def) {
			return domain.SlotValue{}, fail(def, domain.ValidationOutOfRange)
		}
		return domain.IntValue(int64(n)), nil
	}

	d, ok := ParseAmount(text)
	if !ok || !d.IsInteger() {
		return domain.SlotValue{}, fail(def, domain.ValidationNotANumber)
	}
	if outOfBounds(d, def) {
		return domain.SlotValue{}, fail(def, domain.ValidationOutOfRange)
	}
	return domain.IntValue(d.IntPart()), nil
}

func validateDecimal(def domain.SlotDef, text string) (domain.SlotValue, *domain.ValidationError) {
	for _, w := range def.ZeroWords {
		if strings.EqualFold(text, w) {
			return domain.DecValue(decimal.Zero), nil
		}
	}
	d, ok := ParseAmount(text)
	if !ok {
		return domain.SlotValue{}, fail(def, domain.ValidationNotANumber)
	}
	if outOfBounds(d, def) {
		return domain.SlotValue{}, fail(def, domain.ValidationOutOfRange)
	}
	return domain.DecValue(d), nil
}

func validateDate(def domain.SlotDef, text string) (domain.SlotValue, *domain.ValidationError) {
	t, err := time.Parse("2006-01-02", text)
	if err != nil {
		return domain.SlotValue{}, fail(def, domain.ValidationBadDate)
	}
	if def.MinAge > 0 || def.MaxAge > 0 {
		age := finance.AgeAt(t, time.Now())
		if (def.MinAge > 0 && age < def.MinAge) || (def.MaxAge > 0 && age > def.MaxAge) {
			return domain.SlotValue{}, fail(def, domain.ValidationOutOfRange)
		}
	}
	return domain.DateValue(t), nil
}

func validateEnum(def domain.SlotDef, text string) (domain.SlotValue, *domain.ValidationError) {
	lowered := strings.ReplaceAll(strings.ToLower(text), "-", " ")
	for _, canonical := range def.Enum {
		normalized := strings.ReplaceAll(canonical, "-", " ")
		// The whole value, or its distinctive leading segment ("self" for
		// self-employed), identifies the choice.
		head := strings.SplitN(normalized, " ", 2)[0]
		if strings.Contains(lowered, normalized) || strings.Contains(lowered, head) {
			return domain.EnumValue(canonical), nil
		}
	}
	return domain.SlotValue{}, fail(def, domain.ValidationBadEnum)
}

func validatePattern(def domain.SlotDef, text string) (domain.SlotValue, *domain.ValidationError) {
	normalized := text
	switch def.Name {
	case "phone":
		normalized = digitsOnlyRe.ReplaceAllString(text, "")
		// Strip a leading country code from numbers like +91 98765 43210.
		if len(normalized) == 12 && strings.HasPrefix(normalized, "91") {
			normalized = normalized[2:]
		}
	case "email":
		normalized = strings.ToLower(strings.TrimSpace(text))
		if !emailRe.MatchString(normalized) {
			return domain.SlotValue{}, fail(def, domain.ValidationBadPattern)
		}
		return domain.StrValue(normalized), nil
	case "name":
		normalized = strings.Join(strings.Fields(text), " ")
	}

	re, err := regexp.Compile(def.Pattern)
	if err != nil || !re.MatchString(normalized) {
		return domain.SlotValue{}, fail(def, domain.ValidationBadPattern)
	}
	if def.Name == "name" {
		normalized = titleCase(normalized)
	}
	return domain.StrValue(normalized), nil
}

func outOfBounds(d decimal.Decimal, def domain.SlotDef) bool {
	if def.Min != nil && d.LessThan(*def.Min) {
		return true
	}
	if def.Max != nil && d.GreaterThan(*def.Max) {
		return true
	}
	return false
}

func fail(def domain.SlotDef, kind domain.ValidationKind) *domain.ValidationError {
	return &domain.ValidationError{
		Slot:   def.Name,
		Kind:   kind,
		Reason: fmt.Sprintf("%s must be %s", def.Name, def.Hint),
	}
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
