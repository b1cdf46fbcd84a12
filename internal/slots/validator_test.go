package slots_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivaan/loanpilot/internal/domain"
	"github.com/nivaan/loanpilot/internal/slots"
)

type stubExtractor struct {
	value string
	err   error
	calls int
}

func (s *stubExtractor) ClassifyIntent(ctx context.Context, utterance string, history []domain.Turn) (domain.Intent, error) {
	return domain.IntentUnknown, domain.ErrCannotClassify
}

func (s *stubExtractor) ExtractSlot(ctx context.Context, utterance string, def domain.SlotDef) (string, error) {
	s.calls++
	return s.value, s.err
}

func decp(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func tenureDef() domain.SlotDef {
	return domain.SlotDef{
		Name: "tenure_months",
		Type: domain.SlotInteger,
		Unit: "months",
		Min:  decp(12),
		Max:  decp(360),
		Hint: "between 12 and 360 months",
	}
}

func TestDeterministicInteger(t *testing.T) {
	val, verr := slots.Deterministic(tenureDef(), "20 years")
	require.Nil(t, verr)
	assert.EqualValues(t, 240, val.Int)

	_, verr = slots.Deterministic(tenureDef(), "forever")
	require.NotNil(t, verr)
	assert.Equal(t, domain.ValidationNotANumber, verr.Kind)
	assert.Contains(t, verr.Reason, "between 12 and 360 months")

	_, verr = slots.Deterministic(tenureDef(), "50 years")
	require.NotNil(t, verr)
	assert.Equal(t, domain.ValidationOutOfRange, verr.Kind)
}

func TestDeterministicDecimalZeroWords(t *testing.T) {
	def := domain.SlotDef{
		Name:      "expense",
		Type:      domain.SlotDecimal,
		Min:       decp(0),
		Max:       decp(100_000_000),
		ZeroWords: []string{"none", "nil", "zero"},
		Hint:      "a non-negative monthly amount",
	}

	val, verr := slots.Deterministic(def, "none")
	require.Nil(t, verr)
	assert.True(t, val.Dec.IsZero())

	val, verr = slots.Deterministic(def, "25000")
	require.Nil(t, verr)
	assert.EqualValues(t, 25000, val.Dec.IntPart())
}

func TestDeterministicEnum(t *testing.T) {
	def := domain.SlotDef{
		Name: "employment_type",
		Type: domain.SlotEnum,
		Enum: []string{"salaried", "self-employed"},
		Hint: "either Salaried or Self-Employed",
	}

	for in, want := range map[string]string{
		"Salaried":           "salaried",
		"I am salaried":      "salaried",
		"self employed":      "self-employed",
		"Self-Employed":      "self-employed",
		"i run my own shop, self employed": "self-employed",
	} {
		val, verr := slots.Deterministic(def, in)
		require.Nil(t, verr, "input %q", in)
		assert.Equal(t, want, val.Enum, "input %q", in)
	}

	_, verr := slots.Deterministic(def, "freelancer")
	require.NotNil(t, verr)
	assert.Equal(t, domain.ValidationBadEnum, verr.Kind)
}

func TestDeterministicDate(t *testing.T) {
	def := domain.SlotDef{
		Name:   "dob",
		Type:   domain.SlotDate,
		MinAge: 18,
		MaxAge: 70,
		Hint:   "a date in YYYY-MM-DD format",
	}

	val, verr := slots.Deterministic(def, "1990-06-15")
	require.Nil(t, verr)
	assert.Equal(t, 1990, val.Date.Year())

	_, verr = slots.Deterministic(def, "15/06/1990")
	require.NotNil(t, verr)
	assert.Equal(t, domain.ValidationBadDate, verr.Kind)

	tooYoung := time.Now().AddDate(-10, 0, 0).Format("2006-01-02")
	_, verr = slots.Deterministic(def, tooYoung)
	require.NotNil(t, verr)
	assert.Equal(t, domain.ValidationOutOfRange, verr.Kind)
}

func TestDeterministicPatterns(t *testing.T) {
	phone := domain.SlotDef{Name: "phone", Type: domain.SlotPattern, Pattern: `^\d{10}$`, Hint: "a 10-digit mobile number"}
	email := domain.SlotDef{Name: "email", Type: domain.SlotPattern, Pattern: `.`, Hint: "a valid email address"}
	name := domain.SlotDef{Name: "name", Type: domain.SlotPattern, Pattern: `^[A-Za-z]+ [A-Za-z]+$`, Hint: "your first and last name"}
	pin := domain.SlotDef{Name: "pincode", Type: domain.SlotPattern, Pattern: `^\d{6}$`, Hint: "a 6-digit pincode"}

	val, verr := slots.Deterministic(phone, "+91 98765 43210")
	require.Nil(t, verr)
	assert.Equal(t, "9876543210", val.Str)

	_, verr = slots.Deterministic(phone, "12345")
	require.NotNil(t, verr)
	assert.Equal(t, domain.ValidationBadPattern, verr.Kind)

	val, verr = slots.Deterministic(email, "Rohan.Sharma@Example.COM")
	require.Nil(t, verr)
	assert.Equal(t, "rohan.sharma@example.com", val.Str)

	_, verr = slots.Deterministic(email, "not-an-email")
	require.NotNil(t, verr)

	val, verr = slots.Deterministic(name, "  rohan   sharma ")
	require.Nil(t, verr)
	assert.Equal(t, "Rohan Sharma", val.Str)

	val, verr = slots.Deterministic(pin, "110001")
	require.Nil(t, verr)
	assert.Equal(t, "110001", val.Str)
}

func TestValidateConsultsExtractorForConversationalInput(t *testing.T) {
	stub := &stubExtractor{value: "50000"}
	v := slots.New(stub, time.Second)

	def := domain.SlotDef{
		Name: "income",
		Type: domain.SlotDecimal,
		Min:  decp(1),
		Max:  decp(100_000_000),
		Hint: "a positive monthly amount",
	}

	val, err := v.Validate(context.Background(), def, "my salary is around fifty thousand a month")
	require.NoError(t, err)
	assert.EqualValues(t, 50000, val.Dec.IntPart())
	assert.Equal(t, 1, stub.calls)
}

func TestValidateSkipsExtractorForBareValues(t *testing.T) {
	stub := &stubExtractor{value: "9999"}
	v := slots.New(stub, time.Second)

	_, err := v.Validate(context.Background(), tenureDef(), "999")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ValidationOutOfRange, verr.Kind)
	assert.Zero(t, stub.calls)
}

func TestValidateKeepsOriginalErrorWhenExtractionFails(t *testing.T) {
	stub := &stubExtractor{err: errors.New("upstream down")}
	v := slots.New(stub, time.Second)

	def := tenureDef()
	_, err := v.Validate(context.Background(), def, "as long as possible please")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ValidationNotANumber, verr.Kind)
	assert.Contains(t, verr.Reason, "between 12 and 360 months")
}

func TestValidateRevalidatesExtractorOutput(t *testing.T) {
	// The extractor returning nonsense must not bypass the rule.
	stub := &stubExtractor{value: "banana"}
	v := slots.New(stub, time.Second)

	_, err := v.Validate(context.Background(), tenureDef(), "whatever works for you")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ValidationNotANumber, verr.Kind)
}
