package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SlotType is the semantic type a slot's raw utterance must normalize into.
type SlotType string

const (
	SlotInteger SlotType = "integer"
	SlotDecimal SlotType = "decimal"
	SlotDate    SlotType = "date"
	SlotEnum    SlotType = "enum"
	SlotPattern SlotType = "pattern"
)

// SlotDef describes one required field of a flow: its name, semantic type,
// declarative validation bounds and the prompt shown when it is requested.
type SlotDef struct {
	Name   string
	Type   SlotType
	Prompt string

	// Numeric bounds, inclusive. Nil means unbounded on that side.
	Min *decimal.Decimal
	Max *decimal.Decimal

	// Enum holds canonical values; matching is substring-based and
	// case-insensitive (e.g. "self" matches "self-employed").
	Enum []string

	// Pattern is a regex the trimmed utterance must match for pattern slots.
	Pattern string

	// Unit set to "months" makes the validator normalize year-denominated
	// utterances ("20 years") before range checks.
	Unit string

	// Age bounds in completed years for date slots. Zero means unchecked.
	MinAge int
	MaxAge int

	// ZeroWords are accepted as an explicit zero for numeric slots
	// ("none", "no expenses").
	ZeroWords []string

	// Hint names the expected shape in re-prompts ("a 6-digit pincode").
	Hint string
}

// SlotValue is the tagged variant produced by validation. Exactly one of the
// typed fields is meaningful, selected by Type.
type SlotValue struct {
	Type SlotType
	Int  int64
	Dec  decimal.Decimal
	Date time.Time
	Enum string
	Str  string
}

func IntValue(v int64) SlotValue { return SlotValue{Type: SlotInteger, Int: v} }

func DecValue(d decimal.Decimal) SlotValue { return SlotValue{Type: SlotDecimal, Dec: d} }

func DateValue(t time.Time) SlotValue { return SlotValue{Type: SlotDate, Date: t} }

func EnumValue(s string) SlotValue { return SlotValue{Type: SlotEnum, Enum: s} }

func StrValue(s string) SlotValue { return SlotValue{Type: SlotPattern, Str: s} }

// Display renders the value the way it should appear in summaries and the
// extracted-fields record.
func (v SlotValue) Display() string {
	switch v.Type {
	case SlotInteger:
		return decimal.NewFromInt(v.Int).String()
	case SlotDecimal:
		return v.Dec.String()
	case SlotDate:
		return v.Date.Format("2006-01-02")
	case SlotEnum:
		return v.Enum
	default:
		return v.Str
	}
}
