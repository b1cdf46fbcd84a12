package domain

import "context"

// Intent is the closed set of verdicts the language-understanding
// collaborator may classify an utterance into.
type Intent string

const (
	IntentStartEMI         Intent = "start_emi"
	IntentStartEligibility Intent = "start_eligibility"
	IntentContact          Intent = "contact_request"
	IntentQuestion         Intent = "ask_policy"
	IntentGreeting         Intent = "greeting"
	IntentAffirmative      Intent = "affirmative"
	IntentNegative         Intent = "negative"
	IntentThanks           Intent = "thanks"
	IntentUnknown          Intent = "unknown"
)

// LanguageService is the contract with the external language-understanding
// collaborator. Both calls carry a bounded timeout and a single retry on
// transient failure; callers must treat errors as recoverable and fall back
// to deterministic handling.
type LanguageService interface {
	// ClassifyIntent maps an utterance to one of the recognized intents,
	// or returns ErrCannotClassify.
	ClassifyIntent(ctx context.Context, utterance string, history []Turn) (Intent, error)

	// ExtractSlot asks for the single value of the given slot from free-form
	// phrasing ("around 50 lakhs a year"). The returned string is raw and
	// must be re-validated deterministically before use.
	ExtractSlot(ctx context.Context, utterance string, def SlotDef) (string, error)
}

// RetrievalAnswer is the opaque grounded response from the retrieval
// collaborator. The core surfaces it without reinterpretation.
type RetrievalAnswer struct {
	Text    string
	Sources []string
}

// Retriever answers free-text policy questions from the document index.
type Retriever interface {
	Answer(ctx context.Context, query string) (RetrievalAnswer, error)
}

// Notifier delivers a one-time code to a contact address. Failure must not
// crash the OTP state; it is surfaced as a non-fatal warning.
type Notifier interface {
	SendOTP(ctx context.Context, email, code string) error
}

// Warehouse is the persistence collaborator: an append-only conversation log
// and an extracted-fields record, both keyed by session id and upserted.
type Warehouse interface {
	UpsertConversation(ctx context.Context, sessionID string, turns []Turn) error
	UpsertExtractedFields(ctx context.Context, rec ExtractedFields) error
}
