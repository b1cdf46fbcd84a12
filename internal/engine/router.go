package engine

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nivaan/loanpilot/internal/domain"
)

// VerdictKind is the fallback router's decision for an utterance that does
// not belong to the active flow's expected slot.
type VerdictKind string

const (
	VerdictStartFlow   VerdictKind = "start_flow"
	VerdictRestartFlow VerdictKind = "restart_flow"
	VerdictRetrieval   VerdictKind = "retrieval_query"
	VerdictContact     VerdictKind = "contact_request"
	VerdictGreeting    VerdictKind = "greeting"
	VerdictThanks      VerdictKind = "thanks"
	VerdictAffirmative VerdictKind = "affirmative"
	VerdictNegative    VerdictKind = "negative"
	VerdictUnhandled   VerdictKind = "unhandled"
)

// Verdict carries the router's decision. Flow is set for start/restart
// verdicts, Query for retrieval verdicts.
type Verdict struct {
	Kind  VerdictKind
	Flow  domain.FlowTag
	Query string
}

var (
	emiTriggerRe     = regexp.MustCompile(`\b(emi|installment|instalment)\b`)
	eligTriggerRe    = regexp.MustCompile(`\beligib`)
	contactTriggerRe = regexp.MustCompile(`\b(contact|call back|callback|representative|call me)\b`)
	questionStartRe  = regexp.MustCompile(`^(how|what|why|when|where|which|who|can|does|do|is|are|tell|give|explain)\b`)
)

var (
	thanksPhrases = []string{"thank you", "thanks", "thankyou", "thx"}
	greetWords    = map[string]bool{"hi": true, "hello": true, "hey": true, "namaste": true, "good morning": true, "good evening": true}
	yesWords      = map[string]bool{"yes": true, "y": true, "yeah": true, "yep": true, "sure": true, "ok": true, "okay": true}
	noWords       = map[string]bool{"no": true, "n": true, "nope": true, "nah": true}
)

// Router classifies out-of-band input: deterministic keyword matching first,
// then the language collaborator constrained to the closed intent set, with
// a bounded timeout degrading to Unhandled.
type Router struct {
	llm     domain.LanguageService
	timeout time.Duration
}

func NewRouter(llm domain.LanguageService, timeout time.Duration) *Router {
	return &Router{llm: llm, timeout: timeout}
}

// KeywordIntent applies the cheap deterministic layer only.
func KeywordIntent(utterance string) domain.Intent {
	q := strings.ToLower(strings.TrimSpace(utterance))
	if q == "" {
		return domain.IntentUnknown
	}

	for _, p := range thanksPhrases {
		if q == p || strings.Contains(q, p) {
			return domain.IntentThanks
		}
	}
	if greetWords[q] {
		return domain.IntentGreeting
	}
	if yesWords[strings.TrimRight(q, ".!")] {
		return domain.IntentAffirmative
	}
	if noWords[strings.TrimRight(q, ".!")] {
		return domain.IntentNegative
	}
	if emiTriggerRe.MatchString(q) {
		return domain.IntentStartEMI
	}
	if eligTriggerRe.MatchString(q) {
		return domain.IntentStartEligibility
	}
	if contactTriggerRe.MatchString(q) {
		return domain.IntentContact
	}
	return domain.IntentUnknown
}

// IsQuestion is the cheap heuristic for policy questions.
func IsQuestion(utterance string) bool {
	q := strings.ToLower(strings.TrimSpace(utterance))
	return strings.HasSuffix(q, "?") || questionStartRe.MatchString(q)
}

// Route resolves an utterance into a verdict using the full session context.
func (r *Router) Route(ctx context.Context, utterance string, sess *domain.Session) Verdict {
	if v, ok := verdictFromIntent(KeywordIntent(utterance), utterance, sess); ok {
		return v
	}
	if IsQuestion(utterance) {
		return Verdict{Kind: VerdictRetrieval, Query: utterance}
	}

	if r.llm == nil {
		return Verdict{Kind: VerdictUnhandled}
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	intent, err := r.llm.ClassifyIntent(cctx, utterance, sess.Turns)
	if err != nil {
		slog.Warn("intent classification unavailable, treating as unhandled", "error", err)
		return Verdict{Kind: VerdictUnhandled}
	}
	if v, ok := verdictFromIntent(intent, utterance, sess); ok {
		return v
	}
	if intent == domain.IntentQuestion {
		return Verdict{Kind: VerdictRetrieval, Query: utterance}
	}
	return Verdict{Kind: VerdictUnhandled}
}

func verdictFromIntent(intent domain.Intent, utterance string, sess *domain.Session) (Verdict, bool) {
	switch intent {
	case domain.IntentStartEMI:
		return startOrRestart(domain.FlowEMI, sess), true
	case domain.IntentStartEligibility:
		return startOrRestart(domain.FlowEligibility, sess), true
	case domain.IntentContact:
		return Verdict{Kind: VerdictContact, Flow: domain.FlowContact}, true
	case domain.IntentGreeting:
		return Verdict{Kind: VerdictGreeting}, true
	case domain.IntentThanks:
		return Verdict{Kind: VerdictThanks}, true
	case domain.IntentAffirmative:
		return Verdict{Kind: VerdictAffirmative}, true
	case domain.IntentNegative:
		return Verdict{Kind: VerdictNegative}, true
	}
	return Verdict{}, false
}

func startOrRestart(flow domain.FlowTag, sess *domain.Session) Verdict {
	if sess.Flow == flow && sess.State != domain.StateIdle {
		return Verdict{Kind: VerdictRestartFlow, Flow: flow}
	}
	return Verdict{Kind: VerdictStartFlow, Flow: flow}
}
