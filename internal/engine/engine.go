// Package engine implements the dialogue orchestration core: an explicit
// per-session state machine that collects typed slots for the EMI,
// eligibility and contact flows, invokes the calculators when a flow
// completes, and routes everything else to policy retrieval.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nivaan/loanpilot/internal/config"
	"github.com/nivaan/loanpilot/internal/domain"
	"github.com/nivaan/loanpilot/internal/finance"
	"github.com/nivaan/loanpilot/internal/slots"
)

var otpCodeRe = regexp.MustCompile(`^\d{6}$`)

// Deps wires the engine's collaborators. LLM and Retriever may be nil;
// every path then degrades to deterministic handling.
type Deps struct {
	LLM        domain.LanguageService
	Retriever  domain.Retriever
	Notifier   domain.Notifier
	LLMTimeout time.Duration

	// CodeGen and Now are overridable for tests.
	CodeGen func() string
	Now     func() time.Time
}

// Engine processes one utterance at a time against a session. It never
// commits partial state: the turn is staged on a copy and swapped in only
// when it fully resolves.
type Engine struct {
	validator *slots.Validator
	router    *Router
	retriever domain.Retriever
	notifier  domain.Notifier
	timeout   time.Duration
	newCode   func() string
	now       func() time.Time
}

func New(deps Deps) *Engine {
	timeout := deps.LLMTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	newCode := deps.CodeGen
	if newCode == nil {
		newCode = GenerateOTP
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		validator: slots.New(deps.LLM, timeout),
		router:    NewRouter(deps.LLM, timeout),
		retriever: deps.Retriever,
		notifier:  deps.Notifier,
		timeout:   timeout,
		newCode:   newCode,
		now:       now,
	}
}

// ProcessTurn resolves a single utterance. The session is mutated only if
// the turn resolves; a panic or early return leaves it untouched.
func (e *Engine) ProcessTurn(ctx context.Context, sess *domain.Session, utterance string) []domain.Segment {
	staged := sess.Clone()
	staged.AppendTurn("user", utterance)

	segments := e.step(ctx, staged, utterance)

	for _, s := range segments {
		staged.AppendTurn("assistant", s.Text)
	}
	*sess = *staged
	return segments
}

func (e *Engine) step(ctx context.Context, s *domain.Session, utterance string) []domain.Segment {
	switch s.State {
	case domain.StateCollecting:
		return e.stepCollecting(ctx, s, utterance)
	case domain.StateAwaitingOTP:
		return e.stepAwaitingOTP(ctx, s, utterance)
	case domain.StateComplete:
		return e.stepGate(ctx, s, utterance)
	default:
		return e.stepIdle(ctx, s, utterance)
	}
}

// --- idle ---

func (e *Engine) stepIdle(ctx context.Context, s *domain.Session, utterance string) []domain.Segment {
	v := e.router.Route(ctx, utterance, s)
	switch v.Kind {
	case VerdictStartFlow, VerdictRestartFlow:
		return e.startFlow(s, v.Flow)
	case VerdictContact:
		return e.startFlow(s, domain.FlowContact)
	case VerdictRetrieval:
		segs := e.answerPolicy(ctx, v.Query)
		return append(segs, prompt("*Would you like to calculate your EMI?*"))
	case VerdictGreeting:
		return []domain.Segment{prompt("Hello! How can I assist you with your Home Loan today?")}
	case VerdictThanks:
		return []domain.Segment{prompt("You're welcome! If you need help with EMI, eligibility, or any home-loan policy, feel free to ask.")}
	case VerdictAffirmative, VerdictNegative:
		// Nothing is pending; fall through to the clarification prompt.
	}
	return []domain.Segment{prompt("I'm sorry, I didn't quite get that. You can ask a home-loan policy question, calculate an *EMI*, or check your *eligibility*.")}
}

// --- collecting ---

func (e *Engine) stepCollecting(ctx context.Context, s *domain.Session, utterance string) []domain.Segment {
	seq := FlowSlots(s.Flow)
	if s.SlotIndex >= len(seq) {
		return e.abortTurn(s, fmt.Errorf("slot cursor %d past end of %s flow", s.SlotIndex, s.Flow))
	}
	def := seq[s.SlotIndex]

	// Name slots accept almost any two words, so trigger keywords must be
	// checked before the rule; everywhere else the deterministic rule runs
	// first because clean values can legitimately contain trigger
	// substrings (email addresses do).
	if def.Name == "name" {
		if segs, ok := e.flowSwitch(s, utterance); ok {
			return segs
		}
	}

	if val, verr := slots.Deterministic(def, utterance); verr == nil {
		return e.acceptSlot(ctx, s, val)
	}

	// Explicit restart or flow switch wins from any state.
	if segs, ok := e.flowSwitch(s, utterance); ok {
		return segs
	}

	if IsQuestion(utterance) {
		segs := e.answerPolicy(ctx, utterance)
		return append(segs, prompt(def.Prompt))
	}

	val, err := e.validator.Validate(ctx, def, utterance)
	if err == nil {
		return e.acceptSlot(ctx, s, val)
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return e.abortTurn(s, err)
	}

	// Conversational input the extractor could not pin down may still be an
	// intent change; ask the router before re-prompting.
	if !slots.LooksLikeBareValue(utterance) {
		switch v := e.router.Route(ctx, utterance, s); v.Kind {
		case VerdictStartFlow, VerdictRestartFlow:
			return e.startFlow(s, v.Flow)
		case VerdictContact:
			return e.startFlow(s, domain.FlowContact)
		case VerdictRetrieval:
			segs := e.answerPolicy(ctx, v.Query)
			return append(segs, prompt(def.Prompt))
		}
	}

	return []domain.Segment{{
		Kind: domain.SegmentError,
		Code: string(verr.Kind),
		Text: upperFirst(verr.Reason) + ".",
	}}
}

func (e *Engine) acceptSlot(ctx context.Context, s *domain.Session, val domain.SlotValue) []domain.Segment {
	seq := FlowSlots(s.Flow)
	s.Slots[seq[s.SlotIndex].Name] = val
	s.SlotIndex++

	if s.SlotIndex < len(seq) {
		return []domain.Segment{prompt(seq[s.SlotIndex].Prompt)}
	}
	return e.completeFlow(ctx, s)
}

func (e *Engine) startFlow(s *domain.Session, flow domain.FlowTag) []domain.Segment {
	// Clearing, not overwriting: values must never leak across flows.
	s.ClearSlots()
	s.Flow = flow
	s.State = domain.StateCollecting
	return []domain.Segment{prompt(FlowSlots(flow)[0].Prompt)}
}

// flowSwitch handles restart/trigger keywords that are honored from any
// non-idle state.
func (e *Engine) flowSwitch(s *domain.Session, utterance string) ([]domain.Segment, bool) {
	switch KeywordIntent(utterance) {
	case domain.IntentStartEMI:
		return e.startFlow(s, domain.FlowEMI), true
	case domain.IntentStartEligibility:
		return e.startFlow(s, domain.FlowEligibility), true
	case domain.IntentContact:
		return e.startFlow(s, domain.FlowContact), true
	case domain.IntentThanks:
		return []domain.Segment{prompt("You're welcome! If you need help with EMI, eligibility, or any home-loan policy, feel free to ask.")}, true
	}
	return nil, false
}

// --- flow completion ---

func (e *Engine) completeFlow(ctx context.Context, s *domain.Session) []domain.Segment {
	switch s.Flow {
	case domain.FlowEMI:
		return e.completeEMI(s)
	case domain.FlowEligibility, domain.FlowContact:
		return e.beginOTP(ctx, s)
	}
	return e.abortTurn(s, fmt.Errorf("completion reached with flow %q", s.Flow))
}

func (e *Engine) completeEMI(s *domain.Session) []domain.Segment {
	res, err := finance.ComputeEMI(
		s.Slots["principal"].Dec,
		s.Slots["rate"].Dec,
		int(s.Slots["tenure_months"].Int),
	)
	if err != nil {
		return e.abortTurn(s, &domain.CalculationDomainError{Calc: "emi", Err: err})
	}

	s.EMIResult = res
	s.State = domain.StateComplete
	s.Gate = domain.GatePostEMI

	summary := fmt.Sprintf(
		"*EMI Calculation Complete*\n"+
			"Monthly EMI: Rs %s\n"+
			"Total Interest: Rs %s\n"+
			"Total Payment: Rs %s",
		finance.FormatIndian(res.Monthly),
		finance.FormatIndian(res.TotalInterest),
		finance.FormatIndian(res.TotalPayment),
	)
	return []domain.Segment{
		{Kind: domain.SegmentResult, Text: summary, Payload: res},
		prompt("*Would you like to check your eligibility? (Yes/No)*"),
	}
}

func (e *Engine) beginOTP(ctx context.Context, s *domain.Session) []domain.Segment {
	email := s.Slots["email"].Str
	code := e.newCode()
	s.OTP = &domain.OTPState{Code: code, Email: email, Mode: s.Flow}
	s.State = domain.StateAwaitingOTP

	segs := []domain.Segment{}
	if e.notifier != nil {
		// Dispatch is bounded like any collaborator call; the turn never
		// waits out a dead SMTP host.
		sctx, cancel := context.WithTimeout(ctx, e.timeout)
		err := e.notifier.SendOTP(sctx, email, code)
		cancel()
		if err != nil {
			slog.Warn("otp dispatch failed", "error", err, "session", s.ID)
			segs = append(segs, domain.Segment{
				Kind: domain.SegmentWarning,
				Code: "otp_dispatch_failed",
				Text: "The verification email may be delayed. Enter the code once it arrives.",
			})
		}
	}
	return append(segs, prompt(fmt.Sprintf("An OTP has been sent to *%s*. Please enter the 6-digit code.", email)))
}

// --- awaiting otp ---

func (e *Engine) stepAwaitingOTP(ctx context.Context, s *domain.Session, utterance string) []domain.Segment {
	trimmed := strings.TrimSpace(utterance)

	if otpCodeRe.MatchString(trimmed) {
		if trimmed == s.OTP.Code {
			return e.otpVerified(s)
		}
		s.OTP.Attempts++
		if s.OTP.Attempts >= config.OTPMaxAttempts {
			// Retry budget exhausted: no financial result is emitted and the
			// whole flow must be recollected.
			s.ClearSlots()
			s.Flow = domain.FlowNone
			s.State = domain.StateIdle
			return []domain.Segment{{
				Kind: domain.SegmentError,
				Code: "otp_exhausted",
				Text: "That code didn't match three times, so verification has been cancelled for security. Say \"eligibility\" or \"contact\" whenever you'd like to start again.",
			}}
		}
		return []domain.Segment{{
			Kind: domain.SegmentError,
			Code: "otp_mismatch",
			Text: fmt.Sprintf("Incorrect OTP. Please try again (%d attempts left).", config.OTPMaxAttempts-s.OTP.Attempts),
		}}
	}

	if segs, ok := e.flowSwitch(s, utterance); ok {
		return segs
	}
	if IsQuestion(utterance) {
		segs := e.answerPolicy(ctx, utterance)
		return append(segs, prompt(fmt.Sprintf("Please enter the 6-digit OTP sent to *%s*.", s.OTP.Email)))
	}
	return []domain.Segment{prompt(fmt.Sprintf("Please enter the 6-digit OTP sent to *%s*.", s.OTP.Email))}
}

func (e *Engine) otpVerified(s *domain.Session) []domain.Segment {
	mode := s.OTP.Mode
	s.OTP = nil
	s.ContactVerified = true

	if mode == domain.FlowContact {
		s.Flow = domain.FlowNone
		s.State = domain.StateIdle
		return []domain.Segment{prompt("Verification successful! Our representative will contact you shortly.")}
	}
	return e.emitEligibility(s)
}

func (e *Engine) emitEligibility(s *domain.Session) []domain.Segment {
	res, err := finance.Evaluate(
		s.Slots["income"].Dec,
		s.Slots["expense"].Dec,
		s.Slots["employment_type"].Enum,
		s.Slots["dob"].Date,
		int(s.Slots["tenure_months"].Int),
		e.now(),
	)
	if err != nil {
		return e.abortTurn(s, &domain.CalculationDomainError{Calc: "eligibility", Err: err})
	}

	s.EligibilityResult = res
	s.State = domain.StateComplete
	s.Gate = domain.GateContactOffer

	var summary string
	if res.Eligible {
		summary = fmt.Sprintf(
			"*Eligibility Verified!*\nSoft sanction: up to *Rs %s*.\n%s",
			finance.FormatIndian(res.MaxPrincipal), upperFirst(res.Reason))
	} else {
		summary = fmt.Sprintf(
			"Eligibility verified, but we can't offer a sanction right now.\nReason: %s.",
			res.Reason)
	}
	return []domain.Segment{
		{Kind: domain.SegmentResult, Text: summary, Payload: res},
		prompt("*Would you like our representative to contact you? (Yes/No)*"),
	}
}

// --- post-completion gates ---

func (e *Engine) stepGate(ctx context.Context, s *domain.Session, utterance string) []domain.Segment {
	v := e.router.Route(ctx, utterance, s)

	switch v.Kind {
	case VerdictStartFlow, VerdictRestartFlow:
		return e.startFlow(s, v.Flow)
	case VerdictContact:
		return e.startFlow(s, domain.FlowContact)
	case VerdictThanks:
		s.Flow = domain.FlowNone
		s.State = domain.StateIdle
		s.Gate = domain.GateNone
		return []domain.Segment{prompt("You're welcome! If you need help with EMI, eligibility, or any home-loan policy, feel free to ask.")}
	case VerdictRetrieval:
		segs := e.answerPolicy(ctx, v.Query)
		return append(segs, prompt("*Please answer Yes or No.*"))
	}

	switch s.Gate {
	case domain.GatePostEMI:
		switch v.Kind {
		case VerdictAffirmative:
			return e.startFlow(s, domain.FlowEligibility)
		case VerdictNegative:
			s.Gate = domain.GateContactOffer
			return []domain.Segment{prompt("*Would you like our representative to contact you? (Yes/No)*")}
		}
	case domain.GateContactOffer:
		switch v.Kind {
		case VerdictAffirmative:
			if s.ContactVerified {
				s.Flow = domain.FlowNone
				s.State = domain.StateIdle
				s.Gate = domain.GateNone
				return []domain.Segment{prompt("Great — our representative will reach out to you shortly.")}
			}
			return e.startFlow(s, domain.FlowContact)
		case VerdictNegative:
			s.Flow = domain.FlowNone
			s.State = domain.StateIdle
			s.Gate = domain.GateNone
			return []domain.Segment{prompt("Alright. Anything else I can help you with?")}
		}
	}
	return []domain.Segment{prompt("*Please answer Yes or No.*")}
}

// --- retrieval ---

func (e *Engine) answerPolicy(ctx context.Context, query string) []domain.Segment {
	if e.retriever == nil {
		return []domain.Segment{{
			Kind: domain.SegmentError,
			Code: "retrieval_unavailable",
			Text: "I can't reach the policy knowledge base right now. Please try again in a moment.",
		}}
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	ans, err := e.retriever.Answer(cctx, query)
	if err != nil {
		slog.Warn("retrieval failed", "error", err)
		return []domain.Segment{{
			Kind: domain.SegmentError,
			Code: "retrieval_unavailable",
			Text: "I can't reach the policy knowledge base right now. Please try again in a moment.",
		}}
	}
	return []domain.Segment{{
		Kind:    domain.SegmentAnswer,
		Text:    ans.Text,
		Payload: ans.Sources,
	}}
}

// abortTurn handles internal-invariant violations: log loudly, apologize,
// and drop back to idle rather than ever emitting a malformed result.
func (e *Engine) abortTurn(s *domain.Session, err error) []domain.Segment {
	slog.Error("turn aborted on internal invariant violation", "error", err, "session", s.ID, "flow", s.Flow)
	s.ClearSlots()
	s.Flow = domain.FlowNone
	s.State = domain.StateIdle
	return []domain.Segment{{
		Kind: domain.SegmentError,
		Code: "internal_error",
		Text: "I'm sorry, something went wrong on our side. Let's start over — how can I help?",
	}}
}

func prompt(text string) domain.Segment {
	return domain.Segment{Kind: domain.SegmentPrompt, Text: text}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
