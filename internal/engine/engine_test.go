package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivaan/loanpilot/internal/domain"
	"github.com/nivaan/loanpilot/internal/engine"
)

type stubRetriever struct {
	answer domain.RetrievalAnswer
	err    error
}

func (s *stubRetriever) Answer(ctx context.Context, query string) (domain.RetrievalAnswer, error) {
	return s.answer, s.err
}

type stubNotifier struct {
	email string
	code  string
	err   error
}

func (s *stubNotifier) SendOTP(ctx context.Context, email, code string) error {
	if s.err != nil {
		return s.err
	}
	s.email = email
	s.code = code
	return nil
}

func fixedNow() time.Time {
	return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestEngine(retriever domain.Retriever, notifier domain.Notifier) *engine.Engine {
	return engine.New(engine.Deps{
		Retriever: retriever,
		Notifier:  notifier,
		CodeGen:   func() string { return "123456" },
		Now:       fixedNow,
	})
}

func drive(t *testing.T, e *engine.Engine, sess *domain.Session, inputs ...string) []domain.Segment {
	t.Helper()
	var segs []domain.Segment
	for _, in := range inputs {
		segs = e.ProcessTurn(context.Background(), sess, in)
		require.NotEmpty(t, segs, "input %q produced no reply", in)
	}
	return segs
}

func TestEMIFlowHappyPath(t *testing.T) {
	e := newTestEngine(nil, nil)
	sess := domain.NewSession("t1")

	segs := drive(t, e, sess, "I want to calculate my EMI")
	assert.Equal(t, domain.StateCollecting, sess.State)
	assert.Equal(t, domain.FlowEMI, sess.Flow)
	assert.Contains(t, segs[0].Text, "Principal")

	drive(t, e, sess, "20 lakhs")
	assert.Equal(t, 1, sess.SlotIndex)

	drive(t, e, sess, "20 years")
	segs = drive(t, e, sess, "8.5")

	require.Len(t, segs, 2)
	assert.Equal(t, domain.SegmentResult, segs[0].Kind)
	assert.Equal(t, domain.SegmentPrompt, segs[1].Kind)

	require.NotNil(t, sess.EMIResult)
	assert.Equal(t, 240, sess.EMIResult.TenureMonths)
	assert.InDelta(t, 17356.48, sess.EMIResult.Monthly.InexactFloat64(), 1.0)
	assert.Equal(t, domain.StateComplete, sess.State)
	assert.Equal(t, domain.GatePostEMI, sess.Gate)
}

func TestInvalidTenureKeepsStateAndNamesBounds(t *testing.T) {
	e := newTestEngine(nil, nil)
	sess := domain.NewSession("t1")

	drive(t, e, sess, "calculate emi", "20 lakhs")
	segs := drive(t, e, sess, "forever")

	require.Len(t, segs, 1)
	assert.Equal(t, domain.SegmentError, segs[0].Kind)
	assert.Equal(t, string(domain.ValidationNotANumber), segs[0].Code)
	assert.Contains(t, segs[0].Text, "between 12 and 360 months")

	assert.Equal(t, domain.StateCollecting, sess.State)
	assert.Equal(t, 1, sess.SlotIndex)
	assert.Contains(t, sess.Slots, "principal")
}

func TestOutOfRangeTenureRejected(t *testing.T) {
	e := newTestEngine(nil, nil)
	sess := domain.NewSession("t1")

	drive(t, e, sess, "calculate emi", "20 lakhs")
	segs := drive(t, e, sess, "50 years")

	assert.Equal(t, domain.SegmentError, segs[0].Kind)
	assert.Equal(t, string(domain.ValidationOutOfRange), segs[0].Code)
	assert.Equal(t, 1, sess.SlotIndex)
}

func TestFlowSwitchClearsCollectedSlots(t *testing.T) {
	e := newTestEngine(nil, nil)
	sess := domain.NewSession("t1")

	drive(t, e, sess, "check my eligibility", "100000")
	require.Contains(t, sess.Slots, "income")

	segs := drive(t, e, sess, "actually let's calculate the emi instead")
	assert.Equal(t, domain.FlowEMI, sess.Flow)
	assert.Equal(t, domain.StateCollecting, sess.State)
	assert.Empty(t, sess.Slots)
	assert.Zero(t, sess.SlotIndex)
	assert.Contains(t, segs[0].Text, "Principal")
}

func TestRestartSameFlowClearsSlots(t *testing.T) {
	e := newTestEngine(nil, nil)
	sess := domain.NewSession("t1")

	drive(t, e, sess, "calculate emi", "20 lakhs")
	drive(t, e, sess, "restart the emi calculation please")

	assert.Equal(t, domain.FlowEMI, sess.Flow)
	assert.Empty(t, sess.Slots)
	assert.Zero(t, sess.SlotIndex)
}

func eligibilityInputs() []string {
	return []string{
		"check my eligibility",
		"100000",
		"20000",
		"salaried",
		"1990-06-15",
		"20 years",
		"110001",
		"fresh loan",
		"Rohan Sharma",
		"9876543210",
		"rohan.sharma@example.com",
	}
}

func TestEligibilityFlowWithOTPVerification(t *testing.T) {
	notifier := &stubNotifier{}
	e := newTestEngine(nil, notifier)
	sess := domain.NewSession("t1")

	segs := drive(t, e, sess, eligibilityInputs()...)

	assert.Equal(t, domain.StateAwaitingOTP, sess.State)
	assert.Equal(t, "rohan.sharma@example.com", notifier.email)
	assert.Equal(t, "123456", notifier.code)
	assert.Contains(t, segs[len(segs)-1].Text, "OTP")

	// One wrong attempt does not cancel verification.
	segs = drive(t, e, sess, "111111")
	assert.Equal(t, domain.SegmentError, segs[0].Kind)
	assert.Equal(t, "otp_mismatch", segs[0].Code)
	assert.Equal(t, domain.StateAwaitingOTP, sess.State)

	segs = drive(t, e, sess, "123456")
	require.Len(t, segs, 2)
	assert.Equal(t, domain.SegmentResult, segs[0].Kind)

	require.NotNil(t, sess.EligibilityResult)
	assert.True(t, sess.EligibilityResult.Eligible)
	assert.True(t, sess.ContactVerified)
	assert.Equal(t, domain.StateComplete, sess.State)
	assert.Equal(t, domain.GateContactOffer, sess.Gate)
}

func TestOTPExhaustionDropsResultAndResets(t *testing.T) {
	e := newTestEngine(nil, &stubNotifier{})
	sess := domain.NewSession("t1")

	drive(t, e, sess, eligibilityInputs()...)
	drive(t, e, sess, "000000", "000001")
	segs := drive(t, e, sess, "000002")

	require.Len(t, segs, 1)
	assert.Equal(t, "otp_exhausted", segs[0].Code)

	// No financial result may survive a failed verification.
	assert.Nil(t, sess.EligibilityResult)
	assert.Equal(t, domain.StateIdle, sess.State)
	assert.Equal(t, domain.FlowNone, sess.Flow)
	assert.Empty(t, sess.Slots)
	assert.False(t, sess.ContactVerified)
}

func TestOTPDispatchFailureStillAwaitsCode(t *testing.T) {
	e := newTestEngine(nil, &stubNotifier{err: errors.New("smtp down")})
	sess := domain.NewSession("t1")

	segs := drive(t, e, sess, eligibilityInputs()...)

	assert.Equal(t, domain.StateAwaitingOTP, sess.State)
	require.Len(t, segs, 2)
	assert.Equal(t, domain.SegmentWarning, segs[0].Kind)
	assert.Equal(t, "otp_dispatch_failed", segs[0].Code)

	segs = drive(t, e, sess, "123456")
	assert.Equal(t, domain.SegmentResult, segs[0].Kind)
}

func TestRestartFromAwaitingOTP(t *testing.T) {
	e := newTestEngine(nil, &stubNotifier{})
	sess := domain.NewSession("t1")

	drive(t, e, sess, eligibilityInputs()...)
	require.Equal(t, domain.StateAwaitingOTP, sess.State)

	drive(t, e, sess, "forget it, calculate my emi")
	assert.Equal(t, domain.FlowEMI, sess.Flow)
	assert.Equal(t, domain.StateCollecting, sess.State)
	assert.Empty(t, sess.Slots)
	assert.Nil(t, sess.OTP)
}

func TestPostEMIGateLeadsIntoEligibility(t *testing.T) {
	e := newTestEngine(nil, nil)
	sess := domain.NewSession("t1")

	drive(t, e, sess, "calculate emi", "20 lakhs", "20 years", "8.5")
	segs := drive(t, e, sess, "yes")

	assert.Equal(t, domain.FlowEligibility, sess.Flow)
	assert.Equal(t, domain.StateCollecting, sess.State)
	assert.Contains(t, segs[0].Text, "Monthly Income")
	assert.Nil(t, sess.EMIResult)
}

func TestGateDeclinesFallThroughToIdle(t *testing.T) {
	e := newTestEngine(nil, nil)
	sess := domain.NewSession("t1")

	drive(t, e, sess, "calculate emi", "20 lakhs", "20 years", "8.5")

	segs := drive(t, e, sess, "no")
	assert.Equal(t, domain.GateContactOffer, sess.Gate)
	assert.Contains(t, segs[0].Text, "representative")

	drive(t, e, sess, "no")
	assert.Equal(t, domain.StateIdle, sess.State)
	assert.Equal(t, domain.FlowNone, sess.Flow)
}

func TestPolicyQuestionMidFlowAnswersAndReprompts(t *testing.T) {
	retriever := &stubRetriever{answer: domain.RetrievalAnswer{
		Text:    "The processing fee is 0.5% of the sanctioned amount.",
		Sources: []string{"fees.md"},
	}}
	e := newTestEngine(retriever, nil)
	sess := domain.NewSession("t1")

	drive(t, e, sess, "calculate emi")
	segs := drive(t, e, sess, "what is the processing fee?")

	require.Len(t, segs, 2)
	assert.Equal(t, domain.SegmentAnswer, segs[0].Kind)
	assert.Contains(t, segs[0].Text, "processing fee")
	assert.Equal(t, domain.SegmentPrompt, segs[1].Kind)
	assert.Contains(t, segs[1].Text, "Principal")

	assert.Equal(t, domain.StateCollecting, sess.State)
	assert.Zero(t, sess.SlotIndex)
}

func TestRetrievalUnavailableDegradesGracefully(t *testing.T) {
	e := newTestEngine(&stubRetriever{err: errors.New("index offline")}, nil)
	sess := domain.NewSession("t1")

	segs := drive(t, e, sess, "what documents do I need?")
	assert.Equal(t, domain.SegmentError, segs[0].Kind)
	assert.Equal(t, "retrieval_unavailable", segs[0].Code)
	assert.Equal(t, domain.StateIdle, sess.State)
}

func TestIdleSmallTalk(t *testing.T) {
	e := newTestEngine(nil, nil)
	sess := domain.NewSession("t1")

	segs := drive(t, e, sess, "hello")
	assert.Contains(t, segs[0].Text, "Home Loan")

	segs = drive(t, e, sess, "thanks")
	assert.Contains(t, segs[0].Text, "welcome")

	segs = drive(t, e, sess, "blue is my favorite color")
	assert.Contains(t, segs[0].Text, "didn't quite get that")
}

func TestTurnsAreLoggedForEveryExchange(t *testing.T) {
	e := newTestEngine(nil, nil)
	sess := domain.NewSession("t1")

	drive(t, e, sess, "hello")
	require.Len(t, sess.Turns, 2)
	assert.Equal(t, "user", sess.Turns[0].Role)
	assert.Equal(t, "assistant", sess.Turns[1].Role)
}

func TestContactFlowVerifiesWithoutFinancialResult(t *testing.T) {
	notifier := &stubNotifier{}
	e := newTestEngine(nil, notifier)
	sess := domain.NewSession("t1")

	drive(t, e, sess, "please contact me", "Neha Sharma", "9876543210", "neha@example.com")
	require.Equal(t, domain.StateAwaitingOTP, sess.State)
	assert.Equal(t, "neha@example.com", notifier.email)

	segs := drive(t, e, sess, "123456")
	assert.Contains(t, segs[0].Text, "representative")
	assert.Equal(t, domain.StateIdle, sess.State)
	assert.True(t, sess.ContactVerified)
	assert.Nil(t, sess.EligibilityResult)
	assert.Nil(t, sess.EMIResult)
}
