package domain

import (
	"time"
)

// FlowTag names the flow a session is working through.
type FlowTag string

const (
	FlowNone        FlowTag = "none"
	FlowEMI         FlowTag = "emi"
	FlowEligibility FlowTag = "eligibility"
	FlowContact     FlowTag = "contact"
)

// StateTag names the controller state. ContactCollection is represented as
// StateCollecting with Flow == FlowContact.
type StateTag string

const (
	StateIdle        StateTag = "idle"
	StateCollecting  StateTag = "collecting"
	StateComplete    StateTag = "flow_complete"
	StateAwaitingOTP StateTag = "awaiting_otp"
)

// GateTag names the yes/no question a completed flow is waiting on.
type GateTag string

const (
	GateNone         GateTag = ""
	GatePostEMI      GateTag = "post_emi"      // offer the eligibility flow
	GateContactOffer GateTag = "contact_offer" // offer a representative call-back
)

// Turn is one utterance in the append-only conversation log.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// OTPState tracks a pending one-time-code verification.
type OTPState struct {
	Code     string
	Email    string
	Attempts int
	// Mode records which flow the verification gates: FlowEligibility holds
	// back a financial result, FlowContact only confirms contact details.
	Mode FlowTag
}

// Session is the mutable per-conversation record the flow controller reads
// and writes every turn. One session is never mutated by two turns at once;
// the store serializes turns per session id.
type Session struct {
	ID        string
	Flow      FlowTag
	State     StateTag
	SlotIndex int
	Slots     map[string]SlotValue
	Turns     []Turn
	OTP       *OTPState
	Gate      GateTag

	EMIResult         *EMIResult
	EligibilityResult *EligibilityResult

	// ContactVerified is set once the collected contact details pass OTP
	// verification.
	ContactVerified bool

	// ContactHandedOff is set once the extracted contact record has been
	// passed to the persistence collaborator; the record is not re-sent.
	ContactHandedOff bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession returns an idle session with an empty slot map.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Flow:      FlowNone,
		State:     StateIdle,
		Slots:     map[string]SlotValue{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the mutable flow state so a turn can be
// staged and only committed when it fully resolves.
func (s *Session) Clone() *Session {
	c := *s
	c.Slots = make(map[string]SlotValue, len(s.Slots))
	for k, v := range s.Slots {
		c.Slots[k] = v
	}
	c.Turns = append([]Turn(nil), s.Turns...)
	if s.OTP != nil {
		otp := *s.OTP
		c.OTP = &otp
	}
	return &c
}

// ClearSlots replaces the slot map with a fresh one. Restarts must clear,
// not overwrite, so values never leak between flows.
func (s *Session) ClearSlots() {
	s.Slots = map[string]SlotValue{}
	s.SlotIndex = 0
	s.OTP = nil
	s.Gate = GateNone
	s.EMIResult = nil
	s.EligibilityResult = nil
}

// AppendTurn records one utterance in the session log.
func (s *Session) AppendTurn(role, text string) {
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, At: time.Now()})
	s.UpdatedAt = time.Now()
}
