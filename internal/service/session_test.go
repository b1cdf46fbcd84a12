package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nivaan/loanpilot/internal/domain"
	"github.com/nivaan/loanpilot/internal/engine"
	"github.com/nivaan/loanpilot/internal/service"
)

type fakeWarehouse struct {
	mu         sync.Mutex
	convCalls  int
	lastTurns  []domain.Turn
	fieldCalls []domain.ExtractedFields
	convDone   chan struct{}
}

func newFakeWarehouse() *fakeWarehouse {
	return &fakeWarehouse{convDone: make(chan struct{}, 64)}
}

func (f *fakeWarehouse) UpsertConversation(ctx context.Context, sessionID string, turns []domain.Turn) error {
	f.mu.Lock()
	f.convCalls++
	f.lastTurns = turns
	f.mu.Unlock()
	f.convDone <- struct{}{}
	return nil
}

func (f *fakeWarehouse) UpsertExtractedFields(ctx context.Context, rec domain.ExtractedFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fieldCalls = append(f.fieldCalls, rec)
	return nil
}

func (f *fakeWarehouse) waitConv(t *testing.T) {
	t.Helper()
	select {
	case <-f.convDone:
	case <-time.After(2 * time.Second):
		t.Fatal("conversation upsert never happened")
	}
}

func newService(wh domain.Warehouse) *service.SessionService {
	eng := engine.New(engine.Deps{
		CodeGen: func() string { return "123456" },
		Now:     func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	return service.NewSessionService(eng, wh)
}

func turn(t *testing.T, s *service.SessionService, wh *fakeWarehouse, id, text string) string {
	t.Helper()
	gotID, segs := s.HandleTurn(context.Background(), id, text)
	require.NotEmpty(t, segs)
	wh.waitConv(t)
	return gotID
}

func contactInputs() []string {
	return []string{
		"please contact me",
		"Neha Sharma",
		"9876543210",
		"neha@example.com",
	}
}

func TestHandleTurnAssignsSessionID(t *testing.T) {
	wh := newFakeWarehouse()
	s := newService(wh)

	id := turn(t, s, wh, "", "hello")
	require.NotEmpty(t, id)

	// The same id continues the same session.
	turn(t, s, wh, id, "calculate emi")
	turn(t, s, wh, id, "20 lakhs")

	wh.mu.Lock()
	defer wh.mu.Unlock()
	assert.Equal(t, 3, wh.convCalls)
	assert.Len(t, wh.lastTurns, 6)
}

func TestVerifiedContactIsHandedOffExactlyOnce(t *testing.T) {
	wh := newFakeWarehouse()
	s := newService(wh)

	id := ""
	for _, in := range contactInputs() {
		id = turn(t, s, wh, id, in)
	}
	turn(t, s, wh, id, "123456")

	wh.mu.Lock()
	require.Len(t, wh.fieldCalls, 1)
	rec := wh.fieldCalls[0]
	wh.mu.Unlock()

	assert.Equal(t, id, rec.SessionID)
	assert.Equal(t, "Neha Sharma", rec.Contact.Name)
	assert.Equal(t, "9876543210", rec.Contact.Phone)
	assert.Equal(t, "neha@example.com", rec.Contact.Email)

	// Later turns must not re-send the record.
	turn(t, s, wh, id, "thanks")
	wh.mu.Lock()
	assert.Len(t, wh.fieldCalls, 1)
	wh.mu.Unlock()
}

func TestExhaustedOTPNeverHandsOffContact(t *testing.T) {
	wh := newFakeWarehouse()
	s := newService(wh)

	id := ""
	for _, in := range contactInputs() {
		id = turn(t, s, wh, id, in)
	}
	for _, code := range []string{"000000", "000001", "000002"} {
		turn(t, s, wh, id, code)
	}

	wh.mu.Lock()
	defer wh.mu.Unlock()
	assert.Empty(t, wh.fieldCalls)
}

func TestResetClearsFlowState(t *testing.T) {
	wh := newFakeWarehouse()
	s := newService(wh)

	id := turn(t, s, wh, "", "calculate emi")
	turn(t, s, wh, id, "20 lakhs")

	s.Reset(id)

	// After a reset the next value is not swallowed by the old flow.
	_, segs := s.HandleTurn(context.Background(), id, "20 years")
	wh.waitConv(t)
	require.NotEmpty(t, segs)
	assert.NotEqual(t, domain.SegmentResult, segs[0].Kind)
}
