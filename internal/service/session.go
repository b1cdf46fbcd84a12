package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nivaan/loanpilot/internal/domain"
	"github.com/nivaan/loanpilot/internal/engine"
)

// SessionService owns the live session store and drives the engine one turn
// at a time. Turns on the same session are serialized; the conversation log
// and any verified contact record are handed to the warehouse after each
// committed turn, off the hot path.
type SessionService struct {
	engine    *engine.Engine
	warehouse domain.Warehouse

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu   sync.Mutex
	sess *domain.Session
}

func NewSessionService(eng *engine.Engine, wh domain.Warehouse) *SessionService {
	return &SessionService{
		engine:    eng,
		warehouse: wh,
		sessions:  make(map[string]*sessionEntry),
	}
}

// HandleTurn resolves one utterance for the given session, creating the
// session when the id is empty or unknown. It returns the session id along
// with the reply segments so callers can continue the conversation.
func (s *SessionService) HandleTurn(ctx context.Context, sessionID, utterance string) (string, []domain.Segment) {
	entry := s.entry(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	segments := s.engine.ProcessTurn(ctx, entry.sess, utterance)
	s.persist(entry.sess)
	return entry.sess.ID, segments
}

// Reset discards all flow state for the session but keeps its identity and
// conversation log.
func (s *SessionService) Reset(sessionID string) {
	entry := s.entry(sessionID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.sess.ClearSlots()
	entry.sess.Flow = domain.FlowNone
	entry.sess.State = domain.StateIdle
}

func (s *SessionService) entry(sessionID string) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	e, ok := s.sessions[sessionID]
	if !ok {
		e = &sessionEntry{sess: domain.NewSession(sessionID)}
		s.sessions[sessionID] = e
	}
	return e
}

// persist hands the committed turn to the warehouse. Failures are logged and
// swallowed; persistence never blocks or fails a conversation.
func (s *SessionService) persist(sess *domain.Session) {
	if s.warehouse == nil {
		return
	}

	sessionID := sess.ID
	turns := append([]domain.Turn(nil), sess.Turns...)

	var rec *domain.ExtractedFields
	if sess.ContactVerified && !sess.ContactHandedOff {
		rec = extractedFields(sess)
		sess.ContactHandedOff = true
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.warehouse.UpsertConversation(ctx, sessionID, turns); err != nil {
			slog.Warn("conversation upsert failed", "session", sessionID, "error", err)
		}
		if rec != nil {
			if err := s.warehouse.UpsertExtractedFields(ctx, *rec); err != nil {
				slog.Warn("extracted-fields upsert failed", "session", sessionID, "error", err)
			}
		}
	}()
}

func extractedFields(sess *domain.Session) *domain.ExtractedFields {
	rec := &domain.ExtractedFields{
		SessionID: sess.ID,
		Contact: domain.ContactRecord{
			Name:  sess.Slots["name"].Str,
			Phone: sess.Slots["phone"].Str,
			Email: sess.Slots["email"].Str,
		},
		Fields: make(map[string]string, len(sess.Slots)),
	}
	for name, val := range sess.Slots {
		rec.Fields[name] = val.Display()
	}
	return rec
}
