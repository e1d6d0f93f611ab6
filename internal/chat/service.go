package chat

import (
	"context"
	"strings"

	"github.com/ziadkadry99/docchat/internal/conversation"
	"github.com/ziadkadry99/docchat/internal/errs"
)

// Service answers questions within a conversation session. Calls for the
// same session are serialised, so each answer sees every earlier turn.
type Service struct {
	orchestrator *Orchestrator
	history      conversation.Store
	locks        *conversation.Locker
}

// NewService creates a Service.
func NewService(o *Orchestrator, history conversation.Store) *Service {
	return &Service{
		orchestrator: o,
		history:      history,
		locks:        conversation.NewLocker(),
	}
}

// Ask answers a question in the given session and appends the exchange to
// its history. Nothing is appended when answering fails.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errs.ErrEmptyQuestion
	}
	sessionID = conversation.SessionOrDefault(sessionID)

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	history, err := s.history.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answer, err := s.orchestrator.Answer(ctx, question, history)
	if err != nil {
		return nil, err
	}

	if err := s.history.Append(ctx, sessionID, conversation.Turn{Question: question, Answer: answer.Text}); err != nil {
		return nil, err
	}
	return answer, nil
}

// Clear drops a session's history.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	sessionID = conversation.SessionOrDefault(sessionID)
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	return s.history.Clear(ctx, sessionID)
}

// History returns a copy of a session's turns.
func (s *Service) History(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	return s.history.Snapshot(ctx, conversation.SessionOrDefault(sessionID))
}

// Sessions reports how many sessions have history.
func (s *Service) Sessions(ctx context.Context) (int, error) {
	return s.history.Sessions(ctx)
}
