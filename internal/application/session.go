package app

import (
	"context"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

type SessionService struct {
	repo port.SessionRepository
}

func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

func (s *SessionService) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *SessionService) SetState(ctx context.Context, userID, chatID int64, state entity.SessionState) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	session.SetState(state)
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *SessionService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *SessionService) StartProcessing(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateProcessing)
}

// FinishRun засчитывает проверку и возвращает пользователя в главное меню.
func (s *SessionService) FinishRun(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	session.Runs++
	session.SetState(entity.StateMainMenu)
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *SessionService) Cancel(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
