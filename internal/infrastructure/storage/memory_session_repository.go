package storage

import (
	"context"
	"sync"

	"crack-inspector/internal/domain/entity"
	"crack-inspector/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий чата
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]*entity.Session
}

// NewMemorySessionRepository создаёт новое in-memory хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[int64]*entity.Session),
	}
}

// Get возвращает сессию по ID пользователя, создаёт новую если не найдена
func (r *MemorySessionRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, exists := r.sessions[userID]; exists {
		return session, nil
	}

	session := entity.NewSession(userID, chatID)
	r.sessions[userID] = session

	return session, nil
}

// Save сохраняет сессию
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	r.sessions[session.UserID] = session
	r.mu.Unlock()

	return nil
}

// UpdateState обновляет состояние сессии
func (r *MemorySessionRepository) UpdateState(ctx context.Context, userID int64, state entity.SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, exists := r.sessions[userID]; exists {
		session.SetState(state)
	}

	return nil
}

// Count возвращает число известных сессий
func (r *MemorySessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
