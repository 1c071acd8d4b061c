package entity

// SessionState состояние диалога в чате
type SessionState string

const (
	StateMainMenu      SessionState = "main_menu"      // В главном меню
	StateAwaitingPhoto SessionState = "awaiting_photo" // Ожидание снимка конструкции
	StateProcessing    SessionState = "processing"     // Идёт поиск трещин
)

// Session представляет пользователя бота и его текущий шаг
type Session struct {
	UserID int64        // Telegram User ID
	ChatID int64        // Telegram Chat ID
	State  SessionState // Текущее состояние
	Runs   int          // Сколько снимков проверено
}

// NewSession создаёт сессию в главном меню
func NewSession(userID, chatID int64) *Session {
	return &Session{
		UserID: userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние сессии
func (s *Session) SetState(state SessionState) {
	s.State = state
}
