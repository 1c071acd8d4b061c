package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	app "crack-inspector/internal/application"
	"crack-inspector/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для поиска трещин на снимках конструкций.

📸 Отправьте мне снимок бетона, асфальта или кладки, и я найду и измерю трещины.

📋 Команды:
/check — начать проверку снимка
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте /check, затем снимок
2️⃣ Бот нарежет снимок на окна и прогонит их через модель
3️⃣ Вы получите список трещин с размерами и снимок с подсветкой

💡 Рекомендации:
• Отправляйте снимок файлом, чтобы сохранить разрешение
• Снимайте перпендикулярно поверхности
• Размеры указываются в пикселях

📋 Команды:
/check — начать проверку
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте снимок для проверки на трещины."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте /check и затем снимок."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Ищу трещины..."
	msgBusy            = "⏳ Предыдущий снимок ещё обрабатывается."
	msgNoCracks        = "✅ Трещины не обнаружены."
	msgProcessingError = "⚠️ Не удалось обработать снимок. Попробуйте другой."

	// maxListed сколько трещин перечислять в ответе
	maxListed = 10
)

// Bot представляет Telegram-бота
type Bot struct {
	api        *tgbotapi.BotAPI
	sessions   *app.SessionService
	inspection *app.InspectionService
	log        zerolog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, sessions *app.SessionService, inspection *app.InspectionService, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log = log.With().Str("component", "telegram").Logger()
	log.Info().Str("account", api.Self.UserName).Msg("authorized")

	return &Bot{
		api:        api,
		sessions:   sessions,
		inspection: inspection,
		log:        log,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	session, err := b.sessions.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error().Err(err).Int64("user", msg.From.ID).Msg("failed to get session")
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	fileID, name, ok := imageFile(msg)
	if !ok {
		b.sendMessage(msg.Chat.ID, msgSendPhoto)
		return
	}

	switch session.State {
	case entity.StateProcessing:
		b.sendMessage(msg.Chat.ID, msgBusy)
	case entity.StateAwaitingPhoto:
		b.handlePhoto(ctx, msg, fileID, name)
	default:
		b.sendMessage(msg.Chat.ID, msgSendPhoto)
	}
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.setState(b.sessions.Cancel(ctx, userID, chatID))
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		b.setState(b.sessions.BeginCheck(ctx, userID, chatID))
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "cancel":
		b.setState(b.sessions.Cancel(ctx, userID, chatID))
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handlePhoto прогоняет снимок через конвейер и отвечает результатом
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, fileID, name string) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	b.setState(b.sessions.StartProcessing(ctx, userID, chatID))
	defer func() {
		b.setState(b.sessions.FinishRun(ctx, userID, chatID))
	}()

	b.sendMessage(chatID, msgProcessing)

	imageData, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.log.Error().Err(err).Msg("failed to download photo")
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	start := time.Now()
	out, err := b.inspection.InspectPhoto(ctx, name, imageData)
	if err != nil {
		b.log.Error().Err(err).Str("image", name).Msg("failed to inspect photo")
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	b.log.Info().
		Int64("user", userID).
		Str("image", name).
		Int("cracks", len(out.Result.Measurements)).
		Dur("elapsed", time.Since(start)).
		Msg("photo inspected")

	text := formatResult(out.Result)
	if len(out.Highlighted) == 0 {
		b.sendMessage(chatID, text)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "cracks.jpg", Bytes: out.Highlighted})
	photo.Caption = captionLimit(text)
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error().Err(err).Msg("failed to send photo")
		b.sendMessage(chatID, text)
	}
}

// imageFile возвращает файл снимка: фото наибольшего размера или документ-картинку
func imageFile(msg *tgbotapi.Message) (fileID, name string, ok bool) {
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		return photo.FileID, photo.FileUniqueID + ".jpg", true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, msg.Document.FileName, true
	}
	return "", "", false
}

// formatResult собирает текст ответа по результату проверки
func formatResult(result *entity.ImageResult) string {
	if !result.HasCracks() {
		return msgNoCracks
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 Найдено трещин: %d (снимок %dx%d, окон: %d)\n", len(result.Measurements), result.Width, result.Height, result.Tiles)

	for i, m := range result.Measurements {
		if i == maxListed {
			fmt.Fprintf(&sb, "… и ещё %d\n", len(result.Measurements)-maxListed)
			break
		}
		fmt.Fprintf(&sb, "%d. %s: ширина %.2f, длина %.2f px\n", i+1, m.Box, m.Width, m.Length)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// captionLimit обрезает подпись до лимита Telegram
func captionLimit(text string) string {
	const limit = 1024
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

func (b *Bot) setState(_ *entity.Session, err error) {
	if err != nil {
		b.log.Error().Err(err).Msg("failed to update session")
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("download file: " + resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Msg("failed to send message")
	}
}
