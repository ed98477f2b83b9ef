// internal/telegram/updates.go
package telegram

import (
	"context"
	"time"

	"crypto-signal-alert-bot/pkg/logger"
)

// Update - обновление от Telegram API
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message - входящее сообщение
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
	Date      int64  `json:"date"`
}

// User - отправитель сообщения
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Chat - чат, из которого пришло сообщение
type Chat struct {
	ID int64 `json:"id"`
}

// CallbackQuery - нажатие inline кнопки
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// UpdateHandler обрабатывает одно обновление
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update Update)
}

// Poller опрашивает Telegram API и передает обновления обработчику
type Poller struct {
	bot          *Bot
	handler      UpdateHandler
	pollTimeout  int
	lastUpdateID int64
}

// NewPoller создает polling цикл обновлений
func NewPoller(bot *Bot, handler UpdateHandler, pollTimeout time.Duration) *Poller {
	timeout := int(pollTimeout / time.Second)
	if timeout <= 0 {
		timeout = 30
	}
	return &Poller{
		bot:         bot,
		handler:     handler,
		pollTimeout: timeout,
	}
}

// Run запускает long polling до отмены контекста
func (p *Poller) Run(ctx context.Context) {
	logger.Info("🔄 Запуск polling обновлений Telegram...")

	if err := p.bot.DeleteWebhook(ctx); err != nil {
		logger.Warn("⚠️ Не удалось удалить webhook: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("🛑 Polling остановлен")
			return
		default:
		}

		updates, err := p.bot.GetUpdates(ctx, p.lastUpdateID, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("🛑 Polling остановлен")
				return
			}
			logger.Error("❌ Ошибка получения обновлений: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= p.lastUpdateID {
				p.lastUpdateID = update.UpdateID + 1
			}
			if p.isOldUpdate(update) {
				logger.Debug("⏰ Пропуск старого обновления ID %d", update.UpdateID)
				continue
			}
			p.handler.HandleUpdate(ctx, update)
		}
	}
}

// isOldUpdate отбрасывает сообщения, накопившиеся за время простоя бота
func (p *Poller) isOldUpdate(update Update) bool {
	var messageDate int64
	switch {
	case update.Message != nil && update.Message.Date > 0:
		messageDate = update.Message.Date
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Date > 0:
		messageDate = update.CallbackQuery.Message.Date
	default:
		return false
	}

	return time.Since(time.Unix(messageDate, 0)) > 5*time.Minute
}
