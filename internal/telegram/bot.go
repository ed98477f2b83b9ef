// internal/telegram/bot.go
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"crypto-signal-alert-bot/pkg/logger"
)

// Bot - клиент Telegram Bot API поверх обычного HTTP.
// Отвечает только за транспорт: отправка сообщений, получение обновлений,
// ограничение частоты и повтор при 429.
type Bot struct {
	httpClient   *http.Client
	baseURL      string
	rateLimiter  *RateLimiter
	mu           sync.Mutex
	lastSendTime time.Time
	minInterval  time.Duration
}

// RateLimiter - ограничитель частоты запросов по ключу
type RateLimiter struct {
	mu       sync.Mutex
	lastSent map[string]time.Time
	minDelay time.Duration
}

// InlineKeyboardButton - кнопка inline клавиатуры
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

// InlineKeyboardMarkup - разметка inline клавиатуры
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type outgoingMessage struct {
	ChatID      int64       `json:"chat_id"`
	Text        string      `json:"text"`
	ParseMode   string      `json:"parse_mode,omitempty"`
	ReplyMarkup interface{} `json:"reply_markup,omitempty"`
}

// NewRateLimiter создает новый ограничитель частоты
func NewRateLimiter(minDelay time.Duration) *RateLimiter {
	return &RateLimiter{
		lastSent: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// CanSend проверяет, можно ли отправить сообщение по данному ключу
func (rl *RateLimiter) CanSend(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if last, exists := rl.lastSent[key]; exists {
		if now.Sub(last) < rl.minDelay {
			return false
		}
	}
	rl.lastSent[key] = now
	return true
}

// NewBot создает клиент Telegram API
func NewBot(token string) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token не указан")
	}

	return &Bot{
		httpClient:  &http.Client{Timeout: 35 * time.Second},
		baseURL:     fmt.Sprintf("https://api.telegram.org/bot%s/", token),
		rateLimiter: NewRateLimiter(time.Second),
		minInterval: 50 * time.Millisecond,
	}, nil
}

// SendMessageTo отправляет текст в указанный чат
func (b *Bot) SendMessageTo(ctx context.Context, chatID int64, text string) error {
	return b.SendMessageWithKeyboard(ctx, chatID, text, nil)
}

// SendMessageWithKeyboard отправляет сообщение с inline клавиатурой
func (b *Bot) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error {
	// Минимальный интервал между любыми отправками, иначе Telegram
	// начинает отвечать 429 при массовой рассылке
	b.mu.Lock()
	if wait := b.minInterval - time.Since(b.lastSendTime); wait > 0 {
		time.Sleep(wait)
	}
	b.lastSendTime = time.Now()
	b.mu.Unlock()

	message := outgoingMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	}
	if keyboard != nil {
		message.ReplyMarkup = keyboard
	}

	return b.sendRequest(ctx, "sendMessage", message, nil)
}

// AnswerCallbackQuery подтверждает нажатие inline кнопки
func (b *Bot) AnswerCallbackQuery(ctx context.Context, callbackID string) error {
	params := map[string]interface{}{
		"callback_query_id": callbackID,
		"show_alert":        false,
	}
	return b.sendRequest(ctx, "answerCallbackQuery", params, nil)
}

// GetUpdates запрашивает обновления long polling-ом
func (b *Bot) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	params := map[string]interface{}{
		"offset":          offset,
		"timeout":         timeout,
		"limit":           100,
		"allowed_updates": []string{"message", "callback_query"},
	}

	var updates []Update
	if err := b.sendRequest(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// DeleteWebhook удаляет webhook перед запуском polling
func (b *Bot) DeleteWebhook(ctx context.Context) error {
	params := map[string]interface{}{
		"drop_pending_updates": true,
	}
	return b.sendRequest(ctx, "deleteWebhook", params, nil)
}

// sendRequest - общая функция отправки запросов к Telegram API.
// При 429 ждет retry_after и повторяет один раз.
func (b *Bot) sendRequest(ctx context.Context, method string, payload interface{}, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+method, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var telegramResp struct {
		OK          bool            `json:"ok"`
		ErrorCode   int             `json:"error_code,omitempty"`
		Description string          `json:"description,omitempty"`
		Result      json.RawMessage `json:"result,omitempty"`
		Parameters  struct {
			RetryAfter int `json:"retry_after"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(body, &telegramResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if !telegramResp.OK {
		if telegramResp.ErrorCode == 429 {
			retryAfter := 5
			if telegramResp.Parameters.RetryAfter > 0 {
				retryAfter = telegramResp.Parameters.RetryAfter
			}
			logger.Warn("⚠️ Telegram API лимит, ждем %d секунд", retryAfter)

			select {
			case <-time.After(time.Duration(retryAfter) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			// Одна повторная попытка
			return b.sendRequest(ctx, method, payload, out)
		}
		return fmt.Errorf("telegram API error %d: %s", telegramResp.ErrorCode, telegramResp.Description)
	}

	if out != nil && len(telegramResp.Result) > 0 {
		if err := json.Unmarshal(telegramResp.Result, out); err != nil {
			return fmt.Errorf("failed to parse result: %w", err)
		}
	}
	return nil
}
