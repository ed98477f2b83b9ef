// internal/telegram/handlers_test.go
package telegram

import (
	"strings"
	"testing"
	"time"

	"crypto-signal-alert-bot/internal/core/domain/users"
)

func TestToggleKeyboard(t *testing.T) {
	values := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	selected := []string{"ETHUSDT"}

	keyboard := toggleKeyboard(values, selected, "sym_", 2)

	if len(keyboard.InlineKeyboard) != 2 {
		t.Fatalf("строк клавиатуры = %d, ожидалось 2", len(keyboard.InlineKeyboard))
	}
	if len(keyboard.InlineKeyboard[0]) != 2 || len(keyboard.InlineKeyboard[1]) != 1 {
		t.Fatalf("раскладка = %d/%d", len(keyboard.InlineKeyboard[0]), len(keyboard.InlineKeyboard[1]))
	}

	var flat []InlineKeyboardButton
	for _, row := range keyboard.InlineKeyboard {
		flat = append(flat, row...)
	}

	for i, value := range values {
		btn := flat[i]
		if btn.CallbackData != "sym_"+value {
			t.Errorf("callback кнопки %d = %q", i, btn.CallbackData)
		}
		if value == "ETHUSDT" {
			if !strings.HasPrefix(btn.Text, "✅") {
				t.Errorf("выбранное значение без отметки: %q", btn.Text)
			}
		} else if strings.HasPrefix(btn.Text, "✅") {
			t.Errorf("невыбранное значение с отметкой: %q", btn.Text)
		}
	}
}

func TestFormatSubscriberStatus(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	t.Run("активная подписка", func(t *testing.T) {
		sub := &users.Subscriber{
			TelegramID:        7,
			SubscribedUntil:   now.Add(24 * time.Hour),
			WatchedSymbols:    []string{"BTCUSDT"},
			WatchedTimeframes: []string{"1h", "4h"},
		}

		text := formatSubscriberStatus(sub, now)
		for _, want := range []string{"активна", "BTCUSDT", "1h, 4h"} {
			if !strings.Contains(text, want) {
				t.Errorf("в статусе нет %q:\n%s", want, text)
			}
		}
	})

	t.Run("истекшая подписка", func(t *testing.T) {
		sub := &users.Subscriber{TelegramID: 7, SubscribedUntil: now}

		text := formatSubscriberStatus(sub, now)
		if !strings.Contains(text, "не активна") {
			t.Errorf("истекшая подписка показана активной:\n%s", text)
		}
		if !strings.Contains(text, "не выбраны") {
			t.Errorf("пустые списки не отмечены:\n%s", text)
		}
	})
}

func TestIsOldUpdate(t *testing.T) {
	p := &Poller{}

	tests := []struct {
		name   string
		update Update
		want   bool
	}{
		{
			name:   "свежее сообщение",
			update: Update{Message: &Message{Date: time.Now().Unix()}},
			want:   false,
		},
		{
			name:   "старое сообщение",
			update: Update{Message: &Message{Date: time.Now().Add(-10 * time.Minute).Unix()}},
			want:   true,
		},
		{
			name: "старый callback",
			update: Update{CallbackQuery: &CallbackQuery{
				Message: &Message{Date: time.Now().Add(-10 * time.Minute).Unix()},
			}},
			want: true,
		},
		{
			name:   "без даты",
			update: Update{Message: &Message{}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.isOldUpdate(tt.update); got != tt.want {
				t.Errorf("isOldUpdate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(time.Hour)

	if !rl.CanSend("a") {
		t.Fatal("первая отправка запрещена")
	}
	if rl.CanSend("a") {
		t.Fatal("повторная отправка разрешена внутри окна")
	}
	// Разные ключи независимы
	if !rl.CanSend("b") {
		t.Fatal("другой ключ заблокирован чужим окном")
	}
}
