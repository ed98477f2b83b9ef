// internal/notifier/notifier.go
package notifier

import (
	"context"

	"crypto-signal-alert-bot/pkg/logger"
)

// Notifier - канал доставки сообщения одному получателю
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
	Name() string
}

// Dispatcher выполняет рассылку готового текста подписчикам.
// Сбой доставки одному получателю изолируется: рассылка остальным продолжается,
// повторных попыток в рамках одного скана нет.
type Dispatcher struct {
	notifier        Notifier
	broadcastChatID int64 // Если задан, вместо перебора подписчиков одно сообщение в канал
}

// NewDispatcher создает диспетчер персональной рассылки
func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{notifier: notifier}
}

// NewBroadcastDispatcher создает диспетчер рассылки в общий канал.
// Режим выбирается на этапе деплоя, не на каждый вызов.
func NewBroadcastDispatcher(notifier Notifier, broadcastChatID int64) *Dispatcher {
	return &Dispatcher{notifier: notifier, broadcastChatID: broadcastChatID}
}

// Fanout доставляет текст всем получателям.
// Возвращает количество успешных доставок.
func (d *Dispatcher) Fanout(ctx context.Context, recipients []int64, text string) int {
	if d.broadcastChatID != 0 {
		if err := d.notifier.Notify(ctx, d.broadcastChatID, text); err != nil {
			logger.Error("❌ Рассылка в канал %d через %s не удалась: %v",
				d.broadcastChatID, d.notifier.Name(), err)
			return 0
		}
		return 1
	}

	delivered := 0
	for _, chatID := range recipients {
		if err := d.notifier.Notify(ctx, chatID, text); err != nil {
			// Одна попытка на получателя; недоставка не трогает остальных
			logger.Error("❌ Доставка пользователю %d через %s не удалась: %v",
				chatID, d.notifier.Name(), err)
			continue
		}
		delivered++
	}

	return delivered
}
