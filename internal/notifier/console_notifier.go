// internal/notifier/console_notifier.go
package notifier

import (
	"context"

	"crypto-signal-alert-bot/pkg/logger"
)

// ConsoleNotifier пишет уведомления в лог вместо отправки.
// Включается флагом DRY_RUN при локальной отладке.
type ConsoleNotifier struct{}

// NewConsoleNotifier создает консольный нотификатор
func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (c *ConsoleNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	logger.Info("📤 [console] -> %d:\n%s", chatID, text)
	return nil
}

func (c *ConsoleNotifier) Name() string {
	return "console"
}
