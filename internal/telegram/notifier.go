// internal/telegram/notifier.go
package telegram

import "context"

// Notifier адаптирует бота под интерфейс доставки уведомлений
type Notifier struct {
	bot *Bot
}

// NewNotifier создает Telegram нотификатор
func NewNotifier(bot *Bot) *Notifier {
	return &Notifier{bot: bot}
}

func (n *Notifier) Notify(ctx context.Context, chatID int64, text string) error {
	return n.bot.SendMessageTo(ctx, chatID, text)
}

func (n *Notifier) Name() string {
	return "telegram"
}
