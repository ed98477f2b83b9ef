// internal/storage/storage.go
package storage

import (
	"context"
	"time"

	"crypto-signal-alert-bot/internal/core/domain/signals"
	"crypto-signal-alert-bot/internal/core/domain/users"
)

// SubscriberStore - хранилище подписчиков и их списков наблюдения.
// Все мутации долговечны до возврата из вызова.
type SubscriberStore interface {
	// Get возвращает подписчика или nil, если он не зарегистрирован
	Get(ctx context.Context, telegramID int64) (*users.Subscriber, error)

	// CreateIfAbsent регистрирует пользователя при первом обращении (без подписки)
	CreateIfAbsent(ctx context.Context, telegramID int64, language string) error

	// IsActive проверяет действующую подписку.
	// Для администратора всегда возвращает true независимо от записи.
	IsActive(ctx context.Context, telegramID int64) (bool, error)

	// ListActive возвращает всех подписчиков с действующей подпиской.
	// Порядок стабилен в пределах одного скана.
	ListActive(ctx context.Context) ([]*users.Subscriber, error)

	// Activate устанавливает подписку до now + период токена (day/week/month).
	// Существующий срок перезаписывается, не суммируется.
	// Возвращает новый срок окончания либо users.ErrInvalidDuration.
	Activate(ctx context.Context, telegramID int64, durationToken string) (time.Time, error)

	// Deactivate немедленно завершает подписку
	Deactivate(ctx context.Context, telegramID int64) error

	// ToggleWatchedSymbol переключает членство символа в списке наблюдения.
	// Возвращает true, если символ теперь наблюдается.
	ToggleWatchedSymbol(ctx context.Context, telegramID int64, symbol string) (bool, error)

	// ToggleWatchedTimeframe переключает членство таймфрейма в списке наблюдения
	ToggleWatchedTimeframe(ctx context.Context, telegramID int64, timeframe string) (bool, error)
}

// SignalHistoryStore - последний отправленный сигнал по каждой паре.
// Одна ячейка на пару: важно только "изменился ли сигнал", история не нужна.
type SignalHistoryStore interface {
	// GetLast возвращает последнюю запись или nil, если сигналов по паре не было
	GetLast(ctx context.Context, pair signals.Pair) (*signals.Record, error)

	// SetLast перезаписывает запись по паре (upsert)
	SetLast(ctx context.Context, pair signals.Pair, signal signals.Recommendation) error
}

// NewsSeenStore - множество уже разосланных новостей
type NewsSeenStore interface {
	// Contains проверяет, была ли новость уже разослана
	Contains(ctx context.Context, itemID string) (bool, error)

	// MarkSeen помечает новость как разосланную (insert-if-absent, идемпотентно)
	MarkSeen(ctx context.Context, itemID string) error
}

// ListingsSeenStore - множество символов биржи, о которых уже уведомляли.
// Новый символ = листинг; разница с текущим списком биржи дает новые листинги.
type ListingsSeenStore interface {
	// Contains проверяет, известен ли символ
	Contains(ctx context.Context, symbol string) (bool, error)

	// MarkSeen помечает символ известным (insert-if-absent, идемпотентно)
	MarkSeen(ctx context.Context, symbol string) error

	// Empty сообщает, пусто ли множество. Пустое множество означает первый
	// запуск: текущие символы фиксируются без рассылки.
	Empty(ctx context.Context) (bool, error)
}

// DialogStore - состояние диалога "ожидание ввода" с TTL.
// Заменяет глобальную map в памяти процесса: состояние живет в хранилище
// и автоматически истекает.
type DialogStore interface {
	SetAwaiting(ctx context.Context, telegramID int64, state string) error
	GetAwaiting(ctx context.Context, telegramID int64) (string, error)
	Clear(ctx context.Context, telegramID int64) error
}
