// internal/core/domain/users/user.go
package users

import (
	"errors"
	"time"
)

// ErrInvalidDuration возвращается при неизвестном токене длительности подписки
var ErrInvalidDuration = errors.New("invalid subscription duration")

// Токены длительности подписки, принимаемые административной командой
const (
	DurationDay   = "day"
	DurationWeek  = "week"
	DurationMonth = "month"
)

// Subscriber - пользователь бота с подпиской и списками наблюдения
type Subscriber struct {
	TelegramID        int64
	Language          string
	SubscribedUntil   time.Time // Нулевое время = подписка не активировалась
	WatchedSymbols    []string
	WatchedTimeframes []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsActive проверяет, действует ли подписка на момент now.
// Граница строгая: expiry == now означает, что подписка уже истекла.
func (s *Subscriber) IsActive(now time.Time) bool {
	return s.SubscribedUntil.After(now)
}

// Watches проверяет, наблюдает ли пользователь пару (символ, таймфрейм)
func (s *Subscriber) Watches(symbol, timeframe string) bool {
	return contains(s.WatchedSymbols, symbol) && contains(s.WatchedTimeframes, timeframe)
}

// HasWatchlist возвращает true, если заданы оба списка наблюдения.
// Пользователь с пустым списком символов или таймфреймов сигналы не получает.
func (s *Subscriber) HasWatchlist() bool {
	return len(s.WatchedSymbols) > 0 && len(s.WatchedTimeframes) > 0
}

// ActivationPeriod преобразует токен длительности в период подписки
func ActivationPeriod(token string) (time.Duration, error) {
	switch token {
	case DurationDay:
		return 24 * time.Hour, nil
	case DurationWeek:
		return 7 * 24 * time.Hour, nil
	case DurationMonth:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, ErrInvalidDuration
	}
}

// Toggle добавляет значение в список, если его нет, и удаляет, если есть.
// Возвращает обновленный список и признак "значение теперь присутствует".
func Toggle(values []string, value string) ([]string, bool) {
	for i, v := range values {
		if v == value {
			return append(values[:i:i], values[i+1:]...), false
		}
	}
	return append(values, value), true
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
