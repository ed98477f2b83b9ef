// internal/infrastructure/cache/redis/dialog_store.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DialogStore - состояние диалога "ожидание ввода" в Redis.
// TTL защищает от зависших диалогов: забытый запрос сам истекает.
type DialogStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewDialogStore создает хранилище состояний диалога
func NewDialogStore(cache *Cache, ttl time.Duration) *DialogStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DialogStore{cache: cache, ttl: ttl}
}

func dialogKey(telegramID int64) string {
	return fmt.Sprintf("dialog:%d", telegramID)
}

func (s *DialogStore) SetAwaiting(ctx context.Context, telegramID int64, state string) error {
	return s.cache.Set(ctx, dialogKey(telegramID), state, s.ttl)
}

func (s *DialogStore) GetAwaiting(ctx context.Context, telegramID int64) (string, error) {
	var state string
	err := s.cache.Get(ctx, dialogKey(telegramID), &state)
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return state, nil
}

func (s *DialogStore) Clear(ctx context.Context, telegramID int64) error {
	return s.cache.Delete(ctx, dialogKey(telegramID))
}
