// internal/infrastructure/cache/redis/cache.go
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache - обертка над Redis с JSON сериализацией и общим префиксом ключей
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache создает Redis кэш
func NewCache(addr, password string, db int) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		prefix: "signalbot:",
	}
}

// Ping проверяет доступность Redis
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close закрывает подключение
func (c *Cache) Close() error {
	return c.client.Close()
}

// Set устанавливает значение с TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

// Get получает значение. Возвращает redis.Nil, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// Delete удаляет ключ
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

// DeleteMulti удаляет несколько ключей
func (c *Cache) DeleteMulti(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = c.prefix + key
	}
	return c.client.Del(ctx, fullKeys...).Err()
}

// IsMiss сообщает, что ошибка - это промах кэша, а не сбой Redis
func IsMiss(err error) bool {
	return err == redis.Nil
}

// Ключи кэша подписчиков

// SubscriberKey возвращает ключ кэша подписчика
func SubscriberKey(telegramID int64) string {
	return fmt.Sprintf("subscriber:%d", telegramID)
}

// ActiveSubscribersKey возвращает ключ кэша списка активных подписчиков
func ActiveSubscribersKey() string {
	return "subscribers:active"
}
