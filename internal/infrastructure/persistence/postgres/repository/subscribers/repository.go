// internal/infrastructure/persistence/postgres/repository/subscribers/repository.go
package subscribers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"crypto-signal-alert-bot/internal/core/domain/users"
	"crypto-signal-alert-bot/internal/infrastructure/cache/redis"
	"crypto-signal-alert-bot/pkg/logger"
)

// TTL кэша
const (
	subscriberCacheTTL = 5 * time.Minute
	activeListCacheTTL = 30 * time.Second
)

// Repository - PostgreSQL реализация хранилища подписчиков
// с кэшированием в Redis (cache-aside).
type Repository struct {
	db      *sqlx.DB
	cache   *redis.Cache
	adminID int64
}

// subscriberRow - строка таблицы subscribers
type subscriberRow struct {
	TelegramID        int64          `db:"telegram_id"`
	Language          string         `db:"language"`
	SubscribedUntil   sql.NullTime   `db:"subscribed_until"`
	WatchedSymbols    pq.StringArray `db:"watched_symbols"`
	WatchedTimeframes pq.StringArray `db:"watched_timeframes"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r subscriberRow) toDomain() *users.Subscriber {
	sub := &users.Subscriber{
		TelegramID:        r.TelegramID,
		Language:          r.Language,
		WatchedSymbols:    []string(r.WatchedSymbols),
		WatchedTimeframes: []string(r.WatchedTimeframes),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.SubscribedUntil.Valid {
		sub.SubscribedUntil = r.SubscribedUntil.Time
	}
	return sub
}

// NewRepository создает репозиторий подписчиков.
// Кэш опционален: при nil все запросы идут в базу напрямую.
func NewRepository(db *sqlx.DB, cache *redis.Cache, adminID int64) *Repository {
	return &Repository{db: db, cache: cache, adminID: adminID}
}

const selectColumns = `
	telegram_id, language, subscribed_until,
	watched_symbols, watched_timeframes,
	created_at, updated_at`

// Get возвращает подписчика или nil, если он не зарегистрирован
func (r *Repository) Get(ctx context.Context, telegramID int64) (*users.Subscriber, error) {
	if r.cache != nil {
		var cached users.Subscriber
		err := r.cache.Get(ctx, redis.SubscriberKey(telegramID), &cached)
		if err == nil {
			return &cached, nil
		}
		if !redis.IsMiss(err) {
			logger.Warn("⚠️ Кэш подписчика %d недоступен: %v", telegramID, err)
		}
	}

	var row subscriberRow
	query := `SELECT ` + selectColumns + ` FROM subscribers WHERE telegram_id = $1`
	if err := r.db.GetContext(ctx, &row, query, telegramID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get subscriber %d: %w", telegramID, err)
	}

	sub := row.toDomain()
	r.cacheSubscriber(ctx, sub)
	return sub, nil
}

// CreateIfAbsent регистрирует пользователя при первом обращении
func (r *Repository) CreateIfAbsent(ctx context.Context, telegramID int64, language string) error {
	query := `
		INSERT INTO subscribers (telegram_id, language, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (telegram_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, telegramID, language); err != nil {
		return fmt.Errorf("failed to create subscriber %d: %w", telegramID, err)
	}
	return nil
}

// IsActive проверяет действующую подписку.
// Администратор активен всегда, даже без записи в базе.
func (r *Repository) IsActive(ctx context.Context, telegramID int64) (bool, error) {
	if telegramID == r.adminID {
		return true, nil
	}

	var active bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM subscribers
			WHERE telegram_id = $1 AND subscribed_until > NOW()
		)`
	if err := r.db.GetContext(ctx, &active, query, telegramID); err != nil {
		return false, fmt.Errorf("failed to check subscription %d: %w", telegramID, err)
	}
	return active, nil
}

// ListActive возвращает подписчиков с действующей подпиской.
// Порядок по telegram_id стабилен между вызовами.
func (r *Repository) ListActive(ctx context.Context) ([]*users.Subscriber, error) {
	if r.cache != nil {
		var cached []*users.Subscriber
		err := r.cache.Get(ctx, redis.ActiveSubscribersKey(), &cached)
		if err == nil {
			return cached, nil
		}
		if !redis.IsMiss(err) {
			logger.Warn("⚠️ Кэш активных подписчиков недоступен: %v", err)
		}
	}

	var rows []subscriberRow
	query := `
		SELECT ` + selectColumns + `
		FROM subscribers
		WHERE subscribed_until > NOW()
		ORDER BY telegram_id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list active subscribers: %w", err)
	}

	result := make([]*users.Subscriber, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, redis.ActiveSubscribersKey(), result, activeListCacheTTL); err != nil {
			logger.Warn("⚠️ Не удалось закэшировать активных подписчиков: %v", err)
		}
	}
	return result, nil
}

// Activate устанавливает подписку до now + период токена.
// Существующий срок перезаписывается. Запись создается при отсутствии:
// администратор может активировать подписку до первого /start.
func (r *Repository) Activate(ctx context.Context, telegramID int64, durationToken string) (time.Time, error) {
	period, err := users.ActivationPeriod(durationToken)
	if err != nil {
		return time.Time{}, err
	}
	until := time.Now().Add(period)

	query := `
		INSERT INTO subscribers (telegram_id, subscribed_until, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (telegram_id) DO UPDATE
		SET subscribed_until = EXCLUDED.subscribed_until, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, telegramID, until); err != nil {
		return time.Time{}, fmt.Errorf("failed to activate subscriber %d: %w", telegramID, err)
	}

	r.invalidate(ctx, telegramID)
	return until, nil
}

// Deactivate немедленно завершает подписку
func (r *Repository) Deactivate(ctx context.Context, telegramID int64) error {
	query := `
		UPDATE subscribers
		SET subscribed_until = NULL, updated_at = NOW()
		WHERE telegram_id = $1`

	if _, err := r.db.ExecContext(ctx, query, telegramID); err != nil {
		return fmt.Errorf("failed to deactivate subscriber %d: %w", telegramID, err)
	}

	r.invalidate(ctx, telegramID)
	return nil
}

// ToggleWatchedSymbol переключает членство символа в списке наблюдения
func (r *Repository) ToggleWatchedSymbol(ctx context.Context, telegramID int64, symbol string) (bool, error) {
	return r.toggleColumn(ctx, telegramID, "watched_symbols", symbol)
}

// ToggleWatchedTimeframe переключает членство таймфрейма
func (r *Repository) ToggleWatchedTimeframe(ctx context.Context, telegramID int64, timeframe string) (bool, error) {
	return r.toggleColumn(ctx, telegramID, "watched_timeframes", timeframe)
}

// toggleColumn переключает значение в массиве под блокировкой строки
func (r *Repository) toggleColumn(ctx context.Context, telegramID int64, column, value string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current pq.StringArray
	selectQuery := fmt.Sprintf(
		`SELECT %s FROM subscribers WHERE telegram_id = $1 FOR UPDATE`, column)
	if err := tx.GetContext(ctx, &current, selectQuery, telegramID); err != nil {
		if err == sql.ErrNoRows {
			return false, fmt.Errorf("subscriber %d is not registered", telegramID)
		}
		return false, fmt.Errorf("failed to read %s: %w", column, err)
	}

	updated, watched := users.Toggle([]string(current), value)

	updateQuery := fmt.Sprintf(
		`UPDATE subscribers SET %s = $1, updated_at = NOW() WHERE telegram_id = $2`, column)
	if _, err := tx.ExecContext(ctx, updateQuery, pq.Array(updated), telegramID); err != nil {
		return false, fmt.Errorf("failed to update %s: %w", column, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.invalidate(ctx, telegramID)
	return watched, nil
}

// cacheSubscriber кладет подписчика в кэш; сбой кэша не критичен
func (r *Repository) cacheSubscriber(ctx context.Context, sub *users.Subscriber) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, redis.SubscriberKey(sub.TelegramID), sub, subscriberCacheTTL); err != nil {
		logger.Warn("⚠️ Не удалось закэшировать подписчика %d: %v", sub.TelegramID, err)
	}
}

// invalidate сбрасывает кэш подписчика и списка активных после мутации
func (r *Repository) invalidate(ctx context.Context, telegramID int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.DeleteMulti(ctx, redis.SubscriberKey(telegramID), redis.ActiveSubscribersKey()); err != nil {
		logger.Warn("⚠️ Не удалось сбросить кэш подписчика %d: %v", telegramID, err)
	}
}
