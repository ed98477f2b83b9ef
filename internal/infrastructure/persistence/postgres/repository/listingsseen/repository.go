// internal/infrastructure/persistence/postgres/repository/listingsseen/repository.go
package listingsseen

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository - PostgreSQL реализация множества известных символов биржи
type Repository struct {
	db *sqlx.DB
}

// NewRepository создает репозиторий известных листингов
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Contains проверяет, известен ли символ
func (r *Repository) Contains(ctx context.Context, symbol string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM listings_seen WHERE symbol = $1)`
	if err := r.db.GetContext(ctx, &exists, query, symbol); err != nil {
		return false, fmt.Errorf("failed to check listing: %w", err)
	}
	return exists, nil
}

// MarkSeen помечает символ известным. Повторный вызов идемпотентен.
func (r *Repository) MarkSeen(ctx context.Context, symbol string) error {
	query := `INSERT INTO listings_seen (symbol) VALUES ($1) ON CONFLICT (symbol) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, symbol); err != nil {
		return fmt.Errorf("failed to mark listing seen: %w", err)
	}
	return nil
}

// Empty сообщает, зафиксирован ли хоть один символ
func (r *Repository) Empty(ctx context.Context) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM listings_seen)`
	if err := r.db.GetContext(ctx, &exists, query); err != nil {
		return false, fmt.Errorf("failed to check listings baseline: %w", err)
	}
	return !exists, nil
}
