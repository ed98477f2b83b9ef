// internal/infrastructure/persistence/postgres/repository/newsseen/repository.go
package newsseen

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Repository - PostgreSQL реализация множества разосланных новостей
type Repository struct {
	db *sqlx.DB
}

// NewRepository создает репозиторий разосланных новостей
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Contains проверяет, была ли новость уже разослана
func (r *Repository) Contains(ctx context.Context, itemID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM news_seen WHERE item_id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, itemID); err != nil {
		return false, fmt.Errorf("failed to check news item: %w", err)
	}
	return exists, nil
}

// MarkSeen помечает новость как разосланную. Повторный вызов идемпотентен.
func (r *Repository) MarkSeen(ctx context.Context, itemID string) error {
	query := `INSERT INTO news_seen (item_id) VALUES ($1) ON CONFLICT (item_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, itemID); err != nil {
		return fmt.Errorf("failed to mark news item seen: %w", err)
	}
	return nil
}
