// internal/infrastructure/persistence/postgres/repository/signalhistory/repository.go
package signalhistory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"crypto-signal-alert-bot/internal/core/domain/signals"
)

// Repository - PostgreSQL реализация истории сигналов.
// Одна строка на пару: хранится только последний разосланный сигнал.
type Repository struct {
	db *sqlx.DB
}

type historyRow struct {
	Symbol     string    `db:"symbol"`
	Timeframe  string    `db:"timeframe"`
	Signal     string    `db:"signal"`
	RecordedAt time.Time `db:"recorded_at"`
}

// NewRepository создает репозиторий истории сигналов
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetLast возвращает последнюю запись или nil, если сигналов по паре не было
func (r *Repository) GetLast(ctx context.Context, pair signals.Pair) (*signals.Record, error) {
	var row historyRow
	query := `
		SELECT symbol, timeframe, signal, recorded_at
		FROM signal_history
		WHERE symbol = $1 AND timeframe = $2`

	if err := r.db.GetContext(ctx, &row, query, pair.Symbol, pair.Timeframe); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last signal for %s: %w", pair.Key(), err)
	}

	return &signals.Record{
		Pair:       signals.Pair{Symbol: row.Symbol, Timeframe: row.Timeframe},
		Signal:     signals.Recommendation(row.Signal),
		RecordedAt: row.RecordedAt,
	}, nil
}

// SetLast перезаписывает запись по паре
func (r *Repository) SetLast(ctx context.Context, pair signals.Pair, signal signals.Recommendation) error {
	query := `
		INSERT INTO signal_history (symbol, timeframe, signal, recorded_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (symbol, timeframe) DO UPDATE
		SET signal = EXCLUDED.signal, recorded_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, pair.Symbol, pair.Timeframe, string(signal)); err != nil {
		return fmt.Errorf("failed to set last signal for %s: %w", pair.Key(), err)
	}
	return nil
}
