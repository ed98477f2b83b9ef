// internal/infrastructure/persistence/postgres/database/service.go
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"crypto-signal-alert-bot/internal/config"
	"crypto-signal-alert-bot/pkg/logger"
)

// ServiceState состояние сервиса
type ServiceState string

const (
	StateStopped  ServiceState = "stopped"
	StateStarting ServiceState = "starting"
	StateRunning  ServiceState = "running"
	StateError    ServiceState = "error"
)

// Service - сервис подключения к PostgreSQL.
// Управляет пулом соединений и создает схему при старте.
type Service struct {
	config config.DatabaseConfig
	db     *sqlx.DB
	mu     sync.RWMutex
	state  ServiceState
}

// NewService создает сервис базы данных
func NewService(cfg config.DatabaseConfig) *Service {
	return &Service{
		config: cfg,
		state:  StateStopped,
	}
}

// Start подключается к базе и готовит схему
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning {
		return fmt.Errorf("database service already running")
	}

	logger.Info("🔄 Подключение к PostgreSQL: %s:%d/%s",
		s.config.Host, s.config.Port, s.config.Name)
	s.state = StateStarting

	db, err := sqlx.Open("postgres", s.config.DSN())
	if err != nil {
		s.state = StateError
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(s.config.MaxOpenConns)
	db.SetMaxIdleConns(s.config.MaxIdleConns)
	db.SetConnMaxLifetime(s.config.MaxConnLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		s.state = StateError
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := bootstrapSchema(ctx, db); err != nil {
		db.Close()
		s.state = StateError
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	s.db = db
	s.state = StateRunning

	logger.Info("✅ PostgreSQL подключен (пул %d/%d)",
		s.config.MaxIdleConns, s.config.MaxOpenConns)
	return nil
}

// Stop закрывает подключение
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning {
		return nil
	}

	logger.Info("🛑 Остановка сервиса базы данных...")
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.state = StateError
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	s.db = nil
	s.state = StateStopped
	logger.Info("✅ Сервис базы данных остановлен")
	return nil
}

// DB возвращает пул соединений
func (s *Service) DB() *sqlx.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// State возвращает текущее состояние сервиса
func (s *Service) State() ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// bootstrapSchema создает таблицы, если их еще нет
func bootstrapSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS subscribers (
		telegram_id        BIGINT PRIMARY KEY,
		language           VARCHAR(8) NOT NULL DEFAULT '',
		subscribed_until   TIMESTAMPTZ,
		watched_symbols    TEXT[] NOT NULL DEFAULT '{}',
		watched_timeframes TEXT[] NOT NULL DEFAULT '{}',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS signal_history (
		symbol      VARCHAR(32) NOT NULL,
		timeframe   VARCHAR(8) NOT NULL,
		signal      VARCHAR(8) NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, timeframe)
	);

	CREATE TABLE IF NOT EXISTS news_seen (
		item_id  TEXT PRIMARY KEY,
		seen_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS listings_seen (
		symbol   VARCHAR(32) PRIMARY KEY,
		seen_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_subscribers_subscribed_until
		ON subscribers (subscribed_until);
	`

	_, err := db.ExecContext(ctx, schema)
	return err
}
