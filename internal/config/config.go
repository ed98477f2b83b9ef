// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// TelegramConfig - настройки Telegram бота
type TelegramConfig struct {
	BotToken        string // TELEGRAM_BOT_TOKEN (обязательный)
	AdminUserID     int64  // ADMIN_USER_ID (обязательный)
	BroadcastChatID int64  // BROADCAST_CHAT_ID: если задан, рассылка идет в канал вместо личных сообщений
	WalletAddress   string // Кошелек для оплаты подписки
	PollTimeout     int    // Таймаут long polling в секундах
}

// ScanConfig - настройки периодического сканирования
type ScanConfig struct {
	SignalInterval   time.Duration // Интервал сканирования сигналов
	NewsInterval     time.Duration // Интервал опроса новостей
	ListingsInterval time.Duration // Интервал проверки новых листингов
	PairDelay        time.Duration // Пауза между запросами по парам (защита от rate limit)
	Workers          int           // Количество параллельных воркеров (1 = последовательно)
	SoftDeadline     time.Duration // Мягкий дедлайн одного скана
}

// MarketConfig - настройки источника рыночных данных
type MarketConfig struct {
	BinanceAPIURL  string
	KlineLimit     int
	RequestTimeout time.Duration
}

// NewsConfig - настройки новостной ленты
type NewsConfig struct {
	FeedURL  string
	MaxItems int
}

// UniverseConfig - вселенная символов и таймфреймов, доступная в меню
type UniverseConfig struct {
	Symbols    []string
	Timeframes []string
}

// DatabaseConfig - конфигурация PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Enabled  bool

	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
}

// RedisConfig - конфигурация Redis
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// Config - структура конфигурации приложения
type Config struct {
	Telegram TelegramConfig
	Scan     ScanConfig
	Market   MarketConfig
	News     NewsConfig
	Universe UniverseConfig
	Database DatabaseConfig
	Redis    RedisConfig

	// Logging
	LogLevel string
	LogFile  string
	Debug    bool

	// DryRun: уведомления пишутся в лог вместо отправки в Telegram
	DryRun bool
}

// LoadConfig загружает конфигурацию из .env файла
func LoadConfig(envPath string) (*Config, error) {
	// Загружаем .env файл
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
	}

	config := &Config{
		Telegram: TelegramConfig{
			BotToken:        getEnvString("TELEGRAM_BOT_TOKEN", ""),
			AdminUserID:     getEnvInt64("ADMIN_USER_ID", 0),
			BroadcastChatID: getEnvInt64("BROADCAST_CHAT_ID", 0),
			WalletAddress:   getEnvString("PAYMENT_WALLET_ADDRESS", ""),
			PollTimeout:     getEnvInt("TELEGRAM_POLL_TIMEOUT", 30),
		},
		Scan: ScanConfig{
			SignalInterval:   getEnvDuration("SIGNAL_SCAN_INTERVAL", 5*time.Minute),
			NewsInterval:     getEnvDuration("NEWS_SCAN_INTERVAL", 30*time.Minute),
			ListingsInterval: getEnvDuration("LISTINGS_SCAN_INTERVAL", time.Hour),
			PairDelay:        getEnvDuration("PAIR_SCAN_DELAY", 500*time.Millisecond),
			Workers:          getEnvInt("SCAN_WORKERS", 1),
			SoftDeadline:     getEnvDuration("SCAN_SOFT_DEADLINE", 4*time.Minute),
		},
		Market: MarketConfig{
			BinanceAPIURL:  getEnvString("BINANCE_API_URL", "https://api.binance.com"),
			KlineLimit:     getEnvInt("KLINE_LIMIT", 200),
			RequestTimeout: getEnvDuration("MARKET_REQUEST_TIMEOUT", 15*time.Second),
		},
		News: NewsConfig{
			FeedURL:  getEnvString("NEWS_FEED_URL", "https://cryptoslate.com/feed/"),
			MaxItems: getEnvInt("NEWS_MAX_ITEMS", 5),
		},
		Universe: UniverseConfig{
			Symbols:    parseList(getEnvString("WATCH_SYMBOLS", "BTCUSDT,ETHUSDT,BNBUSDT,SOLUSDT,XRPUSDT,ADAUSDT")),
			Timeframes: parseList(getEnvString("WATCH_TIMEFRAMES", "15m,1h,4h,1d")),
		},
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			Name:            getEnvString("DB_NAME", "signal_bot"),
			SSLMode:         getEnvString("DB_SSLMODE", "disable"),
			Enabled:         getEnvBool("DB_ENABLED", true),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  getEnvBool("REDIS_ENABLED", true),
		},

		LogLevel: getEnvString("LOG_LEVEL", "INFO"),
		LogFile:  getEnvString("LOG_FILE", "logs/bot.log"),
		Debug:    getEnvBool("DEBUG", false),
		DryRun:   getEnvBool("DRY_RUN", false),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate проверяет корректность конфигурации.
// Ошибка здесь фатальна: бот не должен стартовать в полусконфигурированном состоянии.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.AdminUserID == 0 {
		return fmt.Errorf("ADMIN_USER_ID is required")
	}

	if c.Scan.SignalInterval < time.Minute {
		return fmt.Errorf("SIGNAL_SCAN_INTERVAL must be at least 1 minute")
	}
	if c.Scan.NewsInterval < time.Minute {
		return fmt.Errorf("NEWS_SCAN_INTERVAL must be at least 1 minute")
	}
	if c.Scan.ListingsInterval < time.Minute {
		return fmt.Errorf("LISTINGS_SCAN_INTERVAL must be at least 1 minute")
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("SCAN_WORKERS must be at least 1")
	}

	if len(c.Universe.Symbols) == 0 {
		return fmt.Errorf("WATCH_SYMBOLS must not be empty")
	}
	if len(c.Universe.Timeframes) == 0 {
		return fmt.Errorf("WATCH_TIMEFRAMES must not be empty")
	}

	return nil
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Addr возвращает адрес Redis в формате host:port
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Вспомогательные функции чтения окружения

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// parseList разбирает список значений, разделенных запятыми
func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
