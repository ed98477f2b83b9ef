// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"crypto-signal-alert-bot/application/scheduler"
	"crypto-signal-alert-bot/internal/config"
	"crypto-signal-alert-bot/internal/infrastructure/cache/redis"
	"crypto-signal-alert-bot/internal/infrastructure/persistence/postgres/database"
	"crypto-signal-alert-bot/internal/market"
	"crypto-signal-alert-bot/internal/news"
	"crypto-signal-alert-bot/internal/notifier"
	"crypto-signal-alert-bot/internal/scanner"
	"crypto-signal-alert-bot/internal/storage"
	"crypto-signal-alert-bot/internal/telegram"
	"crypto-signal-alert-bot/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}

	if err := logger.InitGlobal(cfg.LogFile, cfg.LogLevel, cfg.Debug); err != nil {
		log.Fatalf("❌ Ошибка инициализации логгера: %v", err)
	}

	printHeader(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	var db *sqlx.DB
	if cfg.Database.Enabled {
		dbService := database.NewService(cfg.Database)
		if err := dbService.Start(ctx); err != nil {
			logger.Fatal("❌ База данных недоступна: %v", err)
		}
		defer dbService.Stop()
		db = dbService.DB()
	}

	// Redis
	var cache *redis.Cache
	if cfg.Redis.Enabled {
		cache = redis.NewCache(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("⚠️ Redis недоступен, работа без кэша: %v", err)
			cache = nil
		} else {
			logger.Info("✅ Redis подключен: %s", cfg.Redis.Addr())
			defer cache.Close()
		}
	}

	stores := storage.BuildStores(db, cache, cfg.Telegram.AdminUserID)

	// Источник рыночных данных
	client := market.NewBinanceClient(cfg.Market.BinanceAPIURL, cfg.Market.RequestTimeout)
	gateway := market.NewBinanceGateway(client, cfg.Market.KlineLimit)

	// Telegram
	bot, err := telegram.NewBot(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal("❌ Не удалось создать Telegram бота: %v", err)
	}

	var channel notifier.Notifier = telegram.NewNotifier(bot)
	if cfg.DryRun {
		logger.Warn("🧪 DRY_RUN: уведомления пишутся в лог, отправка в Telegram отключена")
		channel = notifier.NewConsoleNotifier()
	}

	var dispatcher *notifier.Dispatcher
	if cfg.Telegram.BroadcastChatID != 0 {
		logger.Info("📢 Режим рассылки: общий канал %d", cfg.Telegram.BroadcastChatID)
		dispatcher = notifier.NewBroadcastDispatcher(channel, cfg.Telegram.BroadcastChatID)
	} else {
		logger.Info("📬 Режим рассылки: личные сообщения подписчикам")
		dispatcher = notifier.NewDispatcher(channel)
	}

	// Сканеры
	signalSource := scanner.NewSignalScanner(stores.Subscribers, stores.SignalHistory, gateway, dispatcher)
	signalEngine := scanner.NewEngine(signalSource, cfg.Scan.Workers, cfg.Scan.PairDelay, cfg.Scan.SoftDeadline)

	feed := news.NewFetcher(cfg.News.FeedURL, cfg.News.MaxItems)
	newsSource := scanner.NewNewsScanner(feed, stores.NewsSeen, stores.Subscribers, dispatcher)
	newsEngine := scanner.NewEngine(newsSource, 1, 0, cfg.Scan.SoftDeadline)

	listingsSource := scanner.NewListingsScanner(client, stores.ListingsSeen, stores.Subscribers, dispatcher)
	listingsEngine := scanner.NewEngine(listingsSource, 1, 0, cfg.Scan.SoftDeadline)

	// Обработка входящих команд
	handler := telegram.NewHandler(bot, stores.Subscribers, stores.Dialogs, gateway, cfg)
	poller := telegram.NewPoller(bot, handler, time.Duration(cfg.Telegram.PollTimeout)*time.Second)
	go poller.Run(ctx)

	// Периодические сканы
	sched := scheduler.New()
	sched.Register(&scheduler.Job{
		Name:       "signal-scan",
		Schedule:   scheduler.Every(cfg.Scan.SignalInterval),
		Timeout:    cfg.Scan.SoftDeadline + 30*time.Second,
		RunOnStart: true,
		Handler:    scanHandler(signalEngine),
	})
	sched.Register(&scheduler.Job{
		Name:       "news-scan",
		Schedule:   scheduler.Every(cfg.Scan.NewsInterval),
		Timeout:    cfg.Scan.SoftDeadline + 30*time.Second,
		RunOnStart: true,
		Handler:    scanHandler(newsEngine),
	})
	sched.Register(&scheduler.Job{
		Name:       "listings-scan",
		Schedule:   scheduler.Every(cfg.Scan.ListingsInterval),
		Timeout:    cfg.Scan.SoftDeadline + 30*time.Second,
		RunOnStart: true,
		Handler:    scanHandler(listingsEngine),
	})
	sched.Start()

	logger.Info("🚀 Бот запущен. Сигналы каждые %v, новости каждые %v, листинги каждые %v",
		cfg.Scan.SignalInterval, cfg.Scan.NewsInterval, cfg.Scan.ListingsInterval)

	<-ctx.Done()

	logger.Info("🛑 Получен сигнал остановки, завершение...")
	sched.Stop()
	logger.Info("👋 Бот остановлен")
}

// scanHandler оборачивает запуск движка для планировщика.
// Пропуск из-за еще идущего скана - штатная ситуация, не ошибка задачи.
func scanHandler(engine *scanner.Engine) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := engine.RunOnce(ctx); err != nil && !errors.Is(err, scanner.ErrScanInFlight) {
			return err
		}
		return nil
	}
}

func printHeader(cfg *config.Config) {
	fmt.Println("==========================================")
	fmt.Println("  🤖 Crypto Signal Alert Bot")
	fmt.Println("==========================================")
	fmt.Printf("  Символы:      %v\n", cfg.Universe.Symbols)
	fmt.Printf("  Таймфреймы:   %v\n", cfg.Universe.Timeframes)
	fmt.Printf("  Скан сигналов: каждые %v\n", cfg.Scan.SignalInterval)
	fmt.Printf("  Скан новостей: каждые %v\n", cfg.Scan.NewsInterval)
	fmt.Println("==========================================")
}
