// internal/scanner/listings_scan.go
package scanner

import (
	"context"

	"crypto-signal-alert-bot/internal/notifier"
	"crypto-signal-alert-bot/internal/storage"
	"crypto-signal-alert-bot/pkg/logger"
)

// ExchangeLister - источник актуального списка символов биржи
type ExchangeLister interface {
	GetActiveSymbols(ctx context.Context) ([]string, error)
}

// ListingsScanner - семейство сканирования новых листингов.
// Ключ - символ биржи, состояние - признак "известен". Символ, которого нет
// в множестве известных, означает новый листинг.
type ListingsScanner struct {
	exchange    ExchangeLister
	seen        storage.ListingsSeenStore
	subscribers storage.SubscriberStore
	dispatcher  *notifier.Dispatcher
}

const listingStateListed = "listed"

// NewListingsScanner создает сканер новых листингов
func NewListingsScanner(
	exchange ExchangeLister,
	seen storage.ListingsSeenStore,
	subscribers storage.SubscriberStore,
	dispatcher *notifier.Dispatcher,
) *ListingsScanner {
	return &ListingsScanner{
		exchange:    exchange,
		seen:        seen,
		subscribers: subscribers,
		dispatcher:  dispatcher,
	}
}

func (l *ListingsScanner) Name() string {
	return "listings"
}

// ListKeys возвращает актуальные символы биржи.
// Первый запуск фиксирует весь список как базу без рассылки: иначе каждый
// существующий символ выглядел бы как свежий листинг.
func (l *ListingsScanner) ListKeys(ctx context.Context) ([]string, error) {
	symbols, err := l.exchange.GetActiveSymbols(ctx)
	if err != nil {
		return nil, err
	}

	empty, err := l.seen.Empty(ctx)
	if err != nil {
		return nil, err
	}
	if empty {
		for _, symbol := range symbols {
			if err := l.seen.MarkSeen(ctx, symbol); err != nil {
				return nil, err
			}
		}
		logger.Info("📋 [listings] База листингов заполнена: %d символов, рассылка пропущена", len(symbols))
		return nil, nil
	}

	return symbols, nil
}

// Evaluate: каждый символ из списка биржи находится в состоянии "listed"
func (l *ListingsScanner) Evaluate(ctx context.Context, key string) (string, error) {
	return listingStateListed, nil
}

// LastState: известный символ возвращает то же состояние,
// и движок подавляет повтор
func (l *ListingsScanner) LastState(ctx context.Context, key string) (string, error) {
	exists, err := l.seen.Contains(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		return listingStateListed, nil
	}
	return "", nil
}

// Deliver рассылает уведомление о листинге всем активным подписчикам.
// Списки наблюдения на листинги не влияют.
func (l *ListingsScanner) Deliver(ctx context.Context, key, state string) {
	active, err := l.subscribers.ListActive(ctx)
	if err != nil {
		logger.Error("❌ [listings] Не удалось получить подписчиков: %v", err)
		return
	}

	recipients := make([]int64, 0, len(active))
	for _, sub := range active {
		recipients = append(recipients, sub.TelegramID)
	}
	if len(recipients) == 0 {
		return
	}

	delivered := l.dispatcher.Fanout(ctx, recipients, notifier.FormatListingAlert(key))
	logger.Info("🆕 Листинг %s разослан %d получателям", key, delivered)
}

func (l *ListingsScanner) SaveState(ctx context.Context, key, state string) error {
	return l.seen.MarkSeen(ctx, key)
}
