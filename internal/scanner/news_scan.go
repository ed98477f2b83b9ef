// internal/scanner/news_scan.go
package scanner

import (
	"context"
	"sync"

	"crypto-signal-alert-bot/internal/news"
	"crypto-signal-alert-bot/internal/notifier"
	"crypto-signal-alert-bot/internal/storage"
	"crypto-signal-alert-bot/pkg/logger"
)

// NewsFeed - источник свежих статей
type NewsFeed interface {
	FetchLatest(ctx context.Context) ([]news.Item, error)
}

// NewsScanner - семейство сканирования новостей.
// Тот же цикл "опрос -> дедупликация -> рассылка", что и у сигналов:
// вместо пары (символ, таймфрейм) - идентификатор статьи, вместо BUY/SELL -
// признак "замечена".
type NewsScanner struct {
	fetcher     NewsFeed
	seen        storage.NewsSeenStore
	subscribers storage.SubscriberStore
	dispatcher  *notifier.Dispatcher

	// Статьи текущего скана по идентификатору
	mu    sync.Mutex
	items map[string]news.Item
}

const newsStateSeen = "seen"

// NewNewsScanner создает сканер новостной ленты
func NewNewsScanner(
	fetcher NewsFeed,
	seen storage.NewsSeenStore,
	subscribers storage.SubscriberStore,
	dispatcher *notifier.Dispatcher,
) *NewsScanner {
	return &NewsScanner{
		fetcher:     fetcher,
		seen:        seen,
		subscribers: subscribers,
		dispatcher:  dispatcher,
		items:       make(map[string]news.Item),
	}
}

func (n *NewsScanner) Name() string {
	return "news"
}

// ListKeys запрашивает ленту один раз за скан и возвращает идентификаторы статей
func (n *NewsScanner) ListKeys(ctx context.Context) ([]string, error) {
	fetched, err := n.fetcher.FetchLatest(ctx)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.items = make(map[string]news.Item, len(fetched))
	keys := make([]string, 0, len(fetched))
	for _, item := range fetched {
		n.items[item.ID] = item
		keys = append(keys, item.ID)
	}
	n.mu.Unlock()

	return keys, nil
}

// Evaluate: каждая статья из ленты находится в состоянии "замечена"
func (n *NewsScanner) Evaluate(ctx context.Context, key string) (string, error) {
	return newsStateSeen, nil
}

// LastState: уже разосланная статья возвращает то же состояние,
// и движок подавляет повтор
func (n *NewsScanner) LastState(ctx context.Context, key string) (string, error) {
	exists, err := n.seen.Contains(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		return newsStateSeen, nil
	}
	return "", nil
}

// Deliver рассылает новость всем активным подписчикам.
// Списки наблюдения на новости не влияют.
func (n *NewsScanner) Deliver(ctx context.Context, key, state string) {
	n.mu.Lock()
	item, exists := n.items[key]
	n.mu.Unlock()
	if !exists {
		return
	}

	active, err := n.subscribers.ListActive(ctx)
	if err != nil {
		logger.Error("❌ [news] Не удалось получить подписчиков: %v", err)
		return
	}

	recipients := make([]int64, 0, len(active))
	for _, sub := range active {
		recipients = append(recipients, sub.TelegramID)
	}
	if len(recipients) == 0 {
		return
	}

	delivered := n.dispatcher.Fanout(ctx, recipients, notifier.FormatNewsAlert(item))
	logger.Info("📰 Новость разослана %d получателям: %s", delivered, item.Title)
}

func (n *NewsScanner) SaveState(ctx context.Context, key, state string) error {
	return n.seen.MarkSeen(ctx, key)
}
