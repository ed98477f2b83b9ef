// internal/scanner/signal_scan.go
package scanner

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"crypto-signal-alert-bot/internal/core/domain/signals"
	"crypto-signal-alert-bot/internal/core/domain/users"
	"crypto-signal-alert-bot/internal/market"
	"crypto-signal-alert-bot/internal/notifier"
	"crypto-signal-alert-bot/internal/storage"
	"crypto-signal-alert-bot/pkg/logger"
)

// SignalScanner - семейство сканирования торговых сигналов.
// Опрашивает рынок только по парам, которые реально наблюдает хотя бы один
// активный подписчик, и рассылает уведомления при смене рекомендации.
type SignalScanner struct {
	subscribers storage.SubscriberStore
	history     storage.SignalHistoryStore
	gateway     market.Gateway
	dispatcher  *notifier.Dispatcher

	// Снимок подписчиков текущего скана: маршрутизация использует тот же
	// набор, по которому строилось объединение пар
	mu       sync.Mutex
	snapshot []*users.Subscriber
}

// NewSignalScanner создает сканер сигналов
func NewSignalScanner(
	subscribers storage.SubscriberStore,
	history storage.SignalHistoryStore,
	gateway market.Gateway,
	dispatcher *notifier.Dispatcher,
) *SignalScanner {
	return &SignalScanner{
		subscribers: subscribers,
		history:     history,
		gateway:     gateway,
		dispatcher:  dispatcher,
	}
}

func (s *SignalScanner) Name() string {
	return "signals"
}

// ListKeys строит объединение наблюдаемых пар по всем активным подписчикам.
// Пары без наблюдателей не опрашиваются вовсе - объем внешних запросов
// ограничен реальным спросом.
func (s *SignalScanner) ListKeys(ctx context.Context) ([]string, error) {
	active, err := s.subscribers.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = active
	s.mu.Unlock()

	pairSet := make(map[string]struct{})
	for _, sub := range active {
		// Пустой список символов или таймфреймов = сигналы не нужны
		if !sub.HasWatchlist() {
			continue
		}
		for _, symbol := range sub.WatchedSymbols {
			for _, timeframe := range sub.WatchedTimeframes {
				pairSet[signals.Pair{Symbol: symbol, Timeframe: timeframe}.Key()] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(pairSet))
	for key := range pairSet {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Evaluate запрашивает рекомендацию по паре.
// HOLD и сбой источника дают пустое состояние: пара пропускается,
// история не затирается.
func (s *SignalScanner) Evaluate(ctx context.Context, key string) (string, error) {
	pair := parsePairKey(key)

	rec, err := s.gateway.Recommend(ctx, pair.Symbol, pair.Timeframe)
	if err != nil {
		return "", err
	}

	// Защита от неизвестных значений источника
	rec = signals.ParseRecommendation(string(rec))
	if !rec.Actionable() {
		return "", nil
	}
	return string(rec), nil
}

func (s *SignalScanner) LastState(ctx context.Context, key string) (string, error) {
	record, err := s.history.GetLast(ctx, parsePairKey(key))
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", nil
	}
	return string(record.Signal), nil
}

// Deliver рассылает сигнал подписчикам, наблюдающим и символ, и таймфрейм
func (s *SignalScanner) Deliver(ctx context.Context, key, state string) {
	pair := parsePairKey(key)
	rec := signals.Recommendation(state)

	alert := &signals.Alert{
		ID:        uuid.NewString(),
		Pair:      pair,
		Signal:    rec,
		CreatedAt: time.Now(),
	}

	// Обогащение уровнями сделки - best effort: при сбое уходит упрощенное сообщение
	plan, err := s.gateway.EntryStopTargets(ctx, pair.Symbol, pair.Timeframe, rec)
	if err != nil {
		logger.Warn("⚠️ Обогащение %s не удалось, отправка без уровней: %v", pair, err)
	} else {
		alert.Plan = plan
	}

	recipients := s.resolveRecipients(pair)
	if len(recipients) == 0 {
		return
	}

	text := notifier.FormatSignalAlert(alert)
	delivered := s.dispatcher.Fanout(ctx, recipients, text)
	logger.Alert(pair.Symbol, pair.Timeframe, string(rec), delivered)
}

func (s *SignalScanner) SaveState(ctx context.Context, key, state string) error {
	return s.history.SetLast(ctx, parsePairKey(key), signals.Recommendation(state))
}

// resolveRecipients выбирает подписчиков из снимка скана, чей список
// наблюдения содержит и символ, и таймфрейм пары
func (s *SignalScanner) resolveRecipients(pair signals.Pair) []int64 {
	s.mu.Lock()
	snapshot := s.snapshot
	s.mu.Unlock()

	var recipients []int64
	for _, sub := range snapshot {
		if sub.Watches(pair.Symbol, pair.Timeframe) {
			recipients = append(recipients, sub.TelegramID)
		}
	}
	return recipients
}

// parsePairKey восстанавливает пару из ключа вида "BTCUSDT:1h"
func parsePairKey(key string) signals.Pair {
	symbol, timeframe, _ := strings.Cut(key, ":")
	return signals.Pair{Symbol: symbol, Timeframe: timeframe}
}
