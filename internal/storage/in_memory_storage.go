// internal/storage/in_memory_storage.go
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"crypto-signal-alert-bot/internal/core/domain/signals"
	"crypto-signal-alert-bot/internal/core/domain/users"
)

// InMemorySubscriberStore - реализация SubscriberStore в памяти.
// Используется при отключенной базе данных и в тестах.
type InMemorySubscriberStore struct {
	mu          sync.RWMutex
	subscribers map[int64]*users.Subscriber
	adminID     int64
	now         func() time.Time
}

// NewInMemorySubscriberStore создает хранилище подписчиков в памяти
func NewInMemorySubscriberStore(adminID int64) *InMemorySubscriberStore {
	return &InMemorySubscriberStore{
		subscribers: make(map[int64]*users.Subscriber),
		adminID:     adminID,
		now:         time.Now,
	}
}

// SetClock подменяет источник времени (для тестов)
func (s *InMemorySubscriberStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *InMemorySubscriberStore) Get(ctx context.Context, telegramID int64) (*users.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.subscribers[telegramID]
	if !exists {
		return nil, nil
	}
	clone := *sub
	return &clone, nil
}

func (s *InMemorySubscriberStore) CreateIfAbsent(ctx context.Context, telegramID int64, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscribers[telegramID]; exists {
		return nil
	}

	now := s.now()
	s.subscribers[telegramID] = &users.Subscriber{
		TelegramID: telegramID,
		Language:   language,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return nil
}

func (s *InMemorySubscriberStore) IsActive(ctx context.Context, telegramID int64) (bool, error) {
	if telegramID == s.adminID {
		return true, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.subscribers[telegramID]
	if !exists {
		return false, nil
	}
	return sub.IsActive(s.now()), nil
}

func (s *InMemorySubscriberStore) ListActive(ctx context.Context) ([]*users.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var active []*users.Subscriber
	for _, sub := range s.subscribers {
		if sub.IsActive(now) {
			clone := *sub
			active = append(active, &clone)
		}
	}

	// Стабильный порядок в пределах скана
	sort.Slice(active, func(i, j int) bool {
		return active[i].TelegramID < active[j].TelegramID
	})

	return active, nil
}

func (s *InMemorySubscriberStore) Activate(ctx context.Context, telegramID int64, durationToken string) (time.Time, error) {
	period, err := users.ActivationPeriod(durationToken)
	if err != nil {
		return time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sub, exists := s.subscribers[telegramID]
	if !exists {
		sub = &users.Subscriber{TelegramID: telegramID, CreatedAt: now}
		s.subscribers[telegramID] = sub
	}

	sub.SubscribedUntil = now.Add(period)
	sub.UpdatedAt = now
	return sub.SubscribedUntil, nil
}

func (s *InMemorySubscriberStore) Deactivate(ctx context.Context, telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, exists := s.subscribers[telegramID]; exists {
		sub.SubscribedUntil = time.Time{}
		sub.UpdatedAt = s.now()
	}
	return nil
}

func (s *InMemorySubscriberStore) ToggleWatchedSymbol(ctx context.Context, telegramID int64, symbol string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subscribers[telegramID]
	if !exists {
		sub = &users.Subscriber{TelegramID: telegramID, CreatedAt: s.now()}
		s.subscribers[telegramID] = sub
	}

	var watching bool
	sub.WatchedSymbols, watching = users.Toggle(sub.WatchedSymbols, symbol)
	sub.UpdatedAt = s.now()
	return watching, nil
}

func (s *InMemorySubscriberStore) ToggleWatchedTimeframe(ctx context.Context, telegramID int64, timeframe string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, exists := s.subscribers[telegramID]
	if !exists {
		sub = &users.Subscriber{TelegramID: telegramID, CreatedAt: s.now()}
		s.subscribers[telegramID] = sub
	}

	var watching bool
	sub.WatchedTimeframes, watching = users.Toggle(sub.WatchedTimeframes, timeframe)
	sub.UpdatedAt = s.now()
	return watching, nil
}

// InMemorySignalHistory - реализация SignalHistoryStore в памяти
type InMemorySignalHistory struct {
	mu      sync.RWMutex
	records map[string]*signals.Record
	now     func() time.Time
}

// NewInMemorySignalHistory создает хранилище истории сигналов в памяти
func NewInMemorySignalHistory() *InMemorySignalHistory {
	return &InMemorySignalHistory{
		records: make(map[string]*signals.Record),
		now:     time.Now,
	}
}

func (s *InMemorySignalHistory) GetLast(ctx context.Context, pair signals.Pair) (*signals.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[pair.Key()]
	if !exists {
		return nil, nil
	}
	clone := *rec
	return &clone, nil
}

func (s *InMemorySignalHistory) SetLast(ctx context.Context, pair signals.Pair, signal signals.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[pair.Key()] = &signals.Record{
		Pair:       pair,
		Signal:     signal,
		RecordedAt: s.now(),
	}
	return nil
}

// InMemoryNewsSeen - реализация NewsSeenStore в памяти
type InMemoryNewsSeen struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewInMemoryNewsSeen создает множество разосланных новостей в памяти
func NewInMemoryNewsSeen() *InMemoryNewsSeen {
	return &InMemoryNewsSeen{seen: make(map[string]struct{})}
}

func (s *InMemoryNewsSeen) Contains(ctx context.Context, itemID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.seen[itemID]
	return exists, nil
}

func (s *InMemoryNewsSeen) MarkSeen(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[itemID] = struct{}{}
	return nil
}

// InMemoryListingsSeen - реализация ListingsSeenStore в памяти
type InMemoryListingsSeen struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewInMemoryListingsSeen создает множество известных символов в памяти
func NewInMemoryListingsSeen() *InMemoryListingsSeen {
	return &InMemoryListingsSeen{seen: make(map[string]struct{})}
}

func (s *InMemoryListingsSeen) Contains(ctx context.Context, symbol string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.seen[symbol]
	return exists, nil
}

func (s *InMemoryListingsSeen) MarkSeen(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[symbol] = struct{}{}
	return nil
}

func (s *InMemoryListingsSeen) Empty(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.seen) == 0, nil
}

// InMemoryDialogStore - состояние диалогов в памяти с TTL
type InMemoryDialogStore struct {
	mu     sync.Mutex
	states map[int64]dialogEntry
	ttl    time.Duration
	now    func() time.Time
}

type dialogEntry struct {
	state     string
	expiresAt time.Time
}

// NewInMemoryDialogStore создает хранилище состояний диалогов в памяти
func NewInMemoryDialogStore(ttl time.Duration) *InMemoryDialogStore {
	return &InMemoryDialogStore{
		states: make(map[int64]dialogEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *InMemoryDialogStore) SetAwaiting(ctx context.Context, telegramID int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[telegramID] = dialogEntry{state: state, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *InMemoryDialogStore) GetAwaiting(ctx context.Context, telegramID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.states[telegramID]
	if !exists {
		return "", nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.states, telegramID)
		return "", nil
	}
	return entry.state, nil
}

func (s *InMemoryDialogStore) Clear(ctx context.Context, telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, telegramID)
	return nil
}
