// internal/scanner/engine.go
package scanner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"crypto-signal-alert-bot/pkg/logger"
)

// ErrScanInFlight возвращается, если предыдущий скан семейства еще не завершился
var ErrScanInFlight = errors.New("previous scan still in flight")

// Source описывает одно семейство сканирования (сигналы, новости).
// Движок одинаков для обоих: опрос -> дедупликация -> рассылка.
type Source interface {
	// Name возвращает имя семейства для логов
	Name() string

	// ListKeys возвращает ключи, подлежащие оценке в этом скане.
	// Для сигналов это объединение наблюдаемых пар, для новостей - id свежих статей.
	ListKeys(ctx context.Context) ([]string, error)

	// Evaluate вычисляет текущее состояние ключа.
	// Пустое состояние означает "действий не требуется" (HOLD, ошибка источника).
	Evaluate(ctx context.Context, key string) (string, error)

	// LastState возвращает последнее зафиксированное состояние ключа
	// ("" - состояния еще не было)
	LastState(ctx context.Context, key string) (string, error)

	// Deliver выполняет рассылку по переходу ключа в новое состояние.
	// Ошибки доставки изолируются внутри и не влияют на фиксацию состояния.
	Deliver(ctx context.Context, key, state string)

	// SaveState фиксирует новое состояние ключа ПОСЛЕ запуска рассылки.
	// Запись означает "об этом состоянии уже уведомляли", а не "доставка удалась".
	SaveState(ctx context.Context, key, state string) error
}

// Engine - движок периодического сканирования с дедупликацией.
// Не держит состояния между запусками: вся долговечная память в хранилищах Source.
type Engine struct {
	source   Source
	workers  int
	delay    time.Duration // Пауза между оценками (rate limit внешнего API)
	deadline time.Duration // Мягкий дедлайн одного скана

	running  int32     // single-flight: пересекающиеся сканы запрещены
	keyLocks *keyMutex // Взаимное исключение по ключу при параллельной оценке
}

// NewEngine создает движок сканирования для одного семейства
func NewEngine(source Source, workers int, delay, deadline time.Duration) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		source:   source,
		workers:  workers,
		delay:    delay,
		deadline: deadline,
		keyLocks: newKeyMutex(),
	}
}

// RunOnce выполняет один полный скан.
// Если предыдущий скан еще идет, возвращает ErrScanInFlight без каких-либо действий.
func (e *Engine) RunOnce(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
		logger.Warn("⏭️  [%s] Предыдущий скан еще выполняется, пропуск", e.source.Name())
		return ErrScanInFlight
	}
	defer atomic.StoreInt32(&e.running, 0)

	if e.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.deadline)
		defer cancel()
	}

	keys, err := e.source.ListKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		logger.Debug("🔍 [%s] Нет ключей для сканирования", e.source.Name())
		return nil
	}

	logger.Info("🔍 [%s] Скан начат: %d ключей, %d воркеров", e.source.Name(), len(keys), e.workers)
	start := time.Now()

	if e.workers == 1 {
		e.runSequential(ctx, keys)
	} else {
		e.runParallel(ctx, keys)
	}

	logger.Info("✅ [%s] Скан завершен за %v", e.source.Name(), time.Since(start).Round(time.Millisecond))
	return nil
}

func (e *Engine) runSequential(ctx context.Context, keys []string) {
	for i, key := range keys {
		if ctx.Err() != nil {
			logger.Warn("⏱️  [%s] Дедлайн скана истек, остальные ключи отложены до следующего тика", e.source.Name())
			return
		}

		e.evaluateKey(ctx, key)

		// Пауза между внешними запросами - вежливость к rate limit, не корректность
		if e.delay > 0 && i < len(keys)-1 {
			select {
			case <-time.After(e.delay):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (e *Engine) runParallel(ctx context.Context, keys []string) {
	jobs := make(chan string)
	var wg sync.WaitGroup

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				e.evaluateKey(ctx, key)
				if e.delay > 0 {
					select {
					case <-time.After(e.delay):
					case <-ctx.Done():
					}
				}
			}
		}()
	}

	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		jobs <- key
	}
	close(jobs)
	wg.Wait()
}

// evaluateKey выполняет цикл "оценить -> сравнить -> доставить -> зафиксировать"
// для одного ключа. Последовательность read-compare-write защищена блокировкой
// по ключу: два воркера не могут одновременно решить "переход" по одной паре.
func (e *Engine) evaluateKey(ctx context.Context, key string) {
	unlock := e.keyLocks.Lock(key)
	defer unlock()

	state, err := e.source.Evaluate(ctx, key)
	if err != nil {
		// Временный сбой источника приравнивается к "нет сигнала":
		// зафиксированная ранее запись не затирается
		logger.Warn("⚠️ [%s] Оценка %s не удалась: %v", e.source.Name(), key, err)
		return
	}
	if state == "" {
		return
	}

	last, err := e.source.LastState(ctx, key)
	if err != nil {
		logger.Error("❌ [%s] Чтение состояния %s: %v", e.source.Name(), key, err)
		return
	}
	if last == state {
		// Тренд продолжается - уже уведомляли, повтор подавляется
		logger.Debug("🔇 [%s] %s все еще %s, повтор подавлен", e.source.Name(), key, state)
		return
	}

	e.source.Deliver(ctx, key, state)

	// Состояние фиксируется после запуска рассылки: сбои доставки отдельным
	// получателям не откатывают дедупликацию
	if err := e.source.SaveState(ctx, key, state); err != nil {
		logger.Error("❌ [%s] Фиксация состояния %s=%s: %v", e.source.Name(), key, state, err)
	}
}

// keyMutex - множество мьютексов по строковому ключу
type keyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock блокирует ключ и возвращает функцию разблокировки
func (k *keyMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, exists := k.locks[key]
	if !exists {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
