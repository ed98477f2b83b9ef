// internal/core/domain/signals/types.go
package signals

import (
	"fmt"
	"time"
)

// Recommendation - итоговая рекомендация по паре (символ, таймфрейм)
type Recommendation string

const (
	RecommendationBuy   Recommendation = "BUY"
	RecommendationSell  Recommendation = "SELL"
	RecommendationHold  Recommendation = "HOLD"
	RecommendationError Recommendation = "ERROR"
)

// ParseRecommendation приводит сырое значение к известной рекомендации.
// Все неизвестные значения трактуются как ERROR и никогда не становятся actionable.
func ParseRecommendation(raw string) Recommendation {
	switch Recommendation(raw) {
	case RecommendationBuy, RecommendationSell, RecommendationHold:
		return Recommendation(raw)
	default:
		return RecommendationError
	}
}

// Actionable возвращает true для сигналов, требующих уведомления
func (r Recommendation) Actionable() bool {
	return r == RecommendationBuy || r == RecommendationSell
}

// Pair - пара (символ, таймфрейм), единица сканирования
type Pair struct {
	Symbol    string
	Timeframe string
}

// Key возвращает ключ пары для хранилищ и блокировок
func (p Pair) Key() string {
	return p.Symbol + ":" + p.Timeframe
}

func (p Pair) String() string {
	return fmt.Sprintf("%s [%s]", p.Symbol, p.Timeframe)
}

// TradePlan - обогащение сигнала уровнями входа/выхода.
// Используется только для текста уведомления, не для дедупликации.
type TradePlan struct {
	EntryPrice float64
	StopLoss   float64
	Target1    float64
	Target2    float64
	Target3    float64
	Duration   string // Ожидаемая длительность сделки
	Pattern    string // Название свечного паттерна, если был обнаружен
}

// Record - последнее зафиксированное состояние сигнала по паре.
// Одна запись на пару: перезаписывается при смене сигнала, история не ведется.
type Record struct {
	Pair       Pair
	Signal     Recommendation
	RecordedAt time.Time
}

// Alert - сформированный сигнал, готовый к рассылке
type Alert struct {
	ID        string // uuid, для трассировки в логах
	Pair      Pair
	Signal    Recommendation
	Plan      *TradePlan // nil, если обогащение не удалось
	CreatedAt time.Time
}
