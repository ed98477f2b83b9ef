// internal/market/gateway.go
package market

import (
	"context"
	"fmt"

	"crypto-signal-alert-bot/internal/core/domain/signals"
)

// FetchError - типизированная ошибка обращения к источнику данных.
// Для планировщика такая ошибка эквивалентна HOLD: пара пропускается,
// история не затирается; различие нужно только для логов.
type FetchError struct {
	Symbol    string
	Timeframe string
	Op        string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s [%s]: %v", e.Op, e.Symbol, e.Timeframe, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Gateway - источник рекомендаций и уровней сделки
type Gateway interface {
	// Recommend возвращает рекомендацию по паре.
	// При сбое источника возвращает ERROR и *FetchError.
	Recommend(ctx context.Context, symbol, timeframe string) (signals.Recommendation, error)

	// EntryStopTargets считает уровни входа/стопа/целей для обогащения сообщения.
	// Сбой обогащения не должен блокировать уведомление.
	EntryStopTargets(ctx context.Context, symbol, timeframe string, signal signals.Recommendation) (*signals.TradePlan, error)
}

// BinanceGateway - реализация Gateway поверх свечей Binance
type BinanceGateway struct {
	client     *BinanceClient
	klineLimit int
}

// NewBinanceGateway создает шлюз рыночных данных
func NewBinanceGateway(client *BinanceClient, klineLimit int) *BinanceGateway {
	return &BinanceGateway{client: client, klineLimit: klineLimit}
}

// Recommend строит рекомендацию по индикаторам и свечным паттернам
func (g *BinanceGateway) Recommend(ctx context.Context, symbol, timeframe string) (signals.Recommendation, error) {
	klines, err := g.client.GetKlines(ctx, symbol, timeframe, g.klineLimit)
	if err != nil {
		return signals.RecommendationError, &FetchError{Symbol: symbol, Timeframe: timeframe, Op: "recommend", Err: err}
	}

	ind, ok := ComputeIndicators(klines)
	if !ok {
		return signals.RecommendationError, &FetchError{
			Symbol: symbol, Timeframe: timeframe, Op: "recommend",
			Err: fmt.Errorf("not enough klines: %d", len(klines)),
		}
	}

	pattern := DetectPattern(klines)
	return DecideRecommendation(ind, pattern), nil
}

// DecideRecommendation применяет правила к срезу индикаторов.
// Паттерн, если найден, имеет приоритет над индикаторами.
func DecideRecommendation(ind Indicators, pattern *PatternSignal) signals.Recommendation {
	rec := signals.RecommendationHold

	if ind.RSI < 35 || ind.MACDHistogram > 0 || ind.StochasticK < 20 {
		rec = signals.RecommendationBuy
	} else if ind.RSI > 65 || ind.MACDHistogram < 0 || ind.StochasticK > 80 {
		rec = signals.RecommendationSell
	}

	if pattern != nil {
		rec = signals.ParseRecommendation(pattern.Direction)
	}

	return rec
}

// EntryStopTargets считает уровни сделки от текущей цены и ATR
func (g *BinanceGateway) EntryStopTargets(ctx context.Context, symbol, timeframe string, signal signals.Recommendation) (*signals.TradePlan, error) {
	if !signal.Actionable() {
		return nil, fmt.Errorf("no trade plan for %s signal", signal)
	}

	klines, err := g.client.GetKlines(ctx, symbol, timeframe, g.klineLimit)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Timeframe: timeframe, Op: "enrich", Err: err}
	}

	ind, ok := ComputeIndicators(klines)
	if !ok || ind.ATR == 0 {
		return nil, &FetchError{
			Symbol: symbol, Timeframe: timeframe, Op: "enrich",
			Err: fmt.Errorf("ATR unavailable"),
		}
	}

	plan := BuildTradePlan(signal, ind.Close, ind.ATR, timeframe)
	if pattern := DetectPattern(klines); pattern != nil {
		plan.Pattern = pattern.Name
	}
	return plan, nil
}

// BuildTradePlan строит уровни сделки: стоп на 1.5 ATR, цели на 1/2/3 ATR
func BuildTradePlan(signal signals.Recommendation, entry, atr float64, timeframe string) *signals.TradePlan {
	plan := &signals.TradePlan{
		EntryPrice: entry,
		Duration:   expectedDuration(timeframe),
	}

	if signal == signals.RecommendationBuy {
		plan.StopLoss = entry - 1.5*atr
		plan.Target1 = entry + 1*atr
		plan.Target2 = entry + 2*atr
		plan.Target3 = entry + 3*atr
	} else {
		plan.StopLoss = entry + 1.5*atr
		plan.Target1 = entry - 1*atr
		plan.Target2 = entry - 2*atr
		plan.Target3 = entry - 3*atr
	}

	return plan
}

// expectedDuration возвращает ожидаемую длительность сделки для таймфрейма
func expectedDuration(timeframe string) string {
	durations := map[string]string{
		"1m":  "несколько минут",
		"5m":  "пара часов",
		"15m": "несколько часов",
		"1h":  "день или больше",
		"4h":  "несколько дней",
		"1d":  "неделя и больше",
	}
	if d, ok := durations[timeframe]; ok {
		return d
	}
	return "не определена"
}
