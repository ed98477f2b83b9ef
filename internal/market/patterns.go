// internal/market/patterns.go
package market

import "math"

// PatternSignal - результат поиска свечного паттерна
type PatternSignal struct {
	Direction string // "BUY" или "SELL"
	Name      string
}

// DetectPattern ищет разворотный свечной паттерн на последних свечах.
// Паттерны имеют приоритет над индикаторами при формировании рекомендации.
func DetectPattern(klines []Kline) *PatternSignal {
	if len(klines) < 2 {
		return nil
	}

	last := klines[len(klines)-1]
	prev := klines[len(klines)-2]

	// Бычьи паттерны
	switch {
	case isHammer(last):
		return &PatternSignal{Direction: "BUY", Name: "Молот"}
	case isInvertedHammer(last):
		return &PatternSignal{Direction: "BUY", Name: "Перевернутый молот"}
	case isBullishEngulfing(prev, last):
		return &PatternSignal{Direction: "BUY", Name: "Бычье поглощение"}
	case isPiercingLine(prev, last):
		return &PatternSignal{Direction: "BUY", Name: "Просвет в облаках"}
	}

	// Медвежьи паттерны
	switch {
	case isShootingStar(last):
		return &PatternSignal{Direction: "SELL", Name: "Падающая звезда"}
	case isBearishEngulfing(prev, last):
		return &PatternSignal{Direction: "SELL", Name: "Медвежье поглощение"}
	case isDarkCloudCover(prev, last):
		return &PatternSignal{Direction: "SELL", Name: "Завеса из темных облаков"}
	}

	return nil
}

func bodySize(k Kline) float64 {
	return math.Abs(k.Close - k.Open)
}

func upperShadow(k Kline) float64 {
	return k.High - math.Max(k.Open, k.Close)
}

func lowerShadow(k Kline) float64 {
	return math.Min(k.Open, k.Close) - k.Low
}

func isBullish(k Kline) bool {
	return k.Close > k.Open
}

// isHammer: маленькое тело в верхней части диапазона, длинная нижняя тень
func isHammer(k Kline) bool {
	body := bodySize(k)
	if body == 0 {
		return false
	}
	return lowerShadow(k) >= 2*body && upperShadow(k) <= body
}

// isInvertedHammer: маленькое тело внизу, длинная верхняя тень
func isInvertedHammer(k Kline) bool {
	body := bodySize(k)
	if body == 0 {
		return false
	}
	return upperShadow(k) >= 2*body && lowerShadow(k) <= body
}

// isBullishEngulfing: бычье тело полностью поглощает предыдущее медвежье
func isBullishEngulfing(prev, last Kline) bool {
	return !isBullish(prev) && isBullish(last) &&
		last.Open <= prev.Close && last.Close >= prev.Open
}

// isBearishEngulfing: медвежье тело полностью поглощает предыдущее бычье
func isBearishEngulfing(prev, last Kline) bool {
	return isBullish(prev) && !isBullish(last) &&
		last.Open >= prev.Close && last.Close <= prev.Open
}

// isPiercingLine: закрытие выше середины предыдущего медвежьего тела
func isPiercingLine(prev, last Kline) bool {
	if isBullish(prev) || !isBullish(last) {
		return false
	}
	midpoint := (prev.Open + prev.Close) / 2
	return last.Open < prev.Close && last.Close > midpoint && last.Close < prev.Open
}

// isDarkCloudCover: закрытие ниже середины предыдущего бычьего тела
func isDarkCloudCover(prev, last Kline) bool {
	if !isBullish(prev) || isBullish(last) {
		return false
	}
	midpoint := (prev.Open + prev.Close) / 2
	return last.Open > prev.Close && last.Close < midpoint && last.Close > prev.Open
}

// isShootingStar: маленькое тело внизу после роста, длинная верхняя тень
func isShootingStar(k Kline) bool {
	body := bodySize(k)
	if body == 0 {
		return false
	}
	return upperShadow(k) >= 2*body && lowerShadow(k) <= body*0.5
}
