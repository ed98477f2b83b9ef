// internal/market/indicators.go
package market

import "math"

// Indicators - срез значений индикаторов по последней закрытой свече
type Indicators struct {
	Close         float64
	RSI           float64
	MACDHistogram float64
	StochasticK   float64
	ATR           float64
	SMA200        float64
}

// ComputeIndicators считает набор индикаторов по свечам.
// Возвращает false, если данных недостаточно.
func ComputeIndicators(klines []Kline) (Indicators, bool) {
	const minBars = 35 // Хватает для RSI(14), MACD(12,26,9), Stoch(14), ATR(14)
	if len(klines) < minBars {
		return Indicators{}, false
	}

	closes := make([]float64, len(klines))
	highs := make([]float64, len(klines))
	lows := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
		highs[i] = k.High
		lows[i] = k.Low
	}

	ind := Indicators{
		Close:         closes[len(closes)-1],
		RSI:           rsi(closes, 14),
		MACDHistogram: macdHistogram(closes, 12, 26, 9),
		StochasticK:   stochasticK(highs, lows, closes, 14, 3),
		ATR:           atr(highs, lows, closes, 14),
		SMA200:        sma(closes, 200),
	}
	return ind, true
}

// rsi считает RSI по Уайлдеру за period
func rsi(closes []float64, period int) float64 {
	if len(closes) <= period {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ema считает полный ряд EMA за period
func ema(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	if len(values) == 0 {
		return result
	}

	multiplier := 2.0 / float64(period+1)
	result[0] = values[0]
	for i := 1; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}
	return result
}

// macdHistogram возвращает последнее значение гистограммы MACD
func macdHistogram(closes []float64, fast, slow, signal int) float64 {
	if len(closes) < slow+signal {
		return 0
	}

	emaFast := ema(closes, fast)
	emaSlow := ema(closes, slow)

	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = emaFast[i] - emaSlow[i]
	}

	signalLine := ema(macdLine, signal)
	return macdLine[len(macdLine)-1] - signalLine[len(signalLine)-1]
}

// stochasticK возвращает сглаженное значение %K стохастика
func stochasticK(highs, lows, closes []float64, kPeriod, smooth int) float64 {
	if len(closes) < kPeriod+smooth {
		return 50
	}

	// Сырые значения %K за последние smooth баров
	raw := make([]float64, 0, smooth)
	for offset := smooth - 1; offset >= 0; offset-- {
		end := len(closes) - offset
		start := end - kPeriod

		highest := highs[start]
		lowest := lows[start]
		for i := start + 1; i < end; i++ {
			highest = math.Max(highest, highs[i])
			lowest = math.Min(lowest, lows[i])
		}

		if highest == lowest {
			raw = append(raw, 50)
			continue
		}
		raw = append(raw, (closes[end-1]-lowest)/(highest-lowest)*100)
	}

	var sum float64
	for _, v := range raw {
		sum += v
	}
	return sum / float64(len(raw))
}

// atr считает средний истинный диапазон за period
func atr(highs, lows, closes []float64, period int) float64 {
	if len(closes) <= period {
		return 0
	}

	trueRanges := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		trueRanges = append(trueRanges, tr)
	}

	// Сглаживание по Уайлдеру
	result := 0.0
	for i := 0; i < period; i++ {
		result += trueRanges[i]
	}
	result /= float64(period)

	for i := period; i < len(trueRanges); i++ {
		result = (result*float64(period-1) + trueRanges[i]) / float64(period)
	}
	return result
}

// sma считает простую скользящую среднюю за period.
// При нехватке данных усредняет весь доступный ряд.
func sma(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) < period {
		period = len(values)
	}

	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}
