// internal/market/market_test.go
package market

import (
	"math"
	"testing"

	"crypto-signal-alert-bot/internal/core/domain/signals"
)

func TestDecideRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		ind     Indicators
		pattern *PatternSignal
		want    signals.Recommendation
	}{
		{
			name: "перепроданность по RSI",
			ind:  Indicators{RSI: 30, MACDHistogram: -1, StochasticK: 50},
			want: signals.RecommendationBuy,
		},
		{
			name: "положительная гистограмма MACD",
			ind:  Indicators{RSI: 50, MACDHistogram: 0.5, StochasticK: 50},
			want: signals.RecommendationBuy,
		},
		{
			name: "низкий стохастик",
			ind:  Indicators{RSI: 50, MACDHistogram: -0.1, StochasticK: 15},
			want: signals.RecommendationBuy,
		},
		{
			name: "перекупленность по RSI",
			ind:  Indicators{RSI: 70, MACDHistogram: -0.5, StochasticK: 50},
			want: signals.RecommendationSell,
		},
		{
			name: "отрицательная гистограмма MACD",
			ind:  Indicators{RSI: 50, MACDHistogram: -0.5, StochasticK: 50},
			want: signals.RecommendationSell,
		},
		{
			name: "высокий стохастик",
			ind:  Indicators{RSI: 50, MACDHistogram: 0, StochasticK: 85},
			want: signals.RecommendationSell,
		},
		{
			name: "нейтральная зона",
			ind:  Indicators{RSI: 50, MACDHistogram: 0, StochasticK: 50},
			want: signals.RecommendationHold,
		},
		{
			name:    "бычий паттерн перекрывает медвежьи индикаторы",
			ind:     Indicators{RSI: 70, MACDHistogram: -1, StochasticK: 90},
			pattern: &PatternSignal{Direction: "BUY", Name: "Молот"},
			want:    signals.RecommendationBuy,
		},
		{
			name:    "медвежий паттерн перекрывает бычьи индикаторы",
			ind:     Indicators{RSI: 30, MACDHistogram: 1, StochasticK: 10},
			pattern: &PatternSignal{Direction: "SELL", Name: "Медвежье поглощение"},
			want:    signals.RecommendationSell,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecideRecommendation(tt.ind, tt.pattern); got != tt.want {
				t.Errorf("DecideRecommendation() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildTradePlan(t *testing.T) {
	buy := BuildTradePlan(signals.RecommendationBuy, 100, 2, "1h")
	if buy.StopLoss != 97 {
		t.Errorf("BUY StopLoss = %v, want 97", buy.StopLoss)
	}
	if buy.Target1 != 102 || buy.Target2 != 104 || buy.Target3 != 106 {
		t.Errorf("BUY цели = %v/%v/%v", buy.Target1, buy.Target2, buy.Target3)
	}
	if buy.Duration != "день или больше" {
		t.Errorf("BUY Duration = %q", buy.Duration)
	}

	sell := BuildTradePlan(signals.RecommendationSell, 100, 2, "4h")
	if sell.StopLoss != 103 {
		t.Errorf("SELL StopLoss = %v, want 103", sell.StopLoss)
	}
	if sell.Target1 != 98 || sell.Target2 != 96 || sell.Target3 != 94 {
		t.Errorf("SELL цели = %v/%v/%v", sell.Target1, sell.Target2, sell.Target3)
	}
}

func TestExpectedDuration(t *testing.T) {
	tests := []struct {
		timeframe string
		want      string
	}{
		{"15m", "несколько часов"},
		{"1h", "день или больше"},
		{"1d", "неделя и больше"},
		{"3w", "не определена"},
	}

	for _, tt := range tests {
		if got := expectedDuration(tt.timeframe); got != tt.want {
			t.Errorf("expectedDuration(%s) = %q, want %q", tt.timeframe, got, tt.want)
		}
	}
}

// risingKlines генерирует свечи с линейно растущим закрытием
func risingKlines(n int) []Kline {
	klines := make([]Kline, n)
	for i := range klines {
		price := 100 + float64(i)
		klines[i] = Kline{
			Open:  price - 0.5,
			High:  price + 1,
			Low:   price - 1,
			Close: price,
		}
	}
	return klines
}

func TestComputeIndicators(t *testing.T) {
	t.Run("мало данных", func(t *testing.T) {
		if _, ok := ComputeIndicators(risingKlines(34)); ok {
			t.Fatal("ComputeIndicators принял 34 свечи")
		}
	})

	t.Run("устойчивый рост", func(t *testing.T) {
		klines := risingKlines(60)
		ind, ok := ComputeIndicators(klines)
		if !ok {
			t.Fatal("ComputeIndicators отверг 60 свечей")
		}
		if ind.Close != klines[len(klines)-1].Close {
			t.Errorf("Close = %v, want %v", ind.Close, klines[len(klines)-1].Close)
		}
		// Непрерывный рост: RSI у верхней границы, ATR положительный
		if ind.RSI < 70 {
			t.Errorf("RSI = %v на непрерывном росте", ind.RSI)
		}
		if ind.ATR <= 0 {
			t.Errorf("ATR = %v", ind.ATR)
		}
		if math.IsNaN(ind.MACDHistogram) || math.IsNaN(ind.StochasticK) {
			t.Error("индикаторы содержат NaN")
		}
	})
}

func TestDetectPattern(t *testing.T) {
	base := risingKlines(10)

	tests := []struct {
		name string
		prev Kline
		last Kline
		want string // Имя паттерна, "" = паттерна нет
	}{
		{
			name: "молот",
			prev: Kline{Open: 100, High: 101, Low: 99, Close: 100.5},
			last: Kline{Open: 100, High: 101.5, Low: 95, Close: 101},
			want: "Молот",
		},
		{
			name: "бычье поглощение",
			prev: Kline{Open: 105, High: 105, Low: 100, Close: 100},
			last: Kline{Open: 99, High: 106, Low: 99, Close: 106},
			want: "Бычье поглощение",
		},
		{
			name: "медвежье поглощение",
			prev: Kline{Open: 100, High: 105, Low: 100, Close: 105},
			last: Kline{Open: 106, High: 106, Low: 99, Close: 99},
			want: "Медвежье поглощение",
		},
		{
			name: "ровный рынок без паттерна",
			prev: Kline{Open: 100, High: 100.6, Low: 99.9, Close: 100.5},
			last: Kline{Open: 100.5, High: 101.1, Low: 100.4, Close: 101},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			klines := append(append([]Kline(nil), base...), tt.prev, tt.last)
			got := DetectPattern(klines)

			if tt.want == "" {
				if got != nil {
					t.Fatalf("DetectPattern() = %+v, ожидалось отсутствие паттерна", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("паттерн %q не обнаружен", tt.want)
			}
			if got.Name != tt.want {
				t.Errorf("DetectPattern().Name = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestDetectPatternNeedsTwoCandles(t *testing.T) {
	if got := DetectPattern([]Kline{{Open: 1, Close: 2}}); got != nil {
		t.Fatalf("DetectPattern по одной свече = %+v", got)
	}
}
