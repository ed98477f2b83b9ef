// internal/core/domain/signals/types_test.go
package signals

import "testing"

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		raw  string
		want Recommendation
	}{
		{"BUY", RecommendationBuy},
		{"SELL", RecommendationSell},
		{"HOLD", RecommendationHold},
		{"ERROR", RecommendationError},
		// Неизвестные значения всегда приводятся к ERROR
		{"buy", RecommendationError},
		{"MOON", RecommendationError},
		{"", RecommendationError},
		{"BUY ", RecommendationError},
	}

	for _, tt := range tests {
		t.Run("raw="+tt.raw, func(t *testing.T) {
			if got := ParseRecommendation(tt.raw); got != tt.want {
				t.Errorf("ParseRecommendation(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestActionable(t *testing.T) {
	tests := []struct {
		rec  Recommendation
		want bool
	}{
		{RecommendationBuy, true},
		{RecommendationSell, true},
		{RecommendationHold, false},
		{RecommendationError, false},
	}

	for _, tt := range tests {
		if got := tt.rec.Actionable(); got != tt.want {
			t.Errorf("%s.Actionable() = %v, want %v", tt.rec, got, tt.want)
		}
	}
}

func TestPairKey(t *testing.T) {
	pair := Pair{Symbol: "BTCUSDT", Timeframe: "1h"}
	if got := pair.Key(); got != "BTCUSDT:1h" {
		t.Errorf("Key() = %q", got)
	}
	if got := pair.String(); got != "BTCUSDT [1h]" {
		t.Errorf("String() = %q", got)
	}
}
