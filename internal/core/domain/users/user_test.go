// internal/core/domain/users/user_test.go
package users

import (
	"testing"
	"time"
)

func TestIsActiveBoundary(t *testing.T) {
	expiry := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	sub := &Subscriber{TelegramID: 1, SubscribedUntil: expiry}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"до истечения", expiry.Add(-time.Second), true},
		{"ровно в момент истечения", expiry, false},
		{"после истечения", expiry.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sub.IsActive(tt.now); got != tt.want {
				t.Errorf("IsActive(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestIsActiveZeroTime(t *testing.T) {
	sub := &Subscriber{TelegramID: 1}
	if sub.IsActive(time.Now()) {
		t.Error("подписчик без активации активен")
	}
}

func TestWatches(t *testing.T) {
	sub := &Subscriber{
		WatchedSymbols:    []string{"BTCUSDT", "ETHUSDT"},
		WatchedTimeframes: []string{"1h"},
	}

	tests := []struct {
		symbol    string
		timeframe string
		want      bool
	}{
		{"BTCUSDT", "1h", true},
		{"ETHUSDT", "1h", true},
		{"BTCUSDT", "4h", false}, // Таймфрейм не наблюдается
		{"SOLUSDT", "1h", false}, // Символ не наблюдается
	}

	for _, tt := range tests {
		if got := sub.Watches(tt.symbol, tt.timeframe); got != tt.want {
			t.Errorf("Watches(%s, %s) = %v, want %v", tt.symbol, tt.timeframe, got, tt.want)
		}
	}
}

func TestHasWatchlist(t *testing.T) {
	tests := []struct {
		name       string
		symbols    []string
		timeframes []string
		want       bool
	}{
		{"оба списка", []string{"BTCUSDT"}, []string{"1h"}, true},
		{"нет таймфреймов", []string{"BTCUSDT"}, nil, false},
		{"нет символов", nil, []string{"1h"}, false},
		{"оба пусты", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &Subscriber{WatchedSymbols: tt.symbols, WatchedTimeframes: tt.timeframes}
			if got := sub.HasWatchlist(); got != tt.want {
				t.Errorf("HasWatchlist() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActivationPeriod(t *testing.T) {
	tests := []struct {
		token   string
		want    time.Duration
		wantErr bool
	}{
		{DurationDay, 24 * time.Hour, false},
		{DurationWeek, 7 * 24 * time.Hour, false},
		{DurationMonth, 30 * 24 * time.Hour, false},
		{"year", 0, true},
		{"", 0, true},
		{"Day", 0, true}, // Регистр значим
	}

	for _, tt := range tests {
		t.Run("token="+tt.token, func(t *testing.T) {
			got, err := ActivationPeriod(tt.token)
			if tt.wantErr {
				if err != ErrInvalidDuration {
					t.Fatalf("ActivationPeriod(%q) err = %v, want ErrInvalidDuration", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ActivationPeriod(%q): %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("ActivationPeriod(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	values, present := Toggle(nil, "BTCUSDT")
	if !present || len(values) != 1 {
		t.Fatalf("Toggle на пустом списке: %v, %v", values, present)
	}

	values, present = Toggle(values, "ETHUSDT")
	if !present || len(values) != 2 {
		t.Fatalf("Toggle добавления: %v, %v", values, present)
	}

	values, present = Toggle(values, "BTCUSDT")
	if present {
		t.Fatal("Toggle существующего значения вернул present=true")
	}
	if len(values) != 1 || values[0] != "ETHUSDT" {
		t.Fatalf("после удаления список = %v", values)
	}
}
