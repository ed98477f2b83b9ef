// internal/config/config_test.go
package config

import (
	"testing"
	"time"
)

// setRequired выставляет минимум, без которого Validate падает
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:test-token")
	t.Setenv("ADMIN_USER_ID", "42")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig("testdata/missing.env")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Telegram.AdminUserID != 42 {
		t.Errorf("AdminUserID = %d", cfg.Telegram.AdminUserID)
	}
	if cfg.Scan.SignalInterval != 5*time.Minute {
		t.Errorf("SignalInterval = %v, want 5m", cfg.Scan.SignalInterval)
	}
	if cfg.Scan.NewsInterval != 30*time.Minute {
		t.Errorf("NewsInterval = %v, want 30m", cfg.Scan.NewsInterval)
	}
	if cfg.Scan.ListingsInterval != time.Hour {
		t.Errorf("ListingsInterval = %v, want 1h", cfg.Scan.ListingsInterval)
	}
	if cfg.News.FeedURL != "https://cryptoslate.com/feed/" {
		t.Errorf("FeedURL = %q", cfg.News.FeedURL)
	}
	if len(cfg.Universe.Symbols) == 0 || len(cfg.Universe.Timeframes) == 0 {
		t.Error("вселенная по умолчанию пуста")
	}
	if !cfg.Database.Enabled {
		t.Error("база данных по умолчанию выключена")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SIGNAL_SCAN_INTERVAL", "10m")
	t.Setenv("WATCH_SYMBOLS", "BTCUSDT, ETHUSDT ,SOLUSDT")
	t.Setenv("BROADCAST_CHAT_ID", "-100123")
	t.Setenv("DB_ENABLED", "false")

	cfg, err := LoadConfig("testdata/missing.env")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Scan.SignalInterval != 10*time.Minute {
		t.Errorf("SignalInterval = %v", cfg.Scan.SignalInterval)
	}
	if cfg.Telegram.BroadcastChatID != -100123 {
		t.Errorf("BroadcastChatID = %d", cfg.Telegram.BroadcastChatID)
	}
	if cfg.Database.Enabled {
		t.Error("DB_ENABLED=false не применился")
	}

	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	if len(cfg.Universe.Symbols) != len(want) {
		t.Fatalf("Symbols = %v", cfg.Universe.Symbols)
	}
	for i, s := range want {
		if cfg.Universe.Symbols[i] != s {
			t.Errorf("Symbols[%d] = %q, want %q", i, cfg.Universe.Symbols[i], s)
		}
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "нет токена",
			env:  map[string]string{"ADMIN_USER_ID": "42"},
		},
		{
			name: "нет администратора",
			env:  map[string]string{"TELEGRAM_BOT_TOKEN": "123:t"},
		},
		{
			name: "слишком частый скан",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":   "123:t",
				"ADMIN_USER_ID":        "42",
				"SIGNAL_SCAN_INTERVAL": "10s",
			},
		},
		{
			name: "пустая вселенная",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "123:t",
				"ADMIN_USER_ID":      "42",
				"WATCH_SYMBOLS":      " , ",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig("testdata/missing.env"); err == nil {
				t.Fatal("LoadConfig принял некорректную конфигурацию")
			}
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"a,b,c", 3},
		{" a , b ", 2},
		{"", 0},
		{",,", 0},
	}

	for _, tt := range tests {
		if got := parseList(tt.raw); len(got) != tt.want {
			t.Errorf("parseList(%q) = %v, want %d элементов", tt.raw, got, tt.want)
		}
	}
}

func TestDSNAndAddr(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "bot", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=bot sslmode=disable"
	if got := db.DSN(); got != want {
		t.Errorf("DSN() = %q", got)
	}

	r := RedisConfig{Host: "cache", Port: 6379}
	if got := r.Addr(); got != "cache:6379" {
		t.Errorf("Addr() = %q", got)
	}
}
