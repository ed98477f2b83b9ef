// internal/market/client.go
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Kline - одна свеча OHLCV
type Kline struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// BinanceClient - клиент публичного REST API Binance
type BinanceClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewBinanceClient создает клиент Binance API
func NewBinanceClient(baseURL string, timeout time.Duration) *BinanceClient {
	return &BinanceClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// GetKlines запрашивает свечи по символу и таймфрейму.
// Binance отдает свечи массивами смешанных типов, числа приходят строками.
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, url.Values{
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("klines request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read klines response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance API returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse klines response: %w", err)
	}

	klines := make([]Kline, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}

		var openTimeMs int64
		if err := json.Unmarshal(row[0], &openTimeMs); err != nil {
			continue
		}

		kline := Kline{OpenTime: time.UnixMilli(openTimeMs)}
		fields := []*float64{&kline.Open, &kline.High, &kline.Low, &kline.Close, &kline.Volume}
		ok := true
		for i, field := range fields {
			var str string
			if err := json.Unmarshal(row[i+1], &str); err != nil {
				ok = false
				break
			}
			value, err := strconv.ParseFloat(str, 64)
			if err != nil {
				ok = false
				break
			}
			*field = value
		}
		if ok {
			klines = append(klines, kline)
		}
	}

	if len(klines) == 0 {
		return nil, fmt.Errorf("binance returned no klines for %s [%s]", symbol, interval)
	}

	return klines, nil
}

// GetActiveSymbols возвращает символы биржи в статусе TRADING
func (c *BinanceClient) GetActiveSymbols(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/api/v3/exchangeInfo", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance API returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var info struct {
		Symbols []struct {
			Symbol string `json:"symbol"`
			Status string `json:"status"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse exchange info response: %w", err)
	}

	symbols := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status == "TRADING" {
			symbols = append(symbols, s.Symbol)
		}
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("binance returned no active symbols")
	}

	return symbols, nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
