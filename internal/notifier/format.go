// internal/notifier/format.go
package notifier

import (
	"fmt"
	"strings"

	"crypto-signal-alert-bot/internal/core/domain/signals"
	"crypto-signal-alert-bot/internal/news"
)

// FormatSignalAlert форматирует уведомление о новом торговом сигнале
func FormatSignalAlert(alert *signals.Alert) string {
	icon := "🟢"
	action := "ПОКУПКА"
	if alert.Signal == signals.RecommendationSell {
		icon = "🔴"
		action = "ПРОДАЖА"
	}

	var b strings.Builder
	b.WriteString("🚨 *Новый торговый сигнал!* 🚨\n\n")
	fmt.Fprintf(&b, "📊 Символ: *%s*\n", alert.Pair.Symbol)
	fmt.Fprintf(&b, "⏱ Таймфрейм: %s\n", alert.Pair.Timeframe)
	fmt.Fprintf(&b, "%s Сигнал: *%s*\n", icon, action)

	if plan := alert.Plan; plan != nil {
		b.WriteString("\n*Параметры сделки:*\n")
		fmt.Fprintf(&b, "• Вход: %s\n", formatPrice(plan.EntryPrice))
		fmt.Fprintf(&b, "• Стоп-лосс: %s\n", formatPrice(plan.StopLoss))
		fmt.Fprintf(&b, "• Цель 1: %s\n", formatPrice(plan.Target1))
		fmt.Fprintf(&b, "• Цель 2: %s\n", formatPrice(plan.Target2))
		fmt.Fprintf(&b, "• Цель 3: %s\n", formatPrice(plan.Target3))
		fmt.Fprintf(&b, "• Ожидаемая длительность: %s\n", plan.Duration)
		if plan.Pattern != "" {
			fmt.Fprintf(&b, "• Паттерн: %s\n", plan.Pattern)
		}
	}

	b.WriteString("\nАнализ рынка в реальном времени.")
	return b.String()
}

// FormatNewsAlert форматирует уведомление о новой статье
func FormatNewsAlert(item news.Item) string {
	return fmt.Sprintf("📰 *Новости рынка* 📰\n\n*%s*\n\n[Читать полностью](%s)",
		item.Title, item.Link)
}

// FormatListingAlert форматирует уведомление о новом листинге на бирже
func FormatListingAlert(symbol string) string {
	return fmt.Sprintf("🆕 *Новый листинг!* 🆕\n\nНа бирже появился новый символ: *%s*", symbol)
}

// FormatAnalysis форматирует ответ на разовый запрос анализа
func FormatAnalysis(pair signals.Pair, rec signals.Recommendation, plan *signals.TradePlan) string {
	if !rec.Actionable() {
		return fmt.Sprintf("Анализ завершен. Текущий сигнал по *%s* [%s]: *HOLD* — подходящей точки входа нет.",
			pair.Symbol, pair.Timeframe)
	}

	alert := &signals.Alert{Pair: pair, Signal: rec, Plan: plan}
	return fmt.Sprintf("Анализ завершен по запросу.\n\n%s", FormatSignalAlert(alert))
}

// formatPrice подбирает точность вывода под масштаб цены
func formatPrice(price float64) string {
	switch {
	case price >= 100:
		return fmt.Sprintf("%.2f", price)
	case price >= 1:
		return fmt.Sprintf("%.4f", price)
	default:
		return fmt.Sprintf("%.8f", price)
	}
}
