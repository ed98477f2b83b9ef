// internal/telegram/handlers.go
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"crypto-signal-alert-bot/internal/config"
	"crypto-signal-alert-bot/internal/core/domain/signals"
	"crypto-signal-alert-bot/internal/core/domain/users"
	"crypto-signal-alert-bot/internal/market"
	"crypto-signal-alert-bot/internal/notifier"
	"crypto-signal-alert-bot/internal/storage"
	"crypto-signal-alert-bot/pkg/logger"
)

// Состояния диалога
const dialogAwaitingAnalysis = "awaiting_analysis"

// Префиксы callback данных
const (
	callbackToggleSymbol    = "sym_"
	callbackToggleTimeframe = "tf_"
)

// Handler - маршрутизатор входящих обновлений.
// Регистрирует пользователей, проверяет подписку, управляет списками
// наблюдения и выполняет разовый анализ по запросу.
type Handler struct {
	bot         *Bot
	subscribers storage.SubscriberStore
	dialogs     storage.DialogStore
	gateway     market.Gateway
	cfg         *config.Config
}

// NewHandler создает обработчик обновлений
func NewHandler(
	bot *Bot,
	subscribers storage.SubscriberStore,
	dialogs storage.DialogStore,
	gateway market.Gateway,
	cfg *config.Config,
) *Handler {
	return &Handler{
		bot:         bot,
		subscribers: subscribers,
		dialogs:     dialogs,
		gateway:     gateway,
		cfg:         cfg,
	}
}

// HandleUpdate обрабатывает одно обновление
func (h *Handler) HandleUpdate(ctx context.Context, update Update) {
	switch {
	case update.Message != nil && update.Message.Text != "":
		h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.Data != "":
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	logger.Debug("💬 Сообщение от %d: '%s'", userID, text)

	// Регистрация при первом обращении; подписка при этом не выдается
	if err := h.subscribers.CreateIfAbsent(ctx, userID, msg.From.LanguageCode); err != nil {
		logger.Error("❌ Не удалось зарегистрировать пользователя %d: %v", userID, err)
	}

	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, userID, chatID, text)
		return
	}

	// Текст вне команды: возможно, ответ на запрос диалога
	state, err := h.dialogs.GetAwaiting(ctx, userID)
	if err != nil {
		logger.Error("❌ Ошибка чтения состояния диалога %d: %v", userID, err)
	}
	if state == dialogAwaitingAnalysis {
		h.handleAnalysisInput(ctx, userID, chatID, text)
		return
	}

	h.reply(ctx, chatID, "❓ Неизвестная команда. Используйте /help для списка команд.")
}

// handleCommand обрабатывает команды
func (h *Handler) handleCommand(ctx context.Context, userID, chatID int64, text string) {
	fields := strings.Fields(text)
	command := fields[0]
	args := fields[1:]

	logger.Info("⚡ Команда %s от %d", command, userID)

	switch command {
	case "/start":
		h.handleStart(ctx, chatID)
	case "/help":
		h.handleHelp(ctx, chatID)
	case "/subscribe":
		h.handleSubscribe(ctx, chatID)
	case "/status":
		h.handleStatus(ctx, userID, chatID)
	case "/symbols":
		h.handleSymbolsMenu(ctx, userID, chatID)
	case "/timeframes":
		h.handleTimeframesMenu(ctx, userID, chatID)
	case "/analyze":
		h.handleAnalyzeRequest(ctx, userID, chatID)
	case "/admin_activate":
		h.handleAdminActivate(ctx, userID, chatID, args)
	case "/admin_deactivate":
		h.handleAdminDeactivate(ctx, userID, chatID, args)
	case "/admin_status":
		h.handleAdminStatus(ctx, userID, chatID, args)
	default:
		h.reply(ctx, chatID, fmt.Sprintf("❓ Неизвестная команда: %s. Используйте /help", command))
	}
}

func (h *Handler) handleStart(ctx context.Context, chatID int64) {
	message := "🚀 *Crypto Signal Alert Bot*\n\n" +
		"Бот отслеживает торговые сигналы по вашему списку наблюдения " +
		"и присылает уведомление, когда рекомендация меняется.\n\n" +
		"*Команды:*\n" +
		"/subscribe - Оформить подписку\n" +
		"/symbols - Выбрать символы\n" +
		"/timeframes - Выбрать таймфреймы\n" +
		"/analyze - Разовый анализ пары\n" +
		"/status - Статус подписки\n" +
		"/help - Справка"

	h.reply(ctx, chatID, message)
}

func (h *Handler) handleHelp(ctx context.Context, chatID int64) {
	message := "🆘 *Помощь*\n\n" +
		"*Основные команды:*\n" +
		"/start - Начало работы\n" +
		"/subscribe - Тарифы и оплата подписки\n" +
		"/symbols - Включить/выключить символы в списке наблюдения\n" +
		"/timeframes - Включить/выключить таймфреймы\n" +
		"/analyze - Запросить анализ пары прямо сейчас\n" +
		"/status - Срок подписки и текущий список наблюдения\n\n" +
		"Сигналы приходят автоматически при смене рекомендации " +
		"по наблюдаемым парам. Повторные сигналы без изменения не присылаются."

	h.reply(ctx, chatID, message)
}

func (h *Handler) handleSubscribe(ctx context.Context, chatID int64) {
	message := "💎 *Тарифы подписки*\n\n" +
		"• День - 4 USDT\n" +
		"• Неделя - 15 USDT\n" +
		"• Месяц - 50 USDT\n\n" +
		"💰 Кошелек для оплаты (TRC20):\n" +
		fmt.Sprintf("`%s`\n\n", h.cfg.Telegram.WalletAddress) +
		"После оплаты отправьте скриншот администратору - " +
		"подписка будет активирована вручную."

	h.reply(ctx, chatID, message)
}

func (h *Handler) handleStatus(ctx context.Context, userID, chatID int64) {
	sub, err := h.subscribers.Get(ctx, userID)
	if err != nil {
		logger.Error("❌ Ошибка чтения подписчика %d: %v", userID, err)
		h.reply(ctx, chatID, "❌ Не удалось получить статус, попробуйте позже.")
		return
	}
	if sub == nil {
		h.reply(ctx, chatID, "Вы еще не зарегистрированы. Отправьте /start.")
		return
	}

	h.reply(ctx, chatID, formatSubscriberStatus(sub, time.Now()))
}

// handleSymbolsMenu показывает клавиатуру выбора символов
func (h *Handler) handleSymbolsMenu(ctx context.Context, userID, chatID int64) {
	sub, ok := h.requireActive(ctx, userID, chatID)
	if !ok {
		return
	}

	keyboard := h.symbolsKeyboard(sub)
	message := "📊 *Символы*\n\nНажмите на символ, чтобы включить или выключить его в списке наблюдения:"
	if err := h.bot.SendMessageWithKeyboard(ctx, chatID, message, keyboard); err != nil {
		logger.Error("❌ Не удалось отправить меню символов: %v", err)
	}
}

// handleTimeframesMenu показывает клавиатуру выбора таймфреймов
func (h *Handler) handleTimeframesMenu(ctx context.Context, userID, chatID int64) {
	sub, ok := h.requireActive(ctx, userID, chatID)
	if !ok {
		return
	}

	keyboard := h.timeframesKeyboard(sub)
	message := "⏱ *Таймфреймы*\n\nНажмите на таймфрейм, чтобы включить или выключить его:"
	if err := h.bot.SendMessageWithKeyboard(ctx, chatID, message, keyboard); err != nil {
		logger.Error("❌ Не удалось отправить меню таймфреймов: %v", err)
	}
}

// handleAnalyzeRequest переводит диалог в режим ожидания пары
func (h *Handler) handleAnalyzeRequest(ctx context.Context, userID, chatID int64) {
	if _, ok := h.requireActive(ctx, userID, chatID); !ok {
		return
	}

	if err := h.dialogs.SetAwaiting(ctx, userID, dialogAwaitingAnalysis); err != nil {
		logger.Error("❌ Не удалось сохранить состояние диалога %d: %v", userID, err)
		h.reply(ctx, chatID, "❌ Внутренняя ошибка, попробуйте позже.")
		return
	}

	h.reply(ctx, chatID, "Отправьте пару и таймфрейм, например: `BTCUSDT 1h`")
}

// handleAnalysisInput выполняет разовый анализ по введенной паре
func (h *Handler) handleAnalysisInput(ctx context.Context, userID, chatID int64, text string) {
	if err := h.dialogs.Clear(ctx, userID); err != nil {
		logger.Error("❌ Не удалось сбросить состояние диалога %d: %v", userID, err)
	}

	fields := strings.Fields(strings.ToUpper(text))
	if len(fields) != 2 {
		h.reply(ctx, chatID, "❓ Ожидается пара и таймфрейм, например: `BTCUSDT 1h`. Отправьте /analyze еще раз.")
		return
	}

	symbol := fields[0]
	timeframe := strings.ToLower(fields[1])
	if !contains(h.cfg.Universe.Symbols, symbol) || !contains(h.cfg.Universe.Timeframes, timeframe) {
		h.reply(ctx, chatID, fmt.Sprintf(
			"❓ Пара %s [%s] недоступна.\nСимволы: %s\nТаймфреймы: %s",
			symbol, timeframe,
			strings.Join(h.cfg.Universe.Symbols, ", "),
			strings.Join(h.cfg.Universe.Timeframes, ", "),
		))
		return
	}

	h.reply(ctx, chatID, fmt.Sprintf("🔍 Анализирую %s [%s]...", symbol, timeframe))

	rec, err := h.gateway.Recommend(ctx, symbol, timeframe)
	if err != nil {
		logger.Error("❌ Разовый анализ %s [%s] не удался: %v", symbol, timeframe, err)
		h.reply(ctx, chatID, "❌ Источник данных недоступен, попробуйте позже.")
		return
	}

	var plan *signals.TradePlan
	if rec.Actionable() {
		plan, err = h.gateway.EntryStopTargets(ctx, symbol, timeframe, rec)
		if err != nil {
			logger.Warn("⚠️ Обогащение разового анализа %s [%s] не удалось: %v", symbol, timeframe, err)
		}
	}

	pair := signals.Pair{Symbol: symbol, Timeframe: timeframe}
	h.reply(ctx, chatID, notifier.FormatAnalysis(pair, rec, plan))
}

// Админские команды

func (h *Handler) handleAdminActivate(ctx context.Context, userID, chatID int64, args []string) {
	if !h.requireAdmin(ctx, userID, chatID) {
		return
	}
	if len(args) != 2 {
		h.reply(ctx, chatID, "Использование: `/admin_activate <telegram_id> <day|week|month>`")
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, fmt.Sprintf("❓ Некорректный telegram_id: %s", args[0]))
		return
	}

	until, err := h.subscribers.Activate(ctx, targetID, args[1])
	if err != nil {
		if err == users.ErrInvalidDuration {
			h.reply(ctx, chatID, fmt.Sprintf("❓ Неизвестный период: %s. Допустимо: day, week, month", args[1]))
			return
		}
		logger.Error("❌ Активация подписки %d не удалась: %v", targetID, err)
		h.reply(ctx, chatID, "❌ Не удалось активировать подписку.")
		return
	}

	logger.Info("✅ Подписка %d активирована до %s", targetID, until.Format("2006-01-02 15:04"))
	h.reply(ctx, chatID, fmt.Sprintf("✅ Подписка пользователя %d активна до %s",
		targetID, until.Format("2006-01-02 15:04")))

	// Уведомляем пользователя о активации; сбой не критичен
	if err := h.bot.SendMessageTo(ctx, targetID, fmt.Sprintf(
		"🎉 *Подписка активирована!*\n\nДействует до: %s\n\nНастройте список наблюдения: /symbols и /timeframes",
		until.Format("2006-01-02 15:04"))); err != nil {
		logger.Warn("⚠️ Не удалось уведомить пользователя %d об активации: %v", targetID, err)
	}
}

func (h *Handler) handleAdminDeactivate(ctx context.Context, userID, chatID int64, args []string) {
	if !h.requireAdmin(ctx, userID, chatID) {
		return
	}
	if len(args) != 1 {
		h.reply(ctx, chatID, "Использование: `/admin_deactivate <telegram_id>`")
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, fmt.Sprintf("❓ Некорректный telegram_id: %s", args[0]))
		return
	}

	if err := h.subscribers.Deactivate(ctx, targetID); err != nil {
		logger.Error("❌ Деактивация подписки %d не удалась: %v", targetID, err)
		h.reply(ctx, chatID, "❌ Не удалось деактивировать подписку.")
		return
	}

	logger.Info("🚫 Подписка %d деактивирована", targetID)
	h.reply(ctx, chatID, fmt.Sprintf("🚫 Подписка пользователя %d завершена", targetID))
}

func (h *Handler) handleAdminStatus(ctx context.Context, userID, chatID int64, args []string) {
	if !h.requireAdmin(ctx, userID, chatID) {
		return
	}
	if len(args) != 1 {
		h.reply(ctx, chatID, "Использование: `/admin_status <telegram_id>`")
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, fmt.Sprintf("❓ Некорректный telegram_id: %s", args[0]))
		return
	}

	sub, err := h.subscribers.Get(ctx, targetID)
	if err != nil {
		logger.Error("❌ Ошибка чтения подписчика %d: %v", targetID, err)
		h.reply(ctx, chatID, "❌ Не удалось получить статус.")
		return
	}
	if sub == nil {
		h.reply(ctx, chatID, fmt.Sprintf("Пользователь %d не зарегистрирован", targetID))
		return
	}

	h.reply(ctx, chatID, formatSubscriberStatus(sub, time.Now()))
}

// handleCallback обрабатывает нажатия inline кнопок
func (h *Handler) handleCallback(ctx context.Context, callback *CallbackQuery) {
	if callback.From == nil || callback.Message == nil {
		return
	}
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	data := callback.Data

	logger.Debug("🔄 Callback от %d: %s", userID, data)

	// Подтверждаем нажатие сразу, иначе кнопка "зависает" у пользователя
	if err := h.bot.AnswerCallbackQuery(ctx, callback.ID); err != nil {
		logger.Warn("⚠️ Не удалось ответить на callback: %v", err)
	}

	switch {
	case strings.HasPrefix(data, callbackToggleSymbol):
		h.handleToggleSymbol(ctx, userID, chatID, strings.TrimPrefix(data, callbackToggleSymbol))
	case strings.HasPrefix(data, callbackToggleTimeframe):
		h.handleToggleTimeframe(ctx, userID, chatID, strings.TrimPrefix(data, callbackToggleTimeframe))
	default:
		logger.Warn("❓ Неизвестный callback: %s", data)
	}
}

func (h *Handler) handleToggleSymbol(ctx context.Context, userID, chatID int64, symbol string) {
	if _, ok := h.requireActive(ctx, userID, chatID); !ok {
		return
	}
	if !contains(h.cfg.Universe.Symbols, symbol) {
		h.reply(ctx, chatID, fmt.Sprintf("❓ Символ %s недоступен", symbol))
		return
	}

	watched, err := h.subscribers.ToggleWatchedSymbol(ctx, userID, symbol)
	if err != nil {
		logger.Error("❌ Переключение символа %s для %d не удалось: %v", symbol, userID, err)
		h.reply(ctx, chatID, "❌ Не удалось обновить список наблюдения.")
		return
	}

	if watched {
		h.reply(ctx, chatID, fmt.Sprintf("✅ %s добавлен в список наблюдения", symbol))
	} else {
		h.reply(ctx, chatID, fmt.Sprintf("❌ %s удален из списка наблюдения", symbol))
	}
}

func (h *Handler) handleToggleTimeframe(ctx context.Context, userID, chatID int64, timeframe string) {
	if _, ok := h.requireActive(ctx, userID, chatID); !ok {
		return
	}
	if !contains(h.cfg.Universe.Timeframes, timeframe) {
		h.reply(ctx, chatID, fmt.Sprintf("❓ Таймфрейм %s недоступен", timeframe))
		return
	}

	watched, err := h.subscribers.ToggleWatchedTimeframe(ctx, userID, timeframe)
	if err != nil {
		logger.Error("❌ Переключение таймфрейма %s для %d не удалось: %v", timeframe, userID, err)
		h.reply(ctx, chatID, "❌ Не удалось обновить список наблюдения.")
		return
	}

	if watched {
		h.reply(ctx, chatID, fmt.Sprintf("✅ Таймфрейм %s включен", timeframe))
	} else {
		h.reply(ctx, chatID, fmt.Sprintf("❌ Таймфрейм %s выключен", timeframe))
	}
}

// requireActive проверяет действующую подписку.
// Администратор проходит всегда, даже без записи подписчика.
func (h *Handler) requireActive(ctx context.Context, userID, chatID int64) (*users.Subscriber, bool) {
	active, err := h.subscribers.IsActive(ctx, userID)
	if err != nil {
		logger.Error("❌ Проверка подписки %d не удалась: %v", userID, err)
		h.reply(ctx, chatID, "❌ Внутренняя ошибка, попробуйте позже.")
		return nil, false
	}
	if !active {
		h.reply(ctx, chatID, "🔒 Эта функция доступна только по подписке. Оформить: /subscribe")
		return nil, false
	}

	sub, err := h.subscribers.Get(ctx, userID)
	if err != nil {
		logger.Error("❌ Ошибка чтения подписчика %d: %v", userID, err)
		h.reply(ctx, chatID, "❌ Внутренняя ошибка, попробуйте позже.")
		return nil, false
	}
	if sub == nil {
		// Администратор без записи: создаем пустого подписчика для меню
		sub = &users.Subscriber{TelegramID: userID}
	}
	return sub, true
}

// requireAdmin пропускает только администратора
func (h *Handler) requireAdmin(ctx context.Context, userID, chatID int64) bool {
	if userID != h.cfg.Telegram.AdminUserID {
		logger.Warn("🔒 Попытка админской команды от %d", userID)
		h.reply(ctx, chatID, "🔒 Команда доступна только администратору.")
		return false
	}
	return true
}

// symbolsKeyboard строит клавиатуру символов с отметками выбранных
func (h *Handler) symbolsKeyboard(sub *users.Subscriber) *InlineKeyboardMarkup {
	return toggleKeyboard(h.cfg.Universe.Symbols, sub.WatchedSymbols, callbackToggleSymbol, 2)
}

// timeframesKeyboard строит клавиатуру таймфреймов
func (h *Handler) timeframesKeyboard(sub *users.Subscriber) *InlineKeyboardMarkup {
	return toggleKeyboard(h.cfg.Universe.Timeframes, sub.WatchedTimeframes, callbackToggleTimeframe, 4)
}

// toggleKeyboard раскладывает значения по строкам, отмечая выбранные
func toggleKeyboard(values, selected []string, prefix string, perRow int) *InlineKeyboardMarkup {
	var rows [][]InlineKeyboardButton
	var row []InlineKeyboardButton

	for _, value := range values {
		label := value
		if contains(selected, value) {
			label = "✅ " + value
		}
		row = append(row, InlineKeyboardButton{
			Text:         label,
			CallbackData: prefix + value,
		})
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

// formatSubscriberStatus форматирует статус подписки и список наблюдения
func formatSubscriberStatus(sub *users.Subscriber, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 *Статус подписчика %d*\n\n", sub.TelegramID)

	if sub.IsActive(now) {
		fmt.Fprintf(&b, "✅ Подписка активна до %s\n", sub.SubscribedUntil.Format("2006-01-02 15:04"))
	} else {
		b.WriteString("❌ Подписка не активна\n")
	}

	if len(sub.WatchedSymbols) > 0 {
		fmt.Fprintf(&b, "📊 Символы: %s\n", strings.Join(sub.WatchedSymbols, ", "))
	} else {
		b.WriteString("📊 Символы: не выбраны\n")
	}
	if len(sub.WatchedTimeframes) > 0 {
		fmt.Fprintf(&b, "⏱ Таймфреймы: %s\n", strings.Join(sub.WatchedTimeframes, ", "))
	} else {
		b.WriteString("⏱ Таймфреймы: не выбраны\n")
	}

	return b.String()
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.bot.SendMessageTo(ctx, chatID, text); err != nil {
		logger.Error("❌ Не удалось отправить сообщение в чат %d: %v", chatID, err)
	}
}
