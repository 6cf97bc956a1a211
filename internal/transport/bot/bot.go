package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/NastyaGoryachaya/coin-market-board/internal/domain"
	"github.com/NastyaGoryachaya/coin-market-board/internal/service/markets"
	"gopkg.in/telebot.v4"
)

// Config — конфигурация бота
type Config struct {
	Token           string
	LongPollTimeout time.Duration
}

// TableReader — интерфейс бота к сервису таблицы: те же мутаторы и
// снапшот, что и у HTTP-слоя.
type TableReader interface {
	Snapshot(ctx context.Context) (markets.Snapshot, error)
	Refresh(ctx context.Context) error
	Query() domain.Query
	Options() markets.Options
	SetCurrency(c domain.Currency) error
	SetOrder(o domain.Order) error
	SetPage(page int) error
	SetPerPage(n int) error
}

// Bot — Telegram-представление таблицы: команды плюс inline-клавиатура
// вместо выпадающих селекторов и кнопок пагинации.
type Bot struct {
	bot    *telebot.Bot
	table  TableReader
	logger *slog.Logger

	menu        *telebot.ReplyMarkup
	btnPrev     telebot.Btn
	btnNext     telebot.Btn
	btnCurrency telebot.Btn
	btnOrder    telebot.Btn
	btnPerPage  telebot.Btn
	btnRefresh  telebot.Btn
}

// New создаёт новый экземпляр бота и регистрирует маршруты
func New(cfg Config, table TableReader, logger *slog.Logger) (*Bot, error) {
	if cfg.LongPollTimeout <= 0 {
		cfg.LongPollTimeout = 10 * time.Second
	}

	b, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Token,
		Poller: &telebot.LongPoller{Timeout: cfg.LongPollTimeout},
	})
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		bot:    b,
		table:  table,
		logger: logger,
	}

	// inline-клавиатура: пагинация + селекторы
	menu := &telebot.ReplyMarkup{}
	bot.menu = menu
	bot.btnPrev = menu.Data("«", "page_prev")
	bot.btnNext = menu.Data("»", "page_next")
	bot.btnCurrency = menu.Data("Валюта", "toggle_currency")
	bot.btnOrder = menu.Data("Сортировка", "toggle_order")
	bot.btnPerPage = menu.Data("Размер", "cycle_per_page")
	bot.btnRefresh = menu.Data("Обновить", "refresh")
	menu.Inline(
		menu.Row(bot.btnPrev, bot.btnNext),
		menu.Row(bot.btnCurrency, bot.btnOrder, bot.btnPerPage),
		menu.Row(bot.btnRefresh),
	)

	// маршруты команд
	b.Handle("/start", bot.handleStart)
	b.Handle("/table", bot.handleTable)
	b.Handle(&bot.btnPrev, bot.handlePrev)
	b.Handle(&bot.btnNext, bot.handleNext)
	b.Handle(&bot.btnCurrency, bot.handleToggleCurrency)
	b.Handle(&bot.btnOrder, bot.handleToggleOrder)
	b.Handle(&bot.btnPerPage, bot.handleCyclePerPage)
	b.Handle(&bot.btnRefresh, bot.handleRefresh)

	return bot, nil
}

// Start запускает long-poll бота
func (b *Bot) Start(ctx context.Context) {
	go b.bot.Start()
	<-ctx.Done()
}

// Stop останавливает бота
func (b *Bot) Stop() {
	b.bot.Stop()
}
