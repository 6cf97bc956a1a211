package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/NastyaGoryachaya/coin-market-board/internal/domain"
	"github.com/NastyaGoryachaya/coin-market-board/internal/service/markets"
	"gopkg.in/telebot.v4"
)

const handlerTimeout = 5 * time.Second

// handleStart — отправляет справку по доступным командам бота
func (b *Bot) handleStart(c telebot.Context) error {
	return c.Send("Привет! Я показываю таблицу крипторынка.\n" +
		"/table - текущая страница таблицы\n" +
		"Кнопки под таблицей: страницы, валюта (USD/EUR), сортировка по капитализации, размер страницы, обновление.")
}

// handleTable — присылает текущую страницу с inline-клавиатурой
func (b *Bot) handleTable(c telebot.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	snap, err := b.table.Snapshot(ctx)
	if err != nil {
		b.logger.Warn("bot: snapshot failed",
			slog.Int64("chat_id", c.Chat().ID),
			slog.String("error", err.Error()),
		)
	}
	text, notice := tableReply(snap, err)
	if notice == "" {
		return c.Send(text, b.menu)
	}
	// Прежние данные остаются в snap; отдельным сообщением — ошибка.
	if sendErr := c.Send(text, b.menu); sendErr != nil {
		return sendErr
	}
	return c.Send(notice)
}

// edit — перерисовывает таблицу в том же сообщении после изменения кортежа
func (b *Bot) edit(c telebot.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	snap, err := b.table.Snapshot(ctx)
	text, notice := tableReply(snap, err)
	if notice == "" {
		return c.Edit(text, b.menu)
	}
	if editErr := c.Edit(text, b.menu); editErr != nil {
		return editErr
	}
	// Всплывашка вместо второго сообщения: таблица уже перерисована.
	return c.Respond(&telebot.CallbackResponse{Text: notice})
}

func (b *Bot) handlePrev(c telebot.Context) error {
	q := b.table.Query()
	if q.Page <= 1 {
		return c.Respond(&telebot.CallbackResponse{Text: "Это первая страница"})
	}
	if err := b.table.SetPage(q.Page - 1); err != nil {
		return c.Respond(&telebot.CallbackResponse{Text: "Не получилось"})
	}
	return b.edit(c)
}

func (b *Bot) handleNext(c telebot.Context) error {
	q := b.table.Query()
	if err := b.table.SetPage(q.Page + 1); err != nil {
		return c.Respond(&telebot.CallbackResponse{Text: "Не получилось"})
	}
	return b.edit(c)
}

// handleToggleCurrency — переключает валюту по кругу из доступных
func (b *Bot) handleToggleCurrency(c telebot.Context) error {
	opts := b.table.Options()
	cur := b.table.Query().Currency
	next := nextCurrency(opts.Currencies, cur)
	if err := b.table.SetCurrency(next); err != nil {
		b.logger.Warn("bot: set currency failed", slog.String("error", err.Error()))
		return c.Respond(&telebot.CallbackResponse{Text: "Не получилось"})
	}
	return b.edit(c)
}

// handleToggleOrder — asc <-> desc
func (b *Bot) handleToggleOrder(c telebot.Context) error {
	opts := b.table.Options()
	cur := b.table.Query().Order
	next := nextOrder(opts.Orders, cur)
	if err := b.table.SetOrder(next); err != nil {
		return c.Respond(&telebot.CallbackResponse{Text: "Не получилось"})
	}
	return b.edit(c)
}

// handleCyclePerPage — следующий размер страницы из набора.
// Номер страницы при этом сознательно не трогаем.
func (b *Bot) handleCyclePerPage(c telebot.Context) error {
	opts := b.table.Options()
	cur := b.table.Query().PerPage
	next := nextPageSize(opts.PageSizes, cur)
	if err := b.table.SetPerPage(next); err != nil {
		return c.Respond(&telebot.CallbackResponse{Text: "Не получилось"})
	}
	return b.edit(c)
}

func (b *Bot) handleRefresh(c telebot.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.table.Refresh(ctx); err != nil {
		return c.Respond(&telebot.CallbackResponse{Text: markets.FetchErrorText})
	}
	return b.edit(c)
}

func nextCurrency(all []domain.Currency, cur domain.Currency) domain.Currency {
	for i, v := range all {
		if v == cur {
			return all[(i+1)%len(all)]
		}
	}
	if len(all) > 0 {
		return all[0]
	}
	return cur
}

func nextOrder(all []domain.Order, cur domain.Order) domain.Order {
	for i, v := range all {
		if v == cur {
			return all[(i+1)%len(all)]
		}
	}
	if len(all) > 0 {
		return all[0]
	}
	return cur
}

func nextPageSize(all []int, cur int) int {
	for i, v := range all {
		if v == cur {
			return all[(i+1)%len(all)]
		}
	}
	if len(all) > 0 {
		return all[0]
	}
	return cur
}
