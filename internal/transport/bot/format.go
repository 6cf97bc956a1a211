package bot

import (
	"fmt"
	"strings"

	"github.com/NastyaGoryachaya/coin-market-board/internal/pkg/tablefmt"
	"github.com/NastyaGoryachaya/coin-market-board/internal/service/markets"
)

// tableReply — текст сообщения с таблицей плюс отдельное уведомление об
// ошибке загрузки. Устаревшие строки показываем, но об ошибке молчать нельзя.
func tableReply(snap markets.Snapshot, err error) (text, notice string) {
	if err != nil {
		if len(snap.Rows) == 0 {
			return markets.FetchErrorText, ""
		}
		return formatTable(snap), markets.FetchErrorText
	}
	return formatTable(snap), ""
}

// formatTable — страница таблицы одним сообщением
func formatTable(snap markets.Snapshot) string {
	var bld strings.Builder

	bld.WriteString(fmt.Sprintf("Рынок (%s, %s) — страница %d, по %d\n",
		strings.ToUpper(string(snap.Query.Currency)),
		orderLabel(string(snap.Query.Order)),
		snap.Query.Page,
		snap.Query.PerPage,
	))
	if snap.Loading {
		bld.WriteString("Загружается...\n")
	}

	rows := tablefmt.RenderRows(snap.Rows, snap.Query.Currency)
	if len(rows) == 0 {
		bld.WriteString("Нет данных")
		return bld.String()
	}
	for _, r := range rows {
		bld.WriteString(formatRowLine(r))
		bld.WriteByte('\n')
	}
	if !snap.FetchedAt.IsZero() {
		bld.WriteString("Обновлено: " + snap.FetchedAt.Format("15:04:05"))
	}
	return bld.String()
}

// formatRowLine — одна строка таблицы (картинку в тексте не показываем)
func formatRowLine(r tablefmt.Row) string {
	return fmt.Sprintf("%s (%s) | Цена: %s | Капитализация: %s | В обороте: %s",
		r.Name, r.Symbol, r.Price, r.MarketCap, r.CirculatingSupply)
}

func orderLabel(order string) string {
	if strings.HasSuffix(order, "_asc") {
		return "кап. по возрастанию"
	}
	return "кап. по убыванию"
}
