package tablefmt

import (
	"strconv"
	"strings"

	"github.com/NastyaGoryachaya/coin-market-board/internal/domain"
)

// Рендеринг фиксированных шести колонок таблицы. Чистые функции,
// отсутствующие значения всегда превращаются в "-".

// Placeholder — чем заполняется пустая ячейка.
const Placeholder = "-"

// Row — одна строка таблицы, все ячейки уже отформатированы.
type Row struct {
	Image             string `json:"image"`
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	Price             string `json:"price"`
	MarketCap         string `json:"market_cap"`
	CirculatingSupply string `json:"circulating_supply"`
}

// Columns — заголовки в порядке отображения.
func Columns() []string {
	return []string{"Image", "Name", "Symbol", "Price", "Market Cap", "Circulating Supply"}
}

// RenderRow — собирает строку таблицы из рыночной записи.
// Символ всегда в верхнем регистре, цена — с суффиксом кода валюты.
func RenderRow(c domain.CoinMarket, cur domain.Currency) Row {
	return Row{
		Image:             orPlaceholder(c.Image),
		Name:              c.Name,
		Symbol:            strings.ToUpper(c.Symbol),
		Price:             Price(c.CurrentPrice, cur),
		MarketCap:         Number(c.MarketCap),
		CirculatingSupply: Number(c.CirculatingSupply),
	}
}

// RenderRows — страница целиком; пустой вход даёт пустую (не nil) страницу.
func RenderRows(items []domain.CoinMarket, cur domain.Currency) []Row {
	out := make([]Row, 0, len(items))
	for _, c := range items {
		out = append(out, RenderRow(c, cur))
	}
	return out
}

// Price — формат "{цена} {валюта}", например "42000.5 usd".
func Price(v *float64, cur domain.Currency) string {
	if v == nil {
		return Placeholder
	}
	return humanNumber(*v) + " " + string(cur)
}

// Number — число без хвостовых нулей либо плейсхолдер.
func Number(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return humanNumber(*v)
}

func humanNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func orPlaceholder(s *string) string {
	if s == nil || *s == "" {
		return Placeholder
	}
	return *s
}
