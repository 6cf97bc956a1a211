package domain

import "fmt"

// Валюта котировки и порядок сортировки — закрытые перечисления,
// значения совпадают с параметрами API CoinGecko.

type Currency string

const (
	CurrencyUSD Currency = "usd"
	CurrencyEUR Currency = "eur"
)

type Order string

const (
	OrderMarketCapDesc Order = "market_cap_desc"
	OrderMarketCapAsc  Order = "market_cap_asc"
)

// Query - кортеж параметров запроса; полностью определяет страницу данных.
type Query struct {
	Currency Currency
	Order    Order
	Page     int
	PerPage  int
}

// Key — канонический ключ кортежа. По нему дедуплицируются запросы
// и раскладываются результаты в кэше.
func (q Query) Key() string {
	return fmt.Sprintf("%s|%s|%d|%d", q.Currency, q.Order, q.Page, q.PerPage)
}
