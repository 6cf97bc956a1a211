package consts

import "github.com/NastyaGoryachaya/coin-market-board/internal/domain"

// Наборы допустимых значений селекторов. Передаются в сервис как
// конфигурация, а не читаются им напрямую.

var Currencies = []domain.Currency{domain.CurrencyUSD, domain.CurrencyEUR}

var Orders = []domain.Order{domain.OrderMarketCapDesc, domain.OrderMarketCapAsc}

var PageSizes = []int{5, 10, 20, 50, 100}

func IsSupportedCurrency(c domain.Currency) bool {
	for _, v := range Currencies {
		if c == v {
			return true
		}
	}
	return false
}

func IsSupportedOrder(o domain.Order) bool {
	for _, v := range Orders {
		if o == v {
			return true
		}
	}
	return false
}

func IsSupportedPageSize(n int) bool {
	for _, v := range PageSizes {
		if n == v {
			return true
		}
	}
	return false
}
