package domain

import "time"

// CoinMarket - строка рыночных данных по монете (ответ coins/markets).
// Обязательны только ID, Symbol и Name; все остальные поля API может
// не прислать, поэтому они указатели и рендерятся с защитой от nil.
type CoinMarket struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"` // btc, eth (как пришло из API)
	Name   string `json:"name"`

	Image        *string  `json:"image,omitempty"`
	CurrentPrice *float64 `json:"current_price,omitempty"`

	MarketCap             *float64 `json:"market_cap,omitempty"`
	MarketCapRank         *int     `json:"market_cap_rank,omitempty"`
	FullyDilutedValuation *float64 `json:"fully_diluted_valuation,omitempty"`
	TotalVolume           *float64 `json:"total_volume,omitempty"`

	High24h                   *float64 `json:"high_24h,omitempty"`
	Low24h                    *float64 `json:"low_24h,omitempty"`
	PriceChange24h            *float64 `json:"price_change_24h,omitempty"`
	PriceChangePercentage24h  *float64 `json:"price_change_percentage_24h,omitempty"`
	MarketCapChange24h        *float64 `json:"market_cap_change_24h,omitempty"`
	MarketCapChangePercent24h *float64 `json:"market_cap_change_percentage_24h,omitempty"`

	CirculatingSupply *float64 `json:"circulating_supply,omitempty"`
	TotalSupply       *float64 `json:"total_supply,omitempty"`
	MaxSupply         *float64 `json:"max_supply,omitempty"`

	ATH                 *float64   `json:"ath,omitempty"`
	ATHChangePercentage *float64   `json:"ath_change_percentage,omitempty"`
	ATHDate             *time.Time `json:"ath_date,omitempty"`
	ATL                 *float64   `json:"atl,omitempty"`
	ATLChangePercentage *float64   `json:"atl_change_percentage,omitempty"`
	ATLDate             *time.Time `json:"atl_date,omitempty"`

	LastUpdated *time.Time `json:"last_updated,omitempty"`
}
