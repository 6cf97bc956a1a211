package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/NastyaGoryachaya/coin-market-board/internal/config"
	"github.com/NastyaGoryachaya/coin-market-board/internal/domain"
)

// Doer — минимальный интерфейс HTTP-клиента; в тестах подменяется,
// чтобы провайдер работал без живой сети.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	cfg  config.MarketsConfig
	http Doer
}

// marketsRow — структура для парсинга одной строки ответа coins/markets.
// Почти все поля nullable, поэтому указатели.
type marketsRow struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`

	Image        *string  `json:"image"`
	CurrentPrice *float64 `json:"current_price"`

	MarketCap             *float64 `json:"market_cap"`
	MarketCapRank         *int     `json:"market_cap_rank"`
	FullyDilutedValuation *float64 `json:"fully_diluted_valuation"`
	TotalVolume           *float64 `json:"total_volume"`

	High24h                   *float64 `json:"high_24h"`
	Low24h                    *float64 `json:"low_24h"`
	PriceChange24h            *float64 `json:"price_change_24h"`
	PriceChangePercentage24h  *float64 `json:"price_change_percentage_24h"`
	MarketCapChange24h        *float64 `json:"market_cap_change_24h"`
	MarketCapChangePercent24h *float64 `json:"market_cap_change_percentage_24h"`

	CirculatingSupply *float64 `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
	MaxSupply         *float64 `json:"max_supply"`

	ATH                 *float64   `json:"ath"`
	ATHChangePercentage *float64   `json:"ath_change_percentage"`
	ATHDate             *time.Time `json:"ath_date"`
	ATL                 *float64   `json:"atl"`
	ATLChangePercentage *float64   `json:"atl_change_percentage"`
	ATLDate             *time.Time `json:"atl_date"`

	LastUpdated *time.Time `json:"last_updated"`
}

// NewClient - Создаёт нового клиента для работы с API CoinGecko.
// Если doer == nil, используется net/http клиент с таймаутом из конфигурации.
func NewClient(cfg config.MarketsConfig, doer Doer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: doer}
}

// FetchMarkets — получает страницу рыночных данных по кортежу параметров.
// Повторяет запрос не более cfg.RetryAttempts раз при сетевых ошибках,
// 5xx и 429; пауза между попытками удваивается.
func (c *Client) FetchMarkets(ctx context.Context, q domain.Query) ([]domain.CoinMarket, error) {
	u, err := c.buildURL(q)
	if err != nil {
		return nil, err
	}

	attempts := c.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := c.cfg.RetryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		rows, retryable, err := c.doOnce(ctx, u)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) buildURL(q domain.Query) (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path, _ = url.JoinPath(u.Path, "coins", "markets")

	vals := u.Query()
	vals.Set("vs_currency", string(q.Currency))
	vals.Set("order", string(q.Order))
	vals.Set("per_page", strconv.Itoa(q.PerPage))
	vals.Set("page", strconv.Itoa(q.Page))
	vals.Set("sparkline", strconv.FormatBool(c.cfg.Sparkline))
	u.RawQuery = vals.Encode()
	return u.String(), nil
}

// doOnce — одна попытка; второй результат сообщает, имеет ли смысл повтор.
func (c *Client) doOnce(ctx context.Context, rawURL string) ([]domain.CoinMarket, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	ua := c.cfg.UserAgent
	if ua == "" {
		ua = "coin-market-board/1.0 (+https://github.com/NastyaGoryachaya/coin-market-board)"
	}
	req.Header.Set("User-Agent", ua)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= http.StatusInternalServerError ||
			resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("request failed: %s", resp.Status)
	}

	var data []marketsRow
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, false, fmt.Errorf("decoding response: %w", err)
	}

	out := make([]domain.CoinMarket, 0, len(data))
	for _, d := range data {
		out = append(out, toDomain(d))
	}
	return out, false, nil
}

func toDomain(d marketsRow) domain.CoinMarket {
	return domain.CoinMarket{
		ID:     d.ID,
		Symbol: d.Symbol,
		Name:   d.Name,

		Image:        d.Image,
		CurrentPrice: d.CurrentPrice,

		MarketCap:             d.MarketCap,
		MarketCapRank:         d.MarketCapRank,
		FullyDilutedValuation: d.FullyDilutedValuation,
		TotalVolume:           d.TotalVolume,

		High24h:                   d.High24h,
		Low24h:                    d.Low24h,
		PriceChange24h:            d.PriceChange24h,
		PriceChangePercentage24h:  d.PriceChangePercentage24h,
		MarketCapChange24h:        d.MarketCapChange24h,
		MarketCapChangePercent24h: d.MarketCapChangePercent24h,

		CirculatingSupply: d.CirculatingSupply,
		TotalSupply:       d.TotalSupply,
		MaxSupply:         d.MaxSupply,

		ATH:                 d.ATH,
		ATHChangePercentage: d.ATHChangePercentage,
		ATHDate:             d.ATHDate,
		ATL:                 d.ATL,
		ATLChangePercentage: d.ATLChangePercentage,
		ATLDate:             d.ATLDate,

		LastUpdated: d.LastUpdated,
	}
}
