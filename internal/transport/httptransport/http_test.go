package httptransport_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NastyaGoryachaya/coin-market-board/internal/domain"
	"github.com/NastyaGoryachaya/coin-market-board/internal/notify"
	"github.com/NastyaGoryachaya/coin-market-board/internal/service/markets"
	"github.com/NastyaGoryachaya/coin-market-board/internal/transport/httptransport"
	"github.com/labstack/echo/v4"
)

// stubService — ручная заглушка сервиса для транспортных тестов
type stubService struct {
	snap       markets.Snapshot
	snapErr    error
	refreshErr error
	query      domain.Query
	mutErr     error
	calls      []string
}

func (s *stubService) Snapshot(context.Context) (markets.Snapshot, error) {
	s.calls = append(s.calls, "snapshot")
	return s.snap, s.snapErr
}

func (s *stubService) Refresh(context.Context) error {
	s.calls = append(s.calls, "refresh")
	return s.refreshErr
}

func (s *stubService) Query() domain.Query { return s.query }

func (s *stubService) Options() markets.Options {
	return markets.Options{
		Currencies: []domain.Currency{domain.CurrencyUSD, domain.CurrencyEUR},
		Orders:     []domain.Order{domain.OrderMarketCapDesc, domain.OrderMarketCapAsc},
		PageSizes:  []int{5, 10, 20, 50, 100},
	}
}

func (s *stubService) SetCurrency(c domain.Currency) error {
	s.calls = append(s.calls, "currency:"+string(c))
	if s.mutErr != nil {
		return s.mutErr
	}
	s.query.Currency = c
	return nil
}

func (s *stubService) SetOrder(o domain.Order) error {
	s.calls = append(s.calls, "order:"+string(o))
	if s.mutErr != nil {
		return s.mutErr
	}
	s.query.Order = o
	return nil
}

func (s *stubService) SetPage(page int) error {
	s.calls = append(s.calls, fmt.Sprintf("page:%d", page))
	if s.mutErr != nil {
		return s.mutErr
	}
	s.query.Page = page
	return nil
}

func (s *stubService) SetPerPage(n int) error {
	s.calls = append(s.calls, fmt.Sprintf("per_page:%d", n))
	if s.mutErr != nil {
		return s.mutErr
	}
	s.query.PerPage = n
	return nil
}

func testQuery() domain.Query {
	return domain.Query{
		Currency: domain.CurrencyUSD,
		Order:    domain.OrderMarketCapDesc,
		Page:     1,
		PerPage:  10,
	}
}

func newHandler(t *testing.T, svc *stubService, notices httptransport.Notifications) *httptransport.TableHandler {
	t.Helper()
	return httptransport.NewTableHandler(slog.Default(), svc, notices, 10000, time.Second)
}

func doRequest(t *testing.T, method, target, body string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestGetTable_RendersPage(t *testing.T) {
	t.Parallel()

	price := 42000.5
	supply := 19600000.0
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &stubService{
		query: testQuery(),
		snap: markets.Snapshot{
			Query: testQuery(),
			Rows: []domain.CoinMarket{
				{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: &price, CirculatingSupply: &supply},
			},
			FetchedAt: now,
		},
	}
	h := newHandler(t, svc, nil)

	rec := doRequest(t, http.MethodGet, "/table", "", h.GetTable)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp httptransport.TableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(resp.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(resp.Rows))
	}
	if resp.Rows[0].Symbol != "BTC" {
		t.Errorf("symbol = %q, want BTC", resp.Rows[0].Symbol)
	}
	if resp.Rows[0].Price != "42000.5 usd" {
		t.Errorf("price = %q, want %q", resp.Rows[0].Price, "42000.5 usd")
	}
	if resp.Rows[0].MarketCap != "-" {
		t.Errorf("absent market cap = %q, want placeholder", resp.Rows[0].MarketCap)
	}

	// Блок пагинации: фиксированный потолок, а не размер реальной выборки
	if resp.Pagination.TotalRows != 10000 {
		t.Errorf("total_rows = %d, want 10000", resp.Pagination.TotalRows)
	}
	if resp.Pagination.TotalPages != 1000 {
		t.Errorf("total_pages = %d, want 1000", resp.Pagination.TotalPages)
	}
	if len(resp.Pagination.PageSizes) != 5 {
		t.Errorf("page_sizes = %v", resp.Pagination.PageSizes)
	}
	if resp.FetchedAt == nil || !resp.FetchedAt.Equal(now) {
		t.Errorf("fetched_at = %v", resp.FetchedAt)
	}
}

// Неудавшаяся загрузка не рушит /table: отдаём прежнюю страницу с 200
func TestGetTable_FetchFailureServesStale(t *testing.T) {
	t.Parallel()

	price := 100.0
	svc := &stubService{
		query:   testQuery(),
		snapErr: fmt.Errorf("%w: boom", domain.ErrFetchFailed),
		snap: markets.Snapshot{
			Query:   testQuery(),
			Rows:    []domain.CoinMarket{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: &price}},
			Loading: true,
		},
	}
	h := newHandler(t, svc, nil)

	rec := doRequest(t, http.MethodGet, "/table", "", h.GetTable)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp httptransport.TableResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Rows) != 1 || !resp.Loading {
		t.Fatalf("expected stale loading page, got %+v", resp)
	}
}

func TestPatchQuery_AppliesEachPresentField(t *testing.T) {
	t.Parallel()

	svc := &stubService{query: testQuery()}
	h := newHandler(t, svc, nil)

	rec := doRequest(t, http.MethodPatch, "/query", `{"currency":"eur","page":4}`, h.PatchQuery)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var q httptransport.QueryDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &q); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if q.Currency != "eur" || q.Page != 4 {
		t.Fatalf("unexpected query echo: %+v", q)
	}
	// Не присланные поля не трогаем
	if q.Order != string(domain.OrderMarketCapDesc) || q.PerPage != 10 {
		t.Fatalf("untouched fields changed: %+v", q)
	}

	want := []string{"currency:eur", "page:4"}
	if len(svc.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", svc.calls, want)
	}
	for i := range want {
		if svc.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", svc.calls, want)
		}
	}
}

func TestPatchQuery_BadValue(t *testing.T) {
	t.Parallel()

	svc := &stubService{
		query:  testQuery(),
		mutErr: fmt.Errorf("%w: currency %q", domain.ErrBadQuery, "rub"),
	}
	h := newHandler(t, svc, nil)

	rec := doRequest(t, http.MethodPatch, "/query", `{"currency":"rub"}`, h.PatchQuery)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["error"] != "bad_query" || body["field"] != "currency" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestPostRefresh_StatusCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusAccepted},
		{"fetch_failed", fmt.Errorf("%w: upstream 500", domain.ErrFetchFailed), http.StatusBadGateway},
		{"disabled", domain.ErrDisabled, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{query: testQuery(), refreshErr: tc.err}
			h := newHandler(t, svc, nil)

			rec := doRequest(t, http.MethodPost, "/refresh", "", h.PostRefresh)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

// GET /notifications отдаёт буфер и очищает его
func TestGetNotifications_DrainsOnce(t *testing.T) {
	t.Parallel()

	buf := notify.NewBuffer(8, time.Minute)
	buf.Notify(markets.FetchErrorText)

	svc := &stubService{query: testQuery()}
	h := newHandler(t, svc, buf)

	rec := doRequest(t, http.MethodGet, "/notifications", "", h.GetNotifications)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var notices []notify.Notice
	if err := json.Unmarshal(rec.Body.Bytes(), &notices); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(notices) != 1 || notices[0].Text != markets.FetchErrorText {
		t.Fatalf("unexpected notices: %+v", notices)
	}

	rec = doRequest(t, http.MethodGet, "/notifications", "", h.GetNotifications)
	notices = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &notices); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(notices) != 0 {
		t.Fatalf("second read must be empty, got %+v", notices)
	}
}
