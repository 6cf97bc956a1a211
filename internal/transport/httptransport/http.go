package httptransport

import (
	"context"
	"log"
	"net/http"
	"time"

	"log/slog"

	"github.com/NastyaGoryachaya/coin-market-board/internal/domain"
	"github.com/NastyaGoryachaya/coin-market-board/internal/notify"
	"github.com/NastyaGoryachaya/coin-market-board/internal/pkg/tablefmt"
	"github.com/NastyaGoryachaya/coin-market-board/internal/ports/errcode"
	"github.com/NastyaGoryachaya/coin-market-board/internal/service/markets"
	"github.com/labstack/echo/v4"
)

// MarketsService — абстракция для работы с таблицей рынков.
type MarketsService interface {
	Snapshot(ctx context.Context) (markets.Snapshot, error)
	Refresh(ctx context.Context) error
	Query() domain.Query
	Options() markets.Options
	SetCurrency(c domain.Currency) error
	SetOrder(o domain.Order) error
	SetPage(page int) error
	SetPerPage(n int) error
}

// Notifications — источник транзиентных уведомлений.
type Notifications interface {
	Drain() []notify.Notice
}

// QueryDTO — кортеж параметров в ответах API.
type QueryDTO struct {
	Currency string `json:"currency"`
	Order    string `json:"order"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
}

// PaginationDTO — блок пагинации. TotalRows — фиксированная верхняя
// оценка из конфигурации, а не реальный размер выборки.
type PaginationDTO struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	PageSizes  []int `json:"page_sizes"`
	TotalRows  int   `json:"total_rows"`
	TotalPages int   `json:"total_pages"`
}

// TableResponse — отрендеренная страница таблицы + состояние загрузки.
type TableResponse struct {
	Columns    []string       `json:"columns"`
	Rows       []tablefmt.Row `json:"rows"`
	Query      QueryDTO       `json:"query"`
	Pagination PaginationDTO  `json:"pagination"`
	Loading    bool           `json:"loading"`
	Validating bool           `json:"validating"`
	FetchedAt  *time.Time     `json:"fetched_at,omitempty"`
}

// OptionsResponse — данные для селекторов.
type OptionsResponse struct {
	Currencies []domain.Currency `json:"currencies"`
	Orders     []domain.Order    `json:"orders"`
	PageSizes  []int             `json:"page_sizes"`
}

// queryPatch — частичное изменение кортежа; присутствующие поля
// применяются каждое своим мутатором.
type queryPatch struct {
	Currency *string `json:"currency"`
	Order    *string `json:"order"`
	Page     *int    `json:"page"`
	PerPage  *int    `json:"per_page"`
}

// TableHandler — HTTP-handler таблицы рынков.
type TableHandler struct {
	logger    *slog.Logger
	svc       MarketsService
	notices   Notifications
	totalRows int
	timeout   time.Duration
}

func NewTableHandler(logger *slog.Logger, svc MarketsService, notices Notifications, totalRows int, timeout time.Duration) *TableHandler {
	if logger == nil {
		log.Fatal("nil logger")
	}
	if svc == nil {
		log.Fatal("nil service")
	}
	// Задаём таймаут по умолчанию, если он не задан
	if timeout <= 0 {
		timeout = time.Second * 3
	}
	return &TableHandler{
		logger:    logger,
		svc:       svc,
		notices:   notices,
		totalRows: totalRows,
		timeout:   timeout,
	}
}

func (h *TableHandler) RegisterRoutes(r interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}) {
	// Регистрируем маршруты
	r.GET("/table", h.GetTable)
	r.GET("/options", h.GetOptions)
	r.GET("/notifications", h.GetNotifications)
	r.PATCH("/query", h.PatchQuery)
	r.POST("/refresh", h.PostRefresh)
}

// GetTable — текущая страница таблицы. Неудавшаяся загрузка не рушит
// ответ: отдаём прежние (или пустые) данные, ошибка уходит в уведомления.
func (h *TableHandler) GetTable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	snap, err := h.svc.Snapshot(ctx)
	if err != nil {
		h.logger.Warn("snapshot fetch failed, serving stale data",
			slog.String("op", "GetTable"),
			slog.String("error", err.Error()),
		)
	}

	return c.JSON(http.StatusOK, h.makeTable(snap))
}

func (h *TableHandler) makeTable(snap markets.Snapshot) TableResponse {
	q := snap.Query
	resp := TableResponse{
		Columns: tablefmt.Columns(),
		Rows:    tablefmt.RenderRows(snap.Rows, q.Currency),
		Query: QueryDTO{
			Currency: string(q.Currency),
			Order:    string(q.Order),
			Page:     q.Page,
			PerPage:  q.PerPage,
		},
		Pagination: PaginationDTO{
			Page:       q.Page,
			PerPage:    q.PerPage,
			PageSizes:  h.svc.Options().PageSizes,
			TotalRows:  h.totalRows,
			TotalPages: totalPages(h.totalRows, q.PerPage),
		},
		Loading:    snap.Loading,
		Validating: snap.Validating,
	}
	if !snap.FetchedAt.IsZero() {
		t := snap.FetchedAt
		resp.FetchedAt = &t
	}
	return resp
}

func (h *TableHandler) GetOptions(c echo.Context) error {
	opts := h.svc.Options()
	return c.JSON(http.StatusOK, OptionsResponse{
		Currencies: opts.Currencies,
		Orders:     opts.Orders,
		PageSizes:  opts.PageSizes,
	})
}

// GetNotifications — отдаёт и очищает буфер уведомлений (toast-семантика).
func (h *TableHandler) GetNotifications(c echo.Context) error {
	if h.notices == nil {
		return c.JSON(http.StatusOK, []notify.Notice{})
	}
	items := h.notices.Drain()
	if items == nil {
		items = []notify.Notice{}
	}
	return c.JSON(http.StatusOK, items)
}

// PatchQuery — частичное изменение кортежа параметров. Каждое присутствующее
// поле идёт через свой мутатор; первое невалидное значение — 400.
func (h *TableHandler) PatchQuery(c echo.Context) error {
	var patch queryPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "bad_request",
		})
	}

	if patch.Currency != nil {
		if err := h.svc.SetCurrency(domain.Currency(*patch.Currency)); err != nil {
			return h.badQuery(c, "currency", err)
		}
	}
	if patch.Order != nil {
		if err := h.svc.SetOrder(domain.Order(*patch.Order)); err != nil {
			return h.badQuery(c, "order", err)
		}
	}
	if patch.Page != nil {
		if err := h.svc.SetPage(*patch.Page); err != nil {
			return h.badQuery(c, "page", err)
		}
	}
	if patch.PerPage != nil {
		if err := h.svc.SetPerPage(*patch.PerPage); err != nil {
			return h.badQuery(c, "per_page", err)
		}
	}

	q := h.svc.Query()
	return c.JSON(http.StatusOK, QueryDTO{
		Currency: string(q.Currency),
		Order:    string(q.Order),
		Page:     q.Page,
		PerPage:  q.PerPage,
	})
}

func (h *TableHandler) badQuery(c echo.Context, field string, err error) error {
	if code := FromServiceError(err); code != errcode.BadQuery {
		h.logger.Error("query mutation failed",
			slog.String("op", "PatchQuery"),
			slog.String("field", field),
			slog.String("error", err.Error()),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "internal_server_error",
		})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{
		"error": "bad_query",
		"field": field,
	})
}

// PostRefresh — ручная ревалидация текущего кортежа.
func (h *TableHandler) PostRefresh(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.svc.Refresh(ctx); err != nil {
		switch FromServiceError(err) {
		case errcode.Disabled:
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "fetching_disabled",
			})
		case errcode.FetchFailed:
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error": "fetch_failed",
			})
		default:
			h.logger.Error("refresh failed",
				slog.String("op", "PostRefresh"),
				slog.String("error", err.Error()),
			)
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "internal_server_error",
			})
		}
	}
	return c.JSON(http.StatusAccepted, echo.Map{
		"status": "refreshed",
	})
}

// totalPages — потолок деления фиксированного числа строк на размер страницы.
func totalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
