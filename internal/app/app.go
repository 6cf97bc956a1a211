package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/NastyaGoryachaya/coin-market-board/internal/config"
	"github.com/NastyaGoryachaya/coin-market-board/internal/consts"
	"github.com/NastyaGoryachaya/coin-market-board/internal/domain"
	"github.com/NastyaGoryachaya/coin-market-board/internal/infra/coingecko"
	"github.com/NastyaGoryachaya/coin-market-board/internal/notify"
	marketsvc "github.com/NastyaGoryachaya/coin-market-board/internal/service/markets"
	botpkg "github.com/NastyaGoryachaya/coin-market-board/internal/transport/bot"
	"github.com/NastyaGoryachaya/coin-market-board/internal/transport/httptransport"
	"github.com/labstack/echo/v4"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	e    *echo.Echo
	serv *http.Server

	notices *notify.Buffer
	markets *marketsvc.Service

	bot *botpkg.Bot
}

func NewApp(cfg config.Config, log *slog.Logger) (*App, error) {
	app := &App{cfg: cfg, log: log}

	e := echo.New()
	e.HideBanner = true
	app.e = e

	provider := coingecko.NewClient(cfg.Markets, nil)

	app.notices = notify.NewBuffer(cfg.Notifications.Capacity, cfg.Notifications.TTL)

	initial, err := initialQuery(cfg.Markets)
	if err != nil {
		return nil, err
	}

	app.markets = marketsvc.NewService(
		provider,
		app.notices,
		marketsvc.Options{
			Currencies: consts.Currencies,
			Orders:     consts.Orders,
			PageSizes:  consts.PageSizes,
		},
		initial,
		cfg.Markets.Enabled,
		log,
	)

	th := httptransport.NewTableHandler(log, app.markets, app.notices, cfg.Markets.TotalRows, cfg.Server.ReadTimeout)
	th.RegisterRoutes(e)

	app.serv = &http.Server{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		Handler:      e,
	}

	if cfg.Telegram.Enabled {
		// Если бот включён, отсутствие токена — ошибка конфигурации
		token := strings.TrimSpace(cfg.Telegram.Token)
		if token == "" {
			log.Error("telegram enabled but TELEGRAM_BOT_TOKEN is empty")
			return nil, errors.New("telegram token is empty")
		}

		botApp, err := botpkg.New(
			botpkg.Config{Token: token, LongPollTimeout: cfg.Telegram.LongPollTimeout},
			app.markets,
			log,
		)
		if err != nil {
			log.Error("telegram init failed", slog.String("error", err.Error()))
			return nil, err
		}
		app.bot = botApp
	}

	log.Info("app initialized",
		slog.Bool("telegram_enabled", cfg.Telegram.Enabled),
		slog.Bool("bot_attached", app.bot != nil),
		slog.Bool("fetching_enabled", cfg.Markets.Enabled),
		slog.String("http_addr", cfg.Server.Addr),
	)
	return app, nil
}

// initialQuery — собирает стартовый кортеж из конфигурации и валидирует
// его теми же наборами, что и мутаторы.
func initialQuery(cfg config.MarketsConfig) (domain.Query, error) {
	q := domain.Query{
		Currency: domain.Currency(strings.ToLower(cfg.Currency)),
		Order:    domain.Order(cfg.Order),
		Page:     cfg.Page,
		PerPage:  cfg.PerPage,
	}
	if !consts.IsSupportedCurrency(q.Currency) {
		return domain.Query{}, errors.New("config: unsupported currency " + cfg.Currency)
	}
	if !consts.IsSupportedOrder(q.Order) {
		return domain.Query{}, errors.New("config: unsupported order " + cfg.Order)
	}
	if q.Page < 1 {
		return domain.Query{}, errors.New("config: page must be positive")
	}
	if !consts.IsSupportedPageSize(q.PerPage) {
		return domain.Query{}, errors.New("config: unsupported per_page")
	}
	return q, nil
}

func (a *App) Run(ctx context.Context) error {
	if a.bot != nil {
		a.log.Info("starting bot")
		go a.bot.Start(ctx)
	}

	a.log.Info("starting server", slog.String("addr", a.cfg.Server.Addr))
	go func() {
		if err := a.e.StartServer(a.serv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", slog.String("error", err.Error()))
		}
	}()
	<-ctx.Done()
	return a.Shutdown(context.Background())
}

func (a *App) Shutdown(ctx context.Context) error {
	shCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.e != nil {
		if err := a.e.Shutdown(shCtx); err != nil {
			a.log.Error("http shutdown error", slog.String("error", err.Error()))
		}
	}

	if a.bot != nil {
		a.bot.Stop()
	}

	a.log.Info("application stopped")
	return nil
}
