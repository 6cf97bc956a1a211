package markets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NastyaGoryachaya/coin-market-board/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Сервис таблицы: состояние запроса + кэш страниц (stale-while-revalidate).

//go:generate mockgen -source=service.go -destination=mocks/mock_markets.go -package=mocks

// Provider — источник рыночных данных (инфраструктурный клиент).
type Provider interface {
	FetchMarkets(ctx context.Context, q domain.Query) ([]domain.CoinMarket, error)
}

// Notifier — канал транзиентных уведомлений для пользователя.
type Notifier interface {
	Notify(text string)
}

// FetchErrorText — текст уведомления при любой ошибке загрузки.
const FetchErrorText = "Error fetching data"

// Options — допустимые значения селекторов; внедряются при сборке,
// сервис не обращается к глобальным спискам.
type Options struct {
	Currencies []domain.Currency
	Orders     []domain.Order
	PageSizes  []int
}

func (o Options) hasCurrency(c domain.Currency) bool {
	for _, v := range o.Currencies {
		if v == c {
			return true
		}
	}
	return false
}

func (o Options) hasOrder(ord domain.Order) bool {
	for _, v := range o.Orders {
		if v == ord {
			return true
		}
	}
	return false
}

func (o Options) hasPageSize(n int) bool {
	for _, v := range o.PageSizes {
		if v == n {
			return true
		}
	}
	return false
}

// Snapshot — то, что видит слой представления в данный момент.
type Snapshot struct {
	Rows  []domain.CoinMarket
	Query domain.Query

	// Loading — для текущего кортежа ещё ни разу не было успешного ответа.
	Loading bool
	// Validating — запрос по текущему кортежу сейчас в полёте.
	Validating bool

	FetchedAt time.Time
}

type entry struct {
	rows      []domain.CoinMarket
	fetchedAt time.Time
}

type Service struct {
	provider Provider
	notifier Notifier
	clock    Clock
	opts     Options
	logger   *slog.Logger

	group singleflight.Group

	mu       sync.Mutex
	query    domain.Query
	enabled  bool
	cache    map[string]entry
	inflight map[string]int
	// display — последняя показанная страница; остаётся видимой, пока
	// грузится другой кортеж (никакого мигания пустой таблицей).
	display entry
}

func NewService(provider Provider, notifier Notifier, opts Options, initial domain.Query, enabled bool, logger *slog.Logger) *Service {
	return NewServiceWithClock(provider, notifier, opts, initial, enabled, NewRealClock(), logger)
}

// NewServiceWithClock - Конструктор для тестов: позволяет подставить фиксированные "часы".
func NewServiceWithClock(provider Provider, notifier Notifier, opts Options, initial domain.Query, enabled bool, clk Clock, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		notifier: notifier,
		clock:    clk,
		opts:     opts,
		logger:   logger,
		query:    initial,
		enabled:  enabled,
		cache:    make(map[string]entry),
		inflight: make(map[string]int),
	}
}

// Query — текущий кортеж параметров.
func (s *Service) Query() domain.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Options — наборы значений для селекторов.
func (s *Service) Options() Options { return s.opts }

// SetEnabled — пока выключено, ни один запрос не уходит.
func (s *Service) SetEnabled(v bool) {
	s.mu.Lock()
	s.enabled = v
	s.mu.Unlock()
}

// SetCurrency — мутатор валюты. Номер страницы намеренно не сбрасывается.
func (s *Service) SetCurrency(c domain.Currency) error {
	if !s.opts.hasCurrency(c) {
		return fmt.Errorf("%w: currency %q", domain.ErrBadQuery, c)
	}
	s.mutate(func(q *domain.Query) { q.Currency = c })
	return nil
}

// SetOrder — мутатор сортировки. Номер страницы не сбрасывается.
func (s *Service) SetOrder(o domain.Order) error {
	if !s.opts.hasOrder(o) {
		return fmt.Errorf("%w: order %q", domain.ErrBadQuery, o)
	}
	s.mutate(func(q *domain.Query) { q.Order = o })
	return nil
}

// SetPage — мутатор номера страницы, страницы нумеруются с единицы.
func (s *Service) SetPage(page int) error {
	if page < 1 {
		return fmt.Errorf("%w: page %d", domain.ErrBadQuery, page)
	}
	s.mutate(func(q *domain.Query) { q.Page = page })
	return nil
}

// SetPerPage — мутатор размера страницы. Номер страницы не сбрасывается
// и не зажимается под новый размер.
func (s *Service) SetPerPage(n int) error {
	if !s.opts.hasPageSize(n) {
		return fmt.Errorf("%w: per_page %d", domain.ErrBadQuery, n)
	}
	s.mutate(func(q *domain.Query) { q.PerPage = n })
	return nil
}

// mutate — применяет изменение кортежа и запускает ревалидацию нового
// кортежа: каждое изменение — ровно одна новая загрузка, даже если кортеж
// уже встречался. Закэшированная страница остаётся видимой, пока она идёт.
// Полёт регистрируется в inflight под тем же локом, что и смена кортежа,
// чтобы параллельный Snapshot не породил второй запрос.
func (s *Service) mutate(apply func(*domain.Query)) {
	s.mu.Lock()
	before := s.query.Key()
	apply(&s.query)
	q := s.query
	changed := q.Key() != before
	enabled := s.enabled
	if changed && enabled {
		s.inflight[q.Key()]++
	}
	s.mu.Unlock()

	if !changed || !enabled {
		return
	}
	go func() {
		if _, err := s.run(context.Background(), q, true); err != nil {
			s.logger.Debug("background revalidation failed", "key", q.Key(), "err", err)
		}
	}()
}

// Snapshot — текущая страница для слоя представления. Если текущий кортеж
// ещё не закэширован и никто его не грузит, блокируется на загрузке; если
// загрузка уже в полёте — сразу отдаёт прежнюю страницу (stale) с флагами.
// При неудаче загрузки отдаёт прежние данные (или пустые) и ErrFetchFailed.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	q := s.query
	key := q.Key()
	_, cached := s.cache[key]
	enabled := s.enabled
	alreadyInFlight := s.inflight[key] > 0
	s.mu.Unlock()

	var fetchErr error
	if !cached && enabled && !alreadyInFlight {
		_, fetchErr = s.fetch(ctx, q, false)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Query: q, Validating: s.inflight[key] > 0}
	if cur, ok := s.cache[key]; ok {
		// Свежие (или успешно догруженные) данные текущего кортежа.
		s.display = cur
		snap.Rows = cur.rows
		snap.FetchedAt = cur.fetchedAt
	} else {
		// Показываем прежнюю страницу, пока текущая не загрузилась.
		// У выключенного сервиса ничего не грузится, так что и Loading нет.
		snap.Rows = s.display.rows
		snap.FetchedAt = s.display.fetchedAt
		snap.Loading = enabled
	}
	if snap.Rows == nil {
		snap.Rows = []domain.CoinMarket{}
	}

	if fetchErr != nil {
		return snap, fetchErr
	}
	return snap, nil
}

// Refresh — ручная ревалидация текущего кортежа, кэш игнорируется.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	q := s.query
	enabled := s.enabled
	s.mu.Unlock()

	if !enabled {
		return domain.ErrDisabled
	}
	_, err := s.fetch(ctx, q, true)
	return err
}

// fetch — единственная точка выхода в сеть. Запросы дедуплицируются по
// ключу кортежа; результат кладётся в кэш под ключом породившего его
// кортежа, так что ответ «брошенного» кортежа никогда не перепишет
// текущий (теггинг поколений).
func (s *Service) fetch(ctx context.Context, q domain.Query, force bool) (entry, error) {
	s.mu.Lock()
	s.inflight[q.Key()]++
	s.mu.Unlock()
	return s.run(ctx, q, force)
}

// run — тело загрузки; ожидает, что полёт уже зарегистрирован в inflight,
// и снимает регистрацию по завершении.
func (s *Service) run(ctx context.Context, q domain.Query, force bool) (entry, error) {
	key := q.Key()

	defer func() {
		s.mu.Lock()
		s.inflight[key]--
		if s.inflight[key] <= 0 {
			delete(s.inflight, key)
		}
		s.mu.Unlock()
	}()

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Пока первый вызов летал, кэш мог уже наполниться.
		if !force {
			s.mu.Lock()
			e, ok := s.cache[key]
			s.mu.Unlock()
			if ok {
				return e, nil
			}
		}

		rows, err := s.provider.FetchMarkets(ctx, q)
		if err != nil {
			// Ровно одно уведомление на один неудавшийся запрос.
			s.notifier.Notify(FetchErrorText)
			s.logger.Error("fetch markets failed", "key", key, "err", err)
			return entry{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
		}

		e := entry{rows: rows, fetchedAt: s.clock.Now()}
		s.mu.Lock()
		s.cache[key] = e
		if s.query.Key() == key {
			s.display = e
		}
		s.mu.Unlock()

		s.logger.Info("fetched markets page", "key", key, "rows", len(rows))
		return e, nil
	})
	if err != nil {
		return entry{}, err
	}
	return v.(entry), nil
}
