package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Транзиентные уведомления ("тосты"): живут в памяти, читаются один раз.

type Notice struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Buffer — ограниченный буфер уведомлений. При переполнении вытесняется
// самое старое; протухшие (старше ttl) отбрасываются при чтении.
type Buffer struct {
	mu       sync.Mutex
	items    []Notice
	capacity int
	ttl      time.Duration
	clock    Clock
}

func NewBuffer(capacity int, ttl time.Duration) *Buffer {
	return NewBufferWithClock(capacity, ttl, realClock{})
}

// NewBufferWithClock - конструктор для тестов с фиксированными "часами".
func NewBufferWithClock(capacity int, ttl time.Duration, clk Clock) *Buffer {
	if capacity <= 0 {
		capacity = 32
	}
	return &Buffer{
		capacity: capacity,
		ttl:      ttl,
		clock:    clk,
	}
}

// Notify — кладёт новое уведомление. Реализует markets.Notifier.
func (b *Buffer) Notify(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, Notice{
		ID:        uuid.New(),
		Text:      text,
		CreatedAt: b.clock.Now(),
	})
	if len(b.items) > b.capacity {
		b.items = b.items[len(b.items)-b.capacity:]
	}
}

// Drain — возвращает накопленные уведомления и очищает буфер.
// Каждое уведомление наблюдается ровно один раз.
func (b *Buffer) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	out := make([]Notice, 0, len(b.items))
	for _, n := range b.items {
		if b.ttl > 0 && now.Sub(n.CreatedAt) > b.ttl {
			continue // протухло, не показываем
		}
		out = append(out, n)
	}
	b.items = nil
	return out
}

// Len — текущее число уведомлений в буфере (для тестов и метрик в логах).
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
