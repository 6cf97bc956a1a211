package notify_test

import (
	"testing"
	"time"

	"github.com/NastyaGoryachaya/coin-market-board/internal/notify"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

// Toast-семантика: уведомление наблюдается ровно один раз
func TestDrain_ObservedOnce(t *testing.T) {
	t.Parallel()

	b := notify.NewBuffer(8, time.Minute)
	b.Notify("Error fetching data")

	first := b.Drain()
	if len(first) != 1 || first[0].Text != "Error fetching data" {
		t.Fatalf("unexpected first drain: %+v", first)
	}
	if first[0].ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatal("notice must get a real id")
	}

	if second := b.Drain(); len(second) != 0 {
		t.Fatalf("second drain must be empty, got %+v", second)
	}
}

// При переполнении вытесняются самые старые
func TestNotify_CapacityEvictsOldest(t *testing.T) {
	t.Parallel()

	b := notify.NewBuffer(2, time.Minute)
	b.Notify("one")
	b.Notify("two")
	b.Notify("three")

	got := b.Drain()
	if len(got) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(got))
	}
	if got[0].Text != "two" || got[1].Text != "three" {
		t.Fatalf("oldest must be evicted, got %+v", got)
	}
}

// Протухшие уведомления отбрасываются при чтении
func TestDrain_DropsExpired(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	b := notify.NewBufferWithClock(8, 30*time.Second, clk)

	b.Notify("old")
	clk.t = clk.t.Add(time.Minute)
	b.Notify("fresh")

	got := b.Drain()
	if len(got) != 1 || got[0].Text != "fresh" {
		t.Fatalf("expected only fresh notice, got %+v", got)
	}
}
