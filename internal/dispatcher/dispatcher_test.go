package dispatcher

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/valpere/sheetran/internal/queue"
)

func fill(n int, order queue.Order) *queue.Queue[int] {
	q := queue.New[int](order)
	for i := 0; i < n; i++ {
		q.Push(i)
	}
	return q
}

func TestNew_Validation(t *testing.T) {
	if _, err := New[int](Config{RPM: 0, Interval: time.Second}); err == nil {
		t.Error("expected error for zero rpm")
	}
	if _, err := New[int](Config{RPM: 1, Interval: 0}); err == nil {
		t.Error("expected error for zero interval")
	}

	d, err := New[int](Config{RPM: 1, Interval: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.cfg.FirstBurst != Immediate {
		t.Errorf("expected immediate default, got %q", d.cfg.FirstBurst)
	}
}

func TestRun_BurstsBoundedByRPM(t *testing.T) {
	var bursts []int
	d, err := New[int](Config{
		RPM:      3,
		Interval: 5 * time.Millisecond,
		OnBurst:  func(released, remaining int) { bursts = append(bursts, released) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var started []int
	stats, err := d.Run(context.Background(), fill(8, queue.FIFO), func(i int) {
		started = append(started, i)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(bursts, []int{3, 3, 2}) {
		t.Errorf("expected bursts [3 3 2], got %v", bursts)
	}
	if stats.Bursts != 3 || stats.Released != 8 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if !reflect.DeepEqual(started, []int{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("expected FIFO release, got %v", started)
	}
}

func TestRun_LIFOOrder(t *testing.T) {
	d, _ := New[int](Config{RPM: 2, Interval: time.Millisecond})

	var started []int
	if _, err := d.Run(context.Background(), fill(3, queue.LIFO), func(i int) {
		started = append(started, i)
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(started, []int{2, 1, 0}) {
		t.Errorf("expected LIFO release, got %v", started)
	}
}

func TestRun_ImmediateFirstBurst(t *testing.T) {
	d, _ := New[int](Config{RPM: 10, Interval: time.Hour, FirstBurst: Immediate})

	done := make(chan Stats, 1)
	go func() {
		stats, _ := d.Run(context.Background(), fill(4, queue.FIFO), func(int) {})
		done <- stats
	}()

	select {
	case stats := <-done:
		if stats.Released != 4 || stats.Bursts != 1 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	case <-time.After(time.Second):
		t.Fatal("immediate burst should not wait for the interval")
	}
}

func TestRun_AfterIntervalWaits(t *testing.T) {
	interval := 50 * time.Millisecond
	d, _ := New[int](Config{RPM: 10, Interval: interval, FirstBurst: AfterInterval})

	start := time.Now()
	var firstAt time.Duration
	_, err := d.Run(context.Background(), fill(1, queue.FIFO), func(int) {
		firstAt = time.Since(start)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if firstAt < interval {
		t.Errorf("first burst fired after %s, expected at least %s", firstAt, interval)
	}
}

func TestRun_EmptyQueue(t *testing.T) {
	d, _ := New[int](Config{RPM: 1, Interval: time.Hour, FirstBurst: AfterInterval})

	stats, err := d.Run(context.Background(), queue.New[int](queue.FIFO), func(int) {
		t.Error("start must not be called")
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Bursts != 0 {
		t.Errorf("expected no bursts, got %d", stats.Bursts)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	d, _ := New[int](Config{RPM: 1, Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	released := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	stats, err := d.Run(ctx, fill(3, queue.FIFO), func(int) { released++ })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if stats.Released != 1 || released != 1 {
		t.Errorf("expected only the immediate burst, got %+v", stats)
	}
}

func TestParseFirstBurst(t *testing.T) {
	if fb, err := ParseFirstBurst("After-Interval"); err != nil || fb != AfterInterval {
		t.Errorf("got %q, %v", fb, err)
	}
	if _, err := ParseFirstBurst("later"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
