// Package dispatcher releases queued work in bounded bursts on a fixed
// timer so that no more than RPM requests start per interval.
package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/sheetran/internal/queue"
)

// FirstBurst selects when the first burst is released.
type FirstBurst string

const (
	// Immediate releases the first burst as soon as Run starts.
	Immediate FirstBurst = "immediate"
	// AfterInterval waits one full interval before the first burst.
	AfterInterval FirstBurst = "after-interval"
)

// ParseFirstBurst accepts "immediate" or "after-interval".
func ParseFirstBurst(s string) (FirstBurst, error) {
	switch FirstBurst(strings.ToLower(strings.TrimSpace(s))) {
	case Immediate:
		return Immediate, nil
	case AfterInterval:
		return AfterInterval, nil
	}
	return "", fmt.Errorf("unknown first burst mode %q (want immediate or after-interval)", s)
}

// Config bounds the release rate.
type Config struct {
	RPM        int
	Interval   time.Duration
	FirstBurst FirstBurst

	// OnBurst, if set, is called after each burst with the number of
	// items released and the number still queued.
	OnBurst func(released, remaining int)
}

// Stats describes a finished Run.
type Stats struct {
	Bursts   int
	Released int
}

// Dispatcher drains a queue at a bounded rate. It owns the queue for the
// duration of Run.
type Dispatcher[T any] struct {
	cfg Config
}

// New validates cfg and returns a dispatcher.
func New[T any](cfg Config) (*Dispatcher[T], error) {
	if cfg.RPM <= 0 {
		return nil, fmt.Errorf("rpm must be positive, got %d", cfg.RPM)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.FirstBurst == "" {
		cfg.FirstBurst = Immediate
	}
	return &Dispatcher[T]{cfg: cfg}, nil
}

// Run pops up to RPM items per tick and hands each one to start until the
// queue is empty. start must not block; it is expected to launch a worker.
// Run returns early with ctx.Err() if ctx is cancelled between bursts.
func (d *Dispatcher[T]) Run(ctx context.Context, q *queue.Queue[T], start func(T)) (Stats, error) {
	var stats Stats
	if q.Len() == 0 {
		return stats, nil
	}

	release := func() {
		batch := q.PopN(d.cfg.RPM)
		for _, item := range batch {
			start(item)
		}
		stats.Bursts++
		stats.Released += len(batch)
		if d.cfg.OnBurst != nil {
			d.cfg.OnBurst(len(batch), q.Len())
		}
	}

	if d.cfg.FirstBurst == Immediate {
		release()
		if q.Len() == 0 {
			return stats, nil
		}
	}

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-ticker.C:
			release()
			if q.Len() == 0 {
				return stats, nil
			}
		}
	}
}
