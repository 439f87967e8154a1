// Package progress tracks how many grid cells have reached their final
// state. A Tracker is started once per run with the grid size and must be
// finished when the run ends.
package progress

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Tracker is a bounded, monotonically advancing counter with an optional
// terminal bar. It is safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	total    int64
	current  int64
	finished bool
}

// Start creates a tracker for total cells. When visible is false nothing is
// drawn and only the counter advances.
func Start(total int, w io.Writer, visible bool) *Tracker {
	t := &Tracker{total: int64(total)}
	if visible && w != nil {
		t.bar = progressbar.NewOptions64(int64(total),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("translating"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}
	return t
}

// Add advances the counter by n, never past the total.
func (t *Tracker) Add(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished || n <= 0 {
		return
	}
	if t.current+int64(n) > t.total {
		n = int(t.total - t.current)
	}
	t.current += int64(n)
	if t.bar != nil && n > 0 {
		_ = t.bar.Add(n)
	}
}

// Clear erases the bar so a diagnostic line can be printed cleanly. The bar
// is redrawn on the next Add.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bar != nil && !t.finished {
		_ = t.bar.Clear()
	}
}

// Current returns the number of cells counted so far.
func (t *Tracker) Current() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Total returns the bound given to Start.
func (t *Tracker) Total() int64 {
	return t.total
}

// Finish stops the tracker and clears the bar. Further Adds are ignored.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return
	}
	t.finished = true
	if t.bar != nil {
		_ = t.bar.Finish()
		_ = t.bar.Clear()
	}
}
