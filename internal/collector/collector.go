// Package collector drains worker outcomes and writes each successful
// translation to every cell that shares its key.
package collector

import (
	"fmt"
	"log/slog"

	"github.com/valpere/sheetran/internal"
	"github.com/valpere/sheetran/internal/registry"
	"github.com/valpere/sheetran/internal/worker"
)

// Writer receives final cell text.
type Writer interface {
	WriteString(row, col int, text string) error
}

// Progress is advanced once per written cell.
type Progress interface {
	Add(n int)
}

// Reporter receives non-fatal task failures.
type Reporter interface {
	Report(key internal.NormalizedKey, err error)
}

// Summary describes a drained result channel.
type Summary struct {
	Resolved     int
	Failed       int
	CellsWritten int
	Unresolved   int
}

// Option configures a Collector.
type Option func(*Collector)

// WithResolvedHook calls fn for every successful outcome after its cells
// are written.
func WithResolvedHook(fn func(key internal.NormalizedKey, text string)) Option {
	return func(c *Collector) {
		c.onResolved = fn
	}
}

// Collector is the single consumer of the result channel.
type Collector struct {
	snapshot   *registry.Snapshot
	writer     Writer
	progress   Progress
	reporter   Reporter
	onResolved func(key internal.NormalizedKey, text string)
}

// New returns a collector writing through w. snapshot must be frozen.
func New(snapshot *registry.Snapshot, w Writer, progress Progress, reporter Reporter, opts ...Option) *Collector {
	c := &Collector{
		snapshot: snapshot,
		writer:   w,
		progress: progress,
		reporter: reporter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes outcomes until results is closed. Failed tasks are reported
// and their cells left unwritten. A write error stops further writes but
// the channel is still drained so every worker can finish; the first write
// error is returned.
func (c *Collector) Run(results <-chan worker.Outcome) (Summary, error) {
	var (
		summary  Summary
		writeErr error
	)

	for outcome := range results {
		locations := c.snapshot.Locations(outcome.Key)

		if outcome.Failed() {
			summary.Failed++
			summary.Unresolved += len(locations)
			c.reporter.Report(outcome.Key, outcome.Err)
			continue
		}

		if locations == nil {
			summary.Failed++
			c.reporter.Report(outcome.Key, fmt.Errorf("no cells registered for key"))
			continue
		}

		summary.Resolved++
		if writeErr != nil {
			continue
		}

		for _, loc := range locations {
			if err := c.writer.WriteString(loc.Row, loc.Column, outcome.Text); err != nil {
				writeErr = fmt.Errorf("failed to write cell %s: %w", loc, err)
				break
			}
			summary.CellsWritten++
			c.progress.Add(1)
		}

		if writeErr == nil && c.onResolved != nil {
			c.onResolved(outcome.Key, outcome.Text)
		}
	}

	return summary, writeErr
}

// Clearer is implemented by progress displays that must be erased before
// a diagnostic line is printed.
type Clearer interface {
	Clear()
}

// LogReporter reports failures as WARN records.
type LogReporter struct {
	logger  *slog.Logger
	display Clearer
}

// NewLogReporter returns a reporter logging to logger. display may be nil.
func NewLogReporter(logger *slog.Logger, display Clearer) *LogReporter {
	return &LogReporter{logger: logger, display: display}
}

// Report implements Reporter.
func (r *LogReporter) Report(key internal.NormalizedKey, err error) {
	if r.display != nil {
		r.display.Clear()
	}
	r.logger.Warn("translation failed", "key", string(key), "error", err)
}
