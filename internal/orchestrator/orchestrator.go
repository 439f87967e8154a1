package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valpere/sheetran/internal"
	"github.com/valpere/sheetran/internal/collector"
	"github.com/valpere/sheetran/internal/dispatcher"
	"github.com/valpere/sheetran/internal/queue"
	"github.com/valpere/sheetran/internal/registry"
	"github.com/valpere/sheetran/internal/sheet"
	"github.com/valpere/sheetran/internal/worker"
)

// OrchestratorConfig carries the run settings. Language is the display name
// used in prompts, e.g. "Romanian"; TargetLang is its code.
type OrchestratorConfig struct {
	Model      string
	TargetLang string
	Language   string
	Order      queue.Order
	Dispatch   dispatcher.Config
}

// Runner executes one dispatched task and sends exactly one outcome.
type Runner interface {
	Run(ctx context.Context, task *registry.Task, out chan<- worker.Outcome)
}

// Writer is the destination grid.
type Writer interface {
	WriteString(row, col int, text string) error
	WriteValue(row, col int, cell sheet.Cell) error
}

// Memory is an optional translation memory consulted during the scan.
type Memory interface {
	Lookup(ctx context.Context, key internal.NormalizedKey, model, targetLang string) (string, bool, error)
	Save(ctx context.Context, key internal.NormalizedKey, model, targetLang, text string) error
}

// OrchestratorResult counts what happened to every cell of the grid.
type OrchestratorResult struct {
	Cells        int
	Empty        int
	Passthrough  int
	Verbatim     int
	Overridden   int
	Remembered   int
	Duplicates   int
	Tasks        int
	Undispatched int
	Dispatch     dispatcher.Stats
	Collected    collector.Summary
	Elapsed      time.Duration
}

type Option func(*Orchestrator)

func WithMemory(m Memory) Option {
	return func(o *Orchestrator) { o.memory = m }
}

func WithProgress(p collector.Progress) Option {
	return func(o *Orchestrator) { o.progress = p }
}

func WithReporter(r collector.Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

type Orchestrator struct {
	config    OrchestratorConfig
	overrides registry.Overrides
	runner    Runner
	memory    Memory
	progress  collector.Progress
	reporter  collector.Reporter
	logger    *slog.Logger
	dispatch  *dispatcher.Dispatcher[*registry.Task]
}

type discardProgress struct{}

func (discardProgress) Add(int) {}

// New validates config so that a bad rate limit is reported before any
// input is read.
func New(config OrchestratorConfig, overrides registry.Overrides, runner Runner, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		config:    config,
		overrides: overrides,
		runner:    runner,
		progress:  discardProgress{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.reporter == nil {
		o.reporter = collector.NewLogReporter(o.logger, nil)
	}

	if o.config.Dispatch.OnBurst == nil {
		o.config.Dispatch.OnBurst = func(released, remaining int) {
			o.logger.Debug("burst released", "released", released, "remaining", remaining)
		}
	}
	d, err := dispatcher.New[*registry.Task](o.config.Dispatch)
	if err != nil {
		return nil, fmt.Errorf("invalid dispatch config: %w", err)
	}
	o.dispatch = d

	return o, nil
}

// Execute scans grid, writing every cell that needs no request, then
// dispatches the remaining unique keys and writes their outcomes as they
// arrive. Failed tasks leave their cells unwritten and are reported; only
// write errors are returned.
func (o *Orchestrator) Execute(ctx context.Context, grid *sheet.Grid, w Writer) (*OrchestratorResult, error) {
	started := time.Now()
	result := &OrchestratorResult{Cells: grid.Size()}

	q := queue.New[*registry.Task](o.config.Order)
	regOpts := append(o.registryOptions(ctx), registry.WithHeaderRow(grid.HeaderRow()))
	reg := registry.New(o.overrides, o.config.Language, q, regOpts...)

	if err := o.scan(grid, reg, w, result); err != nil {
		return nil, err
	}

	snapshot := reg.Freeze()
	result.Tasks = snapshot.Len()
	o.logger.Info("scan complete",
		"cells", result.Cells,
		"tasks", result.Tasks,
		"pending_cells", snapshot.Cells(),
		"duplicates", result.Duplicates,
		"overridden", result.Overridden,
		"remembered", result.Remembered)

	if snapshot.Len() == 0 {
		result.Elapsed = time.Since(started)
		return result, nil
	}

	results := make(chan worker.Outcome, o.config.Dispatch.RPM)

	// Cancelling ctx stops further releases only; released tasks run to completion.
	workCtx := context.WithoutCancel(ctx)

	var (
		wg          sync.WaitGroup
		dispatchErr error
	)
	go func() {
		result.Dispatch, dispatchErr = o.dispatch.Run(ctx, q, func(task *registry.Task) {
			if !task.MarkDispatched() {
				return
			}
			wg.Add(1)
			go func(t *registry.Task) {
				defer wg.Done()
				o.runner.Run(workCtx, t, results)
			}(task)
		})

		wg.Wait()
		close(results)
	}()

	var collectorOpts []collector.Option
	if o.memory != nil {
		saveCtx := context.WithoutCancel(ctx)
		collectorOpts = append(collectorOpts, collector.WithResolvedHook(func(key internal.NormalizedKey, text string) {
			if err := o.memory.Save(saveCtx, key, o.config.Model, o.config.TargetLang, text); err != nil {
				o.logger.Warn("failed to save translation memory", "key", string(key), "error", err)
			}
		}))
	}

	summary, err := collector.New(snapshot, w, o.progress, o.reporter, collectorOpts...).Run(results)
	result.Collected = summary
	result.Elapsed = time.Since(started)

	if dispatchErr != nil {
		for _, t := range snapshot.Tasks() {
			if t.State() == registry.Queued {
				result.Undispatched++
			}
		}
		o.logger.Warn("dispatch stopped early", "error", dispatchErr, "undispatched", result.Undispatched)
	}
	return result, err
}

func (o *Orchestrator) registryOptions(ctx context.Context) []registry.Option {
	if o.memory == nil {
		return nil
	}
	return []registry.Option{registry.WithMemory(func(key internal.NormalizedKey) (string, bool) {
		text, found, err := o.memory.Lookup(ctx, key, o.config.Model, o.config.TargetLang)
		if err != nil {
			o.logger.Warn("translation memory lookup failed", "key", string(key), "error", err)
			return "", false
		}
		return text, found
	})}
}

// scan visits the used range row by row. It is the only phase that mutates reg.
func (o *Orchestrator) scan(grid *sheet.Grid, reg *registry.Registry, w Writer, result *OrchestratorResult) error {
	for row := grid.Top; row < grid.Top+grid.Height; row++ {
		for col := grid.Left; col < grid.Left+grid.Width; col++ {
			cell := grid.Cell(row, col)

			switch cell.Kind {
			case sheet.Empty:
				result.Empty++
				o.progress.Add(1)
				continue
			case sheet.Other:
				if err := w.WriteValue(row, col, cell); err != nil {
					return fmt.Errorf("failed to write cell %d:%d: %w", row, col, err)
				}
				result.Passthrough++
				o.progress.Add(1)
				continue
			}

			loc := internal.CellLocation{Row: row, Column: col}
			c, err := reg.Classify(loc, cell.Value)
			if err != nil {
				return err
			}

			switch c.Kind {
			case registry.Verbatim:
				result.Verbatim++
			case registry.Overridden:
				result.Overridden++
			case registry.Remembered:
				result.Remembered++
			case registry.Duplicate:
				result.Duplicates++
				continue
			case registry.Fresh:
				continue
			}

			if err := w.WriteString(row, col, c.Text); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", loc, err)
			}
			o.progress.Add(1)
		}
	}
	return nil
}
