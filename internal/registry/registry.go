// Package registry deduplicates source cells by normalized text during the
// sequential scan and records which cells share each pending translation.
//
// A Registry is owned by the scanning goroutine. Freeze ends the scan and
// returns a Snapshot that is safe to read from any goroutine.
package registry

import (
	"errors"
	"strings"

	"github.com/valpere/sheetran/internal"
	"github.com/valpere/sheetran/internal/dictionary"
	"github.com/valpere/sheetran/internal/prompt"
	"github.com/valpere/sheetran/internal/queue"
)

// ErrFrozen is returned by Classify after Freeze.
var ErrFrozen = errors.New("registry is frozen")

// Kind is the outcome of classifying one cell.
type Kind int

const (
	// Verbatim cells (header row, blank text) are copied as-is.
	Verbatim Kind = iota
	// Overridden cells take the dictionary translation.
	Overridden
	// Remembered cells take a translation from the translation memory.
	Remembered
	// Fresh cells opened a pending task.
	Fresh
	// Duplicate cells joined an existing pending task.
	Duplicate
)

func (k Kind) String() string {
	switch k {
	case Verbatim:
		return "verbatim"
	case Overridden:
		return "overridden"
	case Remembered:
		return "remembered"
	case Fresh:
		return "fresh"
	case Duplicate:
		return "duplicate"
	}
	return "unknown"
}

// Overrides is the read-only dictionary view the registry needs.
type Overrides interface {
	Lookup(key internal.NormalizedKey) (string, bool)
	Hints(key internal.NormalizedKey) []dictionary.Entry
}

// LookupFunc resolves a key from a secondary source such as a translation memory.
type LookupFunc func(key internal.NormalizedKey) (string, bool)

// Classification tells the caller what to do with a cell. Text is set for
// Verbatim, Overridden and Remembered; Task is set for Fresh and Duplicate.
type Classification struct {
	Kind Kind
	Text string
	Task *Task
}

// Option configures a Registry.
type Option func(*Registry)

// WithMemory consults lookup after the dictionary misses.
func WithMemory(lookup LookupFunc) Option {
	return func(r *Registry) {
		r.memory = lookup
	}
}

// WithHeaderRow sets the sheet row copied verbatim. The default is row 0.
func WithHeaderRow(row int) Option {
	return func(r *Registry) {
		r.headerRow = row
	}
}

// Registry maps normalized text to the pending task that owns it.
type Registry struct {
	overrides Overrides
	memory    LookupFunc
	headerRow int
	language  string
	queue     *queue.Queue[*Task]
	tasks     map[internal.NormalizedKey]*Task
	order     []*Task
	frozen    bool
}

// New creates a registry. New tasks are pushed onto q; languageName is the
// target language used in generated prompts.
func New(overrides Overrides, languageName string, q *queue.Queue[*Task], opts ...Option) *Registry {
	r := &Registry{
		overrides: overrides,
		language:  languageName,
		queue:     q,
		tasks:     make(map[internal.NormalizedKey]*Task),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify records one text cell. Cells are expected in scan order.
func (r *Registry) Classify(loc internal.CellLocation, text string) (Classification, error) {
	if r.frozen {
		return Classification{}, ErrFrozen
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || loc.Row == r.headerRow {
		return Classification{Kind: Verbatim, Text: trimmed}, nil
	}

	key := internal.Normalize(trimmed)

	if v, ok := r.overrides.Lookup(key); ok {
		return Classification{Kind: Overridden, Text: v}, nil
	}

	if task, ok := r.tasks[key]; ok {
		task.Locations = append(task.Locations, loc)
		return Classification{Kind: Duplicate, Task: task}, nil
	}

	if r.memory != nil {
		if v, ok := r.memory(key); ok {
			return Classification{Kind: Remembered, Text: v}, nil
		}
	}

	task := &Task{
		Key:       key,
		Text:      trimmed,
		Prompt:    prompt.Build(trimmed, r.overrides.Hints(key), r.language),
		Locations: []internal.CellLocation{loc},
	}
	r.tasks[key] = task
	r.order = append(r.order, task)
	if r.queue != nil {
		r.queue.Push(task)
	}

	return Classification{Kind: Fresh, Task: task}, nil
}

// Len returns the number of pending tasks.
func (r *Registry) Len() int {
	return len(r.order)
}

// Freeze ends the scan. Later Classify calls fail with ErrFrozen.
func (r *Registry) Freeze() *Snapshot {
	r.frozen = true
	return &Snapshot{tasks: r.tasks, order: r.order}
}

// Snapshot is the read-only registry view shared after the scan.
type Snapshot struct {
	tasks map[internal.NormalizedKey]*Task
	order []*Task
}

// Locations returns the cells registered for key, in discovery order.
func (s *Snapshot) Locations(key internal.NormalizedKey) []internal.CellLocation {
	t, ok := s.tasks[key]
	if !ok {
		return nil
	}
	return t.Locations
}

// Tasks returns all pending tasks in discovery order.
func (s *Snapshot) Tasks() []*Task {
	out := make([]*Task, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of pending tasks.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Cells returns the number of locations owned by pending tasks.
func (s *Snapshot) Cells() int {
	n := 0
	for _, t := range s.order {
		n += len(t.Locations)
	}
	return n
}
