package registry

import (
	"sync/atomic"

	"github.com/valpere/sheetran/internal"
)

// State is a pending task's lifecycle position.
type State int32

const (
	Queued State = iota
	Dispatched
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Dispatched:
		return "dispatched"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Task is one unique untranslated key awaiting a remote result.
// Key, Text, Prompt and Locations are fixed once the registry is frozen.
type Task struct {
	Key       internal.NormalizedKey
	Text      string
	Prompt    string
	Locations []internal.CellLocation

	state atomic.Int32
}

// State returns the current lifecycle state.
func (t *Task) State() State {
	return State(t.state.Load())
}

// MarkDispatched moves a queued task to dispatched.
func (t *Task) MarkDispatched() bool {
	return t.state.CompareAndSwap(int32(Queued), int32(Dispatched))
}

// MarkResolved moves a dispatched task to resolved.
func (t *Task) MarkResolved() bool {
	return t.state.CompareAndSwap(int32(Dispatched), int32(Resolved))
}

// MarkFailed moves a dispatched task to failed.
func (t *Task) MarkFailed() bool {
	return t.state.CompareAndSwap(int32(Dispatched), int32(Failed))
}
