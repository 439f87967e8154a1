// Package worker runs one pending task against the completion service and
// reports exactly one outcome.
package worker

import (
	"context"
	"fmt"

	"github.com/valpere/sheetran/internal"
	"github.com/valpere/sheetran/internal/completion"
	"github.com/valpere/sheetran/internal/postprocess"
	"github.com/valpere/sheetran/internal/registry"
	"github.com/valpere/sheetran/internal/tokenizer"
)

// Completer is the completion service as seen by a worker.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// Outcome is the result of one task: Text on success, Err on failure.
type Outcome struct {
	Key  internal.NormalizedKey
	Text string
	Err  error
}

// Failed reports whether the task failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Worker holds what every task needs to call the service.
type Worker struct {
	client   Completer
	counter  tokenizer.Counter
	model    string
	language string
}

// New returns a Worker. language is the target language name used to strip
// an echoed label from completions.
func New(client Completer, counter tokenizer.Counter, model, language string) *Worker {
	return &Worker{
		client:   client,
		counter:  counter,
		model:    model,
		language: language,
	}
}

// Run translates task and sends one Outcome to out. It never retries; the
// only thing it waits on besides the service is room in out.
func (w *Worker) Run(ctx context.Context, task *registry.Task, out chan<- Outcome) {
	text, err := w.translate(ctx, task)
	if err != nil {
		task.MarkFailed()
		out <- Outcome{Key: task.Key, Err: err}
		return
	}
	task.MarkResolved()
	out <- Outcome{Key: task.Key, Text: text}
}

func (w *Worker) translate(ctx context.Context, task *registry.Task) (string, error) {
	maxTokens, err := tokenizer.Budget(w.counter, w.model, task.Prompt)
	if err != nil {
		return "", fmt.Errorf("token budget: %w", err)
	}

	raw, err := w.client.Complete(ctx, completion.Request{
		Model:       w.model,
		Prompt:      task.Prompt,
		MaxTokens:   maxTokens,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}

	text := postprocess.Clean(raw, w.language)
	if text == "" {
		return "", completion.ErrNoChoice
	}
	return text, nil
}
