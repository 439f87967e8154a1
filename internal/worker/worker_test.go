package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/valpere/sheetran/internal"
	"github.com/valpere/sheetran/internal/completion"
	"github.com/valpere/sheetran/internal/registry"
	"github.com/valpere/sheetran/internal/tokenizer"
)

type mockCompleter struct {
	completeFunc func(ctx context.Context, req completion.Request) (string, error)
	callCount    atomic.Int32
	lastReq      completion.Request
}

func (m *mockCompleter) Complete(ctx context.Context, req completion.Request) (string, error) {
	m.callCount.Add(1)
	m.lastReq = req
	if m.completeFunc != nil {
		return m.completeFunc(ctx, req)
	}
	return "mock result", nil
}

type fixedCounter int

func (f fixedCounter) Count(model, text string) (int, error) {
	return int(f), nil
}

func dispatchedTask(key string) *registry.Task {
	task := &registry.Task{Key: internal.NormalizedKey(key), Text: "Hello", Prompt: "Translate this into Romanian:\nHello\n\nRomanian:\n"}
	task.MarkDispatched()
	return task
}

func runOnce(t *testing.T, w *Worker, task *registry.Task) Outcome {
	t.Helper()
	out := make(chan Outcome, 1)
	w.Run(context.Background(), task, out)
	select {
	case o := <-out:
		return o
	default:
		t.Fatal("worker did not emit an outcome")
	}
	return Outcome{}
}

func TestWorker_Success(t *testing.T) {
	client := &mockCompleter{completeFunc: func(ctx context.Context, req completion.Request) (string, error) {
		return "\n\"Bună\"", nil
	}}
	w := New(client, fixedCounter(97), "text-davinci-003", "Romanian")
	task := dispatchedTask("hello")

	o := runOnce(t, w, task)

	if o.Failed() {
		t.Fatalf("unexpected failure: %v", o.Err)
	}
	if o.Key != "hello" || o.Text != "Bună" {
		t.Errorf("unexpected outcome: %+v", o)
	}
	if client.lastReq.MaxTokens != 4000 {
		t.Errorf("expected max_tokens 4000, got %d", client.lastReq.MaxTokens)
	}
	if client.lastReq.Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", client.lastReq.Temperature)
	}
	if client.lastReq.Prompt != task.Prompt {
		t.Errorf("expected task prompt to be sent")
	}
	if task.State() != registry.Resolved {
		t.Errorf("expected resolved state, got %s", task.State())
	}
}

func TestWorker_ServiceError(t *testing.T) {
	client := &mockCompleter{completeFunc: func(ctx context.Context, req completion.Request) (string, error) {
		return "", &completion.ServiceError{Message: "rate limited"}
	}}
	w := New(client, fixedCounter(10), "text-davinci-003", "Romanian")
	task := dispatchedTask("hello")

	o := runOnce(t, w, task)

	var svcErr *completion.ServiceError
	if !errors.As(o.Err, &svcErr) || svcErr.Message != "rate limited" {
		t.Errorf("expected service error, got %v", o.Err)
	}
	if task.State() != registry.Failed {
		t.Errorf("expected failed state, got %s", task.State())
	}
	if client.callCount.Load() != 1 {
		t.Errorf("expected exactly one call, got %d", client.callCount.Load())
	}
}

func TestWorker_EmptyAfterCleanup(t *testing.T) {
	client := &mockCompleter{completeFunc: func(ctx context.Context, req completion.Request) (string, error) {
		return "  \n ", nil
	}}
	w := New(client, fixedCounter(10), "text-davinci-003", "Romanian")

	o := runOnce(t, w, dispatchedTask("hello"))

	if !errors.Is(o.Err, completion.ErrNoChoice) {
		t.Errorf("expected ErrNoChoice, got %v", o.Err)
	}
}

func TestWorker_PromptTooLong(t *testing.T) {
	client := &mockCompleter{}
	w := New(client, fixedCounter(10000), "text-davinci-003", "Romanian")

	o := runOnce(t, w, dispatchedTask("hello"))

	if !errors.Is(o.Err, tokenizer.ErrPromptTooLong) {
		t.Errorf("expected ErrPromptTooLong, got %v", o.Err)
	}
	if client.callCount.Load() != 0 {
		t.Error("service must not be called when the budget is exhausted")
	}
}
