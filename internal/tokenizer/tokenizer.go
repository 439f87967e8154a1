// Package tokenizer computes the completion token budget left after a prompt.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// ErrPromptTooLong means the prompt leaves no room for a completion.
var ErrPromptTooLong = errors.New("prompt exceeds model context")

const defaultContextSize = 4096

// contextSizes is matched by prefix, longest first.
var contextSizes = []struct {
	prefix string
	size   int
}{
	{"gpt-4o", 128000},
	{"gpt-4-turbo", 128000},
	{"gpt-4-32k", 32768},
	{"gpt-4", 8192},
	{"gpt-3.5-turbo-instruct", 4096},
	{"gpt-3.5-turbo-16k", 16384},
	{"gpt-3.5-turbo", 4096},
	{"text-davinci-002", 4097},
	{"text-davinci-003", 4097},
	{"code-davinci-002", 8001},
	{"code-davinci-001", 8001},
	{"code-cushman-002", 2048},
	{"code-cushman-001", 2048},
	{"davinci-002", 16384},
	{"babbage-002", 16384},
	{"text-ada", 2049},
	{"text-babbage", 2049},
	{"text-curie", 2049},
	{"ada", 2049},
	{"babbage", 2049},
	{"curie", 2049},
	{"davinci", 2049},
}

// ContextSize returns the context window of model.
func ContextSize(model string) int {
	for _, c := range contextSizes {
		if strings.HasPrefix(model, c.prefix) {
			return c.size
		}
	}
	return defaultContextSize
}

// fallbackEncodings lists models whose own encoding is missing from the
// offline loader. They are counted with a shipped encoding instead.
var fallbackEncodings = []struct {
	prefix   string
	encoding string
}{
	{"gpt-4o", "cl100k_base"},
}

// Counter counts prompt tokens for a model.
type Counter interface {
	Count(model, text string) (int, error)
}

// Tiktoken counts tokens with the BPE encoding of each model. Encodings are
// loaded from embedded data, never from the network.
type Tiktoken struct {
	mu        sync.Mutex
	encodings map[string]*tiktoken.Tiktoken
}

var loaderOnce sync.Once

// NewTiktoken returns a counter backed by the offline BPE loader.
func NewTiktoken() *Tiktoken {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	return &Tiktoken{encodings: make(map[string]*tiktoken.Tiktoken)}
}

// Count implements Counter. Encodings are cached per model; encoding itself
// runs outside the lock.
func (t *Tiktoken) Count(model, text string) (int, error) {
	enc, err := t.encoding(model)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

func (t *Tiktoken) encoding(model string) (*tiktoken.Tiktoken, error) {
	t.mu.Lock()
	enc, ok := t.encodings[model]
	t.mu.Unlock()
	if ok {
		return enc, nil
	}

	enc, err := loadEncoding(model)
	if err != nil {
		return nil, fmt.Errorf("no tokenizer for model %q: %w", model, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cached, ok := t.encodings[model]; ok {
		return cached, nil
	}
	t.encodings[model] = enc
	return enc, nil
}

func loadEncoding(model string) (*tiktoken.Tiktoken, error) {
	for _, f := range fallbackEncodings {
		if strings.HasPrefix(model, f.prefix) {
			return tiktoken.GetEncoding(f.encoding)
		}
	}
	return tiktoken.EncodingForModel(model)
}

// Budget returns how many completion tokens remain for prompt on model.
func Budget(counter Counter, model, prompt string) (int, error) {
	used, err := counter.Count(model, prompt)
	if err != nil {
		return 0, err
	}

	size := ContextSize(model)
	if used >= size {
		return 0, fmt.Errorf("%w: %d prompt tokens, %d context", ErrPromptTooLong, used, size)
	}
	return size - used, nil
}
