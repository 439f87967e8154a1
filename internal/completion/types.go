package completion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoChoice means the service answered successfully with no usable candidate.
	ErrNoChoice = errors.New("no choice received")
	// ErrUnrecognizedResponse means the body matched neither response shape.
	ErrUnrecognizedResponse = errors.New("unrecognized response")
	// ErrInvalidCredential means the API key cannot be sent as a header.
	ErrInvalidCredential = errors.New("invalid credential")
)

// Request is the body of a completion call.
type Request struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Choice is one candidate completion.
type Choice struct {
	Text string `json:"text"`
}

// ServiceError is an error payload reported by the service.
type ServiceError struct {
	Message string `json:"message"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// TransportError wraps a failure to reach the service or read its answer.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Response is exactly one of a success payload (Choices) or an error
// payload (Err).
type Response struct {
	Choices []Choice
	Err     *ServiceError
}

// Failed reports whether the response is the error shape.
func (r *Response) Failed() bool {
	return r.Err != nil
}

// ParseResponse decodes a response body. The success shape is tried first
// and the error shape second; a body matching neither is rejected.
func ParseResponse(data []byte) (*Response, error) {
	var ok struct {
		Choices *[]Choice `json:"choices"`
	}
	if err := json.Unmarshal(data, &ok); err == nil && ok.Choices != nil {
		return &Response{Choices: *ok.Choices}, nil
	}

	var bad struct {
		Error *ServiceError `json:"error"`
	}
	if err := json.Unmarshal(data, &bad); err == nil && bad.Error != nil {
		return &Response{Err: bad.Error}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnrecognizedResponse, snippet(data))
}

// ChoicePolicy picks one candidate when the service returns several.
type ChoicePolicy string

const (
	// LastChoice takes the final candidate in the list.
	LastChoice ChoicePolicy = "last"
	// FirstChoice takes the first candidate in the list.
	FirstChoice ChoicePolicy = "first"
)

// ParseChoicePolicy accepts "last" or "first".
func ParseChoicePolicy(s string) (ChoicePolicy, error) {
	switch ChoicePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case LastChoice:
		return LastChoice, nil
	case FirstChoice:
		return FirstChoice, nil
	}
	return "", fmt.Errorf("unknown choice policy %q (want last or first)", s)
}

// Select returns the candidate chosen by p, or ErrNoChoice for an empty list.
func (p ChoicePolicy) Select(choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", ErrNoChoice
	}
	if p == FirstChoice {
		return choices[0].Text, nil
	}
	return choices[len(choices)-1].Text, nil
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
