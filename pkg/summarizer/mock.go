package summarizer

import (
	"context"
	"sync"
)

// MockCall records the arguments of one Summarize invocation.
type MockCall struct {
	Messages     []Message
	PriorSummary string
}

// Mock is a scripted summarizer for tests. Responses and errors are
// consumed in order; when the script runs out, the last configured
// response (or error) repeats.
type Mock struct {
	mu sync.Mutex

	// Responses to return for successive calls.
	Responses []string
	// Errors to return for successive calls; a nil entry means success.
	Errors []error

	// Calls tracks every invocation.
	Calls []MockCall

	index int
}

// NewMock creates a mock summarizer that always returns text.
func NewMock(text string) *Mock {
	return &Mock{Responses: []string{text}}
}

// NewFailingMock creates a mock summarizer that always fails.
func NewFailingMock(err error) *Mock {
	return &Mock{Errors: []error{err}}
}

// Name implements Client.
func (m *Mock) Name() string { return "mock" }

// Summarize implements Client.
func (m *Mock) Summarize(_ context.Context, messages []Message, priorSummary string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]Message, len(messages))
	copy(recorded, messages)
	m.Calls = append(m.Calls, MockCall{Messages: recorded, PriorSummary: priorSummary})

	i := m.index
	m.index++

	if len(m.Errors) > 0 {
		idx := i
		if idx >= len(m.Errors) {
			idx = len(m.Errors) - 1
		}
		if err := m.Errors[idx]; err != nil {
			return "", err
		}
	}

	if len(m.Responses) == 0 {
		return "", ErrEmptyResponse
	}
	idx := i
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}

// CallCount reports how many times Summarize was invoked.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent invocation, or false if there was none.
func (m *Mock) LastCall() (MockCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return MockCall{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}
