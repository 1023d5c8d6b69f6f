package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/raglab/ragent/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by the graph or the
// pipeline's wrap-up path. A request without Tools is a direct, tool-free
// completion call.
type Request struct {
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "langchain", "mock", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Binding is the minimal interface required to drive generation. Invoke
// blocks until the provider returns one complete assistant message.
type Binding interface {
	Invoke(ctx context.Context, req Request) (core.Message, error)

	// Info returns information about the model implementation.
	Info() Info
}

// AsyncBinding is implemented by bindings that additionally support a
// channel based invocation; the pipeline's cooperative streaming mode uses it
// when available and falls back to Invoke otherwise.
type AsyncBinding interface {
	Binding

	InvokeAsync(ctx context.Context, req Request) (<-chan core.Message, <-chan error)
}

// MockBinding is a lightweight in-memory Binding useful for tests and
// examples. Responses can be scripted as a FIFO queue (tool call round trips
// included) or registered as canned completions keyed by the last message
// text; unmatched prompts get a deterministic echo.
type MockBinding struct {
	info      Info
	mu        sync.Mutex
	responses map[string]string
	script    []core.Message
	err       error
}

// Compile-time assertion: the mock supports the async contract too.
var _ AsyncBinding = (*MockBinding)(nil)

// NewMockBinding constructs a MockBinding with tool support enabled.
func NewMockBinding(name string) *MockBinding {
	return &MockBinding{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockBinding) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends scripted assistant messages consumed in FIFO order before
// any canned or echoed completion is considered.
func (m *MockBinding) Enqueue(messages ...core.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, messages...)
}

// FailWith makes every subsequent call return err. Pass nil to clear.
func (m *MockBinding) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Invoke implements Binding.
func (m *MockBinding) Invoke(ctx context.Context, req Request) (core.Message, error) {
	if err := ctx.Err(); err != nil {
		return core.Message{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return core.Message{}, m.err
	}

	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, nil
	}

	var inputText string
	if len(req.Messages) > 0 {
		inputText = req.Messages[len(req.Messages)-1].Text()
	}

	if canned, ok := m.responses[inputText]; ok {
		return core.NewAssistantMessage(canned), nil
	}

	return core.NewAssistantMessage(fmt.Sprintf("Mock response to: %s", inputText)), nil
}

// InvokeAsync implements AsyncBinding by running Invoke on a goroutine.
func (m *MockBinding) InvokeAsync(ctx context.Context, req Request) (<-chan core.Message, <-chan error) {
	out := make(chan core.Message, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		msg, err := m.Invoke(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		out <- msg
	}()

	return out, errCh
}

// Info implements Binding.
func (m *MockBinding) Info() Info {
	return m.info
}
