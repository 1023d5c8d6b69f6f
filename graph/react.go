package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"time"

	"github.com/raglab/ragent/core"
	"github.com/raglab/ragent/logging"
	"github.com/raglab/ragent/model"
	"github.com/raglab/ragent/tool"
)

// Node names used in update payloads and step limit errors.
const (
	NodeAgent = "agent"
	NodeTools = "tools"
)

// ReactBuilder compiles ReAct graphs: alternating model and tool nodes until
// the model answers without requesting tools.
type ReactBuilder struct {
	logger logging.Logger
}

var _ Builder = (*ReactBuilder)(nil)

// NewReactBuilder creates a builder. A nil logger disables graph logging.
func NewReactBuilder(logger logging.Logger) *ReactBuilder {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ReactBuilder{logger: logger}
}

// Build implements Builder.
func (b *ReactBuilder) Build(
	binding model.Binding,
	prompt string,
	tools []tool.Tool,
	middleware []Middleware,
) (Graph, error) {
	if binding == nil {
		return nil, fmt.Errorf("react graph requires a model binding")
	}

	byName := make(map[string]tool.Tool, len(tools))
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		if _, exists := byName[t.Name()]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name())
		}
		byName[t.Name()] = t
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	call := Chain(func(ctx context.Context, req model.Request) (core.Message, error) {
		return binding.Invoke(ctx, req)
	}, middleware)

	b.logger.Debug("graph.build", "tools", len(tools), "middleware", len(middleware))

	return &reactGraph{
		call:   call,
		prompt: prompt,
		tools:  byName,
		defs:   defs,
		logger: b.logger,
	}, nil
}

// reactGraph is the compiled ReAct loop. It holds no per-run state; every
// execution entry point works on its own conversation slice and limiter.
type reactGraph struct {
	call   ModelCall
	prompt string
	tools  map[string]tool.Tool
	defs   []model.ToolDefinition
	logger logging.Logger
}

// Invoke implements Graph.
func (g *reactGraph) Invoke(ctx context.Context, inputs Inputs, opts RunOptions) (map[string]any, error) {
	conv, err := g.run(ctx, inputs, opts, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{"messages": conv}, nil
}

// Stream implements Graph, yielding one update payload per executed node on
// the caller's goroutine.
func (g *reactGraph) Stream(ctx context.Context, inputs Inputs, opts RunOptions) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		stopped := false
		_, err := g.run(ctx, inputs, opts, func(update map[string]any) bool {
			if !yield(update, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

// AsyncStream implements Graph on a dedicated goroutine. Each node execution
// is a suspension point: the goroutine blocks on the event channel until the
// consumer advances or ctx is cancelled, so a stalled consumer produces no
// further graph steps.
func (g *reactGraph) AsyncStream(ctx context.Context, inputs Inputs, opts RunOptions) (<-chan map[string]any, <-chan error) {
	// Unbuffered on purpose: every emit blocks until the consumer receives,
	// so a stalled consumer halts the run after the in-flight step.
	events := make(chan map[string]any)
	errCh := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errCh)

		cancelled := false
		_, err := g.run(ctx, inputs, opts, func(update map[string]any) bool {
			select {
			case events <- update:
				return true
			case <-ctx.Done():
				cancelled = true
				return false
			}
		})
		if err != nil && !cancelled {
			errCh <- err
		}
	}()

	return events, errCh
}

// run drives the ReAct loop. emit receives a snapshot payload after every
// node execution and may return false to stop the run early (cooperative
// cancellation); a nil emit runs to completion silently. The returned error
// is a *StepLimitError on budget exhaustion, otherwise whatever the model or
// a tool failed with.
func (g *reactGraph) run(
	ctx context.Context,
	inputs Inputs,
	opts RunOptions,
	emit func(update map[string]any) bool,
) ([]core.Message, error) {
	conv := g.seed(inputs)
	limiter := NewStepLimiter(opts.StepLimit)
	memory := inputs.Memory()

	for {
		if err := limiter.Take(NodeAgent); err != nil {
			return conv, err
		}

		msg, err := g.call(ctx, model.Request{Messages: conv, Tools: g.defs})
		if err != nil {
			return conv, fmt.Errorf("model call failed: %w", err)
		}
		conv = append(conv, msg)

		if emit != nil && !emit(nodeUpdate(NodeAgent, conv)) {
			return conv, nil
		}

		if len(msg.ToolCalls) == 0 {
			return conv, nil
		}

		if err := limiter.Take(NodeTools); err != nil {
			return conv, err
		}

		for _, call := range msg.ToolCalls {
			result, err := g.executeTool(ctx, memory, call)
			if err != nil {
				return conv, err
			}
			conv = append(conv, core.NewToolMessage(call.ID, result))
		}

		if emit != nil && !emit(nodeUpdate(NodeTools, conv)) {
			return conv, nil
		}
	}
}

// seed builds the initial conversation: the system prompt (when configured)
// followed by the run inputs.
func (g *reactGraph) seed(inputs Inputs) []core.Message {
	var conv []core.Message
	if g.prompt != "" {
		conv = append(conv, core.NewSystemMessage(g.prompt))
	}
	return append(conv, inputs.Messages()...)
}

// executeTool resolves and runs one tool call, normalizing the result to a
// string. Tool failures propagate unchanged; this layer does not retry.
func (g *reactGraph) executeTool(ctx context.Context, memory *core.RunMemory, call core.ToolCall) (string, error) {
	t, exists := g.tools[call.Name]
	if !exists {
		return "", fmt.Errorf("tool %q not found", call.Name)
	}

	toolCtx := core.NewToolContext(ctx, call.ID, memory, g.logger)

	start := time.Now()
	result, err := t.Call(toolCtx, call.Args)
	g.logger.Debug("graph.tool.executed",
		"tool", call.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)
	if err != nil {
		return "", err
	}

	switch v := result.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		raw, merr := json.Marshal(v)
		if merr != nil {
			return fmt.Sprintf("%v", v), nil
		}
		return string(raw), nil
	}
}

// nodeUpdate wraps a conversation snapshot in the update payload shape
// emitted by streaming runs: the node name maps to its message list.
func nodeUpdate(node string, conv []core.Message) map[string]any {
	snapshot := make([]core.Message, len(conv))
	copy(snapshot, conv)
	return map[string]any{node: map[string]any{"messages": snapshot}}
}
