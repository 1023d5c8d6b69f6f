package graph

import (
	"context"
	"fmt"
	"iter"

	"github.com/raglab/ragent/core"
	"github.com/raglab/ragent/model"
	"github.com/raglab/ragent/tool"
)

// Inputs is the run specific payload handed to a graph execution. Well known
// keys are "messages" ([]core.Message seed conversation) and "memory"
// (*core.RunMemory for tools to record retrievals); concrete pipelines may
// carry additional keys for their own processors.
type Inputs map[string]any

// Messages returns the seed conversation, or nil when absent.
func (in Inputs) Messages() []core.Message {
	if msgs, ok := in["messages"].([]core.Message); ok {
		return msgs
	}
	return nil
}

// Memory returns the run memory handle, or nil when absent.
func (in Inputs) Memory() *core.RunMemory {
	if mem, ok := in["memory"].(*core.RunMemory); ok {
		return mem
	}
	return nil
}

// RunOptions carries per-invocation execution settings.
type RunOptions struct {
	// StepLimit is the maximum number of graph node executions for this run.
	// Zero means unlimited.
	StepLimit int
}

// StepLimitError is the distinguished failure returned by every execution
// entry point when the step budget is exceeded. Node names the last graph
// node reached before the halt.
type StepLimitError struct {
	Limit int
	Node  string
}

func (e *StepLimitError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("step limit %d exceeded at node %q", e.Limit, e.Node)
	}
	return fmt.Sprintf("step limit %d exceeded", e.Limit)
}

// Graph is the compiled, run-able structure combining a model, a prompt,
// tools and middleware into one executable unit. Implementations are rebuilt
// by the pipeline whenever the tool set changes and are never mutated in place.
type Graph interface {
	// Invoke runs the graph to completion and returns the raw output payload,
	// a map carrying the final "messages" trace.
	Invoke(ctx context.Context, inputs Inputs, opts RunOptions) (map[string]any, error)

	// Stream runs the graph on the caller's goroutine, yielding one raw
	// update payload per executed node. The sequence ends after the final
	// node or with a non-nil error (a *StepLimitError on budget exhaustion).
	Stream(ctx context.Context, inputs Inputs, opts RunOptions) iter.Seq2[map[string]any, error]

	// AsyncStream runs the graph on its own goroutine, delivering update
	// payloads over a channel. Both channels are closed when the run ends;
	// at most one error is sent. Cancellation is cooperative via ctx.
	AsyncStream(ctx context.Context, inputs Inputs, opts RunOptions) (<-chan map[string]any, <-chan error)
}

// Builder compiles a Graph from its four ingredients. The pipeline calls it
// on every rebuild; implementations must not retain or mutate the slices.
type Builder interface {
	Build(binding model.Binding, prompt string, tools []tool.Tool, middleware []Middleware) (Graph, error)
}
