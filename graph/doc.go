// Package graph defines the compiled agent graph abstraction: the run-able
// unit produced from a model binding, a system prompt, a tool set and a
// middleware chain. A graph can be driven three ways (blocking Invoke,
// synchronous incremental Stream and channel based AsyncStream), and all
// three fail with a distinguished *StepLimitError once the per-run step
// budget is exhausted.
//
// The package ships a ReAct implementation (model turn, tool turn, repeat)
// plus the Builder interface the pipeline uses to compile graphs, so callers
// can substitute their own graph shape without touching the pipeline.
package graph
