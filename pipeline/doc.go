// Package pipeline implements the agent runtime controller: it compiles and
// caches an executable agent graph from mutable tool and middleware sets,
// drives that graph under three execution disciplines (blocking Invoke,
// synchronous incremental Stream, channel based AsyncStream), recovers from
// step budget exhaustion with a single tool-free wrap-up call, and
// reassembles every raw outcome into the uniform core.PipelineOutput
// contract.
//
// A Pipeline is single purpose: one model binding, one system prompt, one
// tool set. Concrete pipelines specialize it through functional options,
// most importantly the run input builder, which turns caller arguments into
// graph inputs and receives the fresh per-run memory handle.
package pipeline
