package core

import (
	"context"

	"github.com/raglab/ragent/logging"
)

// ToolContext carries per-call services into a tool execution: the ambient
// cancellation context, the originating call identifier, the run's memory
// handle and a logger. Tools record retrieved documents and progress notes
// through Memory; the pipeline surfaces them in the final output.
type ToolContext struct {
	Context context.Context
	CallID  string
	Memory  *RunMemory
	Logger  logging.Logger
}

// NewToolContext constructs a ToolContext. A nil logger is replaced with a
// no-op implementation so tools can log unconditionally.
func NewToolContext(ctx context.Context, callID string, memory *RunMemory, logger logging.Logger) *ToolContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ToolContext{Context: ctx, CallID: callID, Memory: memory, Logger: logger}
}
