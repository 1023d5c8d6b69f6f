package pipeline

import (
	"fmt"

	"github.com/raglab/ragent/core"
	"github.com/raglab/ragent/graph"
)

// QueryInput is a ready-made input builder for question answering pipelines.
// It reads the "query" argument and seeds the conversation with a single
// user message carrying it.
func QueryInput(memory *core.RunMemory, args map[string]any) (graph.Inputs, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, fmt.Errorf("missing required argument %q", "query")
	}
	return graph.Inputs{
		"messages": []core.Message{core.NewUserMessage(query)},
		"memory":   memory,
	}, nil
}
