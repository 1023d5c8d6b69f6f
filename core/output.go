package core

// ToolCallRecord joins a tool call request with the result message sharing
// its call identifier. Derived from a message trace, never stored.
type ToolCallRecord struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Args   map[string]any `json:"args,omitempty"`
	Result string         `json:"result,omitempty"`
}

// PipelineOutput is the uniform result record produced by every execution
// path. Constructed fresh for every yielded or returned result and never
// mutated afterwards.
type PipelineOutput struct {
	Answer          string           `json:"answer"`
	SourceDocuments []Document       `json:"source_documents"`
	Messages        []Message        `json:"messages"`
	Metadata        map[string]any   `json:"metadata"`
	Final           bool             `json:"final"`
	ToolCalls       []ToolCallRecord `json:"tool_calls"`
}

// ToolCallLedger reconstructs the tool invocation ledger from a message
// trace: tool result messages are first indexed by call identifier, then
// every tool call request is walked in trace order and joined with its
// matching result content where one exists.
func ToolCallLedger(messages []Message) []ToolCallRecord {
	results := make(map[string]string)
	for _, msg := range messages {
		if msg.ToolCallID != "" {
			results[msg.ToolCallID] = msg.Text()
		}
	}

	var ledger []ToolCallRecord
	for _, msg := range messages {
		for _, call := range msg.ToolCalls {
			record := ToolCallRecord{ID: call.ID, Name: call.Name, Args: call.Args}
			if call.ID != "" {
				if result, ok := results[call.ID]; ok {
					record.Result = result
				}
			}
			ledger = append(ledger, record)
		}
	}
	return ledger
}
