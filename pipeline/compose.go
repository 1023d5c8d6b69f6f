package pipeline

import "github.com/raglab/ragent/core"

const noAnswerText = "No answer generated by the agent."

// composeOutput normalizes a message trace and the run memory into the
// uniform PipelineOutput contract. The answer is the text of the last
// message; a missing or empty trace yields a fixed placeholder so the
// answer field is never empty. Source documents come from the run memory in
// first-seen order and the tool ledger is rebuilt from the trace.
func composeOutput(memory *core.RunMemory, messages []core.Message, metadata map[string]any, final bool) *core.PipelineOutput {
	answer := noAnswerText
	if len(messages) > 0 {
		if text := messages[len(messages)-1].Text(); text != "" {
			answer = text
		}
	}

	var docs []core.Document
	if memory != nil {
		docs = memory.Documents()
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &core.PipelineOutput{
		Answer:          answer,
		SourceDocuments: docs,
		Messages:        append([]core.Message(nil), messages...),
		Metadata:        metadata,
		Final:           final,
		ToolCalls:       core.ToolCallLedger(messages),
	}
}
