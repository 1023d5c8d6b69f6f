package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raglab/ragent/core"
)

func TestComposeOutput(t *testing.T) {
	mem := core.NewRunMemory()
	mem.AddDocument(core.Document{ID: "d1", Content: "payload"})

	trace := []core.Message{
		core.NewUserMessage("question"),
		{
			Role:      core.RoleAssistant,
			ToolCalls: []core.ToolCall{{ID: "c1", Name: "search"}},
		},
		core.NewToolMessage("c1", "found it"),
		core.NewAssistantMessage("answer"),
	}

	out := composeOutput(mem, trace, map[string]any{"k": "v"}, true)
	assert.Equal(t, "answer", out.Answer)
	assert.True(t, out.Final)
	assert.Len(t, out.SourceDocuments, 1)
	assert.Equal(t, map[string]any{"k": "v"}, out.Metadata)
	assert.Len(t, out.Messages, 4)

	// Ledger joined from the trace.
	assert.Len(t, out.ToolCalls, 1)
	assert.Equal(t, "found it", out.ToolCalls[0].Result)
}

func TestComposeOutputEmptyTrace(t *testing.T) {
	out := composeOutput(core.NewRunMemory(), nil, nil, true)
	assert.Equal(t, noAnswerText, out.Answer)
	assert.NotNil(t, out.Metadata)
	assert.Empty(t, out.ToolCalls)
}

func TestComposeOutputEmptyLastMessage(t *testing.T) {
	trace := []core.Message{{Role: core.RoleAssistant}}
	out := composeOutput(nil, trace, nil, false)
	assert.Equal(t, noAnswerText, out.Answer)
	assert.False(t, out.Final)
}

func TestComposeOutputCopiesMessages(t *testing.T) {
	trace := []core.Message{core.NewAssistantMessage("a")}
	out := composeOutput(nil, trace, nil, true)

	trace[0].Content = "mutated"
	assert.Equal(t, "a", out.Messages[0].Content)
}
