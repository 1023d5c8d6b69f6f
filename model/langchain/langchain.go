// Package langchain provides a model binding that wraps any langchaingo
// llms.Model, making the whole langchaingo provider ecosystem (OpenAI
// compatible gateways, Ollama, Mistral, ...) usable as a ragent binding.
package langchain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/raglab/ragent/core"
	"github.com/raglab/ragent/model"
)

// Binding wraps an llms.Model and implements model.Binding.
type Binding struct {
	llm       llms.Model
	modelName string
}

var _ model.Binding = (*Binding)(nil)

// New creates a Binding wrapping the given llms.Model.
func New(llm llms.Model) *Binding {
	return &Binding{llm: llm, modelName: "langchain"}
}

// WithModelName sets the model name reported by Info. Returns the binding
// for chaining.
func (b *Binding) WithModelName(name string) *Binding {
	b.modelName = name
	return b
}

// Unwrap returns the underlying llms.Model.
func (b *Binding) Unwrap() llms.Model {
	return b.llm
}

// Invoke implements model.Binding by converting the request into langchaingo
// message content, calling GenerateContent and converting the first choice back.
func (b *Binding) Invoke(ctx context.Context, req model.Request) (core.Message, error) {
	messages := buildMessages(req.Messages)

	var opts []llms.CallOption
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(buildTools(req.Tools)))
	}

	resp, err := b.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return core.Message{}, fmt.Errorf("langchain model error: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return core.Message{}, fmt.Errorf("langchain model returned no choices")
	}

	choice := resp.Choices[0]
	msg := core.Message{Role: core.RoleAssistant, Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		var args map[string]any
		if tc.FunctionCall.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args)
		}
		msg.ToolCalls = append(msg.ToolCalls, core.ToolCall{
			ID:   tc.ID,
			Name: tc.FunctionCall.Name,
			Args: args,
		})
	}

	return msg, nil
}

// Info implements model.Binding.
func (b *Binding) Info() model.Info {
	return model.Info{Name: b.modelName, Provider: "langchain", SupportsTools: true}
}

func buildMessages(messages []core.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Text()))
		case core.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Text()))
		case core.RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: m.ToolCallID,
					Content:    m.Text(),
				}},
			})
		case core.RoleAssistant:
			content := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if text := m.Text(); text != "" {
				content.Parts = append(content.Parts, llms.TextContent{Text: text})
			}
			for _, call := range m.ToolCalls {
				args := "{}"
				if call.Args != nil {
					if raw, err := json.Marshal(call.Args); err == nil {
						args = string(raw)
					}
				}
				content.Parts = append(content.Parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Name,
						Arguments: args,
					},
				})
			}
			out = append(out, content)
		}
	}

	return out
}

func buildTools(tools []model.ToolDefinition) []llms.Tool {
	out := make([]llms.Tool, len(tools))
	for i, t := range tools {
		out[i] = llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return out
}
