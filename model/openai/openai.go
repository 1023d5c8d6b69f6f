// Package openai provides a model binding for the OpenAI Chat Completions
// API, including function/tool calling. It adapts ragent's normalized
// Request structure into the SDK's message format and back.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/raglab/ragent/core"
	"github.com/raglab/ragent/model"
)

// Options configure the OpenAI binding. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Binding wraps the OpenAI Chat Completions API behind the generic model.Binding interface.
type Binding struct {
	client *openai.Client
	opts   Options
}

var _ model.Binding = (*Binding)(nil)

// New creates a new OpenAI binding using the official client.
func New(optFns ...func(o *Options)) *Binding {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI binding from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Binding {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Binding{client: client, opts: opts}
}

// Invoke implements model.Binding with a single blocking completion call.
func (b *Binding) Invoke(ctx context.Context, req model.Request) (core.Message, error) {
	params := b.buildParams(req, buildMessages(req.Messages))

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return core.Message{}, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.Message{}, fmt.Errorf("no choices returned")
	}

	choice := resp.Choices[0]
	msg := core.Message{Role: core.RoleAssistant, Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		}
		msg.ToolCalls = append(msg.ToolCalls, core.ToolCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}

	return msg, nil
}

// Info returns metadata describing this OpenAI binding.
func (b *Binding) Info() model.Info {
	return model.Info{
		Name:          b.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}

// buildMessages converts core messages into OpenAI chat messages, attaching
// tool result messages after the assistant message that requested them.
func buildMessages(messages []core.Message) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion

	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(m.Text()))
		case core.RoleUser:
			out = append(out, openai.UserMessage(m.Text()))
		case core.RoleTool:
			if m.ToolCallID != "" {
				out = append(out, openai.ToolMessage(m.Text(), m.ToolCallID))
			}
		case core.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Text()))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(m.ToolCalls))
			for _, call := range m.ToolCalls {
				args := "{}"
				if call.Args != nil {
					if raw, err := json.Marshal(call.Args); err == nil {
						args = string(raw)
					}
				}
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID:   call.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: args,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		default:
			if text := m.Text(); text != "" {
				out = append(out, openai.UserMessage(text))
			}
		}
	}

	return out
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (b *Binding) buildParams(
	req model.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               b.opts.Model,
		Temperature:         openai.Float(b.opts.Temperature),
		MaxCompletionTokens: openai.Int(b.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Name,
				Description: openai.String(tdef.Description),
				Parameters:  tdef.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}
