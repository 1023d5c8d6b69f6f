// Package anthropic provides a model binding for the Anthropic Claude API.
// It adapts ragent's normalized Request structure into the SDK's message
// format and back, including tool use blocks.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/raglab/ragent/core"
	"github.com/raglab/ragent/model"
)

// Options configures the Anthropic binding (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Binding wraps the Anthropic Messages API behind the generic model.Binding interface.
type Binding struct {
	client *anthropic.Client
	opts   Options
}

var _ model.AsyncBinding = (*Binding)(nil)

// New creates a new Anthropic binding using the official client.
func New(optFns ...func(o *Options)) *Binding {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Binding{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic binding from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Binding {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Binding{client: client, opts: opts}
}

// Invoke implements model.Binding with a single blocking Messages API call.
func (b *Binding) Invoke(ctx context.Context, req model.Request) (core.Message, error) {
	params := anthropic.MessageNewParams{
		Model:       b.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   b.opts.MaxTokens,
		Temperature: anthropic.Float(b.opts.Temperature),
	}

	if systemBlocks := extractSystemBlocks(req.Messages); len(systemBlocks) > 0 {
		params.System = systemBlocks
	}

	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return core.Message{}, fmt.Errorf("anthropic api error: %w", err)
	}

	return parseResponse(resp), nil
}

// InvokeAsync implements model.AsyncBinding by issuing the blocking call on a
// goroutine and delivering the result over channels.
func (b *Binding) InvokeAsync(ctx context.Context, req model.Request) (<-chan core.Message, <-chan error) {
	out := make(chan core.Message, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		msg, err := b.Invoke(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		out <- msg
	}()

	return out, errCh
}

// Info returns metadata describing this Anthropic binding.
func (b *Binding) Info() model.Info {
	return model.Info{
		Name:          string(b.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}

// parseResponse converts an Anthropic response into a core.Message,
// collecting text blocks as parts and tool use blocks as tool calls.
func parseResponse(resp *anthropic.Message) core.Message {
	msg := core.Message{Role: core.RoleAssistant}

	var texts []string
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			if textBlock.Text != "" {
				texts = append(texts, textBlock.Text)
			}
		case "tool_use":
			toolBlock := block.AsToolUse()
			var args map[string]any
			if toolBlock.Input != nil {
				if raw, err := json.Marshal(toolBlock.Input); err == nil {
					_ = json.Unmarshal(raw, &args)
				}
			}
			msg.ToolCalls = append(msg.ToolCalls, core.ToolCall{
				ID:   toolBlock.ID,
				Name: toolBlock.Name,
				Args: args,
			})
		}
	}

	switch len(texts) {
	case 0:
	case 1:
		msg.Content = texts[0]
	default:
		msg.Parts = texts
	}

	return msg
}

// buildMessages converts core messages to the Anthropic message format.
// System messages are handled separately; tool results become tool_result
// blocks inside a user message, as the Messages API requires.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam

	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			continue
		case core.RoleTool:
			if m.ToolCallID == "" {
				continue
			}
			out = append(out, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Text(), false),
			))
		case core.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if text := m.Text(); text != "" {
				content = append(content, anthropic.NewTextBlock(text))
			}
			for _, call := range m.ToolCalls {
				var input any = map[string]any{}
				if call.Args != nil {
					input = call.Args
				}
				content = append(content, anthropic.NewToolUseBlock(call.ID, input, call.Name))
			}
			if len(content) > 0 {
				out = append(out, anthropic.NewAssistantMessage(content...))
			}
		default:
			if text := m.Text(); text != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
			}
		}
	}

	return out
}

// extractSystemBlocks collects system message text blocks.
func extractSystemBlocks(messages []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam

	for _, m := range messages {
		if m.Role == core.RoleSystem {
			if text := m.Text(); text != "" {
				blocks = append(blocks, anthropic.TextBlockParam{Text: text})
			}
		}
	}

	return blocks
}

// buildTools converts ragent tool definitions to the Anthropic tool format.
func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))

	for i, t := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if t.Parameters != nil {
			if properties, exists := t.Parameters["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := t.Parameters["required"]; exists {
				switch req := required.(type) {
				case []string:
					inputSchema.Required = req
				case []any:
					var reqStrings []string
					for _, r := range req {
						if s, ok := r.(string); ok {
							reqStrings = append(reqStrings, s)
						}
					}
					inputSchema.Required = reqStrings
				}
			}
		}

		out[i] = anthropic.ToolUnionParamOfTool(inputSchema, t.Name)
	}

	return out
}
