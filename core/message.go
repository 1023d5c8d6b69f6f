package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleSystem marks instructions injected by the pipeline.
	RoleSystem Role = "system"
	// RoleUser marks caller authored messages.
	RoleUser Role = "user"
	// RoleAssistant marks model authored messages.
	RoleAssistant Role = "assistant"
	// RoleTool marks tool result messages.
	RoleTool Role = "tool"
)

// ToolCall is a tool invocation request carried by an assistant message.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Message is a role tagged unit of conversation. Content usually holds the
// full text; Parts carries list shaped content produced by providers that
// split a completion into segments. Assistant messages may request tool
// calls, and tool result messages echo the originating call via ToolCallID.
type Message struct {
	Role       Role           `json:"role"`
	Content    string         `json:"content,omitempty"`
	Parts      []string       `json:"parts,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// condensedContentLimit caps the content length used by Condensed.
const condensedContentLimit = 400

// NewSystemMessage creates a system message with the given text.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// NewUserMessage creates a user message with the given text.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates an assistant message with the given text.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// NewToolMessage creates a tool result message bound to the originating call.
func NewToolMessage(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content}
}

// Text normalizes the message content to a printable string. List shaped
// content is space joined; plain content is returned as is.
func (m Message) Text() string {
	if m.Content != "" {
		return m.Content
	}
	if len(m.Parts) > 0 {
		return strings.Join(m.Parts, " ")
	}
	return ""
}

// Condensed renders the message as "role: content" with the content capped at
// 400 characters (ellipsis suffixed) for prompt and log embedding.
func (m Message) Condensed() string {
	content := m.Text()
	if len(content) > condensedContentLimit {
		cut := condensedContentLimit - 3
		// Back up to a rune boundary so the cut never splits a multi-byte
		// character.
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut] + "..."
	}
	return fmt.Sprintf("%s: %s", m.Role, content)
}

// LastUserText returns the text of the most recent user authored message,
// searching backward through the trace. The second return is false when no
// user message exists.
func LastUserText(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Text(), true
		}
	}
	return "", false
}
