package pipeline

import "github.com/raglab/ragent/core"

// ExtractMessages pulls the message list out of a raw graph payload. It
// checks the top-level "messages" key first, then scans one level of nested
// map values for the same key, which covers per-node update payloads of the
// form {"agent": {"messages": [...]}}. Returns nil when no non-empty list is
// found. The input is never mutated.
func ExtractMessages(payload map[string]any) []core.Message {
	if msgs := messagesFrom(payload); msgs != nil {
		return msgs
	}
	for _, value := range payload {
		nested, ok := value.(map[string]any)
		if !ok {
			continue
		}
		if msgs := messagesFrom(nested); msgs != nil {
			return msgs
		}
	}
	return nil
}

func messagesFrom(container map[string]any) []core.Message {
	raw, ok := container["messages"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []core.Message:
		if len(v) > 0 {
			return v
		}
	case []any:
		if len(v) == 0 {
			return nil
		}
		msgs := make([]core.Message, 0, len(v))
		for _, item := range v {
			switch m := item.(type) {
			case core.Message:
				msgs = append(msgs, m)
			case *core.Message:
				if m != nil {
					msgs = append(msgs, *m)
				}
			default:
				return nil
			}
		}
		return msgs
	}
	return nil
}
