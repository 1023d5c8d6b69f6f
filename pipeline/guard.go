package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/raglab/ragent/core"
	"github.com/raglab/ragent/graph"
	"github.com/raglab/ragent/model"
)

const (
	wrapUpRecentMessages = 6
	wrapUpMaxDocuments   = 5
	wrapUpSnippetLength  = 400

	wrapUpInstruction = "Provide the final response now."
)

// wrapUpResult carries the outcome of step limit recovery. Fallback is true
// when the wrap-up model call itself failed and the message is a
// deterministic notice instead of a model summary.
type wrapUpResult struct {
	Message  core.Message
	Fallback bool
	Reason   string
}

// recoverStepLimit turns a budget-exhausted run into a terminal output. It
// makes one tool-free model call summarizing the work done so far; if that
// call fails for any reason the output still carries a deterministic notice
// naming the limit and the failure, so recovery itself can never error.
func (p *Pipeline) recoverStepLimit(ctx context.Context, run *runState, limitErr *graph.StepLimitError, trace []core.Message, async bool) *core.PipelineOutput {
	metadata := map[string]any{
		"step_limit_reached": true,
		"step_limit":         limitErr.Limit,
		"error":              limitErr.Error(),
	}
	if limitErr.Node != "" {
		metadata["last_node"] = limitErr.Node
	}

	result := p.generateWrapUp(ctx, run, limitErr, trace, async)
	if result.Fallback {
		metadata["wrap_up_fallback"] = true
	}

	messages := append(append([]core.Message(nil), trace...), result.Message)
	return composeOutput(run.memory, messages, metadata, true)
}

func (p *Pipeline) generateWrapUp(ctx context.Context, run *runState, limitErr *graph.StepLimitError, trace []core.Message, async bool) wrapUpResult {
	prompt := p.buildWrapUpPrompt(run, limitErr, trace)
	req := model.Request{
		Messages: []core.Message{
			core.NewSystemMessage(prompt),
			core.NewUserMessage(wrapUpInstruction),
		},
	}

	msg, err := p.callWrapUpModel(ctx, req, async)
	if err != nil {
		p.logger.Error("pipeline.wrapup.failed",
			"pipeline", p.name,
			"limit", limitErr.Limit,
			"error", err.Error(),
		)
		return wrapUpResult{
			Message: core.NewAssistantMessage(fmt.Sprintf(
				"Step limit %d reached and wrap-up generation failed: %v", limitErr.Limit, err)),
			Fallback: true,
			Reason:   err.Error(),
		}
	}

	if msg.Text() == "" {
		return wrapUpResult{
			Message: core.NewAssistantMessage(fmt.Sprintf(
				"Step limit %d reached. No additional summary could be generated.", limitErr.Limit)),
			Fallback: true,
			Reason:   "empty wrap-up response",
		}
	}

	if msg.Role == "" {
		msg.Role = core.RoleAssistant
	}
	msg.ToolCalls = nil
	return wrapUpResult{Message: msg}
}

func (p *Pipeline) callWrapUpModel(ctx context.Context, req model.Request, async bool) (core.Message, error) {
	if async {
		if ab, ok := p.binding.(model.AsyncBinding); ok {
			msgCh, errCh := ab.InvokeAsync(ctx, req)
			msg, ok := <-msgCh
			if !ok {
				if err := <-errCh; err != nil {
					return core.Message{}, err
				}
				return core.Message{}, fmt.Errorf("model returned no message")
			}
			return msg, nil
		}
	}
	return p.binding.Invoke(ctx, req)
}

// buildWrapUpPrompt composes the one-shot summary prompt from the run state:
// the user question, the tail of the conversation, any recorded notes, up to
// five retrieved documents and the budget error itself. Every free-form
// piece is truncated so the prompt stays bounded no matter how long the run
// ran.
func (p *Pipeline) buildWrapUpPrompt(run *runState, limitErr *graph.StepLimitError, trace []core.Message) string {
	messages := trace
	if len(messages) == 0 {
		messages = run.inputs.Messages()
	}

	question := "Unavailable"
	if text, ok := core.LastUserText(messages); ok {
		question = text
	} else if text, ok := core.LastUserText(run.inputs.Messages()); ok {
		question = text
	}

	var sections []string
	sections = append(sections, fmt.Sprintf(
		"The agent hit its step limit of %d before finishing. Produce the best possible final answer from the work below. Do not call any tools.",
		limitErr.Limit))
	sections = append(sections, "User request:\n"+truncate(question, wrapUpSnippetLength))

	if len(messages) > 0 {
		tail := messages
		if len(tail) > wrapUpRecentMessages {
			tail = tail[len(tail)-wrapUpRecentMessages:]
		}
		lines := make([]string, 0, len(tail))
		for _, m := range tail {
			lines = append(lines, "- "+m.Condensed())
		}
		sections = append(sections, "Recent conversation (latest last):\n"+strings.Join(lines, "\n"))
	}

	if notes := run.memory.Notes(); len(notes) > 0 {
		lines := make([]string, 0, len(notes))
		for _, n := range notes {
			lines = append(lines, "- "+truncate(n, wrapUpSnippetLength))
		}
		sections = append(sections, "Recorded notes:\n"+strings.Join(lines, "\n"))
	}

	if docs := run.memory.Documents(); len(docs) > 0 {
		if len(docs) > wrapUpMaxDocuments {
			docs = docs[:wrapUpMaxDocuments]
		}
		lines := make([]string, 0, len(docs))
		for _, d := range docs {
			lines = append(lines, fmt.Sprintf("- %s: %s", d.Location(), truncate(d.Content, wrapUpSnippetLength)))
		}
		sections = append(sections, "Retrieved documents (truncated):\n"+strings.Join(lines, "\n"))
	}

	sections = append(sections, "Budget error: "+limitErr.Error())
	sections = append(sections, fmt.Sprintf(
		"State clearly that the step limit of %d was reached, then give the most complete answer the gathered material supports.",
		limitErr.Limit))

	return strings.Join(sections, "\n\n")
}

// truncate caps s at max bytes with an ellipsis, cutting on a rune boundary
// so multi-byte characters never end up split.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
