package llm

import (
	"context"
	"strings"

	"github.com/ollama/ollama/api"
)

// Completion is the decoded shape of one model turn. Exactly one of the two
// views is meaningful: tool calls when the model selected tools, free text
// otherwise. Decoding happens once here, at the adapter boundary, so callers
// never inspect raw provider payloads.
type Completion struct {
	Text      string
	ToolCalls []api.ToolCall
}

// IsToolCall reports whether the model selected at least one tool.
func (c *Completion) IsToolCall() bool {
	return len(c.ToolCalls) > 0
}

// First returns the first selected tool call, or nil when the model answered
// with free text. Routing menus presume a single winner per utterance.
func (c *Completion) First() *api.ToolCall {
	if len(c.ToolCalls) == 0 {
		return nil
	}
	return &c.ToolCalls[0]
}

// Complete runs one inference turn and collects the result into a Completion.
func Complete(ctx context.Context, client LLMClient, messages []Message, opts ...LLMOption) (*Completion, error) {
	out := &Completion{}
	var text strings.Builder

	err := client.GenerateInferenceWithTools(
		ctx, messages,
		func(chunk string) error {
			text.WriteString(chunk)
			return nil
		},
		func(toolCalls []api.ToolCall) error {
			out.ToolCalls = append(out.ToolCalls, toolCalls...)
			return nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}

	out.Text = strings.TrimSpace(text.String())
	return out, nil
}
