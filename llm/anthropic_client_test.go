package llm

import (
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emulationMenu() []api.Tool {
	tool := api.Tool{
		Type: "function",
		Function: api.ToolFunction{
			Name:        "gps_agent",
			Description: "Answer location questions.",
		},
	}
	tool.Function.Parameters.Type = "object"
	tool.Function.Parameters.Properties = map[string]api.ToolProperty{
		"question": {Type: api.PropertyType{"string"}, Description: "The question."},
	}
	tool.Function.Parameters.Required = []string{"question"}
	return []api.Tool{tool}
}

func TestBuildToolEmulationInstructions(t *testing.T) {
	instructions := buildToolEmulationInstructions(emulationMenu())

	assert.Contains(t, instructions, "gps_agent")
	assert.Contains(t, instructions, "question:string")
	assert.Contains(t, instructions, `"tool_calls"`)
}

func TestParseEmulatedToolResponse(t *testing.T) {
	t.Run("ToolCalls", func(t *testing.T) {
		var got []api.ToolCall
		err := parseEmulatedToolResponse(
			`{"tool_calls": [{"name": "gps_agent", "arguments": {"question": "where am I"}}]}`,
			func(string) error { t.Fatal("unexpected content callback"); return nil },
			func(calls []api.ToolCall) error { got = calls; return nil },
		)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "gps_agent", got[0].Function.Name)
		assert.Equal(t, "where am I", got[0].Function.Arguments["question"])
	})

	t.Run("Answer", func(t *testing.T) {
		var got string
		err := parseEmulatedToolResponse(
			`{"answer": "you are downtown"}`,
			func(text string) error { got = text; return nil },
			func([]api.ToolCall) error { t.Fatal("unexpected tool callback"); return nil },
		)
		require.NoError(t, err)
		assert.Equal(t, "you are downtown", got)
	})

	t.Run("SurroundingProse", func(t *testing.T) {
		var got []api.ToolCall
		err := parseEmulatedToolResponse(
			"Sure, calling the tool now: {\"tool_calls\": [{\"name\": \"gps_agent\", \"arguments\": {}}]}",
			func(string) error { return nil },
			func(calls []api.ToolCall) error { got = calls; return nil },
		)
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("UnstructuredFallsBackToText", func(t *testing.T) {
		var got string
		err := parseEmulatedToolResponse(
			"I can't find a tool for that.",
			func(text string) error { got = text; return nil },
			func([]api.ToolCall) error { t.Fatal("unexpected tool callback"); return nil },
		)
		require.NoError(t, err)
		assert.Equal(t, "I can't find a tool for that.", got)
	})
}
