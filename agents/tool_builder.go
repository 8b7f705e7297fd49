package agents

import (
	"slices"

	"github.com/ollama/ollama/api"
)

// ToolBuilder defines one entry of an agent's function menu.
type ToolBuilder struct {
	tool api.Tool
}

func NewToolBuilder(name, description string) *ToolBuilder {
	b := &ToolBuilder{
		tool: api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        name,
				Description: description,
			},
		},
	}

	b.tool.Function.Parameters.Type = "object"
	b.tool.Function.Parameters.Properties = make(map[string]api.ToolProperty, 8)
	return b
}

func (b *ToolBuilder) StringParam(name, desc string, required bool) *ToolBuilder {
	prop := api.ToolProperty{
		Type:        api.PropertyType{"string"},
		Description: desc,
	}

	props := b.tool.Function.Parameters.Properties
	props[name] = prop
	if required {
		req := b.tool.Function.Parameters.Required
		if !slices.Contains(req, name) {
			b.tool.Function.Parameters.Required = append(req, name)
		}
	}
	return b
}

func (b *ToolBuilder) Build() api.Tool {
	return b.tool
}

// stringArg reads one string argument from a tool call, "" when absent or of
// another type.
func stringArg(params api.ToolCallFunctionArguments, key string) string {
	value, ok := params[key]
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}
