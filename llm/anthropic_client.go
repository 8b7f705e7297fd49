package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
)

type AnthropicClient struct {
	apiKey     string
	httpClient *http.Client
	url        string
	model      string
}

func NewAnthropicClient(model string) LLMClient {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		// Providers are designed for dependency injection.
		// If the API key is not set, we log a fatal error.
		logger.Fatal("ANTHROPIC_API_KEY environment variable is not set")
		return nil
	}

	return &AnthropicClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		url:        "https://api.anthropic.com/v1/messages",
		model:      model,
	}
}

func (c *AnthropicClient) Capabilities() Capability {
	return 0 // tool calling is emulated with a structured-output prompt
}

func (c *AnthropicClient) GetModel() string {
	return c.model
}

func (c *AnthropicClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := LLMSettings{
		model:       c.model,
		temperature: 0.7,
		maxTokens:   4096,
	}

	for _, opt := range opts {
		opt(&settings)
	}

	request := anthropicRequest{
		Model:       settings.model,
		MaxTokens:   settings.maxTokens,
		Temperature: settings.temperature,
		System:      settings.system,
		Messages:    messages,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(response.Content) == 0 {
		return fmt.Errorf("no content in response")
	}

	return callback(response.Content[0].Text)
}

func (c *AnthropicClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []api.ToolCall) error,
	opts ...LLMOption,
) error {
	settings := LLMSettings{
		model:       c.model,
		temperature: 0.7,
		maxTokens:   4096,
	}

	for _, opt := range opts {
		opt(&settings)
	}

	// Without a tool menu this is a plain completion.
	if len(settings.tools) == 0 {
		return c.GenerateInference(ctx, messages, contentCallback, opts...)
	}

	emulationSystem := settings.system + "\n\n" + buildToolEmulationInstructions(settings.tools)

	var raw strings.Builder
	err := c.GenerateInference(ctx, messages,
		func(chunk string) error {
			raw.WriteString(chunk)
			return nil
		},
		WithSystemPrompt(emulationSystem),
		WithMaxTokens(settings.maxTokens),
		WithTemperature(settings.temperature))
	if err != nil {
		return err
	}

	return parseEmulatedToolResponse(raw.String(), contentCallback, toolCallback)
}

// buildToolEmulationInstructions renders the declared tool menu as a
// structured-output instruction for models without native tool calling.
func buildToolEmulationInstructions(tools []api.Tool) string {
	var b strings.Builder
	b.WriteString("You may invoke the following tools. Respond ONLY with a JSON object of the form ")
	b.WriteString(`{"tool_calls": [{"name": "...", "arguments": {...}}]} to invoke tools, `)
	b.WriteString(`or {"answer": "..."} to answer directly.` + "\n\nTools:\n")

	for _, tool := range tools {
		b.WriteString(fmt.Sprintf("- %s: %s", tool.Function.Name, tool.Function.Description))

		var params []string
		for name, prop := range tool.Function.Parameters.Properties {
			paramType := "string"
			if len(prop.Type) > 0 {
				paramType = string(prop.Type[0])
			}
			params = append(params, fmt.Sprintf("%s:%s", name, paramType))
		}
		if len(params) > 0 {
			b.WriteString(fmt.Sprintf(" (parameters: %s)", strings.Join(params, ", ")))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func parseEmulatedToolResponse(
	response string,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []api.ToolCall) error,
) error {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || startIdx >= endIdx {
		// Not structured output; surface the whole completion as text.
		return contentCallback(strings.TrimSpace(response))
	}

	var decoded struct {
		Answer    string `json:"answer"`
		ToolCalls []struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		} `json:"tool_calls"`
	}
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &decoded); err != nil {
		return contentCallback(strings.TrimSpace(response))
	}

	if len(decoded.ToolCalls) > 0 && toolCallback != nil {
		toolCalls := make([]api.ToolCall, len(decoded.ToolCalls))
		for i, tc := range decoded.ToolCalls {
			toolCalls[i] = api.ToolCall{
				Function: api.ToolCallFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			}
		}
		return toolCallback(toolCalls)
	}

	if decoded.Answer != "" && contentCallback != nil {
		return contentCallback(decoded.Answer)
	}

	return contentCallback(strings.TrimSpace(response))
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	ID      string             `json:"id"`
	Model   string             `json:"model"`
	Role    string             `json:"role"`
	Type    string             `json:"type"`
}

type anthropicContent struct {
	Text string `json:"text"`
	Type string `json:"type"`
}
