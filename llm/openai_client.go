package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient speaks the OpenAI chat-completions API (or any compatible
// endpoint via OPENAI_BASE_URL) with native function calling.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(model string) LLMClient {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		// Providers are designed for dependency injection.
		// If the API key is not set, we log a fatal error.
		logger.Fatal("OPENAI_API_KEY environment variable is not set")
		return nil
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (c *OpenAIClient) Capabilities() Capability {
	return NativeToolCalling
}

func (c *OpenAIClient) GetModel() string {
	return c.model
}

func (c *OpenAIClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := LLMSettings{
		model:       c.model,
		temperature: 0.7,
		maxTokens:   4096,
	}

	for _, opt := range opts {
		opt(&settings)
	}

	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, settings, nil))
	if err != nil {
		return fmt.Errorf("error creating chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("no choices in response")
	}

	return callback(resp.Choices[0].Message.Content)
}

func (c *OpenAIClient) GenerateInferenceWithTools(
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

	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(messages, settings, settings.tools))
	if err != nil {
		return fmt.Errorf("error creating chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]

	if len(choice.Message.ToolCalls) > 0 && toolCallback != nil {
		toolCalls, err := decodeOpenAIToolCalls(choice.Message.ToolCalls)
		if err != nil {
			return err
		}
		return toolCallback(toolCalls)
	}

	if choice.Message.Content != "" && contentCallback != nil {
		return contentCallback(choice.Message.Content)
	}

	return nil
}

func (c *OpenAIClient) buildRequest(messages []Message, settings LLMSettings, tools []api.Tool) openai.ChatCompletionRequest {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if settings.system != "" {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: settings.system,
		})
	}
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	request := openai.ChatCompletionRequest{
		Model:       settings.model,
		Messages:    oaMsgs,
		Temperature: float32(settings.temperature),
		MaxTokens:   settings.maxTokens,
	}

	if len(tools) > 0 {
		request.Tools = convertToolsToOpenAIFormat(tools)
		request.ToolChoice = "auto"
	}

	return request
}

// decodeOpenAIToolCalls converts OpenAI tool calls to the wire-neutral
// api.ToolCall shape used across the agents.
func decodeOpenAIToolCalls(calls []openai.ToolCall) ([]api.ToolCall, error) {
	out := make([]api.ToolCall, len(calls))
	for i, tc := range calls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("error parsing tool call arguments: %w", err)
		}

		out[i] = api.ToolCall{
			Function: api.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: args,
			},
		}
	}
	return out, nil
}

func convertToolsToOpenAIFormat(tools []api.Tool) []openai.Tool {
	oaTools := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		oaTools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		}
	}
	return oaTools
}
