package llm

import (
	"net/http"
	"os"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	openai "github.com/sashabaranov/go-openai"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// NewGroqClient targets Groq's OpenAI-compatible endpoint, so it shares the
// chat-completions client wholesale.
func NewGroqClient(model string) LLMClient {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		// Providers are designed for dependency injection.
		// If the API key is not set, we log a fatal error.
		logger.Fatal("GROQ_API_KEY environment variable is not set")
		return nil
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = groqBaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}
