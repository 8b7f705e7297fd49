package appconfig

import (
	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	MongoURI    string `env:"MONGO-URI" ini:"mongo_uri"`
	HTTPPort    string `env:"HTTP-PORT" ini:"http_port"`
	Tenant      string `env:"TENANT" ini:"tenant"`
	LLMProvider string `env:"LLM-PROVIDER" ini:"llm_provider"` // "anthropic" or "openai"
	LLMModel    string `env:"LLM-MODEL" ini:"llm_model"`
}
