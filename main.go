package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"ems-copilot/agents"
	"ems-copilot/appconfig"
	"ems-copilot/db"
	"ems-copilot/geo"
	"ems-copilot/history"
	"ems-copilot/llm"
	"ems-copilot/server"
)

func main() {
	dotenv.LoadEnv()

	ccfgg := &appconfig.AppConfig{}
	err := config.LoadConfig("config.ini", ccfgg)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ollamaClient, err := api.ClientFromEnvironment()
	if err != nil {
		logger.Fatal("Failed to create Ollama client", zap.Error(err))
	}
	embedder := llm.NewOllamaEmbedder(ollamaClient)

	llmClient := buildLLMClient(ccfgg)

	conn := db.ProvideMongoConn()
	mongoClient, err := conn.Client()
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	ctx := getCancellableContext()

	if err := db.InitEmsDB(ctx, mongoClient, ccfgg.Tenant); err != nil {
		logger.Fatal("Failed to initialize database indexes", zap.Error(err))
	}

	conversationHistory := history.ProvideConversationHistory(
		history.ProvideMongoStore(mongoClient, ccfgg.Tenant), embedder)
	vitalsStore := db.ProvideMongoVitalsStore(conn, ccfgg.Tenant)

	orchestrator := agents.ProvideOrchestratorAgent(
		llmClient,
		agents.ProvideGPSAgent(llmClient, geo.ProvideGoogleLocator()),
		agents.ProvideVitalsAgent(llmClient, vitalsStore, conversationHistory),
		agents.ProvideTriageAgent(llmClient, conversationHistory),
		conversationHistory,
	)

	srv := server.ProvideServer(orchestrator)

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	port := ccfgg.HTTPPort
	if port == "" {
		port = ":8080"
	}
	if err := srv.Listen(port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func buildLLMClient(ccfgg *appconfig.AppConfig) llm.LLMClient {
	switch ccfgg.LLMProvider {
	case "openai":
		return llm.NewOpenAIClient(ccfgg.LLMModel)
	case "groq":
		return llm.NewGroqClient(ccfgg.LLMModel)
	default:
		return llm.NewAnthropicClient(ccfgg.LLMModel)
	}
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
