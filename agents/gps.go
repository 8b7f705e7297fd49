package agents

import (
	"context"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"

	"ems-copilot/geo"
	"ems-copilot/llm"
	"ems-copilot/prompts"
)

// GPSAgent answers location and direction questions from a single live
// coordinate lookup plus one free-text completion. It keeps no state between
// calls.
type GPSAgent struct {
	client  llm.LLMClient
	locator geo.Locator
}

func ProvideGPSAgent(client llm.LLMClient, locator geo.Locator) *GPSAgent {
	return &GPSAgent{client: client, locator: locator}
}

func (a *GPSAgent) CallGPS(ctx context.Context, question string) *AgentResponse {
	lat, lng, err := a.locator.Locate(ctx)
	if err != nil {
		logger.Error("Geolocation lookup failed", zap.Error(err))
		return Fail("I couldn't determine the current location right now.", err.Error()).
			WithMetadata("agent", "gps_agent")
	}

	prompt, err := prompts.GPSQuestion(question, lat, lng)
	if err != nil {
		logger.Error("Failed to render GPS prompt", zap.Error(err))
		return Fail("I couldn't answer the location question right now.", err.Error()).
			WithMetadata("agent", "gps_agent")
	}

	completion, err := llm.Complete(ctx, a.client,
		[]llm.Message{{Role: "user", Content: prompt}},
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(1024))
	if err != nil {
		logger.Error("GPS inference failed", zap.Error(err))
		return Fail("I couldn't answer the location question right now.", err.Error()).
			WithMetadata("agent", "gps_agent")
	}

	return Success(completion.Text).
		WithData("latitude", lat).
		WithData("longitude", lng).
		WithMetadata("agent", "gps_agent")
}
