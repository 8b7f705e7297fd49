package agents

import (
	"context"
	"sync"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"ems-copilot/llm"
	"ems-copilot/prompts"
)

type gpsCaller interface {
	CallGPS(ctx context.Context, question string) *AgentResponse
}

type vitalsCaller interface {
	CallVitalsAgent(ctx context.Context, inputText string) *AgentResponse
}

type triageCaller interface {
	CallTriageAgent(ctx context.Context, userQuery string) string
}

// FallbackGuidance is returned verbatim whenever routing yields no usable
// function call, so the EMT always gets actionable phrasing instead of an
// error.
const FallbackGuidance = `I couldn't match that to one of my capabilities. Try phrasing it like:
- "where is the nearest hospital" (location)
- "record patient John Smith has heart rate 88" (vitals)
- "how serious is the patient's condition" (triage)
- "what's the weather at the scene" (weather)
- "how many patients were transported today" (records)`

const weatherStubMessage = "Weather lookups aren't wired up yet. I've noted the request."
const sqlStubMessage = "Direct record queries aren't wired up yet. I've noted the request."

// OrchestratorAgent is the single front door. One model call with the routing
// menu picks exactly one specialized agent; the result is normalized to plain
// text and appended to the conversation log.
type OrchestratorAgent struct {
	client llm.LLMClient
	gps    gpsCaller
	vitals vitalsCaller
	triage triageCaller
	log    ConversationLog

	mu        sync.Mutex
	memory    []string
	taskQueue []string
}

func ProvideOrchestratorAgent(client llm.LLMClient, gps gpsCaller, vitals vitalsCaller, triage triageCaller, log ConversationLog) *OrchestratorAgent {
	return &OrchestratorAgent{
		client: client,
		gps:    gps,
		vitals: vitals,
		triage: triage,
		log:    log,
	}
}

func routingMenu() []api.Tool {
	return []api.Tool{
		NewToolBuilder("gps_agent",
			"Answer questions about the ambulance's current location, directions, or the nearest facility.").
			StringParam("question", "The EMT's location question.", true).
			Build(),
		NewToolBuilder("vitals_agent",
			"Record or look up patient vital signs, measurements, and care notes.").
			StringParam("input", "The EMT's message about patient vitals.", true).
			Build(),
		NewToolBuilder("triage_agent",
			"Assess the patient's clinical priority and recommend next steps.").
			StringParam("user_query", "The EMT's question about the patient's condition.", true).
			Build(),
		NewToolBuilder("weather_agent",
			"Report weather conditions at a location.").
			StringParam("location", "The location to check weather for.", true).
			Build(),
		NewToolBuilder("sql_agent",
			"Run a query over stored EMS records.").
			StringParam("query", "The record query in plain language.", true).
			Build(),
	}
}

func (o *OrchestratorAgent) Orchestrate(ctx context.Context, userPrompt string) string {
	o.remember("user: " + userPrompt)
	o.enqueueTask("conversation")

	response := o.route(ctx, userPrompt)

	o.remember("agent: " + response)
	if _, err := o.log.AddConversation(ctx, userPrompt, response); err != nil {
		logger.Error("Failed to record orchestrated conversation", zap.Error(err))
	}
	return response
}

func (o *OrchestratorAgent) route(ctx context.Context, userPrompt string) string {
	system, err := prompts.OrchestratorSystem()
	if err != nil {
		logger.Error("Failed to render routing prompt", zap.Error(err))
		return FallbackGuidance
	}

	completion, err := llm.Complete(ctx, o.client,
		[]llm.Message{{Role: "user", Content: userPrompt}},
		llm.WithSystemPrompt(system),
		llm.WithTools(routingMenu()),
		llm.WithTemperature(0.0),
		llm.WithMaxTokens(1024))
	if err != nil {
		logger.Error("Routing inference failed", zap.Error(err))
		return "I couldn't process that request right now. Please try again."
	}

	// The menu presumes exactly one winner per utterance; extra calls are
	// ignored rather than fanned out.
	call := completion.First()
	if call == nil {
		logger.Info("Routing returned no function call, using fallback guidance")
		return FallbackGuidance
	}

	return o.dispatch(ctx, call)
}

func (o *OrchestratorAgent) dispatch(ctx context.Context, call *api.ToolCall) string {
	args := call.Function.Arguments

	logger.Info("Dispatching to agent", zap.String("agent", call.Function.Name))

	switch call.Function.Name {
	case "gps_agent":
		question := stringArg(args, "question")
		if question == "" {
			return FallbackGuidance
		}
		return o.gps.CallGPS(ctx, question).Text

	case "vitals_agent":
		input := stringArg(args, "input")
		if input == "" {
			return FallbackGuidance
		}
		return o.vitals.CallVitalsAgent(ctx, input).Text

	case "triage_agent":
		query := stringArg(args, "user_query")
		if query == "" {
			return FallbackGuidance
		}
		return o.triage.CallTriageAgent(ctx, query)

	case "weather_agent":
		return weatherStubMessage

	case "sql_agent":
		return sqlStubMessage

	default:
		logger.Error("Routing selected unknown agent", zap.String("agent", call.Function.Name))
		return FallbackGuidance
	}
}

func (o *OrchestratorAgent) remember(entry string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.memory = append(o.memory, entry)
}

func (o *OrchestratorAgent) enqueueTask(task string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.taskQueue = append(o.taskQueue, task)
}

// Memory returns a copy of the running conversation mirror.
func (o *OrchestratorAgent) Memory() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.memory))
	copy(out, o.memory)
	return out
}
