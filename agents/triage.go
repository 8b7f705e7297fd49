package agents

import (
	"context"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"

	"ems-copilot/history"
	"ems-copilot/llm"
	"ems-copilot/prompts"
)

const triageContextSize = 5

// noPriorContextMessage is returned without calling the model, so the agent
// never fabricates an assessment from an empty record.
const noPriorContextMessage = "No relevant prior interactions were found for this case, so I can't assess a priority level yet. Please describe the patient's symptoms and vitals."

// TriageAgent produces a clinical-priority assessment from the EMT's question
// and the most relevant prior interactions.
type TriageAgent struct {
	client llm.LLMClient
	log    ConversationLog
}

func ProvideTriageAgent(client llm.LLMClient, log ConversationLog) *TriageAgent {
	return &TriageAgent{client: client, log: log}
}

func (a *TriageAgent) CallTriageAgent(ctx context.Context, userQuery string) string {
	records, err := a.log.SearchConversations(ctx, userQuery, triageContextSize)
	if err != nil {
		logger.Error("Triage context retrieval failed", zap.Error(err))
		return "I couldn't retrieve prior interactions right now. Please try again."
	}

	if len(records) == 0 {
		a.record(ctx, userQuery, noPriorContextMessage)
		return noPriorContextMessage
	}

	contextBlocks := make([]string, len(records))
	for i, rec := range records {
		contextBlocks[i] = rec.Document
	}

	system, err := prompts.TriageSystem()
	if err != nil {
		logger.Error("Failed to render triage system prompt", zap.Error(err))
		return "I couldn't produce a triage assessment right now."
	}
	prompt, err := prompts.TriageAssessment(userQuery, contextBlocks)
	if err != nil {
		logger.Error("Failed to render triage prompt", zap.Error(err))
		return "I couldn't produce a triage assessment right now."
	}

	completion, err := llm.Complete(ctx, a.client,
		[]llm.Message{{Role: "user", Content: prompt}},
		llm.WithSystemPrompt(system),
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(2048))
	if err != nil {
		logger.Error("Triage inference failed", zap.Error(err))
		return "I couldn't produce a triage assessment right now."
	}

	a.record(ctx, userQuery, completion.Text)
	return completion.Text
}

func (a *TriageAgent) record(ctx context.Context, userQuery, assessment string) {
	_, err := a.log.AddConversation(ctx, userQuery, assessment,
		history.WithConversationType(history.TypeTriageAssessment))
	if err != nil {
		logger.Error("Failed to record triage conversation", zap.Error(err))
	}
}
