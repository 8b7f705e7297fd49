package agents

import (
	"context"

	"ems-copilot/history"
)

// ConversationLog is the slice of ConversationHistory the agents write to and
// search. Narrowed so tests can substitute an in-memory log.
type ConversationLog interface {
	AddConversation(ctx context.Context, userQuery, agentResponse string, opts ...history.RecordOption) (string, error)
	AddActionLog(ctx context.Context, action string, details map[string]any, patientName, agentName string) (string, error)
	SearchConversations(ctx context.Context, query string, n int) ([]history.Record, error)
}
