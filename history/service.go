package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"

	"ems-copilot/llm"
)

// overFetchFactor widens the ANN candidate pool before metadata filtering.
// Filters run on this side of the search, so a plain top-k would starve
// heavily filtered queries.
const overFetchFactor = 4

// ConversationHistory is the semantic log shared by every agent. Writes embed
// the exchange and persist it; reads run nearest-neighbor search with optional
// patient and type filters applied after retrieval.
type ConversationHistory struct {
	store    VectorStore
	embedder llm.Embedder
	now      func() time.Time
}

func ProvideConversationHistory(store VectorStore, embedder llm.Embedder) *ConversationHistory {
	return &ConversationHistory{store: store, embedder: embedder, now: time.Now}
}

type RecordOption func(*Record)

func WithPatient(name string) RecordOption {
	return func(r *Record) {
		if name != "" {
			r.Metadata[MetaPatientName] = name
		}
	}
}

func WithConversationType(conversationType string) RecordOption {
	return func(r *Record) { r.Metadata[MetaConversationType] = conversationType }
}

func WithMetadata(extra map[string]any) RecordOption {
	return func(r *Record) {
		for key, value := range extra {
			r.Metadata[key] = value
		}
	}
}

// AddConversation stores one user/agent exchange and returns its id.
func (h *ConversationHistory) AddConversation(ctx context.Context, userQuery, agentResponse string, opts ...RecordOption) (string, error) {
	now := h.now()
	rec := Record{
		ID:       newRecordID(now),
		Document: fmt.Sprintf("User: %s\nAgent: %s", userQuery, agentResponse),
		Metadata: map[string]any{
			MetaTimestamp:        now.UTC().Format(time.RFC3339),
			MetaUserQuery:        userQuery,
			MetaAgentResponse:    agentResponse,
			MetaConversationType: TypeConversation,
		},
	}
	for _, opt := range opts {
		opt(&rec)
	}

	if err := h.save(ctx, rec); err != nil {
		return "", err
	}

	logger.Info("Recorded conversation",
		zap.String("conversationId", rec.ID),
		zap.String("conversationType", rec.ConversationType()))
	return rec.ID, nil
}

// AddActionLog records a structured action taken on behalf of a patient, e.g.
// a vitals write or a triage assessment. Action logs share the vector space
// with conversations so semantic search surfaces them too.
func (h *ConversationHistory) AddActionLog(ctx context.Context, action string, details map[string]any, patientName, agentName string) (string, error) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("marshal action details: %w", err)
	}

	now := h.now()
	rec := Record{
		ID:       newRecordID(now),
		Document: fmt.Sprintf("Action: %s | Agent: %s | Details: %s", action, agentName, detailsJSON),
		Metadata: map[string]any{
			MetaTimestamp:        now.UTC().Format(time.RFC3339),
			MetaUserQuery:        action,
			MetaAgentResponse:    string(detailsJSON),
			MetaConversationType: TypeActionLog,
			"action":             action,
			"agent":              agentName,
		},
	}
	if patientName != "" {
		rec.Metadata[MetaPatientName] = patientName
	}

	if err := h.save(ctx, rec); err != nil {
		return "", err
	}

	logger.Info("Recorded action log",
		zap.String("conversationId", rec.ID),
		zap.String("action", action),
		zap.String("agent", agentName))
	return rec.ID, nil
}

// SearchConversations returns the n records most similar to query, unfiltered.
func (h *ConversationHistory) SearchConversations(ctx context.Context, query string, n int) ([]Record, error) {
	if n <= 0 {
		n = 5
	}

	embedding, err := h.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return h.store.Nearest(ctx, embedding, n)
}

type contextQuery struct {
	limit             int
	patientName       string
	conversationTypes map[string]bool
}

type ContextOption func(*contextQuery)

func ForPatient(name string) ContextOption {
	return func(q *contextQuery) { q.patientName = name }
}

func OfTypes(conversationTypes ...string) ContextOption {
	return func(q *contextQuery) {
		if len(conversationTypes) == 0 {
			return
		}
		q.conversationTypes = make(map[string]bool, len(conversationTypes))
		for _, t := range conversationTypes {
			q.conversationTypes[t] = true
		}
	}
}

func WithLimit(n int) ContextOption {
	return func(q *contextQuery) {
		if n > 0 {
			q.limit = n
		}
	}
}

// GetRelevantContext retrieves records similar to query, filtered by patient
// name (exact, case-sensitive) and conversation type. The underlying search
// over-fetches so filtering still yields up to limit records.
func (h *ConversationHistory) GetRelevantContext(ctx context.Context, query string, opts ...ContextOption) ([]Record, error) {
	q := contextQuery{limit: 5}
	for _, opt := range opts {
		opt(&q)
	}

	embedding, err := h.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates, err := h.store.Nearest(ctx, embedding, q.limit*overFetchFactor)
	if err != nil {
		return nil, err
	}

	matched := make([]Record, 0, q.limit)
	for _, rec := range candidates {
		if q.patientName != "" && rec.PatientName() != q.patientName {
			continue
		}
		if q.conversationTypes != nil && !q.conversationTypes[rec.ConversationType()] {
			continue
		}
		matched = append(matched, rec)
		if len(matched) == q.limit {
			break
		}
	}
	return matched, nil
}

// GetPatientTimeline returns the patient's records newest first, without any
// semantic ranking.
func (h *ConversationHistory) GetPatientTimeline(ctx context.Context, patientName string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	return h.store.ByPatient(ctx, patientName, limit)
}

// ClearHistory removes every record. Intended for tests and demo resets.
func (h *ConversationHistory) ClearHistory(ctx context.Context) error {
	if err := h.store.DeleteAll(ctx); err != nil {
		return err
	}
	logger.Info("Cleared conversation history")
	return nil
}

func (h *ConversationHistory) save(ctx context.Context, rec Record) error {
	embedding, err := h.embedder.Embed(ctx, rec.Document)
	if err != nil {
		return fmt.Errorf("embed conversation %s: %w", rec.ID, err)
	}
	return h.store.Upsert(ctx, rec, embedding)
}
