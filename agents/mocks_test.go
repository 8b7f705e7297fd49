package agents

import (
	"context"
	"errors"
	"fmt"

	"github.com/ollama/ollama/api"

	"ems-copilot/db"
	"ems-copilot/history"
	"ems-copilot/llm"
)

// Mock LLM client with configurable responses, one entry per turn.
type testLLMClient struct {
	model        string
	response     string
	toolCalls    []api.ToolCall
	shouldError  bool
	errorMessage string
	callCount    int
}

func (m *testLLMClient) GenerateInference(
	ctx context.Context,
	messages []llm.Message,
	callback func(chunk string) error,
	opts ...llm.LLMOption,
) error {
	if m.shouldError {
		return errors.New(m.errorMessage)
	}
	m.callCount++
	return callback(m.response)
}

func (m *testLLMClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []llm.Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []api.ToolCall) error,
	opts ...llm.LLMOption,
) error {
	if m.shouldError {
		return errors.New(m.errorMessage)
	}
	m.callCount++

	if len(m.toolCalls) > 0 {
		return toolCallback(m.toolCalls)
	}
	return contentCallback(m.response)
}

func (m *testLLMClient) Capabilities() llm.Capability {
	return llm.NativeToolCalling
}

func (m *testLLMClient) GetModel() string {
	return m.model
}

type loggedConversation struct {
	userQuery        string
	agentResponse    string
	conversationType string
	patientName      string
}

type loggedAction struct {
	action      string
	details     map[string]any
	patientName string
	agentName   string
}

// fakeLog captures conversation-log writes and serves canned search results.
type fakeLog struct {
	conversations []loggedConversation
	actions       []loggedAction
	searchResults []history.Record
	searchErr     error
}

func (f *fakeLog) AddConversation(_ context.Context, userQuery, agentResponse string, opts ...history.RecordOption) (string, error) {
	rec := history.Record{Metadata: map[string]any{}}
	for _, opt := range opts {
		opt(&rec)
	}
	f.conversations = append(f.conversations, loggedConversation{
		userQuery:        userQuery,
		agentResponse:    agentResponse,
		conversationType: rec.ConversationType(),
		patientName:      rec.PatientName(),
	})
	return fmt.Sprintf("conv_%d", len(f.conversations)), nil
}

func (f *fakeLog) AddActionLog(_ context.Context, action string, details map[string]any, patientName, agentName string) (string, error) {
	f.actions = append(f.actions, loggedAction{
		action:      action,
		details:     details,
		patientName: patientName,
		agentName:   agentName,
	})
	return fmt.Sprintf("action_%d", len(f.actions)), nil
}

func (f *fakeLog) SearchConversations(context.Context, string, int) ([]history.Record, error) {
	return f.searchResults, f.searchErr
}

// fakeVitalsStore records writes in memory; failOn lets a test force one
// entry's write to fail.
type fakeVitalsStore struct {
	written   []db.VitalsModel
	failOn    string
	lookupErr error
}

func (s *fakeVitalsStore) WriteVital(_ context.Context, patientName, vitalsName, vitalsValue string) (*db.VitalsModel, error) {
	if s.failOn != "" && vitalsName == s.failOn {
		return nil, errors.New("write refused")
	}
	model := db.VitalsModel{
		VitalID:     fmt.Sprintf("vital_%d", len(s.written)+1),
		PatientName: patientName,
		VitalsName:  vitalsName,
		VitalsValue: vitalsValue,
		Timestamp:   "2026-03-14T09:30:00Z",
	}
	s.written = append(s.written, model)
	return &model, nil
}

func (s *fakeVitalsStore) GetVital(_ context.Context, vitalID string) (*db.VitalsModel, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	for _, m := range s.written {
		if m.VitalID == vitalID {
			return &m, nil
		}
	}
	return nil, nil
}

func (s *fakeVitalsStore) GetVitalsByPatientName(_ context.Context, patientName string) ([]db.VitalsModel, error) {
	var out []db.VitalsModel
	for _, m := range s.written {
		if m.PatientName == patientName {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeLocator struct {
	lat, lng float64
	err      error
}

func (f *fakeLocator) Locate(context.Context) (float64, float64, error) {
	return f.lat, f.lng, f.err
}

func writeVitalsCall(vitalsName, vitalsValue, patientName string) api.ToolCall {
	args := map[string]any{
		"vitals_name":  vitalsName,
		"vitals_value": vitalsValue,
	}
	if patientName != "" {
		args["patient_name"] = patientName
	}
	return api.ToolCall{
		Function: api.ToolCallFunction{
			Name:      "write_multiple_vitals",
			Arguments: args,
		},
	}
}

func routeCall(agentName, argKey, argValue string) api.ToolCall {
	return api.ToolCall{
		Function: api.ToolCallFunction{
			Name:      agentName,
			Arguments: map[string]any{argKey: argValue},
		},
	}
}
