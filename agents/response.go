package agents

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// AgentResponse is the uniform envelope every specialized agent returns so the
// orchestrator never special-cases a caller. Callers may only rely on Status
// and Text being populated.
type AgentResponse struct {
	Status   string         `json:"status"`
	Text     string         `json:"text"`
	Reason   string         `json:"reason,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func Success(text string) *AgentResponse {
	return &AgentResponse{Status: StatusSuccess, Text: text}
}

func Fail(text, reason string) *AgentResponse {
	return &AgentResponse{Status: StatusFail, Text: text, Reason: reason}
}

func (r *AgentResponse) WithData(key string, value any) *AgentResponse {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}

func (r *AgentResponse) WithMetadata(key string, value any) *AgentResponse {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
	return r
}

func (r *AgentResponse) IsSuccess() bool { return r.Status == StatusSuccess }

func (r *AgentResponse) IsFailure() bool { return r.Status == StatusFail }
