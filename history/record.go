package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Conversation types recorded in metadata. Free text beyond these is allowed;
// the constants cover what the agents themselves write.
const (
	TypeConversation     = "conversation"
	TypeVitalsRecording  = "vitals_recording"
	TypeTriageAssessment = "triage_assessment"
	TypeActionLog        = "action_log"
)

// Metadata keys every record carries.
const (
	MetaTimestamp        = "timestamp"
	MetaUserQuery        = "user_query"
	MetaAgentResponse    = "agent_response"
	MetaPatientName      = "patient_name"
	MetaConversationType = "conversation_type"
)

// Record is one user/agent exchange in the semantic log. Records are never
// mutated or deleted except via a full-history clear.
type Record struct {
	ID       string
	Document string
	Metadata map[string]any

	// Distance is the nearest-neighbor distance for search results
	// (lower is more relevant). Zero for structured queries.
	Distance float64
}

func (r Record) PatientName() string {
	s, _ := r.Metadata[MetaPatientName].(string)
	return s
}

func (r Record) ConversationType() string {
	s, _ := r.Metadata[MetaConversationType].(string)
	return s
}

func (r Record) UserQuery() string {
	s, _ := r.Metadata[MetaUserQuery].(string)
	return s
}

func (r Record) AgentResponse() string {
	s, _ := r.Metadata[MetaAgentResponse].(string)
	return s
}

func (r Record) Timestamp() string {
	s, _ := r.Metadata[MetaTimestamp].(string)
	return s
}

// newRecordID builds a timestamp-derived id that stays distinguishable across
// rapid successive calls.
func newRecordID(now time.Time) string {
	return fmt.Sprintf("conv_%d_%s", now.UnixNano(), uuid.NewString()[:8])
}
