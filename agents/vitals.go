package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"ems-copilot/db"
	"ems-copilot/history"
	"ems-copilot/llm"
	"ems-copilot/prompts"
)

// VitalsAgent extracts vital-sign observations from an utterance and persists
// each one individually, or serves point lookups over previously recorded
// vitals. One model turn may yield several tool calls; every one of them is
// handled, so partial success across entries is possible and reported.
type VitalsAgent struct {
	client llm.LLMClient
	store  db.VitalsRepository
	log    ConversationLog
}

func ProvideVitalsAgent(client llm.LLMClient, store db.VitalsRepository, log ConversationLog) *VitalsAgent {
	return &VitalsAgent{client: client, store: store, log: log}
}

func vitalsMenu() []api.Tool {
	return []api.Tool{
		NewToolBuilder("write_multiple_vitals",
			"Record one vital sign or care note for a patient. Call once per distinct measurement.").
			StringParam("vitals_name", "Canonical vital name, e.g. heart_rate, blood_pressure, o2, glucose, note.", true).
			StringParam("vitals_value", "The measured value verbatim, units included.", true).
			StringParam("patient_name", "Patient's name when stated or inferable.", false).
			StringParam("timestamp", "When the measurement was taken, if stated.", false).
			Build(),
		NewToolBuilder("error",
			"Report that required information is missing, with a short clarification question for the EMT.").
			StringParam("error_message", "Question asking the EMT for the missing information.", true).
			Build(),
		NewToolBuilder("get_vitals",
			"Look up one previously recorded vitals entry by its record id.").
			StringParam("patient_id", "Id of the vitals record.", true).
			Build(),
		NewToolBuilder("get_vitals_by_patient_name",
			"Look up all recorded vitals for a patient by name.").
			StringParam("patient_name", "Patient's name.", true).
			Build(),
	}
}

func (a *VitalsAgent) CallVitalsAgent(ctx context.Context, inputText string) *AgentResponse {
	system, err := prompts.VitalsSystem()
	if err != nil {
		return a.finish(ctx, inputText, "",
			Fail("I couldn't process the vitals request right now.", err.Error()))
	}

	completion, err := llm.Complete(ctx, a.client,
		[]llm.Message{{Role: "user", Content: inputText}},
		llm.WithSystemPrompt(system),
		llm.WithTools(vitalsMenu()),
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(2048))
	if err != nil {
		logger.Error("Vitals inference failed", zap.Error(err))
		return a.finish(ctx, inputText, "",
			Fail("I couldn't process the vitals request right now.", err.Error()))
	}

	var (
		entries       []map[string]string
		failed        []map[string]string
		lookup        *AgentResponse
		clarification string
		patientName   string
	)

	for _, call := range completion.ToolCalls {
		args := call.Function.Arguments

		switch call.Function.Name {
		case "write_multiple_vitals":
			name := stringArg(args, "vitals_name")
			value := stringArg(args, "vitals_value")
			patient := stringArg(args, "patient_name")
			if patient != "" {
				patientName = patient
			}

			model, err := a.store.WriteVital(ctx, patient, name, value)
			if err != nil {
				logger.Error("Vitals write failed",
					zap.String("vitalsName", name), zap.Error(err))
				failed = append(failed, map[string]string{
					"vitals_name":  name,
					"vitals_value": value,
					"error":        err.Error(),
				})
				continue
			}

			entries = append(entries, map[string]string{
				"vital_id":     model.VitalID,
				"vitals_name":  model.VitalsName,
				"vitals_value": model.VitalsValue,
				"patient_name": model.PatientName,
				"timestamp":    model.Timestamp,
			})
			a.logAction(ctx, model)

		case "error":
			clarification = stringArg(args, "error_message")

		case "get_vitals":
			lookup = a.lookupByID(ctx, stringArg(args, "patient_id"))

		case "get_vitals_by_patient_name":
			patient := stringArg(args, "patient_name")
			if patient != "" {
				patientName = patient
			}
			lookup = a.lookupByPatient(ctx, patient)
		}
	}

	return a.finish(ctx, inputText, patientName,
		a.aggregate(entries, failed, lookup, clarification, completion.Text))
}

// aggregate folds the handled tool calls into one response. Writes win over
// lookups, lookups over clarification requests; with no tool call at all the
// raw completion text is the answer.
func (a *VitalsAgent) aggregate(entries, failed []map[string]string, lookup *AgentResponse, clarification, rawText string) *AgentResponse {
	switch {
	case len(entries) == 1 && len(failed) == 0:
		entry := entries[0]
		return Success(fmt.Sprintf("Recorded %s = %s for %s.",
			entry["vitals_name"], entry["vitals_value"], displayPatient(entry["patient_name"]))).
			WithData("entries", entries).
			WithMetadata("agent", "vitals_agent")

	case len(entries) == 0 && len(failed) > 0:
		return Fail(fmt.Sprintf("None of the %d vitals entries could be saved.", len(failed)), "store_write_failed").
			WithData("failed", failed).
			WithMetadata("agent", "vitals_agent")

	case len(entries) > 0:
		text := fmt.Sprintf("Recorded %d vitals entries.", len(entries))
		if len(failed) > 0 {
			text = fmt.Sprintf("Recorded %d vitals entries; %d failed to save.", len(entries), len(failed))
		}
		resp := Success(text).
			WithData("entries", entries).
			WithMetadata("agent", "vitals_agent")
		if len(failed) > 0 {
			resp.WithData("failed", failed)
		}
		return resp

	case lookup != nil:
		return lookup

	case clarification != "":
		return Fail(clarification, "missing_required_fields").
			WithMetadata("agent", "vitals_agent")

	case rawText != "":
		return Success(rawText).WithMetadata("agent", "vitals_agent")

	default:
		return Success("No action taken.").WithMetadata("agent", "vitals_agent")
	}
}

func (a *VitalsAgent) lookupByID(ctx context.Context, vitalID string) *AgentResponse {
	model, err := a.store.GetVital(ctx, vitalID)
	if err != nil {
		logger.Error("Vitals lookup failed", zap.String("vitalId", vitalID), zap.Error(err))
		return Fail("I couldn't look up that vitals record right now.", err.Error()).
			WithMetadata("agent", "vitals_agent")
	}
	if model == nil {
		return Success(fmt.Sprintf("No vitals record found with id %s.", vitalID)).
			WithMetadata("agent", "vitals_agent")
	}

	return Success(fmt.Sprintf("%s: %s = %s at %s.",
		displayPatient(model.PatientName), model.VitalsName, model.VitalsValue, model.Timestamp)).
		WithData("vitals", []db.VitalsModel{*model}).
		WithMetadata("agent", "vitals_agent")
}

func (a *VitalsAgent) lookupByPatient(ctx context.Context, patientName string) *AgentResponse {
	models, err := a.store.GetVitalsByPatientName(ctx, patientName)
	if err != nil {
		logger.Error("Vitals lookup failed", zap.String("patientName", patientName), zap.Error(err))
		return Fail("I couldn't look up vitals for that patient right now.", err.Error()).
			WithMetadata("agent", "vitals_agent")
	}
	if len(models) == 0 {
		return Success(fmt.Sprintf("No vitals recorded for %s.", patientName)).
			WithMetadata("agent", "vitals_agent")
	}

	var lines []string
	for _, m := range models {
		lines = append(lines, fmt.Sprintf("%s = %s (%s)", m.VitalsName, m.VitalsValue, m.Timestamp))
	}
	return Success(fmt.Sprintf("Vitals for %s:\n%s", patientName, strings.Join(lines, "\n"))).
		WithData("vitals", models).
		WithMetadata("agent", "vitals_agent")
}

// finish appends the exchange to the conversation log and returns resp. Every
// call lands in history, success or not.
func (a *VitalsAgent) finish(ctx context.Context, inputText, patientName string, resp *AgentResponse) *AgentResponse {
	opts := []history.RecordOption{history.WithConversationType(history.TypeVitalsRecording)}
	if patientName != "" {
		opts = append(opts, history.WithPatient(patientName))
	}
	if entries, ok := resp.Data["entries"]; ok {
		opts = append(opts, history.WithMetadata(map[string]any{"vitals_data": entries}))
	}
	if _, err := a.log.AddConversation(ctx, inputText, resp.Text, opts...); err != nil {
		logger.Error("Failed to record vitals conversation", zap.Error(err))
	}
	return resp
}

func (a *VitalsAgent) logAction(ctx context.Context, model *db.VitalsModel) {
	_, err := a.log.AddActionLog(ctx, "record_vitals", map[string]any{
		"vital_id":     model.VitalID,
		"vitals_name":  model.VitalsName,
		"vitals_value": model.VitalsValue,
		"timestamp":    model.Timestamp,
	}, model.PatientName, "vitals_agent")
	if err != nil {
		logger.Error("Failed to record vitals action log", zap.Error(err))
	}
}

func displayPatient(name string) string {
	if name == "" {
		return "unidentified patient"
	}
	return name
}
