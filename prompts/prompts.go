package prompts

import (
	"fmt"
	"strings"
)

func OrchestratorSystem() (string, error) {
	return loadPrompt("templates/orchestrator_system.md", map[string]string{})
}

func VitalsSystem() (string, error) {
	return loadPrompt("templates/vitals_system.md", map[string]string{})
}

func TriageSystem() (string, error) {
	return loadPrompt("templates/triage_system.md", map[string]string{})
}

// TriageAssessment builds the triage user prompt from retrieved context
// blocks, most relevant first.
func TriageAssessment(query string, contextBlocks []string) (string, error) {
	numbered := make([]string, len(contextBlocks))
	for i, block := range contextBlocks {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, block)
	}

	return loadPrompt("templates/triage_user.md", map[string]string{
		"Context": strings.Join(numbered, "\n"),
		"Query":   query,
	})
}

func GPSQuestion(question string, lat, lng float64) (string, error) {
	return loadPrompt("templates/gps_user.md", map[string]string{
		"Latitude":  fmt.Sprintf("%.6f", lat),
		"Longitude": fmt.Sprintf("%.6f", lng),
		"Question":  question,
	})
}
