package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrchestrator struct {
	reply     string
	lastInput string
	panics    bool
}

func (f *fakeOrchestrator) Orchestrate(_ context.Context, userPrompt string) string {
	if f.panics {
		panic("boom")
	}
	f.lastInput = userPrompt
	return f.reply
}

func TestQueryEndpoint(t *testing.T) {
	orchestrator := &fakeOrchestrator{reply: "Recorded heart_rate = 88 bpm for John Smith."}
	srv := ProvideServer(orchestrator)

	req := httptest.NewRequest("POST", "/api/query",
		strings.NewReader(`{"message": "record John Smith heart rate 88"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, orchestrator.reply, body["response"])
	assert.Equal(t, "record John Smith heart rate 88", orchestrator.lastInput)
}

func TestQueryEndpointRejectsEmptyMessage(t *testing.T) {
	srv := ProvideServer(&fakeOrchestrator{reply: "unused"})

	req := httptest.NewRequest("POST", "/api/query", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
}

func TestQueryEndpointContainsPanic(t *testing.T) {
	srv := ProvideServer(&fakeOrchestrator{panics: true})

	req := httptest.NewRequest("POST", "/api/query", strings.NewReader(`{"message": "hello"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotContains(t, body["error"], "boom", "internal detail stays out of user payloads")
}

func TestWebsocketEndpointRequiresUpgrade(t *testing.T) {
	srv := ProvideServer(&fakeOrchestrator{reply: "unused"})

	req := httptest.NewRequest("GET", "/ws", nil)
	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)
}
