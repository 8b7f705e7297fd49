package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedRecord struct {
	rec       Record
	embedding []float32
}

// fakeStore ranks by euclidean distance over the fake embeddings, mirroring
// how the ANN index orders hits.
type fakeStore struct {
	records   []storedRecord
	lastK     int
	lastLimit int
	deleteErr error
}

func (s *fakeStore) Upsert(_ context.Context, rec Record, embedding []float32) error {
	s.records = append(s.records, storedRecord{rec: rec, embedding: embedding})
	return nil
}

func (s *fakeStore) Nearest(_ context.Context, embedding []float32, k int) ([]Record, error) {
	s.lastK = k

	type scored struct {
		rec  Record
		dist float64
	}
	ranked := make([]scored, 0, len(s.records))
	for _, stored := range s.records {
		var dist float64
		for i := range embedding {
			d := float64(embedding[i] - stored.embedding[i])
			dist += d * d
		}
		ranked = append(ranked, scored{rec: stored.rec, dist: dist})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].dist < ranked[j].dist })

	out := make([]Record, 0, k)
	for _, r := range ranked {
		if len(out) == k {
			break
		}
		rec := r.rec
		rec.Distance = r.dist
		out = append(out, rec)
	}
	return out, nil
}

func (s *fakeStore) ByPatient(_ context.Context, patientName string, limit int) ([]Record, error) {
	s.lastLimit = limit
	var out []Record
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if s.records[i].rec.PatientName() == patientName {
			out = append(out, s.records[i].rec)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteAll(context.Context) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.records = nil
	return nil
}

// fakeEmbedder maps keyword hits to axis-aligned vectors so related texts
// land near each other.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 4)
	lowered := strings.ToLower(text)
	for i, keyword := range []string{"chest", "vitals", "triage", "bleeding"} {
		if strings.Contains(lowered, keyword) {
			vec[i] = 1.0
		}
	}
	return vec, nil
}

func newTestHistory(store *fakeStore) *ConversationHistory {
	h := ProvideConversationHistory(store, fakeEmbedder{})
	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	var calls int
	h.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return h
}

func TestAddConversation(t *testing.T) {
	store := &fakeStore{}
	h := newTestHistory(store)

	id, err := h.AddConversation(t.Context(), "patient has chest pain", "Noted, assessing severity.",
		WithPatient("John Doe"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "conv_"))

	require.Len(t, store.records, 1)
	rec := store.records[0].rec
	assert.Equal(t, "User: patient has chest pain\nAgent: Noted, assessing severity.", rec.Document)
	assert.Equal(t, "John Doe", rec.PatientName())
	assert.Equal(t, TypeConversation, rec.ConversationType())
	assert.NotEmpty(t, rec.Timestamp())
}

func TestAddConversationIdsAreUnique(t *testing.T) {
	store := &fakeStore{}
	h := newTestHistory(store)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		id, err := h.AddConversation(t.Context(), fmt.Sprintf("query %d", i), "ok")
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestAddActionLog(t *testing.T) {
	store := &fakeStore{}
	h := newTestHistory(store)

	_, err := h.AddActionLog(t.Context(), "record_vitals",
		map[string]any{"vitals_name": "heart_rate", "vitals_value": "88 bpm"},
		"John Doe", "vitals_agent")
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	rec := store.records[0].rec
	assert.Equal(t, TypeActionLog, rec.ConversationType())
	assert.Equal(t, "John Doe", rec.PatientName())
	assert.Contains(t, rec.Document, "record_vitals")
	assert.Contains(t, rec.Document, "heart_rate")
}

func TestSearchConversationsRanksBySimilarity(t *testing.T) {
	store := &fakeStore{}
	h := newTestHistory(store)

	_, err := h.AddConversation(t.Context(), "patient reports chest pain", "Likely cardiac, monitor closely.")
	require.NoError(t, err)
	_, err = h.AddConversation(t.Context(), "recorded vitals for patient", "Saved.")
	require.NoError(t, err)

	results, err := h.SearchConversations(t.Context(), "chest discomfort history", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Document, "chest pain")
}

func TestGetRelevantContextFiltersAfterOverFetch(t *testing.T) {
	store := &fakeStore{}
	h := newTestHistory(store)

	for i := 0; i < 6; i++ {
		_, err := h.AddConversation(t.Context(), fmt.Sprintf("chest pain check %d", i), "ok",
			WithPatient("Jane Roe"))
		require.NoError(t, err)
	}
	_, err := h.AddConversation(t.Context(), "chest pain for another patient", "ok",
		WithPatient("John Doe"))
	require.NoError(t, err)

	results, err := h.GetRelevantContext(t.Context(), "chest pain", ForPatient("Jane Roe"), WithLimit(3))
	require.NoError(t, err)

	assert.Equal(t, 12, store.lastK, "search should over-fetch before filtering")
	require.Len(t, results, 3)
	for _, rec := range results {
		assert.Equal(t, "Jane Roe", rec.PatientName())
	}
}

func TestGetRelevantContextPatientMatchIsCaseSensitive(t *testing.T) {
	store := &fakeStore{}
	h := newTestHistory(store)

	_, err := h.AddConversation(t.Context(), "chest pain follow up", "ok", WithPatient("jane roe"))
	require.NoError(t, err)

	results, err := h.GetRelevantContext(t.Context(), "chest pain", ForPatient("Jane Roe"))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGetRelevantContextByType(t *testing.T) {
	store := &fakeStore{}
	h := newTestHistory(store)

	_, err := h.AddConversation(t.Context(), "triage the chest pain patient", "IMMEDIATE",
		WithConversationType(TypeTriageAssessment))
	require.NoError(t, err)
	_, err = h.AddConversation(t.Context(), "chest pain chat", "ok")
	require.NoError(t, err)

	results, err := h.GetRelevantContext(t.Context(), "chest pain", OfTypes(TypeTriageAssessment))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, TypeTriageAssessment, results[0].ConversationType())
}

func TestGetPatientTimeline(t *testing.T) {
	store := &fakeStore{}
	h := newTestHistory(store)

	for i := 0; i < 3; i++ {
		_, err := h.AddConversation(t.Context(), fmt.Sprintf("visit %d", i), "ok", WithPatient("John Doe"))
		require.NoError(t, err)
	}
	_, err := h.AddConversation(t.Context(), "other patient visit", "ok", WithPatient("Jane Roe"))
	require.NoError(t, err)

	timeline, err := h.GetPatientTimeline(t.Context(), "John Doe", 2)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Contains(t, timeline[0].Document, "visit 2")
	assert.Contains(t, timeline[1].Document, "visit 1")
}

func TestGetPatientTimelineDefaultLimit(t *testing.T) {
	store := &fakeStore{}
	h := newTestHistory(store)

	_, err := h.AddConversation(t.Context(), "visit", "ok", WithPatient("John Doe"))
	require.NoError(t, err)

	_, err = h.GetPatientTimeline(t.Context(), "John Doe", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, store.lastLimit)
}

func TestClearHistory(t *testing.T) {
	store := &fakeStore{}
	h := newTestHistory(store)

	_, err := h.AddConversation(t.Context(), "chest pain", "ok")
	require.NoError(t, err)

	require.NoError(t, h.ClearHistory(t.Context()))
	assert.Empty(t, store.records)
}
