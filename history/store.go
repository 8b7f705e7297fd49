package history

import "context"

// VectorStore persists conversation records alongside their embeddings and
// serves approximate nearest-neighbor lookups over them.
type VectorStore interface {
	Upsert(ctx context.Context, rec Record, embedding []float32) error
	Nearest(ctx context.Context, embedding []float32, k int) ([]Record, error)
	ByPatient(ctx context.Context, patientName string, limit int) ([]Record, error)
	DeleteAll(ctx context.Context) error
}
