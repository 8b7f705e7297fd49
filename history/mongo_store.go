package history

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"ems-copilot/llm"
)

const conversationVectorIndex = "conversationEmbeddingIndex"

// ConversationModel is the full conversation document. The embedding lives in
// a separate ANN collection so timeline scans never page vector payloads.
type ConversationModel struct {
	ConversationID   string         `json:"conversationId" bson:"_id"`
	Document         string         `json:"document" bson:"document"`
	UserQuery        string         `json:"userQuery" bson:"userQuery"`
	AgentResponse    string         `json:"agentResponse" bson:"agentResponse"`
	PatientName      string         `json:"patientName" bson:"patientName,omitempty"`
	ConversationType string         `json:"conversationType" bson:"conversationType"`
	Timestamp        string         `json:"timestamp" bson:"timestamp"`
	Extra            map[string]any `json:"extra" bson:"extra,omitempty"`
}

func (m ConversationModel) Id() string { return m.ConversationID }

func (m ConversationModel) CollectionName() string { return "conversations" }

type ConversationAnnModel struct {
	ConversationID string      `json:"conversationId" bson:"_id"`
	Embedding      bson.Vector `json:"-" bson:"embedding"`
}

func (m ConversationAnnModel) Id() string { return m.ConversationID }

func (m ConversationAnnModel) CollectionName() string { return "conversation_ann_index" }

// Indexes
func (m ConversationAnnModel) VectorIndexSpecs() []odm.VectorIndexSpec {
	return []odm.VectorIndexSpec{
		{
			Name:          conversationVectorIndex,
			Path:          "embedding",
			Type:          "vector",
			NumDimensions: llm.EmbeddingDimensions,
			Similarity:    "cosine",
			Quantization:  "scalar",
		},
	}
}

// MongoStore is the Atlas-backed VectorStore.
type MongoStore struct {
	mongo  *mongo.Client
	tenant string
}

func ProvideMongoStore(mongo *mongo.Client, tenant string) *MongoStore {
	return &MongoStore{mongo: mongo, tenant: tenant}
}

func (s *MongoStore) Upsert(ctx context.Context, rec Record, embedding []float32) error {
	model := toConversationModel(rec)

	if _, err := async.Await(odm.CollectionOf[ConversationModel](s.mongo, s.tenant).Save(ctx, model)); err != nil {
		return fmt.Errorf("save conversation %s: %w", rec.ID, err)
	}

	ann := ConversationAnnModel{
		ConversationID: rec.ID,
		Embedding:      bson.NewVector(embedding),
	}
	if _, err := async.Await(odm.CollectionOf[ConversationAnnModel](s.mongo, s.tenant).Save(ctx, ann)); err != nil {
		return fmt.Errorf("save conversation embedding %s: %w", rec.ID, err)
	}
	return nil
}

func (s *MongoStore) Nearest(ctx context.Context, embedding []float32, k int) ([]Record, error) {
	hits, err := async.Await(odm.CollectionOf[ConversationAnnModel](s.mongo, s.tenant).
		VectorSearch(ctx, embedding, odm.VectorSearchParams{
			IndexName:     conversationVectorIndex,
			Path:          "embedding",
			K:             k,
			NumCandidates: k * 10,
		}))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	// Materialise full documents in hit order. Atlas reports a similarity
	// score in [0,1]; records carry it as a distance (lower is closer).
	records := make([]Record, 0, len(hits))
	for _, h := range hits {
		doc, err := async.Await(odm.CollectionOf[ConversationModel](s.mongo, s.tenant).FindOneByID(ctx, h.Doc.Id()))
		if err != nil {
			continue // ANN entry without a document; skip
		}
		rec := fromConversationModel(*doc)
		rec.Distance = 1.0 - h.Score
		records = append(records, rec)
	}
	return records, nil
}

func (s *MongoStore) ByPatient(ctx context.Context, patientName string, limit int) ([]Record, error) {
	docs, err := async.Await(odm.CollectionOf[ConversationModel](s.mongo, s.tenant).
		Find(ctx, bson.M{"patientName": patientName}, bson.D{{Key: "timestamp", Value: -1}}, int64(limit), 0))
	if err != nil {
		return nil, fmt.Errorf("find by patient: %w", err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromConversationModel(doc))
	}
	return records, nil
}

func (s *MongoStore) DeleteAll(ctx context.Context) error {
	db := s.mongo.Database(s.tenant)
	for _, name := range []string{ConversationModel{}.CollectionName(), ConversationAnnModel{}.CollectionName()} {
		if _, err := db.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
	}
	return nil
}

func toConversationModel(rec Record) ConversationModel {
	model := ConversationModel{
		ConversationID:   rec.ID,
		Document:         rec.Document,
		UserQuery:        rec.UserQuery(),
		AgentResponse:    rec.AgentResponse(),
		PatientName:      rec.PatientName(),
		ConversationType: rec.ConversationType(),
		Timestamp:        rec.Timestamp(),
	}

	for key, value := range rec.Metadata {
		switch key {
		case MetaUserQuery, MetaAgentResponse, MetaPatientName, MetaConversationType, MetaTimestamp:
		default:
			if model.Extra == nil {
				model.Extra = make(map[string]any)
			}
			model.Extra[key] = value
		}
	}
	return model
}

func fromConversationModel(model ConversationModel) Record {
	metadata := map[string]any{
		MetaUserQuery:        model.UserQuery,
		MetaAgentResponse:    model.AgentResponse,
		MetaConversationType: model.ConversationType,
		MetaTimestamp:        model.Timestamp,
	}
	if model.PatientName != "" {
		metadata[MetaPatientName] = model.PatientName
	}
	for key, value := range model.Extra {
		metadata[key] = value
	}

	return Record{
		ID:       model.ConversationID,
		Document: model.Document,
		Metadata: metadata,
	}
}
