package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// VitalsRepository is the vitals document store surface the agents depend on.
// A missing record is a normal outcome, reported as (nil, nil).
type VitalsRepository interface {
	WriteVital(ctx context.Context, patientName, vitalsName, vitalsValue string) (*VitalsModel, error)
	GetVital(ctx context.Context, vitalID string) (*VitalsModel, error)
	GetVitalsByPatientName(ctx context.Context, patientName string) ([]VitalsModel, error)
}

type MongoVitalsStore struct {
	conn   *MongoConn
	tenant string
	now    func() time.Time
}

func ProvideMongoVitalsStore(conn *MongoConn, tenant string) *MongoVitalsStore {
	return &MongoVitalsStore{conn: conn, tenant: tenant, now: time.Now}
}

func (s *MongoVitalsStore) WriteVital(ctx context.Context, patientName, vitalsName, vitalsValue string) (*VitalsModel, error) {
	client, err := s.conn.Client()
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	model := VitalsModel{
		VitalID:     uuid.NewString(),
		PatientName: patientName,
		VitalsName:  vitalsName,
		VitalsValue: vitalsValue,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	}

	if _, err := async.Await(odm.CollectionOf[VitalsModel](client, s.tenant).Save(ctx, model)); err != nil {
		return nil, fmt.Errorf("save vital: %w", err)
	}
	return &model, nil
}

func (s *MongoVitalsStore) GetVital(ctx context.Context, vitalID string) (*VitalsModel, error) {
	client, err := s.conn.Client()
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	doc, err := async.Await(odm.CollectionOf[VitalsModel](client, s.tenant).FindOneByID(ctx, vitalID))
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find vital: %w", err)
	}
	return doc, nil
}

func (s *MongoVitalsStore) GetVitalsByPatientName(ctx context.Context, patientName string) ([]VitalsModel, error) {
	return s.find(ctx, bson.M{"patientName": patientName})
}

func (s *MongoVitalsStore) find(ctx context.Context, filter bson.M) ([]VitalsModel, error) {
	client, err := s.conn.Client()
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	docs, err := async.Await(odm.CollectionOf[VitalsModel](client, s.tenant).
		Find(ctx, filter, bson.D{{Key: "timestamp", Value: -1}}, 0, 0))
	if err != nil {
		return nil, fmt.Errorf("find vitals: %w", err)
	}
	return docs, nil
}
