package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"incident-reporting-system/services/incident-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const incidentsCollection = "incidents"

type MongoStore struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db, coll: db.Collection(incidentsCollection)}
}

// EnsureIndexes creates the unique incident_id index and the reporter lookup index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "incident_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "reporter_id", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, inc *models.Incident) error {
	if _, err := s.coll.InsertOne(ctx, inc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateIncidentID
		}
		return fmt.Errorf("failed to insert incident: %w", err)
	}
	return nil
}

func (s *MongoStore) FindOwned(ctx context.Context, id, reporterID string) (*models.Incident, error) {
	return s.findOne(ctx, bson.M{"_id": id, "reporter_id": reporterID})
}

func (s *MongoStore) FindOwnedByIncidentID(ctx context.Context, incidentID, reporterID string) (*models.Incident, error) {
	return s.findOne(ctx, bson.M{"incident_id": incidentID, "reporter_id": reporterID})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Incident, error) {
	var inc models.Incident
	if err := s.coll.FindOne(ctx, filter).Decode(&inc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load incident: %w", err)
	}
	return &inc, nil
}

func (s *MongoStore) ListByReporter(ctx context.Context, reporterID string, status models.Status) ([]models.Incident, error) {
	filter := bson.M{"reporter_id": reporterID}
	if status != "" {
		filter["status"] = string(status)
	}

	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer cursor.Close(ctx)

	incidents := []models.Incident{}
	if err := cursor.All(ctx, &incidents); err != nil {
		return nil, fmt.Errorf("failed to decode incidents: %w", err)
	}
	return incidents, nil
}

// UpdateOpen applies changes only while the stored status is not Closed.
func (s *MongoStore) UpdateOpen(ctx context.Context, id, reporterID string, changes Changes, now time.Time) (*models.Incident, error) {
	filter := bson.M{
		"_id":         id,
		"reporter_id": reporterID,
		"status":      bson.M{"$ne": string(models.StatusClosed)},
	}
	update := bson.M{"$set": bson.M(changes.fields(now))}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var inc models.Incident
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&inc)
	if err == nil {
		return &inc, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update incident: %w", err)
	}

	current, err := s.FindOwned(ctx, id, reporterID)
	if err != nil {
		return nil, err
	}
	if current.Status == models.StatusClosed {
		return nil, ErrClosed
	}
	return nil, fmt.Errorf("incident %s changed during update", id)
}

func (s *MongoStore) ExistsByIncidentID(ctx context.Context, incidentID string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"incident_id": incidentID}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check incident id: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}
