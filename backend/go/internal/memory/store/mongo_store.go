package store

import (
	"Mnemos/backend/go/internal/memory/entity"
	"Mnemos/backend/go/internal/models"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the MongoDB implementation of Store, backed by a single
// facts collection.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates a new MongoStore.
func NewMongoStore(db *mongo.Database, collectionName string) *MongoStore {
	return &MongoStore{
		collection: db.Collection(collectionName),
	}
}

// EnsureIndexes creates the composite indexes the read and write paths
// rely on: (user_id, entity, status) for point queries and
// (user_id, valid_from) for range scans.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "entity", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "valid_from", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create fact indexes: %w", err)
	}
	return nil
}

// FetchActive returns the active records for one entity, oldest first.
func (s *MongoStore) FetchActive(ctx context.Context, userID string, e entity.Entity) ([]*models.FactRecord, error) {
	filter := bson.M{
		"user_id": userID,
		"entity":  e.String(),
		"status":  models.StatusActive,
	}
	opts := options.Find().SetSort(bson.D{{Key: "valid_from", Value: 1}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query active facts: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.FactRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode active facts: %w", err)
	}
	return records, nil
}

// FetchAllActive returns all active fact content for a user, grouped by
// entity.
func (s *MongoStore) FetchAllActive(ctx context.Context, userID string) (map[entity.Entity][]string, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  models.StatusActive,
	}
	opts := options.Find().SetSort(bson.D{{Key: "valid_from", Value: 1}})

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query active facts: %w", err)
	}
	defer cursor.Close(ctx)

	grouped := make(map[entity.Entity][]string)
	for cursor.Next(ctx) {
		var record models.FactRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode fact record: %w", err)
		}
		e := entity.Entity(record.Entity)
		grouped[e] = append(grouped[e], record.Content)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error while reading active facts: %w", err)
	}
	return grouped, nil
}

// FetchHistorical returns superseded records grouped by entity, most
// recently invalidated first.
func (s *MongoStore) FetchHistorical(ctx context.Context, userID string, filter entity.Entity) (map[entity.Entity][]*models.FactRecord, error) {
	query := bson.M{
		"user_id": userID,
		"status":  models.StatusHistorical,
	}
	if filter != "" {
		query["entity"] = filter.String()
	}
	opts := options.Find().SetSort(bson.D{{Key: "valid_until", Value: -1}})

	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical facts: %w", err)
	}
	defer cursor.Close(ctx)

	grouped := make(map[entity.Entity][]*models.FactRecord)
	for cursor.Next(ctx) {
		var record models.FactRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode fact record: %w", err)
		}
		e := entity.Entity(record.Entity)
		grouped[e] = append(grouped[e], &record)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error while reading historical facts: %w", err)
	}
	return grouped, nil
}

// Invalidate transitions one active record to historical. The filter
// includes the active status so an already-historical record can never be
// rewritten, which keeps history immutable even under races.
func (s *MongoStore) Invalidate(ctx context.Context, recordID string, now time.Time) error {
	filter := bson.M{
		"_id":    recordID,
		"status": models.StatusActive,
	}
	update := bson.M{
		"$set": bson.M{
			"status":      models.StatusHistorical,
			"valid_until": now,
		},
	}

	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to invalidate fact %s: %w", recordID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("invalidate fact %s: %w", recordID, ErrNotFound)
	}
	return nil
}

// InsertActive persists a new active record.
func (s *MongoStore) InsertActive(ctx context.Context, record *models.FactRecord) error {
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert fact: %w", err)
	}
	return nil
}
