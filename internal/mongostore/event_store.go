package mongostore

import (
	"context"
	"time"

	"github.com/isdelr/voting-be/internal/models"
	"github.com/isdelr/voting-be/internal/services"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventStore implements services.EventServiceProvider on a MongoDB collection.
type EventStore struct {
	events *mongo.Collection
}

var _ services.EventServiceProvider = (*EventStore)(nil)

// NewEventStore creates an EventStore backed by db.
func NewEventStore(db *mongo.Database) *EventStore {
	return &EventStore{events: db.Collection(eventsCollection)}
}

// CreateEvent logs a new event.
func (s *EventStore) CreateEvent(ctx context.Context, eventType, level, message string, candidateID *string) error {
	_, err := s.events.InsertOne(ctx, eventDoc{
		Type:        eventType,
		Level:       level,
		Message:     message,
		CandidateID: candidateID,
		CreatedAt:   time.Now().UTC(),
	})
	return err
}

// GetRecentEvents retrieves the most recent events, newest first.
func (s *EventStore) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.events.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []models.Event{}
	for cur.Next(ctx) {
		var doc eventDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		events = append(events, doc.model())
	}
	return events, cur.Err()
}
