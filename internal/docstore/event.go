package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type eventDoc struct {
	ID         int64     `bson:"_id"`
	ShopID     string    `bson:"shop_id"`
	CategoryID string    `bson:"category_id"`
	Action     string    `bson:"action"`
	Detail     string    `bson:"detail"`
	CreatedAt  time.Time `bson:"created_at"`
}

// EventStore is the category audit log. Event ids come from a counter
// document so they increase like the SQL bigserial.
type EventStore struct {
	events   *mongo.Collection
	counters *mongo.Collection
}

// NewEventStore returns an EventStore on db.
func NewEventStore(db *mongo.Database) *EventStore {
	return &EventStore{
		events:   db.Collection(eventCollection),
		counters: db.Collection(counterCollection),
	}
}

func (s *EventStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": eventCollection},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

// Record writes an audit event. Failures are logged, never returned.
func (s *EventStore) Record(ctx context.Context, e models.CategoryEvent) {
	id, err := s.nextID(ctx)
	if err == nil {
		_, err = s.events.InsertOne(ctx, eventDoc{
			ID:         id,
			ShopID:     e.ShopID.String(),
			CategoryID: e.CategoryID.String(),
			Action:     e.Action,
			Detail:     e.Detail,
			CreatedAt:  time.Now().UTC(),
		})
	}
	if err != nil {
		slog.Warn("failed to record category event",
			"shop_id", e.ShopID,
			"category_id", e.CategoryID,
			"action", e.Action,
			"error", err,
		)
	}
}

// RecentEvents returns the most recent events of a shop, newest first.
func (s *EventStore) RecentEvents(ctx context.Context, shopID uuid.UUID, limit int) ([]models.CategoryEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.events.Find(ctx, bson.M{"shop_id": shopID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("query category events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode category events: %w", err)
	}
	out := make([]models.CategoryEvent, 0, len(docs))
	for _, d := range docs {
		categoryID, err := uuid.Parse(d.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("event %d category_id: %w", d.ID, err)
		}
		out = append(out, models.CategoryEvent{
			ID:         d.ID,
			ShopID:     shopID,
			CategoryID: categoryID,
			Action:     d.Action,
			Detail:     d.Detail,
			CreatedAt:  d.CreatedAt,
		})
	}
	return out, nil
}
