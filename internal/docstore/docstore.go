// Package docstore is the MongoDB backend. Each shop's categories are
// documents carrying their ordered children array, the same shape the
// storefront admin has always stored; users, shops and the audit log live
// in sibling collections.
//
// IDs are stored as canonical UUID strings so documents stay readable in
// the mongo shell.
package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	categoryCollection = "categories"
	userCollection     = "users"
	shopCollection     = "shops"
	eventCollection    = "category_events"
	counterCollection  = "counters"
)

// Connect establishes a MongoDB client and returns the named database.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	slog.Info("mongo connected", "db", dbName)
	return client, client.Database(dbName), nil
}

// EnsureIndexes creates the unique and lookup indexes the stores rely on.
// It is the document-store counterpart of the SQL migrations.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		categoryCollection: {
			{Keys: bson.D{{Key: "shop_id", Value: 1}, {Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "shop_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "children", Value: 1}}},
		},
		userCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		shopCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		eventCollection: {
			{Keys: bson.D{{Key: "shop_id", Value: 1}, {Key: "_id", Value: -1}}},
		},
	}

	for coll, idx := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	slog.Info("mongo indexes ensured")
	return nil
}
