package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// SessionsCollection holds one document per session, messages inline.
const SessionsCollection = "sessions"

// InitMongo connects to MongoDB, verifies the connection and ensures indexes.
// The caller owns the returned client and must Disconnect it on shutdown.
func InitMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ensure mongodb indexes: %w", err)
	}
	return client, db, nil
}

func ensureIndexes(ctx context.Context, d *mongo.Database) error {
	// sessions: unique (user_id, session_id)
	if _, err := d.Collection(SessionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "session_id", Value: 1}},
		Options: options.Index().SetName("uniq_user_session").SetUnique(true),
	}); err != nil {
		return err
	}
	// sessions: listing order
	if _, err := d.Collection(SessionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
		Options: options.Index().SetName("idx_user_updated_at_desc"),
	}); err != nil {
		return err
	}
	return nil
}
