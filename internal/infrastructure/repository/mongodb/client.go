package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Database wraps the process-wide MongoDB client.
type Database struct {
	Client *mongo.Client
	name   string
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Database{Client: client, name: database}, nil
}

// Collection returns a handle on the named collection.
func (db *Database) Collection(name string) *mongo.Collection {
	return db.Client.Database(db.name).Collection(name)
}

// Close disconnects the client.
func (db *Database) Close(ctx context.Context) error {
	if db == nil || db.Client == nil {
		return nil
	}
	return db.Client.Disconnect(ctx)
}
