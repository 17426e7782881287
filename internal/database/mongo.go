package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

const (
	ProductsCollection   = "products"
	defaultMongoDatabase = "product_dashboard"
)

// NewMongo connects to MongoDB and returns the database named in the URI path
func NewMongo(ctx context.Context, uri string) (*mongo.Client, *mongo.Database, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid mongodb uri: %w", err)
	}

	dbName := cs.Database
	if dbName == "" {
		dbName = defaultMongoDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, client.Database(dbName), nil
}

// EnsureMongoIndexes creates the unique index on the external product id.
// It plays the role RunMigrations plays for PostgreSQL.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_product_id"),
	}

	name, err := db.Collection(ProductsCollection).Indexes().CreateOne(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to create product index: %w", err)
	}

	logger.Info("MongoDB indexes ensured", zap.String("index", name))
	return nil
}

// MongoHealth pings the primary and reports the result in the same shape as Service.Health
func MongoHealth(ctx context.Context, client *mongo.Client) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return map[string]string{"status": "down", "error": err.Error()}
	}
	return map[string]string{
		"status":   "up",
		"sessions": fmt.Sprint(client.NumberSessionsInProgress()),
	}
}
