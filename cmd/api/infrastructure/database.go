// Package infrastructure constructs the external resources the service
// depends on, with explicit open/close lifecycle.
package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"proximity-service/internal/config"
)

const connectTimeout = 10 * time.Second

// NewMongoClient creates a MongoDB client, verifies the connection with a
// ping and returns the explicitly owned handle. The store's own connection
// pooling handles per-request concurrency.
func NewMongoClient(cfg *config.Config, l *zap.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	l.Info("mongodb connected", zap.String("database", cfg.Mongo.Database))
	return client, nil
}

// CloseMongoClient disconnects the client.
func CloseMongoClient(client *mongo.Client) error {
	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}
