package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// DefaultCollection holds performance snapshots when the config names none
const DefaultCollection = "operator_performance"

// PerformanceStore owns the MongoDB client backing the performance snapshot repository
type PerformanceStore struct {
	client *mongo.Client
	db     *mongo.Database
	config *ports.MongoDBConfig
	repo   ports.PerformanceRepository
}

// NewPerformanceStore creates a new MongoDB performance store
func NewPerformanceStore(config *ports.MongoDBConfig) *PerformanceStore {
	return &PerformanceStore{
		config: config,
	}
}

// Connect establishes a connection to MongoDB and ensures the snapshot indexes exist
func (s *PerformanceStore) Connect(ctx context.Context) error {
	clientOpts := options.Client().ApplyURI(s.config.URI)

	// Configure connection pool
	if s.config.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(uint64(s.config.MaxPoolSize))
	}
	if s.config.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(uint64(s.config.MinPoolSize))
	}
	if s.config.MaxConnIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(time.Duration(s.config.MaxConnIdleTime) * time.Second)
	}
	if s.config.ServerTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(time.Duration(s.config.ServerTimeout) * time.Second)
	}
	// Snapshot writes are acknowledged by a majority
	clientOpts.SetWriteConcern(writeconcern.Majority())

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s.client = client
	s.db = client.Database(s.config.Database)
	s.repo = NewPerformanceRepository(s.db, s.collectionName())

	if err = createIndexes(ctx, s.db.Collection(s.collectionName())); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// Disconnect closes the client
func (s *PerformanceStore) Disconnect(ctx context.Context) error {
	if s.client != nil {
		return s.client.Disconnect(ctx)
	}
	return nil
}

// Ping checks if the connection is alive
func (s *PerformanceStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("database not connected")
	}
	return s.client.Ping(ctx, nil)
}

// Repository returns the snapshot repository. It is nil before Connect.
func (s *PerformanceStore) Repository() ports.PerformanceRepository {
	return s.repo
}

func (s *PerformanceStore) collectionName() string {
	if s.config.Collection != "" {
		return s.config.Collection
	}
	return DefaultCollection
}

// createIndexes creates the period uniqueness index and the latest-per-user index
func createIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, snapshotIndexes())
	if err != nil {
		return fmt.Errorf("failed to create performance indexes: %w", err)
	}
	return nil
}

func snapshotIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "period_start", Value: 1},
				{Key: "period_end", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("user_period_unique"),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "period_end", Value: -1},
			},
			Options: options.Index().SetName("user_latest"),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}
}
