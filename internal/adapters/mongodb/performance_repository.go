package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// performanceRepository implements the PerformanceRepository interface using MongoDB.
// Documents are keyed by (user_id, period_start, period_end); the numeric ID is not stored.
type performanceRepository struct {
	collection *mongo.Collection
}

// NewPerformanceRepository creates a new MongoDB performance snapshot repository
func NewPerformanceRepository(db *mongo.Database, collection string) ports.PerformanceRepository {
	return &performanceRepository{
		collection: db.Collection(collection),
	}
}

func periodFilter(snapshot *models.OperatorPerformance) bson.D {
	return bson.D{
		{Key: "user_id", Value: snapshot.UserID},
		{Key: "period_start", Value: snapshot.PeriodStart},
		{Key: "period_end", Value: snapshot.PeriodEnd},
	}
}

// latestPipeline keeps the newest snapshot per user, ordered by user
func latestPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "user_id", Value: 1}, {Key: "period_end", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$user_id"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$doc"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "user_id", Value: 1}}}},
	}
}

// Upsert replaces the snapshot for the same user and period
func (r *performanceRepository) Upsert(ctx context.Context, snapshot *models.OperatorPerformance) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, periodFilter(snapshot), snapshot, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert performance snapshot: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recent snapshot of a user
func (r *performanceRepository) GetLatest(ctx context.Context, userID int64) (*models.OperatorPerformance, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "period_end", Value: -1}})

	var snapshot models.OperatorPerformance
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &models.NotFoundError{Entity: "performance snapshot for user", ID: userID}
		}
		return nil, fmt.Errorf("failed to get performance snapshot: %w", err)
	}
	return &snapshot, nil
}

// ListLatest retrieves the most recent snapshot of every user
func (r *performanceRepository) ListLatest(ctx context.Context) ([]*models.OperatorPerformance, error) {
	cursor, err := r.collection.Aggregate(ctx, latestPipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate performance snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var snapshots []*models.OperatorPerformance
	if err = cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode performance snapshots: %w", err)
	}
	return snapshots, nil
}
