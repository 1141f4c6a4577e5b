package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func snapshotDoc(userID int64, status models.PerformanceStatus, score float64, end time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "user_id", Value: userID},
		{Key: "period_start", Value: primitive.NewDateTimeFromTime(end.AddDate(0, 0, -30))},
		{Key: "period_end", Value: primitive.NewDateTimeFromTime(end)},
		{Key: "assigned_inspections", Value: 4},
		{Key: "completed_inspections", Value: 2},
		{Key: "performance_score", Value: score},
		{Key: "status", Value: string(status)},
		{Key: "notes", Value: "Low completion rate: 50.00%"},
		{Key: "computed_at", Value: primitive.NewDateTimeFromTime(end)},
	}
}

func TestPeriodFilter(t *testing.T) {
	start := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	filter := periodFilter(&models.OperatorPerformance{UserID: 7, PeriodStart: start, PeriodEnd: end})

	require.Len(t, filter, 3)
	assert.Equal(t, bson.E{Key: "user_id", Value: int64(7)}, filter[0])
	assert.Equal(t, bson.E{Key: "period_start", Value: start}, filter[1])
	assert.Equal(t, bson.E{Key: "period_end", Value: end}, filter[2])
}

func TestLatestPipeline(t *testing.T) {
	pipeline := latestPipeline()

	require.Len(t, pipeline, 4)
	assert.Equal(t, "$sort", pipeline[0][0].Key)
	assert.Equal(t, "$group", pipeline[1][0].Key)
	assert.Equal(t, "$replaceRoot", pipeline[2][0].Key)
}

func TestSnapshotIndexes(t *testing.T) {
	indexes := snapshotIndexes()

	require.Len(t, indexes, 3)
	require.NotNil(t, indexes[0].Options)
	require.NotNil(t, indexes[0].Options.Unique)
	assert.True(t, *indexes[0].Options.Unique)
}

func TestPerformanceRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	end := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	mt.Run("upsert", func(mt *mtest.T) {
		repo := &performanceRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.Upsert(context.Background(), &models.OperatorPerformance{UserID: 7, PeriodEnd: end, Status: models.PerformanceWarning})
		assert.NoError(mt, err)
	})

	mt.Run("upsert failure", func(mt *mtest.T) {
		repo := &performanceRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Message: "duplicate key"}))

		err := repo.Upsert(context.Background(), &models.OperatorPerformance{UserID: 7})
		assert.Error(mt, err)
	})

	mt.Run("get latest", func(mt *mtest.T) {
		repo := &performanceRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "drivetrack.operator_performance", mtest.FirstBatch,
			snapshotDoc(7, models.PerformanceWarning, 70, end)))

		snapshot, err := repo.GetLatest(context.Background(), 7)
		require.NoError(mt, err)
		assert.Equal(mt, int64(7), snapshot.UserID)
		assert.Equal(mt, models.PerformanceWarning, snapshot.Status)
		assert.Equal(mt, 70.0, snapshot.PerformanceScore)
		assert.True(mt, end.Equal(snapshot.PeriodEnd))
	})

	mt.Run("get latest missing", func(mt *mtest.T) {
		repo := &performanceRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "drivetrack.operator_performance", mtest.FirstBatch))

		snapshot, err := repo.GetLatest(context.Background(), 8)
		assert.Nil(mt, snapshot)
		assert.True(mt, errors.Is(err, models.ErrNotFound))
	})

	mt.Run("list latest", func(mt *mtest.T) {
		repo := &performanceRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "drivetrack.operator_performance", mtest.FirstBatch,
			snapshotDoc(7, models.PerformanceWarning, 70, end),
			snapshotDoc(9, models.PerformanceActive, 96, end),
		))

		snapshots, err := repo.ListLatest(context.Background())
		require.NoError(mt, err)
		require.Len(mt, snapshots, 2)
		assert.Equal(mt, int64(7), snapshots[0].UserID)
		assert.Equal(mt, int64(9), snapshots[1].UserID)
	})
}
