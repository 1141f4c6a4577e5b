package ports

import (
	"context"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

// HistoryRepository defines the interface for inspection change history tracking
type HistoryRepository interface {
	// RecordChange records a change to an inspection or its task tree
	RecordChange(ctx context.Context, history *models.InspectionHistory) error

	// GetHistoryByInspection retrieves change history for one inspection, oldest first
	GetHistoryByInspection(ctx context.Context, inspectionID int64, offset, limit int) ([]*models.InspectionHistory, error)
}
