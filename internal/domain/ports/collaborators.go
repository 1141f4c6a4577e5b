package ports

import (
	"context"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
)

// UserDirectory resolves identities supplied by the external auth layer
type UserDirectory interface {
	// GetUser retrieves a user, returning *models.NotFoundError when unknown
	GetUser(ctx context.Context, id int64) (*models.User, error)

	// ListOperators retrieves every active user that can be assigned inspections
	ListOperators(ctx context.Context) ([]*models.User, error)
}

// EquipmentLookup resolves weak task target references
type EquipmentLookup interface {
	// Lookup returns the equipment, or false when the drive or part no longer exists
	Lookup(ctx context.Context, ref models.TargetRef) (*models.Equipment, bool, error)
}

// AttentionCache caches the users-needing-attention list between performance batches
type AttentionCache interface {
	// Get returns the cached list and whether it was present
	Get(ctx context.Context) ([]*models.OperatorPerformance, bool, error)

	// Set stores the list
	Set(ctx context.Context, snapshots []*models.OperatorPerformance) error

	// Invalidate drops the cached list
	Invalidate(ctx context.Context) error
}
