package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// userDirectory reads the users table maintained by the identity layer
type userDirectory struct {
	db dbExecutor
}

// NewUserDirectory creates a PostgreSQL-backed user directory
func NewUserDirectory(db dbExecutor) ports.UserDirectory {
	return &userDirectory{db: db}
}

// GetUser retrieves a user
func (d *userDirectory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := getOne(ctx, d.db, &user, "user", id, `SELECT id, name, role, active FROM users WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListOperators retrieves every active user
func (d *userDirectory) ListOperators(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	if err := d.db.SelectContext(ctx, &users, `SELECT id, name, role, active FROM users WHERE active ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	return users, nil
}

// equipmentLookup resolves task targets against the drives and parts tables
type equipmentLookup struct {
	db dbExecutor
}

// NewEquipmentLookup creates a PostgreSQL-backed equipment lookup
func NewEquipmentLookup(db dbExecutor) ports.EquipmentLookup {
	return &equipmentLookup{db: db}
}

// Lookup returns the drive or part, or false when it no longer exists
func (l *equipmentLookup) Lookup(ctx context.Context, ref models.TargetRef) (*models.Equipment, bool, error) {
	var query string
	switch ref.Kind {
	case models.TargetKindDrive:
		query = `SELECT 'drive' AS kind, id, name, serial_number, NULL::BIGINT AS drive_id, updated_at FROM drives WHERE id = $1`
	case models.TargetKindPart:
		query = `SELECT 'part' AS kind, id, name, serial_number, drive_id, updated_at FROM parts WHERE id = $1`
	default:
		return nil, false, nil
	}

	var equipment models.Equipment
	err := l.db.GetContext(ctx, &equipment, query, ref.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to look up %s: %w", ref.String(), err)
	}
	equipment.UpdatedAt = equipment.UpdatedAt.UTC()
	return &equipment, true, nil
}
