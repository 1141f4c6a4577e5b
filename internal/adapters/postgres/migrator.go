package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/hsdfat8/drivetrack/internal/logger"
	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schemaFS embed.FS

const (
	initialSchema     = "initial_schema"
	templateDateIndex = "idx_inspections_template_date"
)

// RequiredTables lists every table schema.sql creates
var RequiredTables = []string{
	"users",
	"drives",
	"parts",
	"inspection_templates",
	"template_tasks",
	"template_sub_tasks",
	"inspections",
	"tasks",
	"sub_tasks",
	"task_results",
	"inspection_history",
	"maintenance_records",
	"operator_performance",
	"schema_migrations",
}

// Migrator handles database schema migrations
type Migrator struct {
	db  *sqlx.DB
	log logger.Logger
}

// NewMigrator creates a new database migrator
func NewMigrator(db *sqlx.DB) *Migrator {
	return &Migrator{db: db, log: logger.Log}
}

// Migrate runs all necessary database migrations
func (m *Migrator) Migrate(ctx context.Context) error {
	m.log.Infow("Starting database migration")

	// Create migration tracking table if it doesn't exist
	if err := m.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	// Check if schema has already been applied
	applied, err := m.isMigrationApplied(ctx, initialSchema)
	if err != nil {
		return fmt.Errorf("failed to check migration status: %w", err)
	}

	if applied {
		m.log.Infow("Initial schema already applied, skipping", "migration", initialSchema)
		return nil
	}

	// Read and execute the schema.sql file
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}

	m.log.Infow("Applying initial schema", "bytes", len(schemaSQL))

	// Execute the schema in a transaction
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Execute the schema SQL
	if _, err := tx.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	// Record the migration
	if err := m.recordMigration(ctx, tx, initialSchema, "Applied initial inspection schema from schema.sql"); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	// Commit the transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	m.log.Infow("Database migration completed")
	return nil
}

// createMigrationTable creates the migrations tracking table
func (m *Migrator) createMigrationTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) NOT NULL UNIQUE,
			description TEXT,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			checksum VARCHAR(64)
		);
		CREATE INDEX IF NOT EXISTS idx_migrations_name ON schema_migrations(migration_name);
	`

	_, err := m.db.ExecContext(ctx, query)
	return err
}

// isMigrationApplied checks if a migration has already been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, migrationName string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM schema_migrations WHERE migration_name = $1`
	err := m.db.GetContext(ctx, &count, query, migrationName)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// recordMigration records a migration in the tracking table
func (m *Migrator) recordMigration(ctx context.Context, tx *sqlx.Tx, migrationName, description string) error {
	query := `
		INSERT INTO schema_migrations (migration_name, description, applied_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (migration_name) DO NOTHING
	`
	_, err := tx.ExecContext(ctx, query, migrationName, description, time.Now().UTC())
	return err
}

// GetMigrationStatus returns the status of all applied migrations
func (m *Migrator) GetMigrationStatus(ctx context.Context) ([]MigrationRecord, error) {
	var migrations []MigrationRecord
	query := `
		SELECT migration_name, description, applied_at
		FROM schema_migrations
		ORDER BY applied_at DESC
	`
	err := m.db.SelectContext(ctx, &migrations, query)
	return migrations, err
}

// MigrationRecord represents a migration record
type MigrationRecord struct {
	MigrationName string    `db:"migration_name"`
	Description   string    `db:"description"`
	AppliedAt     time.Time `db:"applied_at"`
}

// VerifySchema verifies that every table and the template instance index exist
func (m *Migrator) VerifySchema(ctx context.Context) error {
	m.log.Infow("Verifying database schema")

	for _, table := range RequiredTables {
		var exists bool
		query := `SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1)`
		if err := m.db.GetContext(ctx, &exists, query, table); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("table %s does not exist", table)
		}
		m.log.Debugw("Table exists", "table", table)
	}

	var indexed bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_indexes WHERE indexname = $1)`
	if err := m.db.GetContext(ctx, &indexed, query, templateDateIndex); err != nil {
		return fmt.Errorf("failed to check index %s: %w", templateDateIndex, err)
	}
	if !indexed {
		return fmt.Errorf("index %s does not exist", templateDateIndex)
	}

	m.log.Infow("Schema verification completed")
	return nil
}
