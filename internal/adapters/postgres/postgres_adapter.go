package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/ports"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresAdapter implements the DatabaseAdapter interface for PostgreSQL
type PostgresAdapter struct {
	db     *sqlx.DB
	config *ports.PostgresConfig
}

// NewPostgresAdapter creates a new PostgreSQL database adapter
func NewPostgresAdapter(config *ports.PostgresConfig) *PostgresAdapter {
	return &PostgresAdapter{
		config: config,
	}
}

// NewPostgresAdapterWithDB wraps an already open connection
func NewPostgresAdapterWithDB(db *sqlx.DB, config *ports.PostgresConfig) *PostgresAdapter {
	if config == nil {
		config = &ports.PostgresConfig{}
	}
	return &PostgresAdapter{db: db, config: config}
}

// DSN builds the lib/pq connection string
func DSN(config *ports.PostgresConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host,
		config.Port,
		config.User,
		config.Password,
		config.Database,
		config.SSLMode,
	)
}

// Connect establishes a connection to the PostgreSQL database
func (a *PostgresAdapter) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(ctx, "postgres", DSN(a.config))
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(a.config.MaxOpenConns)
	db.SetMaxIdleConns(a.config.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(a.config.ConnMaxLifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(a.config.ConnMaxIdleTime) * time.Second)

	a.db = db
	return nil
}

// DB exposes the underlying connection pool, for the migrator
func (a *PostgresAdapter) DB() *sqlx.DB {
	return a.db
}

// Disconnect closes the database connection
func (a *PostgresAdapter) Disconnect(ctx context.Context) error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (a *PostgresAdapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return fmt.Errorf("database not connected")
	}
	return a.db.PingContext(ctx)
}

// GetType returns the database type
func (a *PostgresAdapter) GetType() ports.DatabaseType {
	return ports.DatabaseTypePostgreSQL
}

// BeginTransaction starts a read-write transaction. Row locks taken through the
// GetForUpdate methods are held until it ends.
func (a *PostgresAdapter) BeginTransaction(ctx context.Context) (ports.Transaction, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &postgresTransaction{tx: tx}, nil
}

// BeginReadOnly starts a repeatable-read, read-only transaction: one consistent snapshot,
// no row locks
func (a *PostgresAdapter) BeginReadOnly(ctx context.Context) (ports.Transaction, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	tx, err := a.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	return &postgresTransaction{tx: tx}, nil
}

// GetInspectionRepository returns an auto-commit inspection repository
func (a *PostgresAdapter) GetInspectionRepository() ports.InspectionRepository {
	return NewInspectionRepository(a.db)
}

// GetTemplateRepository returns an auto-commit template repository
func (a *PostgresAdapter) GetTemplateRepository() ports.TemplateRepository {
	return NewTemplateRepository(a.db)
}

// GetPerformanceRepository returns the performance snapshot repository
func (a *PostgresAdapter) GetPerformanceRepository() ports.PerformanceRepository {
	return NewPerformanceRepository(a.db)
}

// GetUserDirectory returns the users table directory
func (a *PostgresAdapter) GetUserDirectory() ports.UserDirectory {
	return NewUserDirectory(a.db)
}

// GetEquipmentLookup returns the drives and parts lookup
func (a *PostgresAdapter) GetEquipmentLookup() ports.EquipmentLookup {
	return NewEquipmentLookup(a.db)
}

// HealthCheck performs a health check on the database
func (a *PostgresAdapter) HealthCheck(ctx context.Context) error {
	if err := a.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	// Test a simple query
	var result int
	err := a.db.GetContext(ctx, &result, "SELECT 1")
	if err != nil {
		return fmt.Errorf("health check query failed: %w", err)
	}

	return nil
}

// GetConnectionStats returns database connection statistics
func (a *PostgresAdapter) GetConnectionStats() ports.ConnectionStats {
	stats := ports.ConnectionStats{
		MaxConnections:   a.config.MaxOpenConns,
		DatabaseType:     string(ports.DatabaseTypePostgreSQL),
		ConnectionString: fmt.Sprintf("%s:%d/%s", a.config.Host, a.config.Port, a.config.Database),
	}
	if a.db == nil {
		return stats
	}
	dbStats := a.db.Stats()
	stats.OpenConnections = dbStats.OpenConnections
	stats.IdleConnections = dbStats.Idle
	stats.Healthy = a.Ping(context.Background()) == nil
	return stats
}

// postgresTransaction implements the Transaction interface.
// Repositories are built lazily over the same *sqlx.Tx.
type postgresTransaction struct {
	tx   *sqlx.Tx
	done bool
}

// Commit commits the transaction
func (t *postgresTransaction) Commit(ctx context.Context) error {
	t.done = true
	return t.tx.Commit()
}

// Rollback rolls back the transaction. It is a no-op once the transaction has ended.
func (t *postgresTransaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (t *postgresTransaction) GetInspectionRepository() ports.InspectionRepository {
	return NewInspectionRepository(t.tx)
}

func (t *postgresTransaction) GetTaskRepository() ports.TaskRepository {
	return NewTaskRepository(t.tx)
}

func (t *postgresTransaction) GetSubTaskRepository() ports.SubTaskRepository {
	return NewSubTaskRepository(t.tx)
}

func (t *postgresTransaction) GetResultRepository() ports.ResultRepository {
	return NewResultRepository(t.tx)
}

func (t *postgresTransaction) GetTemplateRepository() ports.TemplateRepository {
	return NewTemplateRepository(t.tx)
}

func (t *postgresTransaction) GetHistoryRepository() ports.HistoryRepository {
	return NewHistoryRepository(t.tx)
}

func (t *postgresTransaction) GetMaintenanceRepository() ports.MaintenanceRepository {
	return NewMaintenanceRepository(t.tx)
}
