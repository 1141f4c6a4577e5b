package ports

import (
	"context"
)

// DatabaseType represents the type of database backend
type DatabaseType string

const (
	DatabaseTypeMemory     DatabaseType = "memory"
	DatabaseTypePostgreSQL DatabaseType = "postgres"
)

// PerformanceStoreType selects where performance snapshots are kept
type PerformanceStoreType string

const (
	PerformanceStorePrimary PerformanceStoreType = "primary" // same database as the engine
	PerformanceStoreMongoDB PerformanceStoreType = "mongodb"
)

// DatabaseAdapter defines the unified interface for database operations
type DatabaseAdapter interface {
	// Connect establishes a connection to the database
	Connect(ctx context.Context) error

	// Disconnect closes the database connection
	Disconnect(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// GetType returns the database type
	GetType() DatabaseType

	// BeginTransaction starts a read-write transaction. Every engine mutation and its
	// rollup run inside one.
	BeginTransaction(ctx context.Context) (Transaction, error)

	// BeginReadOnly starts a transaction over a consistent snapshot that takes no
	// row locks, for long-running reads such as the performance batch.
	BeginReadOnly(ctx context.Context) (Transaction, error)

	// Repository factory methods, outside any transaction
	GetInspectionRepository() InspectionRepository
	GetTemplateRepository() TemplateRepository
	GetPerformanceRepository() PerformanceRepository
	GetUserDirectory() UserDirectory
	GetEquipmentLookup() EquipmentLookup

	// Health
	HealthCheck(ctx context.Context) error
	GetConnectionStats() ConnectionStats
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction. It is a no-op after Commit.
	Rollback(ctx context.Context) error

	GetInspectionRepository() InspectionRepository
	GetTaskRepository() TaskRepository
	GetSubTaskRepository() SubTaskRepository
	GetResultRepository() ResultRepository
	GetTemplateRepository() TemplateRepository
	GetHistoryRepository() HistoryRepository
	GetMaintenanceRepository() MaintenanceRepository
}

// ConnectionStats provides database connection statistics
type ConnectionStats struct {
	OpenConnections  int    `json:"open_connections"`
	IdleConnections  int    `json:"idle_connections"`
	MaxConnections   int    `json:"max_connections"`
	DatabaseType     string `json:"database_type"`
	ConnectionString string `json:"connection_string"` // Sanitized, without credentials
	Healthy          bool   `json:"healthy"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type           DatabaseType    `yaml:"type" json:"type"`
	PostgresConfig *PostgresConfig `yaml:"postgres,omitempty" json:"postgres,omitempty"`
}

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	Host            string `yaml:"host" json:"host"`
	Port            int    `yaml:"port" json:"port"`
	User            string `yaml:"user" json:"user"`
	Password        string `yaml:"password" json:"password"`
	Database        string `yaml:"database" json:"database"`
	SSLMode         string `yaml:"ssl_mode" json:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`   // in seconds
	ConnMaxIdleTime int    `yaml:"conn_max_idle_time" json:"conn_max_idle_time"` // in seconds
	QueryTimeout    int    `yaml:"query_timeout" json:"query_timeout"`           // in seconds
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI             string `yaml:"uri" json:"uri"`
	Database        string `yaml:"database" json:"database"`
	Collection      string `yaml:"collection" json:"collection"`
	MaxPoolSize     int    `yaml:"max_pool_size" json:"max_pool_size"`
	MinPoolSize     int    `yaml:"min_pool_size" json:"min_pool_size"`
	MaxConnIdleTime int    `yaml:"max_conn_idle_time" json:"max_conn_idle_time"` // in seconds
	ServerTimeout   int    `yaml:"server_timeout" json:"server_timeout"`         // in seconds
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version     int64  `json:"version"`
	Description string `json:"description"`
	Applied     bool   `json:"applied"`
	AppliedAt   string `json:"applied_at,omitempty"`
}
